package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/api/respond"
	"github.com/arunsharma1203/grievance/internal/blob"
	"github.com/arunsharma1203/grievance/internal/services"
)

// multipart framing allowance on top of the file size cap
const multipartOverhead = 1 << 20

type AudioHandler struct {
	svc       *services.AudioService
	maxUpload int64
	log       zerolog.Logger
}

func NewAudioHandler(svc *services.AudioService, maxUpload int64, log zerolog.Logger) *AudioHandler {
	return &AudioHandler{svc: svc, maxUpload: maxUpload, log: log}
}

type uploadResponse struct {
	OK             bool               `json:"ok"`
	URL            string             `json:"url"`
	Filename       string             `json:"filename"`
	Size           int64              `json:"size"`
	TelegramFileID string             `json:"telegram_file_id,omitempty"`
	TelegramURL    string             `json:"telegram_url,omitempty"`
	Telegram       *services.Delivery `json:"telegram,omitempty"`
}

// Upload handles POST /upload-audio (multipart field "file").
// Relaying is on unless relay=false is given as a query parameter or as a
// form field preceding the file.
func (h *AudioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		respond.WriteBadRequest(w, "multipart/form-data body required")
		return
	}

	relay := parseRelay(r.URL.Query().Get("relay"), true)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			respond.WriteBadRequest(w, "file field is required")
			return
		}
		if err != nil {
			h.writeUploadError(w, err)
			return
		}

		switch part.FormName() {
		case "relay":
			v, _ := io.ReadAll(io.LimitReader(part, 16))
			relay = parseRelay(string(v), relay)
		case "file":
			if !audioContentType(part.Header.Get("Content-Type")) {
				respond.WriteError(w, http.StatusUnsupportedMediaType, "only audio uploads are accepted")
				return
			}
			up, err := h.svc.Upload(r.Context(), part, part.FileName(), relay)
			if err != nil {
				h.writeUploadError(w, err)
				return
			}
			resp := uploadResponse{OK: true, URL: up.URL, Filename: up.Blob.Name, Size: up.Blob.Size, Telegram: up.Delivery}
			if up.Delivery != nil {
				resp.TelegramFileID = up.Delivery.FileID
				resp.TelegramURL = up.Delivery.FileURL
			}
			respond.WriteJSON(w, http.StatusCreated, resp)
			return
		}
		_ = part.Close()
	}
}

func (h *AudioHandler) writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, blob.ErrTooLarge), errors.As(err, &tooLarge):
		respond.WriteError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
	case errors.Is(err, blob.ErrUnsupportedType):
		respond.WriteError(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		respond.WriteServiceError(w, h.log, err)
	}
}

// ResolveFile handles GET /telegram/file/{file_id}
func (h *AudioHandler) ResolveFile(w http.ResponseWriter, r *http.Request) {
	url, ok := h.svc.ResolveFile(r.Context(), mux.Vars(r)["file_id"])
	if !ok {
		respond.WriteNotFound(w, "file not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "url": url})
}

func parseRelay(v string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// Browsers label some recordings as video/webm or send no type at all;
// the extension check in the blob store has the final say.
func audioContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "audio/") || mt == "video/webm" || mt == "application/octet-stream"
}
