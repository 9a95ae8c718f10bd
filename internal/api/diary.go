package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/api/respond"
	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/services"
	"github.com/arunsharma1203/grievance/internal/validate"
)

type DiaryHandler struct {
	svc     *services.DiaryService
	maxBody int64
	log     zerolog.Logger
}

func NewDiaryHandler(svc *services.DiaryService, maxBody int64, log zerolog.Logger) *DiaryHandler {
	return &DiaryHandler{svc: svc, maxBody: maxBody, log: log}
}

type createDiaryRequest struct {
	Username       *string `json:"username"`
	Title          *string `json:"title"`
	Body           string  `json:"body"`
	AudioURL       string  `json:"audio_url"`
	TelegramFileID string  `json:"telegram_file_id"`
}

type createDiaryResponse struct {
	OK       bool              `json:"ok"`
	Note     *model.DiaryNote  `json:"note"`
	Telegram services.Delivery `json:"telegram"`
}

// Create handles POST /diary
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDiaryRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	n, d, err := h.svc.Create(r.Context(), services.CreateDiaryInput{
		Username:       req.Username,
		Title:          req.Title,
		Body:           req.Body,
		AudioURL:       req.AudioURL,
		TelegramFileID: req.TelegramFileID,
	})
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, createDiaryResponse{OK: true, Note: n, Telegram: d})
}

// List handles GET /diary?limit=
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	lst, err := h.svc.List(r.Context(), validate.DiaryLimit(r.URL.Query().Get("limit")))
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

// Delete handles DELETE /diary/{id}
func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existed, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	if !existed {
		respond.WriteNotFound(w, "diary note not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id})
}
