package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/api/respond"
	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/services"
)

type GrievanceHandler struct {
	svc     *services.GrievanceService
	maxBody int64
	log     zerolog.Logger
}

func NewGrievanceHandler(svc *services.GrievanceService, maxBody int64, log zerolog.Logger) *GrievanceHandler {
	return &GrievanceHandler{svc: svc, maxBody: maxBody, log: log}
}

type createGrievanceRequest struct {
	Username       string `json:"username"`
	Text           string `json:"text"`
	AudioURL       string `json:"audio_url"`
	TelegramFileID string `json:"telegram_file_id"`
}

type createGrievanceResponse struct {
	OK        bool              `json:"ok"`
	Grievance *model.Grievance  `json:"grievance"`
	Telegram  services.Delivery `json:"telegram"`
}

// Create handles POST /grievances
func (h *GrievanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGrievanceRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	g, d, err := h.svc.Create(r.Context(), services.CreateGrievanceInput{
		Username:       req.Username,
		Text:           req.Text,
		AudioURL:       req.AudioURL,
		TelegramFileID: req.TelegramFileID,
	})
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, createGrievanceResponse{OK: true, Grievance: g, Telegram: d})
}

// List handles GET /grievances
func (h *GrievanceHandler) List(w http.ResponseWriter, r *http.Request) {
	lst, err := h.svc.List(r.Context())
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

// Get handles GET /grievances/{id}
func (h *GrievanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, g)
}

type replyRequest struct {
	Reply string `json:"reply"`
}

// Reply handles POST /grievances/{id}/reply
func (h *GrievanceHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req replyRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	g, err := h.svc.Reply(r.Context(), id, req.Reply)
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, g)
}
