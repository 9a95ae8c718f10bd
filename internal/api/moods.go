package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/api/respond"
	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/services"
	"github.com/arunsharma1203/grievance/internal/validate"
)

type MoodHandler struct {
	svc     *services.MoodService
	maxBody int64
	log     zerolog.Logger
}

func NewMoodHandler(svc *services.MoodService, maxBody int64, log zerolog.Logger) *MoodHandler {
	return &MoodHandler{svc: svc, maxBody: maxBody, log: log}
}

type createMoodRequest struct {
	Username string          `json:"username"`
	Value    json.RawMessage `json:"value"`
}

type createMoodResponse struct {
	OK       bool              `json:"ok"`
	Mood     *model.Mood       `json:"mood"`
	Telegram services.Delivery `json:"telegram"`
}

// Create handles POST /mood
func (h *MoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMoodRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	value, err := validate.MoodValue(req.Value)
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	m, d, err := h.svc.Create(r.Context(), req.Username, value)
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, createMoodResponse{OK: true, Mood: m, Telegram: d})
}

// List handles GET /moods
func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	lst, err := h.svc.List(r.Context())
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

// Latest handles GET /mood/latest?username=
func (h *MoodHandler) Latest(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Latest(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}
