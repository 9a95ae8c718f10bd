package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/api/respond"
	"github.com/arunsharma1203/grievance/internal/services"
)

type NotifyHandler struct {
	svc     *services.NotifyService
	maxBody int64
	log     zerolog.Logger
}

func NewNotifyHandler(svc *services.NotifyService, maxBody int64, log zerolog.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, maxBody: maxBody, log: log}
}

type notifyRequest struct {
	Username string `json:"username"`
}

// Login handles POST /notify. The notice is sent in the background.
func (h *NotifyHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	if err := h.svc.Login(req.Username); err != nil {
		respond.WriteServiceError(w, h.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}
