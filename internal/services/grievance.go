package services

import (
	"context"
	"strings"
	"time"

	"github.com/arunsharma1203/grievance/internal/ident"
	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/validate"
)

type GrievanceService struct {
	store      store.Store
	relay      *Relay
	publicBase string
	now        func() time.Time
}

func NewGrievanceService(s store.Store, relay *Relay, publicBase string) *GrievanceService {
	return &GrievanceService{store: s, relay: relay, publicBase: publicBase, now: time.Now}
}

// CreateGrievanceInput is the submitted payload.
type CreateGrievanceInput struct {
	Username       string
	Text           string
	AudioURL       string
	TelegramFileID string
}

// Create validates, persists and relays a grievance. A non-nil grievance means
// it was saved, whatever the Delivery reports.
func (s *GrievanceService) Create(ctx context.Context, in CreateGrievanceInput) (*model.Grievance, Delivery, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.AudioURL = strings.TrimSpace(in.AudioURL)
	in.TelegramFileID = strings.TrimSpace(in.TelegramFileID)
	if err := validate.CreateGrievance(in.Username, in.Text, in.AudioURL, in.TelegramFileID); err != nil {
		return nil, Delivery{}, err
	}

	var saved *model.Grievance
	err := createWithFreshID(ident.New, func(id string) error {
		g, err := s.store.Grievances().Create(ctx, &model.Grievance{
			ID:        id,
			Username:  in.Username,
			Text:      strings.TrimSpace(in.Text),
			Media:     model.NewMedia(in.AudioURL, in.TelegramFileID),
			CreatedAt: s.now(),
		})
		saved = g
		return err
	})
	if err != nil {
		return nil, Delivery{}, err
	}

	rctx, cancel := relayContext(ctx, DefaultRelayTimeout)
	defer cancel()
	d := s.relay.Deliver(rctx, grievanceNotice(s.publicBase, saved))
	countSubmission("grievance", d)
	return saved, d, nil
}

// List returns every grievance, oldest first.
func (s *GrievanceService) List(ctx context.Context) ([]*model.Grievance, error) {
	return s.store.Grievances().List(ctx)
}

// Get returns one grievance.
func (s *GrievanceService) Get(ctx context.Context, id string) (*model.Grievance, error) {
	return s.store.Grievances().Get(ctx, id)
}

// Reply records (or overwrites) the operator's answer.
func (s *GrievanceService) Reply(ctx context.Context, id, reply string) (*model.Grievance, error) {
	if err := validate.Reply(reply); err != nil {
		return nil, err
	}
	return s.store.Grievances().SetReply(ctx, id, strings.TrimSpace(reply), s.now())
}
