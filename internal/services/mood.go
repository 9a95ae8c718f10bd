package services

import (
	"context"
	"strings"
	"time"

	"github.com/arunsharma1203/grievance/internal/model"
	"github.com/arunsharma1203/grievance/internal/store"
	"github.com/arunsharma1203/grievance/internal/validate"
)

type MoodService struct {
	store store.Store
	relay *Relay
	now   func() time.Time
}

func NewMoodService(s store.Store, relay *Relay) *MoodService {
	return &MoodService{store: s, relay: relay, now: time.Now}
}

// Create validates, persists and relays a mood rating.
func (s *MoodService) Create(ctx context.Context, username string, value int) (*model.Mood, Delivery, error) {
	username = strings.TrimSpace(username)
	if err := validate.CreateMood(username, value); err != nil {
		return nil, Delivery{}, err
	}
	m, err := s.store.Moods().Create(ctx, &model.Mood{Username: username, Value: value, CreatedAt: s.now()})
	if err != nil {
		return nil, Delivery{}, err
	}

	rctx, cancel := relayContext(ctx, DefaultRelayTimeout)
	defer cancel()
	d := s.relay.Deliver(rctx, moodNotice(m))
	countSubmission("mood", d)
	return m, d, nil
}

// Latest returns the newest mood, optionally for one user.
func (s *MoodService) Latest(ctx context.Context, username string) (*model.Mood, error) {
	return s.store.Moods().Latest(ctx, strings.TrimSpace(username))
}

// List returns every mood, newest first.
func (s *MoodService) List(ctx context.Context) ([]*model.Mood, error) {
	return s.store.Moods().List(ctx, 0)
}
