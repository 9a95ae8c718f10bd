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

type DiaryService struct {
	store      store.Store
	relay      *Relay
	publicBase string
	now        func() time.Time
}

func NewDiaryService(s store.Store, relay *Relay, publicBase string) *DiaryService {
	return &DiaryService{store: s, relay: relay, publicBase: publicBase, now: time.Now}
}

type CreateDiaryInput struct {
	Username       *string
	Title          *string
	Body           string
	AudioURL       string
	TelegramFileID string
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// Create validates, persists and relays a diary note.
func (s *DiaryService) Create(ctx context.Context, in CreateDiaryInput) (*model.DiaryNote, Delivery, error) {
	in.Username, in.Title = trimmedOrNil(in.Username), trimmedOrNil(in.Title)
	in.AudioURL = strings.TrimSpace(in.AudioURL)
	in.TelegramFileID = strings.TrimSpace(in.TelegramFileID)
	if err := validate.CreateDiary(in.Username, in.Title, in.Body, in.AudioURL, in.TelegramFileID); err != nil {
		return nil, Delivery{}, err
	}

	var saved *model.DiaryNote
	err := createWithFreshID(ident.New, func(id string) error {
		n, err := s.store.Diary().Create(ctx, &model.DiaryNote{
			ID:        id,
			Username:  in.Username,
			Title:     in.Title,
			Body:      strings.TrimSpace(in.Body),
			Media:     model.NewMedia(in.AudioURL, in.TelegramFileID),
			CreatedAt: s.now(),
		})
		saved = n
		return err
	})
	if err != nil {
		return nil, Delivery{}, err
	}

	rctx, cancel := relayContext(ctx, DefaultRelayTimeout)
	defer cancel()
	d := s.relay.Deliver(rctx, diaryNotice(s.publicBase, saved))
	countSubmission("diary", d)
	return saved, d, nil
}

// List returns the newest notes; limit is clamped to [1,100].
func (s *DiaryService) List(ctx context.Context, limit int) ([]*model.DiaryNote, error) {
	return s.store.Diary().List(ctx, model.ClampDiaryLimit(limit))
}

// Delete removes a note and reports whether it existed.
func (s *DiaryService) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.Diary().Delete(ctx, id)
}
