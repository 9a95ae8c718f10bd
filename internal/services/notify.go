package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arunsharma1203/grievance/internal/validate"
)

// NotifyService sends fire-and-forget login broadcasts.
type NotifyService struct {
	relay   *Relay
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewNotifyService(relay *Relay, log zerolog.Logger) *NotifyService {
	return &NotifyService{relay: relay, log: log, timeout: DefaultRelayTimeout, now: time.Now}
}

// Login validates username and broadcasts the login notice in the background.
func (s *NotifyService) Login(username string) error {
	username = strings.TrimSpace(username)
	if err := validate.NonEmpty("username", username); err != nil {
		return err
	}
	if err := validate.MaxLen("username", username, validate.MaxUsernameLen); err != nil {
		return err
	}
	notice := loginNotice(username, s.now())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		d := s.relay.Deliver(ctx, notice)
		countSubmission("login", d)
		if !d.OK {
			s.log.Warn().Str("username", username).Str("error", d.Error).Msg("login notification not delivered")
		}
	}()
	return nil
}

// Wait blocks until in-flight notifications finish.
func (s *NotifyService) Wait() { s.wg.Wait() }
