// Package services holds the submission use cases: validate, persist, then relay.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/arunsharma1203/grievance/internal/metrics"
	"github.com/arunsharma1203/grievance/internal/model"
)

// createAttempts bounds identity regeneration after a key conflict.
const createAttempts = 3

// createWithFreshID retries create with a new identity when the store reports a conflict.
func createWithFreshID(newID func() string, create func(id string) error) error {
	var err error
	for i := 0; i < createAttempts; i++ {
		if err = create(newID()); !errors.Is(err, model.ErrConflict) {
			return err
		}
	}
	return err
}

// relayContext detaches delivery from the request so a disconnecting client
// does not abort a notification for data that is already saved.
func relayContext(ctx context.Context, bound time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bound)
}

// DefaultRelayTimeout bounds the whole delivery of one submission.
const DefaultRelayTimeout = 60 * time.Second

func countSubmission(kind string, d Delivery) {
	metrics.Submissions.WithLabelValues(kind, string(d.Strategy)).Inc()
}
