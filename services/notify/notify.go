// Package notify delivers the outcome of a reservation run to
// whoever cares, over a Slack webhook or plain email.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/notify")

// Message is one run outcome, already worded for humans.
type Message struct {
	Success bool
	Title   string
	Body    string
	// tail of the run's log, attached to failures so the webhook is
	// enough to diagnose without shelling into the box
	Logs string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to every configured channel and reports
// the failures joined together, one broken webhook should not silence
// the rest.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "Notify")
	defer span.End()

	var errs []error
	for _, notifier := range m {
		err := notifier.Notify(ctx, msg)
		if err != nil {
			slog.ErrorContext(ctx, "notifier failed", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
