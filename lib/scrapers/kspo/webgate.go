package kspo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// EnterReservation loads the tennis reservation page until the portal
// actually serves it. Around the 9am opening the page sits behind a
// WebGate waiting room that returns queue markup instead, holding the
// session cookies and retrying is what moves us through the queue.
// The real page is recognized by its date tab bar.
func (c *Client) EnterReservation(ctx context.Context, deadline time.Duration) error {
	ctx, span := tracer.Start(ctx, "EnterReservation")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var attempts int
	for {
		attempts++
		res, err := c.Http.R().
			SetContext(ctx).
			Get(c.endpoint("tennis_mreserve_time.do"))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to get reservation page")
			return err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse reservation page")
			return err
		}
		if doc.Find("#tab_by_date").Length() > 0 {
			return nil
		}
		if doc.Find("input[name=login_id]").Length() > 0 {
			span.SetStatus(codes.Error, "redirected back to login")
			return SessionExpired
		}

		slog.DebugContext(ctx, "still queued at webgate", "attempts", attempts)
		select {
		case <-ctx.Done():
			span.SetStatus(codes.Error, "gave up waiting for the reservation page")
			return fmt.Errorf("reservation page did not open after %d attempts: %w", attempts, ctx.Err())
		case <-time.After(time.Second):
		}
	}
}
