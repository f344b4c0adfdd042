package reservation

import (
	"context"
	"log/slog"
	"time"

	"courtsched/lib/timezone"
)

// NextOpenInstant returns the next rollover of the booking window in
// portal time, today's if it has not passed yet. The KSPO portals
// open at 9am but the hour is configurable.
func NextOpenInstant(now time.Time, hour, minute int) time.Time {
	now = now.In(timezone.Location)
	open := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, timezone.Location)
	if !now.Before(open) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

// WaitUntilOpen sleeps until `target` on the portal's clock. offset
// is what ServerTimeOffset measured, added to local time to get
// portal time. The wait is coarse until 10 seconds out, then spins on
// a short tick so the first calendar request lands right on the
// rollover.
func WaitUntilOpen(ctx context.Context, target time.Time, offset time.Duration) error {
	portalNow := func() time.Time { return time.Now().Add(offset) }

	coarse := target.Sub(portalNow()) - 10*time.Second
	if coarse > 0 {
		slog.InfoContext(ctx, "waiting for the booking window",
			"opens_at", target, "sleeping", coarse.Round(time.Second))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(coarse):
		}
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for portalNow().Before(target) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
