package reservation

import (
	"context"
	"testing"
	"time"

	"courtsched/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestNextOpenInstant(t *testing.T) {
	morning := time.Date(2026, 9, 2, 7, 30, 0, 0, timezone.Location)
	open := NextOpenInstant(morning, 9, 0)
	require.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, timezone.Location), open)

	afternoon := time.Date(2026, 9, 2, 14, 0, 0, 0, timezone.Location)
	open = NextOpenInstant(afternoon, 9, 0)
	require.Equal(t, time.Date(2026, 9, 3, 9, 0, 0, 0, timezone.Location), open)

	exactlyNine := time.Date(2026, 9, 2, 9, 0, 0, 0, timezone.Location)
	open = NextOpenInstant(exactlyNine, 9, 0)
	require.Equal(t, time.Date(2026, 9, 3, 9, 0, 0, 0, timezone.Location), open)

	// a UTC instant still resolves against the portal's wall clock
	utc := time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC) // 10:00 KST
	open = NextOpenInstant(utc, 9, 0)
	require.Equal(t, time.Date(2026, 9, 3, 9, 0, 0, 0, timezone.Location), open)

	// a non-default opening time
	open = NextOpenInstant(morning, 7, 30)
	require.Equal(t, time.Date(2026, 9, 3, 7, 30, 0, 0, timezone.Location), open)
}

func TestWaitUntilOpen(t *testing.T) {
	target := time.Now().Add(200 * time.Millisecond)
	start := time.Now()
	err := WaitUntilOpen(context.Background(), target, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestWaitUntilOpenWithOffset(t *testing.T) {
	// the portal clock runs a second ahead so the wait should end a
	// second early in local terms
	target := time.Now().Add(time.Second + 100*time.Millisecond)
	start := time.Now()
	err := WaitUntilOpen(context.Background(), target, time.Second)
	require.NoError(t, err)
	elapsed := time.Since(start)
	require.Less(t, elapsed, 500*time.Millisecond)
	require.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestWaitUntilOpenHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := WaitUntilOpen(ctx, time.Now().Add(time.Hour), 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
