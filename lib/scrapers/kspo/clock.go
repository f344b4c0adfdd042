package kspo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// ServerTimeOffset estimates how far the portal's clock is from ours
// by sampling the Date header. Each sample compares the header to the
// midpoint of the request, and the signed minimum across samples wins
// so the wait never fires before the portal's clock actually reaches
// the open. The result is what to add to local time to get portal
// time.
func (c *Client) ServerTimeOffset(ctx context.Context, samples int) (time.Duration, error) {
	ctx, span := tracer.Start(ctx, "ServerTimeOffset")
	defer span.End()

	if samples < 1 {
		samples = 1
	}

	var best time.Duration
	var got bool
	for i := 0; i < samples; i++ {
		before := time.Now()
		res, err := c.Http.R().
			SetContext(ctx).
			Head(c.base.String())
		if err != nil {
			span.RecordError(err)
			continue
		}
		after := time.Now()

		serverTime, err := http.ParseTime(res.Header().Get("Date"))
		if err != nil {
			span.RecordError(err)
			continue
		}

		midpoint := before.Add(after.Sub(before) / 2)
		offset := serverTime.Sub(midpoint)
		if !got || offset < best {
			best = offset
			got = true
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Millisecond * 50):
		}
	}
	if !got {
		err := fmt.Errorf("portal never returned a usable Date header")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return best, nil
}
