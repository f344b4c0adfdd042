package kspo

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// CalendarDay is one day in the month view. The portal never sends
// the raw date back on writes, every mutation takes the opaque
// DateToken instead.
type CalendarDay struct {
	// yyyyMMdd
	Date string `json:"dDay"`
	// encrypted date blob, passed back verbatim as search_date
	DateToken string `json:"xDay"`
	// "Y" when the day is inside the booking window
	Reservable string `json:"checkDay"`
}

func (d CalendarDay) Open() bool {
	return d.Reservable == "Y"
}

type calendarResponse struct {
	Days []CalendarDay `json:"calendar_list"`
}

// Calendar fetches the month view containing searchDate (yyyyMMdd).
func (c *Client) Calendar(ctx context.Context, searchDate string) ([]CalendarDay, error) {
	ctx, span := tracer.Start(ctx, "Calendar")
	defer span.End()

	res, err := c.apiRequest(ctx).
		SetQueryParams(map[string]string{
			"search_gubun": "date",
			"search_date":  searchDate,
			"court_no":     "0",
		}).
		Get(c.endpoint("tennis_mcalendar_list.do"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "calendar request failed")
		return nil, err
	}

	var body calendarResponse
	err = decodeApiResponse(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode calendar")
		return nil, err
	}
	if len(body.Days) == 0 {
		err = fmt.Errorf("portal returned an empty calendar")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body.Days, nil
}

// LatestOpenDay returns the furthest-out reservable day, which is the
// day that just opened when called right after the booking window
// rolls over.
func LatestOpenDay(days []CalendarDay) (CalendarDay, bool) {
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Open() {
			return days[i], true
		}
	}
	return CalendarDay{}, false
}
