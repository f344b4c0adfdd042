package kspo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// FlexInt accepts both json numbers and numeric strings, the portal
// is inconsistent about which one its counters come back as.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*n = 0
		return nil
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("flexible int %q: %w", text, err)
	}
	*n = FlexInt(value)
	return nil
}

// TimeSlot is one court-hour in the availability grid.
type TimeSlot struct {
	CourtNo FlexInt `json:"court_no"`
	// "HH:mm"
	Start string `json:"startT"`
	End   string `json:"endT"`
	// capacity accounting: what's left is the total minus everything
	// already taken in one state or another
	Total      FlexInt `json:"totCnt"`
	Finished   FlexInt `json:"endCnt"`
	InProgress FlexInt `json:"progCnt"`
	Others     FlexInt `json:"othersCnt"`
	Usable     string  `json:"useYn"`
}

func (s TimeSlot) Remaining() int {
	return int(s.Total - s.Finished - s.InProgress - s.Others)
}

func (s TimeSlot) Open() bool {
	return s.Usable == "Y" && s.Remaining() > 0
}

func (s TimeSlot) StartHour() int {
	hour, _, ok := strings.Cut(s.Start, ":")
	if !ok {
		return -1
	}
	value, err := strconv.Atoi(hour)
	if err != nil {
		return -1
	}
	return value
}

type timeListResponse struct {
	Slots []TimeSlot `json:"time_list"`
}

// TimeList fetches the availability grid for a day. date is the plain
// "YYYYMMDD" day, dateToken is the CalendarDay.DateToken for the same
// day, courtNo 0 means all courts.
func (c *Client) TimeList(ctx context.Context, date, dateToken string, courtNo int) ([]TimeSlot, error) {
	ctx, span := tracer.Start(ctx, "TimeList")
	defer span.End()

	params := map[string]string{
		"search_date":  date,
		"search_gubun": "date",
		"search_xdate": dateToken,
	}
	if courtNo > 0 {
		params["court_no"] = strconv.Itoa(courtNo)
	}
	res, err := c.apiRequest(ctx).
		SetQueryParams(params).
		Get(c.endpoint("tennis_mtime_list.do"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "time list request failed")
		return nil, err
	}

	var body timeListResponse
	err = decodeApiResponse(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode time list")
		return nil, err
	}
	return body.Slots, nil
}
