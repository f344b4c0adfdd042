package kspo

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ValidityError is a rejection from the basket insert api. The portal
// reports the reason as a numeric code.
type ValidityError struct {
	Code    int
	Message string
}

var validityMessages = map[int]string{
	1: "an unpaid reservation is already sitting in the basket",
	2: "the request exceeds the 2 hour limit",
	3: "the request exceeds the 2 hour limit",
	4: "the request exceeds the 2 hour limit",
	5: "another user is holding this slot",
	6: "this slot is already reserved",
	7: "this day is outside the reservation window",
	8: "the portal is inside its settlement window (23:50~00:10)",
	9: "another user is holding this slot",
}

func (e *ValidityError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("basket rejected (code %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("basket rejected with unknown code %d", e.Code)
}

// SlotTaken reports whether the rejection only concerns this specific
// slot, meaning another court or hour is still worth trying.
func (e *ValidityError) SlotTaken() bool {
	switch e.Code {
	case 5, 6, 9:
		return true
	}
	return false
}

// Fatal reports whether retrying anything at all this run is
// pointless.
func (e *ValidityError) Fatal() bool {
	switch e.Code {
	case 1, 7, 8:
		return true
	}
	return false
}

// BasketRequest reserves a contiguous run of hours on one court. The
// portal wants every hour listed separately in parallel start/end
// arrays.
type BasketRequest struct {
	// CalendarDay.DateToken of the target day
	DateToken string
	// yyyyMMdd, the portal double-checks it against the token
	Date       string
	CourtNo    int
	StartTimes []string
	EndTimes   []string
	Captcha    string
}

type basketReservation struct {
	CourtNo    string   `json:"court_no"`
	StartTimes []string `json:"start_t_array"`
	EndTimes   []string `json:"end_t_array"`
}

type basketPayload struct {
	SearchDate  string              `json:"search_date"`
	SearchDateA string              `json:"search_date_a"`
	Captcha     string              `json:"captcha"`
	Courts      []basketReservation `json:"reservations"`
}

type basketResponse struct {
	Validity int    `json:"validity_no"`
	Message  string `json:"message"`
}

// InsertBasket puts the requested hours in the shopping basket, which
// is what actually claims the slot. Payment happens later on the
// portal itself.
func (c *Client) InsertBasket(ctx context.Context, req BasketRequest) error {
	ctx, span := tracer.Start(ctx, "InsertBasket")
	defer span.End()
	span.SetAttributes(
		attribute.Int("court", req.CourtNo),
		attribute.StringSlice("start_times", req.StartTimes),
	)

	res, err := c.apiRequest(ctx).
		SetHeader("content-type", "application/json; charset=UTF-8").
		SetBody(basketPayload{
			SearchDate:  req.DateToken,
			SearchDateA: req.Date,
			Captcha:     req.Captcha,
			Courts: []basketReservation{{
				CourtNo:    strconv.Itoa(req.CourtNo),
				StartTimes: req.StartTimes,
				EndTimes:   req.EndTimes,
			}},
		}).
		Post(c.endpoint("tennis_basket_ins.do"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "basket insert request failed")
		return err
	}

	var body basketResponse
	err = decodeApiResponse(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode basket response")
		return err
	}
	if body.Validity != 0 {
		err = &ValidityError{
			Code:    body.Validity,
			Message: validityMessage(body.Validity, body.Message),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "basket rejected")
		return err
	}
	return nil
}

func validityMessage(code int, fallback string) string {
	if message, ok := validityMessages[code]; ok {
		return message
	}
	return fallback
}

// BasketItem is one claimed slot as the portal's basket page reports
// it.
type BasketItem struct {
	CourtNo FlexInt `json:"court_no"`
	Date    string  `json:"use_date"`
	Start   string  `json:"startT"`
	End     string  `json:"endT"`
}

type basketListResponse struct {
	Items []BasketItem `json:"basket_list"`
}

// Basket lists what is currently claimed, used to double-check a
// successful insert before celebrating.
func (c *Client) Basket(ctx context.Context) ([]BasketItem, error) {
	ctx, span := tracer.Start(ctx, "Basket")
	defer span.End()

	res, err := c.apiRequest(ctx).
		Get(c.endpoint("tennis_mbasket_list.do"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "basket list request failed")
		return nil, err
	}

	var body basketListResponse
	err = decodeApiResponse(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode basket list")
		return nil, err
	}
	return body.Items, nil
}

// CaptchaImage fetches a fresh captcha for the current session. Every
// fetch rotates the expected answer, so solve the bytes you get.
func (c *Client) CaptchaImage(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "CaptchaImage")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.base.String()).
		Get(c.siblingEndpoint("captcha.do"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "captcha request failed")
		return nil, err
	}
	if len(res.Body()) == 0 {
		err = fmt.Errorf("portal returned an empty captcha image")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.Body(), nil
}
