package reservation

import (
	"fmt"
	"testing"

	"courtsched/lib/scrapers/kspo"

	"github.com/stretchr/testify/require"
)

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{kspo.LoginFailed, FailureLogin},
		{fmt.Errorf("calendar: %w", kspo.SessionExpired), FailureSession},
		{&kspo.ValidityError{Code: 5, Message: "another user is holding this slot"}, FailureSlotsGone},
		{&kspo.ValidityError{Code: 6, Message: "this slot is already reserved"}, FailureSlotsGone},
		{&kspo.ValidityError{Code: 7, Message: "this day is outside the reservation window"}, FailureWindow},
		{&kspo.ValidityError{Code: 1, Message: "an unpaid reservation is already sitting in the basket"}, FailureBasket},
		{fmt.Errorf("the captcha answer was wrong"), FailureCaptcha},
		{fmt.Errorf("자동입력 방지문자가 일치하지 않습니다"), FailureCaptcha},
		{fmt.Errorf("dial tcp: connection refused"), FailureNetwork},
		{fmt.Errorf("something entirely new went wrong"), FailureUnknown},
		{nil, FailureUnknown},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ClassifyFailure(c.err), "error %v", c.err)
	}
}

func TestClassifyFailureFuzzy(t *testing.T) {
	// slightly different phrasing than the canonical message should
	// still land in the right bucket
	err := fmt.Errorf("connection was refused")
	require.Equal(t, FailureNetwork, ClassifyFailure(err))
}
