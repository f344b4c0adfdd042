package reservation

import (
	"errors"
	"strings"

	"courtsched/lib/scrapers/kspo"

	"github.com/antzucaro/matchr"
)

// FailureKind buckets a failed run for the notification, so the
// message says "slots were gone" instead of dumping a raw portal
// error at whoever is on the other end of the webhook.
type FailureKind string

const (
	FailureLogin     FailureKind = "login failed"
	FailureSession   FailureKind = "session expired"
	FailureCaptcha   FailureKind = "captcha rejected"
	FailureSlotsGone FailureKind = "no slots left"
	FailureWindow    FailureKind = "outside the reservation window"
	FailureBasket    FailureKind = "blocked by an existing basket"
	FailureNetwork   FailureKind = "portal unreachable"
	FailureUnknown   FailureKind = "unknown failure"
)

// the portal's free-text messages drift between deployments, so after
// the exact checks fail we fuzzy-match against known phrasings
var failurePhrases = map[FailureKind][]string{
	FailureCaptcha: {
		"captcha does not match",
		"wrong security code",
		"자동입력 방지문자가 일치하지 않습니다",
	},
	FailureSlotsGone: {
		"another user is holding this slot",
		"this slot is already reserved",
	},
	FailureWindow: {
		"this day is outside the reservation window",
		"the portal is inside its settlement window",
	},
	FailureNetwork: {
		"connection refused",
		"connection reset by peer",
		"context deadline exceeded",
		"no such host",
	},
}

const phraseSimilarityFloor = 0.88

// ClassifyFailure maps an error from a run to a FailureKind.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}

	if errors.Is(err, kspo.LoginFailed) {
		return FailureLogin
	}
	if errors.Is(err, kspo.SessionExpired) {
		return FailureSession
	}

	var validity *kspo.ValidityError
	if errors.As(err, &validity) {
		switch {
		case validity.SlotTaken():
			return FailureSlotsGone
		case validity.Code == 1:
			return FailureBasket
		case validity.Fatal():
			return FailureWindow
		}
	}

	text := strings.ToLower(err.Error())
	if strings.Contains(text, "captcha") || strings.Contains(text, "자동입력") {
		return FailureCaptcha
	}
	for kind, phrases := range failurePhrases {
		for _, phrase := range phrases {
			if strings.Contains(text, strings.ToLower(phrase)) {
				return kind
			}
		}
	}

	bestKind := FailureUnknown
	bestScore := phraseSimilarityFloor
	for kind, phrases := range failurePhrases {
		for _, phrase := range phrases {
			score := matchr.JaroWinkler(text, strings.ToLower(phrase), false)
			if score > bestScore {
				bestScore = score
				bestKind = kind
			}
		}
	}
	return bestKind
}
