package reservation

import (
	"fmt"

	"courtsched/lib/scrapers/kspo"
)

// Strategy describes one way to pick a window on the newly opened
// day. Strategies are tried in order and the first window the portal
// accepts wins.
type Strategy struct {
	Name string `json:"name"`
	// courts in preference order, empty means any court
	Courts []int `json:"courts"`
	// first hour of the window, 0 means take the latest one that fits
	StartHour int `json:"start_hour"`
	// window length in hours
	Hours int `json:"hours"`
}

func (s Strategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy has no name")
	}
	if s.Hours < 1 {
		return fmt.Errorf("strategy %q: window must be at least 1 hour", s.Name)
	}
	// the portal caps a member at 2 hours a day
	if s.Hours > 2 {
		return fmt.Errorf("strategy %q: the portal caps windows at 2 hours", s.Name)
	}
	return nil
}

// DefaultStrategies mirrors how the courts at the park actually rank:
// the indoor courts go first, then the outdoor ones roughly by
// condition, then whatever is left.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name:      "indoor evening",
			Courts:    []int{5, 6, 7, 8},
			StartHour: 19,
			Hours:     2,
		},
		{
			Name:      "outdoor evening",
			Courts:    []int{19, 18, 2, 13, 17, 16, 15, 14, 12, 11, 10, 9, 4, 3},
			StartHour: 20,
			Hours:     2,
		},
		{
			Name:  "any court, latest window",
			Hours: 2,
		},
	}
}

// Window is a concrete run of open slots on one court, ready to be
// put in the basket.
type Window struct {
	CourtNo int
	Slots   []kspo.TimeSlot
}

func (w Window) StartTimes() []string {
	times := make([]string, len(w.Slots))
	for i, slot := range w.Slots {
		times[i] = slot.Start
	}
	return times
}

func (w Window) EndTimes() []string {
	times := make([]string, len(w.Slots))
	for i, slot := range w.Slots {
		times[i] = slot.End
	}
	return times
}

func (w Window) Label() string {
	if len(w.Slots) == 0 {
		return fmt.Sprintf("court %d", w.CourtNo)
	}
	return fmt.Sprintf("court %d %s~%s",
		w.CourtNo, w.Slots[0].Start, w.Slots[len(w.Slots)-1].End)
}
