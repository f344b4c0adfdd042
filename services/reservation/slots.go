package reservation

import (
	"sort"

	"courtsched/lib/scrapers/kspo"
)

// FindWindows turns the day's availability grid into the ordered list
// of windows a strategy would try. Candidates on preferred courts
// come out in court order, the any-court case comes out latest window
// first since a later slot is worth more on a work day.
func FindWindows(slots []kspo.TimeSlot, strategy Strategy) []Window {
	byCourt := map[int][]kspo.TimeSlot{}
	for _, slot := range slots {
		if !slot.Open() {
			continue
		}
		court := int(slot.CourtNo)
		byCourt[court] = append(byCourt[court], slot)
	}
	for court := range byCourt {
		sort.Slice(byCourt[court], func(i, j int) bool {
			return byCourt[court][i].StartHour() < byCourt[court][j].StartHour()
		})
	}

	if len(strategy.Courts) > 0 {
		var windows []Window
		for _, court := range strategy.Courts {
			var window []kspo.TimeSlot
			var ok bool
			if strategy.StartHour == 0 {
				window, ok = latestWindow(byCourt[court], strategy.Hours)
			} else {
				window, ok = windowAt(byCourt[court], strategy.StartHour, strategy.Hours)
			}
			if ok {
				windows = append(windows, Window{CourtNo: court, Slots: window})
			}
		}
		return windows
	}

	// any court: collect the latest window per court, then order
	// across courts by start hour descending
	var windows []Window
	for court, courtSlots := range byCourt {
		window, ok := latestWindow(courtSlots, strategy.Hours)
		if ok {
			windows = append(windows, Window{CourtNo: court, Slots: window})
		}
	}
	sort.Slice(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if a.Slots[0].StartHour() != b.Slots[0].StartHour() {
			return a.Slots[0].StartHour() > b.Slots[0].StartHour()
		}
		return a.CourtNo < b.CourtNo
	})
	return windows
}

// windowAt finds `hours` contiguous open slots starting exactly at
// startHour on one court's sorted slots.
func windowAt(slots []kspo.TimeSlot, startHour, hours int) ([]kspo.TimeSlot, bool) {
	for i := range slots {
		if slots[i].StartHour() != startHour {
			continue
		}
		return contiguousRun(slots, i, hours)
	}
	return nil, false
}

// latestWindow finds the contiguous run of `hours` with the latest
// start on one court's sorted slots.
func latestWindow(slots []kspo.TimeSlot, hours int) ([]kspo.TimeSlot, bool) {
	for i := len(slots) - 1; i >= 0; i-- {
		run, ok := contiguousRun(slots, i, hours)
		if ok {
			return run, true
		}
	}
	return nil, false
}

func contiguousRun(slots []kspo.TimeSlot, start, hours int) ([]kspo.TimeSlot, bool) {
	if start+hours > len(slots) {
		return nil, false
	}
	run := slots[start : start+hours]
	for i := 1; i < len(run); i++ {
		if run[i].StartHour() != run[i-1].StartHour()+1 {
			return nil, false
		}
	}
	return run, true
}
