package reservation

import (
	"testing"

	"courtsched/lib/scrapers/kspo"

	"github.com/stretchr/testify/require"
)

func slot(court int, start, end string, open bool) kspo.TimeSlot {
	usable := "Y"
	remaining := 1
	if !open {
		remaining = 0
	}
	return kspo.TimeSlot{
		CourtNo: kspo.FlexInt(court),
		Start:   start,
		End:     end,
		Total:   kspo.FlexInt(remaining),
		Usable:  usable,
	}
}

func TestFindWindowsPreferredCourts(t *testing.T) {
	slots := []kspo.TimeSlot{
		slot(5, "19:00", "20:00", false),
		slot(5, "20:00", "21:00", true),
		slot(6, "19:00", "20:00", true),
		slot(6, "20:00", "21:00", true),
		slot(7, "19:00", "20:00", true),
		slot(7, "20:00", "21:00", true),
	}
	windows := FindWindows(slots, Strategy{
		Name:      "indoor evening",
		Courts:    []int{5, 6, 7, 8},
		StartHour: 19,
		Hours:     2,
	})

	// court 5 is missing its 19:00 hour so only 6 and 7 qualify, in
	// preference order
	require.Len(t, windows, 2)
	require.Equal(t, 6, windows[0].CourtNo)
	require.Equal(t, 7, windows[1].CourtNo)
	require.Equal(t, []string{"19:00", "20:00"}, windows[0].StartTimes())
	require.Equal(t, []string{"20:00", "21:00"}, windows[0].EndTimes())
}

func TestFindWindowsAnyCourtPrefersLatest(t *testing.T) {
	slots := []kspo.TimeSlot{
		slot(3, "14:00", "15:00", true),
		slot(3, "15:00", "16:00", true),
		slot(9, "20:00", "21:00", true),
		slot(9, "21:00", "22:00", true),
		slot(12, "20:00", "21:00", true),
		slot(12, "21:00", "22:00", true),
	}
	windows := FindWindows(slots, Strategy{Name: "any", Hours: 2})

	require.Len(t, windows, 3)
	// latest start first, court number breaks the tie
	require.Equal(t, 9, windows[0].CourtNo)
	require.Equal(t, "20:00", windows[0].Slots[0].Start)
	require.Equal(t, 12, windows[1].CourtNo)
	require.Equal(t, 3, windows[2].CourtNo)
}

func TestFindWindowsPreferredCourtsAutoLatest(t *testing.T) {
	slots := []kspo.TimeSlot{
		slot(5, "14:00", "15:00", true),
		slot(5, "15:00", "16:00", true),
		slot(5, "19:00", "20:00", true),
		slot(5, "20:00", "21:00", true),
		slot(6, "18:00", "19:00", true),
		slot(6, "19:00", "20:00", true),
	}
	// no start hour: each preferred court contributes its latest
	// window, still in preference order
	windows := FindWindows(slots, Strategy{
		Name:   "preferred, latest window",
		Courts: []int{5, 6},
		Hours:  2,
	})

	require.Len(t, windows, 2)
	require.Equal(t, 5, windows[0].CourtNo)
	require.Equal(t, []string{"19:00", "20:00"}, windows[0].StartTimes())
	require.Equal(t, 6, windows[1].CourtNo)
	require.Equal(t, []string{"18:00", "19:00"}, windows[1].StartTimes())
}

func TestFindWindowsRequiresContiguousHours(t *testing.T) {
	slots := []kspo.TimeSlot{
		slot(5, "19:00", "20:00", true),
		// 20:00 is taken, so 19+21 must not pair up
		slot(5, "21:00", "22:00", true),
	}
	windows := FindWindows(slots, Strategy{Name: "any", Hours: 2})
	require.Empty(t, windows)
}

func TestFindWindowsIgnoresClosedSlots(t *testing.T) {
	slots := []kspo.TimeSlot{
		slot(5, "19:00", "20:00", false),
		slot(5, "20:00", "21:00", false),
	}
	windows := FindWindows(slots, Strategy{
		Name: "indoor", Courts: []int{5}, StartHour: 19, Hours: 2,
	})
	require.Empty(t, windows)
}

func TestWindowLabel(t *testing.T) {
	window := Window{CourtNo: 5, Slots: []kspo.TimeSlot{
		slot(5, "19:00", "20:00", true),
		slot(5, "20:00", "21:00", true),
	}}
	require.Equal(t, "court 5 19:00~21:00", window.Label())
}

func TestStrategyValidate(t *testing.T) {
	require.NoError(t, Strategy{Name: "x", Hours: 2}.Validate())
	require.Error(t, Strategy{Hours: 2}.Validate())
	require.Error(t, Strategy{Name: "x", Hours: 0}.Validate())
	require.Error(t, Strategy{Name: "x", Hours: 3}.Validate())
}
