package kspo

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTimeSlotDecode(t *testing.T) {
	raw := `{"ss_check": 1, "time_list": [
		{"court_no": "7", "startT": "09:00", "endT": "10:00",
		 "totCnt": "1", "endCnt": 0, "progCnt": "0", "othersCnt": null, "useYn": "Y"},
		{"court_no": 12, "startT": "10:00", "endT": "11:00",
		 "totCnt": 2, "endCnt": "1", "progCnt": 1, "othersCnt": "0", "useYn": "Y"}
	]}`

	var body timeListResponse
	err := decodeApiResponse([]byte(raw), &body)
	require.NoError(t, err)

	expected := []TimeSlot{
		{CourtNo: 7, Start: "09:00", End: "10:00", Total: 1, Usable: "Y"},
		{CourtNo: 12, Start: "10:00", End: "11:00", Total: 2, Finished: 1, InProgress: 1, Usable: "Y"},
	}
	if diff := cmp.Diff(expected, body.Slots); diff != "" {
		t.Fatal(diff)
	}

	require.True(t, body.Slots[0].Open())
	require.False(t, body.Slots[1].Open())
}

func TestFlexIntRejectsGarbage(t *testing.T) {
	var n FlexInt
	err := json.Unmarshal([]byte(`"lots"`), &n)
	require.Error(t, err)
}

func TestStartHour(t *testing.T) {
	require.Equal(t, 9, TimeSlot{Start: "09:00"}.StartHour())
	require.Equal(t, 21, TimeSlot{Start: "21:00"}.StartHour())
	require.Equal(t, -1, TimeSlot{Start: "garbage"}.StartHour())
	require.Equal(t, -1, TimeSlot{}.StartHour())
}
