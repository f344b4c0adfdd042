package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	require.NotNil(t, Location)

	// KST has no daylight saving, the offset is always +9
	_, offset := time.Date(2025, 1, 6, 9, 0, 0, 0, Location).Zone()
	require.Equal(t, 9*60*60, offset)
	_, offset = time.Date(2025, 7, 6, 9, 0, 0, 0, Location).Zone()
	require.Equal(t, 9*60*60, offset)
}

func TestNow(t *testing.T) {
	require.Equal(t, Location, Now().Location())
}
