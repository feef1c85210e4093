package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayIndexOf(t *testing.T) {
	assert.Equal(t, int64(0), DayIndexOf(0))
	assert.Equal(t, int64(0), DayIndexOf(MillisPerDay-1))
	assert.Equal(t, int64(1), DayIndexOf(MillisPerDay))

	// 2023-11-14T22:13:20Z
	assert.Equal(t, int64(19675), DayIndexOf(1_700_000_000_000))

	// Two timestamps in the same UTC day share a bucket.
	assert.Equal(t, DayIndexOf(1_700_000_000_000), DayIndexOf(1_700_000_100_000))
}
