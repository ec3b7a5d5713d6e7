package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2026, 9, day, hour, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	t.Run("ValidRange", func(t *testing.T) {
		iv, err := New(at(10, 0), at(12, 0))
		require.NoError(t, err)
		assert.Equal(t, at(10, 0), iv.Start)
		assert.Equal(t, at(12, 0), iv.End)
	})

	t.Run("NormalizesToUTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		iv, err := New(time.Date(2026, 9, 10, 12, 0, 0, 0, loc), at(12, 0))
		require.NoError(t, err)
		assert.Equal(t, time.UTC, iv.Start.Location())
		assert.Equal(t, at(10, 9), iv.Start)
	})

	t.Run("RejectsEqualBounds", func(t *testing.T) {
		_, err := New(at(10, 0), at(10, 0))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("RejectsInverted", func(t *testing.T) {
		_, err := New(at(12, 0), at(10, 0))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("RejectsZeroInstants", func(t *testing.T) {
		_, err := New(time.Time{}, at(10, 0))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestOverlaps(t *testing.T) {
	mk := func(startDay, endDay int) Interval {
		iv, err := New(at(startDay, 0), at(endDay, 0))
		require.NoError(t, err)
		return iv
	}

	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"DisjointBefore", mk(10, 12), mk(14, 16), false},
		{"DisjointAfter", mk(14, 16), mk(10, 12), false},
		{"PartialOverlap", mk(10, 14), mk(12, 16), true},
		{"Identical", mk(10, 14), mk(10, 14), true},
		{"Contained", mk(10, 20), mk(12, 14), true},
		{"Containing", mk(12, 14), mk(10, 20), true},
		// Bounds are inclusive: a rental ending at T blocks one starting at T.
		{"TouchingAtEnd", mk(10, 20), mk(20, 22), true},
		{"TouchingAtStart", mk(20, 22), mk(10, 20), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestDays(t *testing.T) {
	t.Run("WholeDays", func(t *testing.T) {
		iv, err := New(at(10, 0), at(13, 0))
		require.NoError(t, err)
		assert.Equal(t, 3, iv.Days())
	})

	t.Run("TruncatesPartialDay", func(t *testing.T) {
		iv, err := New(at(10, 0), at(13, 23))
		require.NoError(t, err)
		assert.Equal(t, 3, iv.Days())
	})

	t.Run("UnderOneDayIsZero", func(t *testing.T) {
		iv, err := New(at(10, 0), at(10, 23))
		require.NoError(t, err)
		assert.Equal(t, 0, iv.Days())
	})
}

func TestContainsInstant(t *testing.T) {
	iv, err := New(at(10, 0), at(12, 0))
	require.NoError(t, err)

	assert.True(t, iv.ContainsInstant(at(11, 0)))
	assert.True(t, iv.ContainsInstant(at(10, 0)), "start bound is inclusive")
	assert.True(t, iv.ContainsInstant(at(12, 0)), "end bound is inclusive")
	assert.False(t, iv.ContainsInstant(at(9, 23)))
	assert.False(t, iv.ContainsInstant(at(12, 1)))
}
