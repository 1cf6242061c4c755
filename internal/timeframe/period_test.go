package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNamedPeriods(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		kind Kind
		want time.Duration
	}{
		{KindHour, time.Hour},
		{KindDay, 24 * time.Hour},
		{KindWeek, 7 * 24 * time.Hour},
		{KindMonth, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := New(tt.kind, now)
			require.NoError(t, err)
			assert.Equal(t, now, p.End)
			assert.Equal(t, tt.want, p.Duration())
		})
	}

	_, err := New("fortnight", now)
	assert.Error(t, err)
}

func TestPreviousPeriod(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	p, err := New(KindDay, now)
	require.NoError(t, err)

	prev, ok := p.Previous()
	require.True(t, ok)
	assert.Equal(t, p.Start, prev.End)
	assert.Equal(t, p.Duration(), prev.Duration())
}

func TestPreviousPeriodCustomHasNone(t *testing.T) {
	p, err := NewCustom(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, ok := p.Previous()
	assert.False(t, ok)
}

func TestNewCustomRejectsInvertedRange(t *testing.T) {
	_, err := NewCustom(
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestBucketBoundariesHourly(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	boundaries := BucketBoundaries(start, end, time.Hour, time.UTC)
	require.Len(t, boundaries, 24)

	for i := 1; i < len(boundaries); i++ {
		assert.True(t, boundaries[i].After(boundaries[i-1]), "boundaries must ascend")
		assert.Equal(t, time.Hour, boundaries[i].Sub(boundaries[i-1]))
	}
}

func TestBucketBoundariesAnchoredToLocalMidnight(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on Mar 14 is already 00:30 local on Mar 15.
	start := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	boundaries := BucketBoundaries(start, end, 24*time.Hour, berlin)
	require.NotEmpty(t, boundaries)

	first := boundaries[0].In(berlin)
	assert.Equal(t, 0, first.Hour())
	assert.Equal(t, 0, first.Minute())
	assert.Equal(t, 15, first.Day())
}

func TestBucketBoundariesUnalignedStart(t *testing.T) {
	start := time.Date(2026, 3, 15, 10, 42, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	boundaries := BucketBoundaries(start, end, time.Hour, time.UTC)
	require.Len(t, boundaries, 4) // 10:00 bucket covers 10:42

	assert.Equal(t, time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), boundaries[0])
}

func TestBucketBoundariesEmptyOnBadInput(t *testing.T) {
	now := time.Now()
	assert.Nil(t, BucketBoundaries(now, now, time.Hour, time.UTC))
	assert.Nil(t, BucketBoundaries(now.Add(time.Hour), now, time.Hour, time.UTC))
	assert.Nil(t, BucketBoundaries(now, now.Add(time.Hour), 0, time.UTC))
}

func TestBucketFor(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	boundaries := BucketBoundaries(start, start.Add(4*time.Hour), time.Hour, time.UTC)
	require.Len(t, boundaries, 4)

	assert.Equal(t, 0, BucketFor(boundaries, start))
	assert.Equal(t, 0, BucketFor(boundaries, start.Add(59*time.Minute)))
	assert.Equal(t, 2, BucketFor(boundaries, start.Add(2*time.Hour+30*time.Minute)))
	assert.Equal(t, -1, BucketFor(boundaries, start.Add(-time.Minute)))
}
