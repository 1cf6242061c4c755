package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/analytics"
	"beaconly/internal/testsupport"
	"beaconly/internal/timeframe"
)

func TestBucketedGapFillsEmptyPeriod(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	period, err := timeframe.NewCustom(start, start.Add(24*time.Hour))
	require.NoError(t, err)
	params := analytics.NewQueryParams("foo.com", 1, period, time.UTC)

	points, err := analytics.Bucketed(db, params, time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 24)

	for i, point := range points {
		assert.Equal(t, int64(0), point.Count)
		if i > 0 {
			assert.True(t, point.Timestamp.After(points[i-1].Timestamp),
				"timestamps must be strictly ascending")
		}
	}
}

func TestBucketedAssignsEventsToBuckets(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", start.Add(10*time.Minute))
	testsupport.InsertPageView(t, db, "foo.com", 2, "/", start.Add(50*time.Minute))
	testsupport.InsertPageView(t, db, "foo.com", 3, "/", start.Add(3*time.Hour+5*time.Minute))

	period, err := timeframe.NewCustom(start, start.Add(6*time.Hour))
	require.NoError(t, err)
	params := analytics.NewQueryParams("foo.com", 1, period, time.UTC)

	points, err := analytics.Bucketed(db, params, time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 6)

	assert.Equal(t, int64(2), points[0].Count)
	assert.Equal(t, int64(0), points[1].Count)
	assert.Equal(t, int64(0), points[2].Count)
	assert.Equal(t, int64(1), points[3].Count)
}

func TestBucketedUniqueCollapsesVisitorsPerBucket(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	// Visitor 1 twice in the first hour, once in the second.
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", start.Add(5*time.Minute))
	testsupport.InsertPageView(t, db, "foo.com", 1, "/pricing", start.Add(20*time.Minute))
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", start.Add(70*time.Minute))
	testsupport.InsertPageView(t, db, "foo.com", 2, "/", start.Add(30*time.Minute))

	period, err := timeframe.NewCustom(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	params := analytics.NewQueryParams("foo.com", 1, period, time.UTC)

	points, err := analytics.BucketedUnique(db, params, time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, int64(2), points[0].Count)
	assert.Equal(t, int64(1), points[1].Count)
}

func TestBucketedDayBucketsFollowQueryTimezone(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, berlin)
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", start.Add(2*time.Hour))

	period, err := timeframe.NewCustom(start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	params := analytics.NewQueryParams("foo.com", 1, period, berlin)

	points, err := analytics.Bucketed(db, params, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 2)

	first := points[0].Timestamp.In(berlin)
	assert.Equal(t, 0, first.Hour())
	assert.Equal(t, int64(1), points[0].Count)
	assert.Equal(t, int64(0), points[1].Count)
}
