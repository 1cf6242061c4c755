package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/analytics"
	"beaconly/internal/events"
	"beaconly/internal/testsupport"
)

func TestTopPagesCountsDistinctVisitors(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	// Three visitors on /, one of them twice; one visitor on /pricing.
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", now.Add(-1*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", now.Add(-90*time.Minute))
	testsupport.InsertPageView(t, db, "foo.com", 2, "/", now.Add(-2*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 3, "/", now.Add(-3*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 4, "/pricing", now.Add(-4*time.Hour))

	pages, err := analytics.TopPages(db, dayParams(t, "foo.com", now))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, analytics.MetricCountResult{Name: "/", Count: 3}, pages[0])
	assert.Equal(t, analytics.MetricCountResult{Name: "/pricing", Count: 1}, pages[1])
}

func TestTopPagesHonorsLimit(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	testsupport.InsertPageView(t, db, "foo.com", 1, "/a", now.Add(-1*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 2, "/b", now.Add(-1*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 3, "/c", now.Add(-1*time.Hour))

	params := dayParams(t, "foo.com", now)
	params.Limit = 2

	pages, err := analytics.TopPages(db, params)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestTopSourcesGroupsByReferrerSourcePair(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	insert := func(visitor int64, referrer, source string) {
		event := testsupport.NewPageView("foo.com", visitor, "/", now.Add(-1*time.Hour))
		event.ReferrerClean = referrer
		event.SourceClean = source
		testsupport.InsertEvent(t, db, event)
	}

	insert(1, "google.com", "google")
	insert(2, "google.com", "google")
	insert(3, "", "") // direct
	// Inconsistent: source without referrer. Must not appear.
	insert(4, "", "newsletter")

	sources, err := analytics.TopSources(db, dayParams(t, "foo.com", now))
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, analytics.SourceCountResult{Referrer: "google.com", Source: "google", Count: 2}, sources[0])
	assert.Equal(t, analytics.SourceCountResult{Referrer: "", Source: "", Count: 1}, sources[1])
}

func TestTopCountriesReturnsCodeAndName(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	insert := func(visitor int64, iso, name string) {
		event := testsupport.NewPageView("foo.com", visitor, "/", now.Add(-1*time.Hour))
		event.CountryISO = iso
		event.Country = name
		testsupport.InsertEvent(t, db, event)
	}

	insert(1, "DE", "Germany")
	insert(2, "DE", "Germany")
	insert(3, "ES", "Spain")

	countries, err := analytics.TopCountries(db, dayParams(t, "foo.com", now))
	require.NoError(t, err)
	require.Len(t, countries, 2)

	assert.Equal(t, analytics.CountryCountResult{Code: "DE", Name: "Germany", Count: 2}, countries[0])
	assert.Equal(t, analytics.CountryCountResult{Code: "ES", Name: "Spain", Count: 1}, countries[1])
}

func TestTopDevicesAndClasses(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	mobile := testsupport.NewPageView("foo.com", 1, "/", now.Add(-1*time.Hour))
	mobile.DeviceCategory = events.DeviceMobile
	mobile.DeviceClass = "smartphone"
	testsupport.InsertEvent(t, db, mobile)

	desktop := testsupport.NewPageView("foo.com", 2, "/", now.Add(-2*time.Hour))
	testsupport.InsertEvent(t, db, desktop)

	params := dayParams(t, "foo.com", now)

	devices, err := analytics.TopDevices(db, params)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	classes, err := analytics.TopDeviceClasses(db, params)
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func TestTopOperatingSystemsAndAgents(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	linux := testsupport.NewPageView("foo.com", 1, "/", now.Add(-1*time.Hour))
	linux.OperatingSystem = "Linux"
	linux.AgentName = "Firefox"
	testsupport.InsertEvent(t, db, linux)

	testsupport.InsertPageView(t, db, "foo.com", 2, "/", now.Add(-2*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 3, "/", now.Add(-3*time.Hour))

	params := dayParams(t, "foo.com", now)

	systems, err := analytics.TopOperatingSystems(db, params)
	require.NoError(t, err)
	require.Len(t, systems, 2)
	assert.Equal(t, "MacOS", systems[0].Name)
	assert.Equal(t, int64(2), systems[0].Count)

	agents, err := analytics.TopAgents(db, params)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "Chrome", agents[0].Name)
}

func TestTopScreenSizes(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	small := testsupport.NewPageView("foo.com", 1, "/", now.Add(-1*time.Hour))
	small.ScreenWidth = 390
	testsupport.InsertEvent(t, db, small)

	testsupport.InsertPageView(t, db, "foo.com", 2, "/", now.Add(-2*time.Hour))
	testsupport.InsertPageView(t, db, "foo.com", 3, "/", now.Add(-3*time.Hour))

	sizes, err := analytics.TopScreenSizes(db, dayParams(t, "foo.com", now))
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.Equal(t, analytics.MetricCountResult{Name: "1920", Count: 2}, sizes[0])
	assert.Equal(t, analytics.MetricCountResult{Name: "390", Count: 1}, sizes[1])
}
