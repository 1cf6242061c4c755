package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/analytics"
	"beaconly/internal/events"
	"beaconly/internal/goals"
	"beaconly/internal/testsupport"
)

func TestGoalsCountDistinctVisitors(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	domain := testsupport.CreateTestDomain(t, db, "foo.com", 1)

	require.NoError(t, db.Create(&goals.Goal{
		DomainID: domain.ID, Name: "Signup", EventType: "signup",
	}).Error)
	require.NoError(t, db.Create(&goals.Goal{
		DomainID: domain.ID, Name: "Checkout", EventType: events.TypePageView, Path: "/checkout",
	}).Error)

	insert := func(visitor int64, eventType, path string) {
		event := testsupport.NewPageView("foo.com", visitor, path, now.Add(-1*time.Hour))
		event.Type = eventType
		testsupport.InsertEvent(t, db, event)
	}

	// Blank-path goal matches signups anywhere; same visitor twice counts once.
	insert(1, "signup", "/welcome")
	insert(1, "signup", "/landing")
	insert(2, "signup", "/")
	// Path-bound goal matches only /checkout page views.
	insert(3, events.TypePageView, "/checkout")
	insert(4, events.TypePageView, "/pricing")

	params := dayParams(t, "foo.com", now)
	params.DomainID = domain.ID

	conversions, err := analytics.Goals(db, params)
	require.NoError(t, err)
	require.Len(t, conversions, 2)

	assert.Equal(t, analytics.GoalConversion{Name: "Signup", Count: 2}, conversions[0])
	assert.Equal(t, analytics.GoalConversion{Name: "Checkout", Count: 1}, conversions[1])
}

func TestGoalsEmptyWhenNoneConfigured(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Now().UTC()

	domain := testsupport.CreateTestDomain(t, db, "foo.com", 1)
	params := dayParams(t, "foo.com", now)
	params.DomainID = domain.ID

	conversions, err := analytics.Goals(db, params)
	require.NoError(t, err)
	assert.Empty(t, conversions)
}

func TestPercentChange(t *testing.T) {
	change := analytics.PercentChange(150, 100)
	require.NotNil(t, change)
	assert.InDelta(t, 50.0, *change, 0.001)

	assert.Nil(t, analytics.PercentChange(10, 0))

	previous := int64(100)
	change = analytics.CompareCounts(50, &previous)
	require.NotNil(t, change)
	assert.InDelta(t, -50.0, *change, 0.001)

	assert.Nil(t, analytics.CompareCounts(50, nil))
}
