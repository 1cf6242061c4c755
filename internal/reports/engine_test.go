package reports

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"beaconly/internal/subscriptions"
	"beaconly/internal/testsupport"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingSender) Send(token, channelID, teamID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, message)
	return nil
}

// setupSummary creates an account, its domain, and one summary subscription
// firing daily at 08:00.
func setupSummary(t *testing.T, db *gorm.DB, lastDelivery *time.Time) *subscriptions.Subscription {
	t.Helper()

	account := testsupport.CreateTestAccount(t, db, "owner@example.com", "UTC")
	domain := testsupport.CreateTestDomain(t, db, "foo.com", account.ID)

	sub := &subscriptions.Subscription{
		DomainID:         domain.ID,
		EventType:        "summary",
		ChannelID:        "C123",
		DeliveryToken:    "xoxb-test",
		Kind:             subscriptions.KindSummary,
		CronExpression:   "0 8 * * *",
		LastDeliveryTime: lastDelivery,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func newTestEngine(db *gorm.DB, sender *recordingSender, now time.Time) *Engine {
	engine := NewEngine(db, testsupport.GetLogger(), sender)
	engine.now = func() time.Time { return now.UTC() }
	return engine
}

func TestReportSentWhenDue(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &recordingSender{}

	// Last delivery 13 hours before the 08:00 fire time: outside the dedupe
	// window.
	lastDelivery := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	sub := setupSummary(t, db, &lastDelivery)

	now := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	testsupport.InsertPageView(t, db, "foo.com", 1, "/", now.Add(-2*time.Hour))

	require.NoError(t, newTestEngine(db, sender, now).Run())

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "foo.com")
	assert.Contains(t, sender.messages[0], "Views: 1")

	var updated subscriptions.Subscription
	require.NoError(t, db.First(&updated, sub.ID).Error)
	require.NotNil(t, updated.LastDeliveryTime)
	assert.WithinDuration(t, now, *updated.LastDeliveryTime, time.Minute)
}

func TestReportSkippedInsideDedupeWindow(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &recordingSender{}

	// Last delivery 6 hours before the 08:00 fire time: still deduped.
	lastDelivery := time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)
	setupSummary(t, db, &lastDelivery)

	now := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	require.NoError(t, newTestEngine(db, sender, now).Run())

	assert.Empty(t, sender.messages)
}

func TestReportSkippedWhenNotDue(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &recordingSender{}
	setupSummary(t, db, nil)

	// Three hours past the fire time: the delivery window has passed.
	now := time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC)
	require.NoError(t, newTestEngine(db, sender, now).Run())

	assert.Empty(t, sender.messages)
}

func TestReportSkippedBeforeFireTime(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &recordingSender{}
	setupSummary(t, db, nil)

	now := time.Date(2026, 3, 15, 5, 0, 0, 0, time.UTC)
	require.NoError(t, newTestEngine(db, sender, now).Run())

	assert.Empty(t, sender.messages)
}

func TestSendFailureLeavesWatermarkUntouched(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &recordingSender{err: errors.New("chat service unavailable")}
	sub := setupSummary(t, db, nil)

	now := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	require.NoError(t, newTestEngine(db, sender, now).Run())

	var updated subscriptions.Subscription
	require.NoError(t, db.First(&updated, sub.ID).Error)
	assert.Nil(t, updated.LastDeliveryTime)
}

func TestReportUsesAccountTimezone(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &recordingSender{}

	account := testsupport.CreateTestAccount(t, db, "owner@example.com", "America/New_York")
	domain := testsupport.CreateTestDomain(t, db, "foo.com", account.ID)
	require.NoError(t, db.Create(&subscriptions.Subscription{
		DomainID:       domain.ID,
		EventType:      "summary",
		ChannelID:      "C123",
		DeliveryToken:  "xoxb-test",
		Kind:           subscriptions.KindSummary,
		CronExpression: "0 8 * * *",
	}).Error)

	// 08:30 New York is 12:30 or 13:30 UTC depending on DST; mid-March is
	// EDT (UTC-4).
	now := time.Date(2026, 3, 16, 12, 30, 0, 0, time.UTC)
	require.NoError(t, newTestEngine(db, sender, now).Run())

	assert.Len(t, sender.messages, 1)
}
