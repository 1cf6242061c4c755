package notify_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/events"
	"beaconly/internal/notify"
	"beaconly/internal/subscriptions"
	"beaconly/internal/testsupport"
)

type sentMessage struct {
	Token     string
	ChannelID string
	TeamID    string
	Message   string
}

// fakeSender records sends and optionally fails them.
type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	attempts int
	err      error
}

func (f *fakeSender) Send(token, channelID, teamID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{token, channelID, teamID, message})
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestOfferDropsWhenQueueFull(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &fakeSender{}

	// Consumer not started, so offers accumulate in the queue.
	dispatcher := notify.NewDispatcher(db, testsupport.GetLogger(), sender, 4)

	for i := 0; i < 4; i++ {
		assert.True(t, dispatcher.Offer("foo.com", events.TypePageView))
	}
	assert.False(t, dispatcher.Offer("foo.com", events.TypePageView),
		"offer past capacity must be dropped")
}

func TestDispatcherSendsToMatchingSubscription(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &fakeSender{}

	domain := testsupport.CreateTestDomain(t, db, "foo.com", 1)
	require.NoError(t, db.Create(&subscriptions.Subscription{
		DomainID:      domain.ID,
		EventType:     "signup",
		ChannelID:     "C123",
		TeamID:        "T456",
		DeliveryToken: "xoxb-test",
		Kind:          subscriptions.KindInstant,
	}).Error)

	dispatcher := notify.NewDispatcher(db, testsupport.GetLogger(), sender, 16)
	dispatcher.Start()
	defer dispatcher.Stop()

	require.True(t, dispatcher.Offer("foo.com", "signup"))

	assert.Eventually(t, func() bool { return sender.sentCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, "xoxb-test", sender.sent[0].Token)
	assert.Equal(t, "C123", sender.sent[0].ChannelID)
	assert.Equal(t, "T456", sender.sent[0].TeamID)
	assert.Contains(t, sender.sent[0].Message, "foo.com")
	assert.Contains(t, sender.sent[0].Message, "signup")
}

func TestDispatcherIgnoresUnsubscribedEvents(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &fakeSender{}

	dispatcher := notify.NewDispatcher(db, testsupport.GetLogger(), sender, 16)
	dispatcher.Start()

	require.True(t, dispatcher.Offer("foo.com", events.TypePageView))
	dispatcher.Stop() // drains the queue

	assert.Equal(t, 0, sender.sentCount())
}

func TestMarkDirtyPicksUpNewSubscriptions(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &fakeSender{}

	domain := testsupport.CreateTestDomain(t, db, "foo.com", 1)

	dispatcher := notify.NewDispatcher(db, testsupport.GetLogger(), sender, 16)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Warm the cache while no subscription exists.
	require.True(t, dispatcher.Offer("foo.com", "signup"))

	require.NoError(t, db.Create(&subscriptions.Subscription{
		DomainID:      domain.ID,
		EventType:     "signup",
		ChannelID:     "C123",
		DeliveryToken: "xoxb-test",
		Kind:          subscriptions.KindInstant,
	}).Error)
	dispatcher.MarkDirty()

	require.True(t, dispatcher.Offer("foo.com", "signup"))

	assert.Eventually(t, func() bool { return sender.sentCount() >= 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestSendFailureDoesNotStopConsumer(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &fakeSender{err: errors.New("chat service unavailable")}

	domain := testsupport.CreateTestDomain(t, db, "foo.com", 1)
	require.NoError(t, db.Create(&subscriptions.Subscription{
		DomainID:      domain.ID,
		EventType:     "signup",
		ChannelID:     "C123",
		DeliveryToken: "xoxb-test",
		Kind:          subscriptions.KindInstant,
	}).Error)

	dispatcher := notify.NewDispatcher(db, testsupport.GetLogger(), sender, 16)
	dispatcher.Start()

	require.True(t, dispatcher.Offer("foo.com", "signup"))
	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return sender.attempts == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The failed send is not retried, and the consumer keeps running.
	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	require.True(t, dispatcher.Offer("foo.com", "signup"))
	dispatcher.Stop()

	assert.Equal(t, 1, sender.sentCount())
}

func TestOfferAfterStopIsRejected(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	sender := &fakeSender{}

	dispatcher := notify.NewDispatcher(db, testsupport.GetLogger(), sender, 4)
	dispatcher.Start()
	dispatcher.Stop()

	assert.False(t, dispatcher.Offer("foo.com", events.TypePageView))
}
