// Package notify delivers instant chat notifications for ingested events.
// Producers offer into a bounded queue and never block; a single consumer
// drains it against a cache of instant subscriptions.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"beaconly/internal/metrics"
	"beaconly/internal/subscriptions"
)

// ChatSender delivers one message to a chat channel. Implementations must be
// safe for use from the consumer goroutine.
type ChatSender interface {
	Send(token, channelID, teamID, message string) error
}

// notification is the queue element: just enough to look up a subscription.
type notification struct {
	domain    string
	eventType string
}

// Dispatcher owns the bounded notification queue, its single consumer, and
// the instant-subscription cache. The cache is read and written only by the
// consumer loop; the rest of the system touches the dirty flag alone.
type Dispatcher struct {
	db     *gorm.DB
	logger *slog.Logger
	sender ChatSender

	queue   chan notification
	dirty   atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup

	cache map[string]subscriptions.InstantTarget
}

// NewDispatcher builds a dispatcher with a queue of the given capacity. The
// cache starts dirty so the first dequeued notification loads it.
func NewDispatcher(db *gorm.DB, logger *slog.Logger, sender ChatSender, queueSize int) *Dispatcher {
	d := &Dispatcher{
		db:     db,
		logger: logger,
		sender: sender,
		queue:  make(chan notification, queueSize),
		cache:  make(map[string]subscriptions.InstantTarget),
	}
	d.dirty.Store(true)
	return d
}

// Start launches the consumer goroutine.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for n := range d.queue {
			d.handle(n)
		}
	}()
}

// Stop drains the queue and waits for the consumer to finish. No Offer may
// run after Stop returns false from here on.
func (d *Dispatcher) Stop() {
	if d.stopped.CompareAndSwap(false, true) {
		close(d.queue)
		d.wg.Wait()
	}
}

// Offer enqueues a notification without blocking. It reports false when the
// queue is full or the dispatcher has stopped; callers drop and move on.
func (d *Dispatcher) Offer(domain, eventType string) bool {
	if d.stopped.Load() {
		return false
	}
	select {
	case d.queue <- notification{domain: domain, eventType: eventType}:
		metrics.NotificationsEnqueued.Inc()
		return true
	default:
		metrics.NotificationsDropped.Inc()
		return false
	}
}

// MarkDirty flags the subscription cache for reload. Called by the mutation
// API whenever a subscription changes.
func (d *Dispatcher) MarkDirty() {
	d.dirty.Store(true)
}

// handle processes one dequeued notification: reload the cache if flagged,
// look up a matching instant subscription, send best-effort.
func (d *Dispatcher) handle(n notification) {
	if d.dirty.CompareAndSwap(true, false) {
		if err := d.reload(); err != nil {
			// Stale cache is better than none; retry on the next item.
			d.logger.Error("Failed to reload subscription cache",
				slog.Any("error", err))
			d.dirty.Store(true)
		}
	}

	target, ok := d.cache[cacheKey(n.domain, n.eventType)]
	if !ok {
		return
	}

	message := fmt.Sprintf("New %q event on %s", n.eventType, n.domain)
	err := d.sender.Send(target.DeliveryToken, target.ChannelID, target.TeamID, message)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		d.logger.Error("Failed to send notification",
			slog.String("domain", n.domain),
			slog.String("event_type", n.eventType),
			slog.Any("error", err))
		return
	}
	metrics.NotificationsSent.WithLabelValues("ok").Inc()
}

// reload replaces the cache contents in one pass over the store.
func (d *Dispatcher) reload() error {
	targets, err := subscriptions.ListInstantTargets(d.db)
	if err != nil {
		return err
	}

	cache := make(map[string]subscriptions.InstantTarget, len(targets))
	for _, target := range targets {
		cache[cacheKey(target.DomainName, target.EventType)] = target
	}
	d.cache = cache

	d.logger.Debug("Reloaded subscription cache", slog.Int("targets", len(targets)))
	return nil
}

func cacheKey(domain, eventType string) string {
	return domain + "|" + eventType
}
