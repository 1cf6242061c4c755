// Package reports implements the scheduled summary report engine: a
// cron-driven, at-most-once-per-window daily digest per summary
// subscription, delivered over chat.
package reports

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"beaconly/internal/accounts"
	"beaconly/internal/analytics"
	"beaconly/internal/metrics"
	"beaconly/internal/notify"
	"beaconly/internal/subscriptions"
	"beaconly/internal/timeframe"
)

// Delivery policy windows. A report fires when now is within dueWindow of
// the cron-derived target time, and never twice within dedupeWindow.
const (
	dedupeWindow = 12 * time.Hour
	dueWindow    = time.Hour
)

// Engine evaluates every summary subscription on each tick and sends the
// ones that are due. It is safe to run ticks concurrently: the dedupe check
// is based on the persisted delivery watermark, not in-memory state.
type Engine struct {
	db     *gorm.DB
	logger *slog.Logger
	sender notify.ChatSender
	now    func() time.Time
}

// NewEngine builds a report engine.
func NewEngine(db *gorm.DB, logger *slog.Logger, sender notify.ChatSender) *Engine {
	return &Engine{
		db:     db,
		logger: logger,
		sender: sender,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run evaluates all summary subscriptions once. A failure on one
// subscription never blocks the rest.
func (e *Engine) Run() error {
	targets, err := subscriptions.ListSummaryTargets(e.db)
	if err != nil {
		return fmt.Errorf("failed to load summary subscriptions: %w", err)
	}

	for _, target := range targets {
		if err := e.evaluate(target); err != nil {
			e.logger.Error("Report evaluation failed",
				slog.String("domain", target.DomainName),
				slog.Uint64("subscription_id", uint64(target.ID)),
				slog.Any("error", err))
		}
	}

	return nil
}

// evaluate applies the delivery policy to one subscription and sends the
// report when it is due.
func (e *Engine) evaluate(target subscriptions.SummaryTarget) error {
	account, err := accounts.GetByID(e.db, target.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve owning account: %w", err)
	}

	location := account.Location()
	now := e.now().In(location)

	schedule, err := cron.ParseStandard(target.CronExpression)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", target.CronExpression, err)
	}

	// Next fire time at-or-after the start of the current local day.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)
	nextFire := schedule.Next(midnight.Add(-time.Second))

	if target.LastDeliveryTime != nil && nextFire.Sub(*target.LastDeliveryTime) < dedupeWindow {
		metrics.ReportsSkipped.WithLabelValues("dedupe").Inc()
		return nil
	}

	if gap := now.Sub(nextFire); gap >= dueWindow || gap <= -dueWindow {
		metrics.ReportsSkipped.WithLabelValues("not_due").Inc()
		return nil
	}

	report, err := e.compile(target.DomainName, target.DomainID, location)
	if err != nil {
		return err
	}

	message := render(target.DomainName, report)
	err = e.sender.Send(target.DeliveryToken, target.ChannelID, target.TeamID, message)
	if err != nil {
		// The watermark stays untouched so the next tick inside the due
		// window retries.
		return fmt.Errorf("failed to deliver report: %w", err)
	}

	if err := subscriptions.UpdateLastDelivery(e.db, target.ID, e.now()); err != nil {
		return err
	}

	metrics.ReportsSent.Inc()
	e.logger.Info("Sent summary report",
		slog.String("domain", target.DomainName),
		slog.Uint64("subscription_id", uint64(target.ID)))
	return nil
}

// DailyReport is one day of traffic compared against the day before.
type DailyReport struct {
	Views           int64
	Visitors        int64
	Bounces         int64
	ViewsChange     *float64
	VisitorsChange  *float64
	BouncesChange   *float64
}

// compile computes the current-day metrics and their change against the
// previous day.
func (e *Engine) compile(domain string, domainID uint, location *time.Location) (*DailyReport, error) {
	period, err := timeframe.New(timeframe.KindDay, e.now())
	if err != nil {
		return nil, err
	}
	params := analytics.NewQueryParams(domain, domainID, period, location)

	views, err := analytics.Count(e.db, params)
	if err != nil {
		return nil, err
	}
	visitors, err := analytics.CountUnique(e.db, params)
	if err != nil {
		return nil, err
	}
	bounces, err := analytics.BounceCount(e.db, params)
	if err != nil {
		return nil, err
	}

	previousViews, err := analytics.PreviousCount(e.db, params)
	if err != nil {
		return nil, err
	}
	previousVisitors, err := analytics.PreviousCountUnique(e.db, params)
	if err != nil {
		return nil, err
	}
	previousBounces, err := analytics.PreviousBounceCount(e.db, params)
	if err != nil {
		return nil, err
	}

	return &DailyReport{
		Views:          views,
		Visitors:       visitors,
		Bounces:        bounces,
		ViewsChange:    analytics.CompareCounts(views, previousViews),
		VisitorsChange: analytics.CompareCounts(visitors, previousVisitors),
		BouncesChange:  analytics.CompareCounts(bounces, previousBounces),
	}, nil
}

// render formats the report as a plain chat message.
func render(domain string, report *DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily report for %s\n", domain)
	fmt.Fprintf(&b, "Views: %d%s\n", report.Views, change(report.ViewsChange))
	fmt.Fprintf(&b, "Visitors: %d%s\n", report.Visitors, change(report.VisitorsChange))
	fmt.Fprintf(&b, "Bounces: %d%s", report.Bounces, change(report.BouncesChange))
	return b.String()
}

func change(pct *float64) string {
	if pct == nil {
		return ""
	}
	return fmt.Sprintf(" (%+.1f%%)", *pct)
}
