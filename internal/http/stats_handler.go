// Package http serves the read-side query API: aggregate statistics,
// domain listings and sharing controls.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"beaconly/internal/analytics"
	"beaconly/internal/domains"
	"beaconly/internal/pkg/async"
	"beaconly/internal/timeframe"
)

const errDomainNotFound = "Domain not found"

// StatsHandler serves the aggregation query endpoints for one domain.
type StatsHandler struct {
	db         *gorm.DB
	logger     *slog.Logger
	liveWindow time.Duration
}

// NewStatsHandler builds the stats handler.
func NewStatsHandler(db *gorm.DB, logger *slog.Logger, liveWindow time.Duration) *StatsHandler {
	return &StatsHandler{db: db, logger: logger, liveWindow: liveWindow}
}

// requesterID resolves the caller's account id from the X-Account-ID header
// set by the authenticating proxy. Zero means anonymous.
func requesterID(c *fiber.Ctx) uint {
	id, err := strconv.ParseUint(c.Get("X-Account-ID"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// queryParams authorizes the domain and assembles the analytics parameters
// from the request. Access failures surface as a uniform not-found.
func (h *StatsHandler) queryParams(c *fiber.Ctx) (analytics.QueryParams, error) {
	domain, err := domains.GetAuthorized(h.db, c.Params("domain"), requesterID(c), c.Query("token"))
	if err != nil {
		var notFound *domains.DomainNotFoundError
		if errors.As(err, &notFound) {
			return analytics.QueryParams{}, fiber.NewError(http.StatusNotFound, errDomainNotFound)
		}
		return analytics.QueryParams{}, err
	}

	period, err := parsePeriod(c)
	if err != nil {
		return analytics.QueryParams{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tz := time.UTC
	if name := c.Query("tz"); name != "" {
		tz, err = time.LoadLocation(name)
		if err != nil {
			return analytics.QueryParams{}, fiber.NewError(http.StatusBadRequest, "invalid timezone")
		}
	}

	params := analytics.NewQueryParams(domain.Name, domain.ID, period, tz)
	if limit := c.QueryInt("limit"); limit > 0 {
		params.Limit = limit
	}

	drilldown, err := parseDrilldown(c)
	if err != nil {
		return analytics.QueryParams{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return params.WithDrilldown(drilldown), nil
}

// parsePeriod reads the period query parameters. Named periods end at now;
// custom needs explicit RFC3339 bounds.
func parsePeriod(c *fiber.Ctx) (timeframe.Period, error) {
	kind := c.Query("period", string(timeframe.KindDay))
	if timeframe.Kind(kind) != timeframe.KindCustom {
		return timeframe.New(timeframe.Kind(kind), time.Now().UTC())
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return timeframe.Period{}, errors.New("custom period requires a valid RFC3339 start")
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return timeframe.Period{}, errors.New("custom period requires a valid RFC3339 end")
	}
	return timeframe.NewCustom(start, end)
}

// parseDrilldown reads the optional drilldown parameters. The drilldown
// query key selects the dimension, the remaining keys carry its value.
func parseDrilldown(c *fiber.Ctx) (*analytics.Drilldown, error) {
	switch kind := c.Query("drilldown"); kind {
	case "":
		return nil, nil
	case "referrer":
		return analytics.DrilldownReferrer(c.Query("referrer"), c.Query("source")), nil
	case "direct":
		return analytics.DrilldownDirect(), nil
	case "page":
		return analytics.DrilldownPage(c.Query("value")), nil
	case "country":
		return analytics.DrilldownCountry(c.Query("value")), nil
	case "device":
		return analytics.DrilldownDevice(c.Query("value")), nil
	case "deviceName":
		return analytics.DrilldownDeviceName(c.Query("value")), nil
	case "deviceClass":
		return analytics.DrilldownDeviceClass(c.Query("value")), nil
	case "os":
		return analytics.DrilldownOperatingSystem(c.Query("value")), nil
	case "agent":
		return analytics.DrilldownAgent(c.Query("value")), nil
	case "time":
		from, err := time.Parse(time.RFC3339, c.Query("from"))
		if err != nil {
			return nil, errors.New("time drilldown requires a valid RFC3339 from")
		}
		to, err := time.Parse(time.RFC3339, c.Query("to"))
		if err != nil {
			return nil, errors.New("time drilldown requires a valid RFC3339 to")
		}
		return analytics.DrilldownTime(from, to), nil
	default:
		return nil, errors.New("unknown drilldown dimension: " + kind)
	}
}

// Overview returns the headline numbers for a domain: totals, uniques,
// bounces, their period-over-period changes, and the live visitor count.
// The seven independent aggregates run concurrently on a worker pool.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	params, err := h.queryParams(c)
	if err != nil {
		return err
	}

	count := func(fn func(*gorm.DB, analytics.QueryParams) (int64, error)) func() (any, error) {
		return func() (any, error) { return fn(h.db, params) }
	}
	previous := func(fn func(*gorm.DB, analytics.QueryParams) (*int64, error)) func() (any, error) {
		return func() (any, error) { return fn(h.db, params) }
	}

	results := async.NewPool(4).Execute(c.Context(), []async.Task{
		{Name: "views", Execute: count(analytics.Count)},
		{Name: "visitors", Execute: count(analytics.CountUnique)},
		{Name: "bounces", Execute: count(analytics.BounceCount)},
		{Name: "previous_views", Execute: previous(analytics.PreviousCount)},
		{Name: "previous_visitors", Execute: previous(analytics.PreviousCountUnique)},
		{Name: "previous_bounces", Execute: previous(analytics.PreviousBounceCount)},
		{Name: "live", Execute: func() (any, error) {
			return analytics.LiveUnique(h.db, params.Domain, h.liveWindow, time.Now().UTC())
		}},
	})
	if err := async.FirstError(results); err != nil {
		return h.serverError(c, err)
	}
	if len(results) != 7 {
		// Partial results mean the request context was cancelled mid-flight.
		return h.serverError(c, errors.New("overview queries did not complete"))
	}

	views := results["views"].Data.(int64)
	visitors := results["visitors"].Data.(int64)
	bounces := results["bounces"].Data.(int64)
	previousViews := results["previous_views"].Data.(*int64)
	previousVisitors := results["previous_visitors"].Data.(*int64)
	previousBounces := results["previous_bounces"].Data.(*int64)
	live := results["live"].Data.(int64)

	return c.JSON(fiber.Map{
		"views":    views,
		"visitors": visitors,
		"bounces":  bounces,
		"live":     live,
		"changes": analytics.ComparisonMetrics{
			ViewsChange:      analytics.CompareCounts(views, previousViews),
			VisitorsChange:   analytics.CompareCounts(visitors, previousVisitors),
			BounceRateChange: analytics.CompareCounts(bounces, previousBounces),
		},
	})
}

// Series returns the gap-filled time series. The bucket query parameter
// selects hour or day buckets; the default follows the period length.
func (h *StatsHandler) Series(c *fiber.Ctx) error {
	params, err := h.queryParams(c)
	if err != nil {
		return err
	}

	bucket, err := bucketDuration(c, params.Period)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	views, err := analytics.Bucketed(h.db, params, bucket)
	if err != nil {
		return h.serverError(c, err)
	}
	visitors, err := analytics.BucketedUnique(h.db, params, bucket)
	if err != nil {
		return h.serverError(c, err)
	}

	return c.JSON(fiber.Map{
		"views":    views,
		"visitors": visitors,
	})
}

func bucketDuration(c *fiber.Ctx, period timeframe.Period) (time.Duration, error) {
	switch c.Query("bucket") {
	case "hour":
		return time.Hour, nil
	case "day":
		return 24 * time.Hour, nil
	case "":
		if period.Duration() <= 24*time.Hour {
			return time.Hour, nil
		}
		return 24 * time.Hour, nil
	default:
		return 0, errors.New("unknown bucket size")
	}
}

// Top returns a top-N facet. The facet name is part of the route.
func (h *StatsHandler) Top(c *fiber.Ctx) error {
	params, err := h.queryParams(c)
	if err != nil {
		return err
	}

	var result any
	switch facet := c.Params("facet"); facet {
	case "pages":
		result, err = analytics.TopPages(h.db, params)
	case "sources":
		result, err = analytics.TopSources(h.db, params)
	case "screen-sizes":
		result, err = analytics.TopScreenSizes(h.db, params)
	case "countries":
		result, err = analytics.TopCountries(h.db, params)
	case "devices":
		result, err = analytics.TopDevices(h.db, params)
	case "device-classes":
		result, err = analytics.TopDeviceClasses(h.db, params)
	case "operating-systems":
		result, err = analytics.TopOperatingSystems(h.db, params)
	case "agents":
		result, err = analytics.TopAgents(h.db, params)
	default:
		return fiber.NewError(http.StatusNotFound, "unknown facet: "+facet)
	}
	if err != nil {
		return h.serverError(c, err)
	}

	return c.JSON(fiber.Map{"results": result})
}

// Goals returns the conversion counts for every goal of the domain.
func (h *StatsHandler) Goals(c *fiber.Ctx) error {
	params, err := h.queryParams(c)
	if err != nil {
		return err
	}

	conversions, err := analytics.Goals(h.db, params)
	if err != nil {
		return h.serverError(c, err)
	}

	return c.JSON(fiber.Map{"goals": conversions})
}

func (h *StatsHandler) serverError(c *fiber.Ctx, err error) error {
	h.logger.Error("Stats query failed",
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Query failed",
	})
}
