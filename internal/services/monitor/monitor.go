package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/broker/messages"
	"github.com/tofunori/farewatch/internal/cache/rediscache"
	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/models"
	"github.com/tofunori/farewatch/internal/notify"
	"github.com/tofunori/farewatch/internal/storage"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config is built once at startup and passed into New; the monitor
// never reads ambient state.
type Config struct {
	Plan PlanConfig

	MaxStops   int
	MaxResults int

	// Zero threshold disables notifications; history tracking is
	// unaffected.
	Threshold decimal.Decimal

	// Pause between consecutive provider calls. Provider rate limits
	// require at least a second here; this is a sequencing rule, not
	// an optimization.
	Cooldown time.Duration

	RateLimitPerMinute int64
	CacheTTL           time.Duration
	AlertTopic         string
}

// Monitor runs check cycles: plan date pairs, fetch and normalize
// offers, track the running minimum, alert on qualifying drops.
// One cycle at a time; the only state shared with the admin goroutine
// is what Stats reads, and that is guarded.
type Monitor struct {
	cfg      Config
	provider flightapi.Client
	store    storage.Store
	notifier notify.Notifier

	producer Producer    // optional
	rl       RateLimiter // optional
	cache    Cache       // optional

	// Lowest price seen this process run. Deliberately not persisted:
	// a restart starts from scratch and may re-alert once for a price
	// already seen before the restart. Mutex-guarded because Stats is
	// served from the admin goroutine while a cycle updates it.
	lowestMu  sync.Mutex
	lowest    decimal.Decimal
	hasLowest bool

	startedAtUnixNano int64
	lastCycleUnixNano atomic.Int64
	totalCycles       atomic.Int64
	totalOffers       atomic.Int64
	totalAlerts       atomic.Int64
	totalErrors       atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(provider flightapi.Client, store storage.Store, notifier notify.Notifier, cfg Config) *Monitor {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Monitor{
		cfg:               cfg,
		provider:          provider,
		store:             store,
		notifier:          notifier,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (m *Monitor) WithProducer(p Producer) *Monitor {
	m.producer = p
	return m
}

func (m *Monitor) WithRateLimiter(rl RateLimiter) *Monitor {
	m.rl = rl
	return m
}

func (m *Monitor) WithCache(c Cache) *Monitor {
	m.cache = c
	return m
}

type Stats struct {
	StartedAt   time.Time  `json:"startedAt"`
	LastCycleAt *time.Time `json:"lastCycleAt,omitempty"`
	TotalCycles int64      `json:"totalCycles"`
	TotalOffers int64      `json:"totalOffers"`
	TotalAlerts int64      `json:"totalAlerts"`
	TotalErrors int64      `json:"totalErrors"`
	LowestPrice string     `json:"lowestPrice,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

func (m *Monitor) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, m.startedAtUnixNano).UTC(),
		TotalCycles: m.totalCycles.Load(),
		TotalOffers: m.totalOffers.Load(),
		TotalAlerts: m.totalAlerts.Load(),
		TotalErrors: m.totalErrors.Load(),
	}
	if n := m.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	m.lowestMu.Lock()
	if m.hasLowest {
		st.LowestPrice = m.lowest.StringFixed(2)
	}
	m.lowestMu.Unlock()
	m.lastErrorMu.Lock()
	st.LastError = m.lastError
	m.lastErrorMu.Unlock()
	return st
}

// CheckAllPrices runs one full cycle across every planned date pair.
// It returns (nil, nil) when no offers were found anywhere: no
// history write, no notification. A single pair's provider failure
// degrades that pair to zero offers and never aborts the cycle.
func (m *Monitor) CheckAllPrices(ctx context.Context) (*models.FlightDetails, error) {
	now := time.Now().UTC()
	m.lastCycleUnixNano.Store(now.UnixNano())
	m.totalCycles.Add(1)

	queries, err := Plan(m.cfg.Plan, now)
	if err != nil {
		// Misconfiguration is fatal for the cycle; the driver decides
		// whether to retry or halt.
		return nil, err
	}

	var collected []models.FlightDetails
	for i, q := range queries {
		if i > 0 {
			if err := sleepCtx(ctx, m.cfg.Cooldown); err != nil {
				return nil, err
			}
		}

		offers := m.fetch(ctx, q)
		for _, offer := range offers {
			if d, ok := Normalize(offer, q, m.cfg.MaxStops); ok {
				collected = append(collected, *d)
			}
		}
	}
	m.totalOffers.Add(int64(len(collected)))

	if len(collected) == 0 {
		slog.Warn("no flight offers found for any dates",
			"origin", m.cfg.Plan.Origin,
			"destination", m.cfg.Plan.Destination,
			"pairs", len(queries),
		)
		return nil, nil
	}

	// Stable minimum: strict less-than keeps the first-encountered
	// offer on ties.
	best := collected[0]
	for _, d := range collected[1:] {
		if d.Price.LessThan(best.Price) {
			best = d
		}
	}

	checkedAt := time.Now().UTC()
	if err := m.store.Append(ctx, storage.Entry{CheckedAt: checkedAt, Price: best.Price}); err != nil {
		// History write failure must not swallow the cycle's result.
		m.recordError(err)
		slog.Error("persist price history", "error", err.Error())
	}

	m.lowestMu.Lock()
	improved := !m.hasLowest || best.Price.LessThan(m.lowest)
	tc := notify.ThresholdContext{
		Threshold:      m.cfg.Threshold,
		PreviousLow:    m.lowest,
		HasPreviousLow: m.hasLowest,
	}
	if improved {
		m.lowest = best.Price
		m.hasLowest = true
	}
	m.lowestMu.Unlock()

	if improved {
		slog.Info("new lowest price",
			"price", best.Price.StringFixed(2),
			"airlines", best.AirlineList(),
			"stops", best.Stops,
			"depart", best.Query.DepartDate,
		)
		if !m.cfg.Threshold.IsZero() && best.Price.LessThanOrEqual(m.cfg.Threshold) {
			m.alert(ctx, best, tc, checkedAt)
		}
	}

	slog.Info("cheapest offer this cycle",
		"price", best.Price.StringFixed(2),
		"currency", best.Currency,
		"airlines", best.AirlineList(),
		"direct", best.IsDirect,
	)
	return &best, nil
}

// fetch returns the raw offers for one date pair, consulting the rate
// limiter and response cache when wired. Provider failures are
// absorbed: log, count, zero offers.
func (m *Monitor) fetch(ctx context.Context, q models.SearchQuery) []flightapi.Offer {
	cacheKey := rediscache.OfferKey(q)
	if m.cache != nil {
		if b, ok, err := m.cache.Get(ctx, cacheKey); err == nil && ok {
			var cached []flightapi.Offer
			if json.Unmarshal(b, &cached) == nil {
				return cached
			}
		}
	}

	if m.rl != nil && m.cfg.RateLimitPerMinute > 0 {
		minuteKey := rediscache.RateLimitKey("flight", time.Now())
		allowed, n, err := m.rl.Allow(ctx, minuteKey, m.cfg.RateLimitPerMinute, 70*time.Second)
		if err != nil {
			m.recordError(err)
		} else if !allowed {
			slog.Warn("provider rate limit reached, backing off", "count", n)
			_ = sleepCtx(ctx, 500*time.Millisecond)
		}
	}

	offers, err := m.provider.Search(ctx, q, m.cfg.MaxResults)
	if err != nil {
		m.recordError(err)
		slog.Warn("provider search failed",
			"depart", q.DepartDate,
			"return", q.ReturnDate,
			"error", err.Error(),
		)
		return nil
	}

	if m.cache != nil && m.cfg.CacheTTL > 0 && len(offers) > 0 {
		if b, err := json.Marshal(offers); err == nil {
			if err := m.cache.Set(ctx, cacheKey, b, m.cfg.CacheTTL); err != nil {
				slog.Warn("cache offers failed", "error", err.Error())
			}
		}
	}
	return offers
}

// alert sends the notification and, when a producer is wired,
// publishes the event. Both failures are logged and absorbed; history
// is already durable by the time we get here.
func (m *Monitor) alert(ctx context.Context, d models.FlightDetails, tc notify.ThresholdContext, checkedAt time.Time) {
	if err := m.notifier.Notify(ctx, d, tc); err != nil {
		m.recordError(err)
		slog.Error("send price alert", "error", err.Error())
	} else {
		m.totalAlerts.Add(1)
	}

	if m.producer == nil || m.cfg.AlertTopic == "" {
		return
	}
	msg := messages.FareAlert{
		Origin:      d.Query.Origin,
		Destination: d.Query.Destination,
		Price:       d.Price.StringFixed(2),
		Currency:    d.Currency,
		Airlines:    d.Airlines,
		Stops:       d.Stops,
		DepartDate:  d.Query.DepartDate,
		ReturnDate:  d.Query.ReturnDate,
		CheckedAt:   checkedAt,
	}
	if !tc.Threshold.IsZero() {
		msg.Threshold = tc.Threshold.StringFixed(2)
	}
	b, err := json.Marshal(msg)
	if err != nil {
		m.recordError(err)
		return
	}
	key := []byte(d.Query.Origin + "|" + d.Query.Destination)
	if err := m.producer.Publish(ctx, m.cfg.AlertTopic, key, b); err != nil {
		m.recordError(err)
		slog.Error("publish fare alert", "error", err.Error())
	}
}

func (m *Monitor) recordError(err error) {
	m.totalErrors.Add(1)
	m.lastErrorMu.Lock()
	m.lastError = err.Error()
	m.lastErrorMu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
