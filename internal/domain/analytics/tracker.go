// internal/domain/analytics/tracker.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Tracker records lightweight shop events in Redis. All methods are
// best-effort: a nil client or a Redis failure is logged and swallowed,
// never surfaced to the request path.
type Tracker struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewTracker creates an event tracker. A nil client yields a no-op
// tracker, which keeps Redis optional in development and tests.
func NewTracker(client *redis.Client, logger *logrus.Logger) *Tracker {
	return &Tracker{client: client, logger: logger}
}

const (
	recentOrdersKey = "analytics:orders:recent"
	recentEventsKey = "analytics:events:recent"
	recentMax       = 99
)

// Event names recorded by handlers
const (
	EventRegistration = "registration"
	EventLogin        = "login"
	EventAddToCart    = "add_to_cart"
	EventSearch       = "search"
)

// TrackProductView increments the view counter for a product
func (t *Tracker) TrackProductView(ctx context.Context, productID uint) {
	if t.client == nil {
		return
	}
	key := fmt.Sprintf("analytics:product:%d:views", productID)
	if err := t.client.Incr(ctx, key).Err(); err != nil {
		t.logger.WithError(err).Debug("Failed to track product view")
	}
}

// TrackOrderPlaced records a completed checkout: a daily counter plus a
// capped list of recent order numbers.
func (t *Tracker) TrackOrderPlaced(ctx context.Context, orderNumber string, total float64) {
	if t.client == nil {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	pipe := t.client.Pipeline()
	pipe.Incr(ctx, fmt.Sprintf("analytics:orders:count:%s", day))
	pipe.IncrByFloat(ctx, fmt.Sprintf("analytics:orders:revenue:%s", day), total)
	pipe.LPush(ctx, recentOrdersKey, orderNumber)
	pipe.LTrim(ctx, recentOrdersKey, 0, recentMax)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.WithError(err).Debug("Failed to track order")
	}
}

// TrackEvent bumps a named event counter and appends to the capped
// recent-events list.
func (t *Tracker) TrackEvent(ctx context.Context, event string) {
	if t.client == nil {
		return
	}
	pipe := t.client.Pipeline()
	pipe.Incr(ctx, fmt.Sprintf("analytics:events:%s:count", event))
	pipe.LPush(ctx, recentEventsKey, fmt.Sprintf("%s|%s", event, time.Now().UTC().Format(time.RFC3339)))
	pipe.LTrim(ctx, recentEventsKey, 0, recentMax)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.WithError(err).Debug("Failed to track event")
	}
}

// ProductViews returns the view counter for a product, zero on any error
func (t *Tracker) ProductViews(ctx context.Context, productID uint) int64 {
	if t.client == nil {
		return 0
	}
	key := fmt.Sprintf("analytics:product:%d:views", productID)
	views, err := t.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return views
}
