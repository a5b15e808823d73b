package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dentalize/scheduler-api/internal/model"
	"github.com/dentalize/scheduler-api/pkg/circuitbreaker"
	"github.com/dentalize/scheduler-api/pkg/logger"
	"github.com/dentalize/scheduler-api/pkg/metrics"
)

// ScheduleCache is a read-through cache of calendar range queries, keyed per
// user and window. Booking writes invalidate every cached window of the
// owner; correctness never depends on the cache, only freshness does.
type ScheduleCache struct {
	client  *redis.Client
	cb      *circuitbreaker.CircuitBreaker
	ttl     time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewScheduleCache(url string, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) (*ScheduleCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cb := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "schedule-cache",
		MaxFailures: 5,
		Timeout:     10 * time.Second,
	})

	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ScheduleCache{client: client, cb: cb, ttl: ttl, logger: log, metrics: m}, nil
}

func rangeKey(userID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("schedule:%s:%d:%d", userID, from.Unix(), to.Unix())
}

// Get returns the cached window, or nil on a miss or cache failure.
func (c *ScheduleCache) Get(ctx context.Context, userID uuid.UUID, from, to time.Time) []*model.TaskWithRelations {
	var payload []byte
	err := c.cb.Execute(func() error {
		var err error
		payload, err = c.client.Get(ctx, rangeKey(userID, from, to)).Bytes()
		return err
	})
	if err != nil {
		if err != redis.Nil {
			c.metrics.CacheErrors.Inc()
			c.logger.Debug("schedule cache read failed", "error", err.Error())
		}
		c.metrics.CacheMisses.Inc()
		return nil
	}

	var tasks []*model.TaskWithRelations
	if err := json.Unmarshal(payload, &tasks); err != nil {
		c.metrics.CacheErrors.Inc()
		return nil
	}
	c.metrics.CacheHits.Inc()
	return tasks
}

// Set stores a window result. Failures are logged and swallowed.
func (c *ScheduleCache) Set(ctx context.Context, userID uuid.UUID, from, to time.Time, tasks []*model.TaskWithRelations) {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return
	}

	err = c.cb.Execute(func() error {
		return c.client.Set(ctx, rangeKey(userID, from, to), payload, c.ttl).Err()
	})
	if err != nil {
		c.metrics.CacheErrors.Inc()
		c.logger.Debug("schedule cache write failed", "error", err.Error())
	}
}

// Invalidate drops every cached window belonging to the user.
func (c *ScheduleCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	pattern := fmt.Sprintf("schedule:%s:*", userID)

	err := c.cb.Execute(func() error {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		return iter.Err()
	})
	if err != nil {
		c.metrics.CacheErrors.Inc()
		c.logger.Warn("schedule cache invalidation failed", "user_id", userID.String(), "error", err.Error())
	}
}

func (c *ScheduleCache) Close() error {
	return c.client.Close()
}
