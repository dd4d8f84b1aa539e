package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
)

// Reporter stores the most recent consumption count per tenant and metric.
// Each report is a point-in-time snapshot supplied by the business-record
// stores; the reporter never increments and keeps no history.
type Reporter struct {
	rdb *redis.Client
}

// NewReporter creates a reporter on top of a Redis client.
func NewReporter(rdb *redis.Client) *Reporter {
	return &Reporter{rdb: rdb}
}

func usageKey(tenantID uint) string {
	return fmt.Sprintf("tenant:%d:usage", tenantID)
}

// Report overwrites the current counts for the given metrics.
func (r *Reporter) Report(ctx context.Context, tenantID uint, counts map[plan.Metric]int64) error {
	if len(counts) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(counts))
	for m, n := range counts {
		if n < 0 {
			n = 0
		}
		fields[string(m)] = n
	}
	return r.rdb.HSet(ctx, usageKey(tenantID), fields).Err()
}

// Get returns the last reported count for a metric, 0 when never reported.
func (r *Reporter) Get(ctx context.Context, tenantID uint, metric plan.Metric) (int64, error) {
	val, err := r.rdb.HGet(ctx, usageKey(tenantID), string(metric)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Snapshot returns every reported metric count for a tenant.
func (r *Reporter) Snapshot(ctx context.Context, tenantID uint) (map[plan.Metric]int64, error) {
	data, err := r.rdb.HGetAll(ctx, usageKey(tenantID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[plan.Metric]int64, len(data))
	for field, raw := range data {
		m, err := plan.ParseMetric(field)
		if err != nil {
			// Stale field from an older metric set; skip it.
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[m] = n
	}
	return out, nil
}

// Reset drops all reported counts for a tenant.
func (r *Reporter) Reset(ctx context.Context, tenantID uint) error {
	return r.rdb.Del(ctx, usageKey(tenantID)).Err()
}
