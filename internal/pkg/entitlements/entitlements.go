package entitlements

import (
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
)

// UsageLevel buckets consumed capacity for display and alerting.
type UsageLevel string

const (
	LevelLow      UsageLevel = "low"
	LevelMedium   UsageLevel = "medium"
	LevelHigh     UsageLevel = "high"
	LevelCritical UsageLevel = "critical"
)

// CheckFeature reports whether the subscription's materialized feature set
// grants the feature. Features absent from the set are simply not granted.
func CheckFeature(sub *models.TenantSubscription, f plan.Feature) bool {
	if sub == nil {
		return false
	}
	return sub.Features.Has(f)
}

// CheckLimit reports whether one more unit of the metric may be consumed.
// The ceiling itself already blocks: usage == limit means false.
func CheckLimit(sub *models.TenantSubscription, m plan.Metric, current int64) bool {
	if sub == nil {
		return false
	}
	return sub.Limits.Get(m).Allows(current)
}

// Remaining returns the capacity left for the metric, never negative.
// Unlimited metrics report plan.UnlimitedRemaining.
func Remaining(sub *models.TenantSubscription, m plan.Metric, current int64) int64 {
	if sub == nil {
		return 0
	}
	return sub.Limits.Get(m).Remaining(current)
}

// UsagePercentage returns consumption as a percentage clamped to [0,100].
// Unlimited metrics report 0.
func UsagePercentage(sub *models.TenantSubscription, m plan.Metric, current int64) float64 {
	if sub == nil {
		return 0
	}
	return sub.Limits.Get(m).Percent(current)
}

// Classify buckets a usage percentage at the 50/75/90 breakpoints.
func Classify(percentage float64) UsageLevel {
	switch {
	case percentage >= 90:
		return LevelCritical
	case percentage >= 75:
		return LevelHigh
	case percentage >= 50:
		return LevelMedium
	default:
		return LevelLow
	}
}

// CanUpgrade reports whether a higher tier than the subscription's plan
// exists in the catalog.
func CanUpgrade(catalog *plan.Catalog, sub *models.TenantSubscription) bool {
	if sub == nil {
		return false
	}
	rank, err := catalog.RankOf(sub.Plan())
	if err != nil {
		// Legacy plan id no longer in the catalog; every current tier is
		// an upgrade path.
		return true
	}
	return rank < catalog.Highest().Rank
}

// LimitCheck is the aggregate answer for a single metric.
type LimitCheck struct {
	CanPerform bool       `json:"can_perform"`
	Current    int64      `json:"current"`
	Max        plan.Limit `json:"max"`
	Remaining  int64      `json:"remaining"`
	Percentage float64    `json:"percentage"`
	Level      UsageLevel `json:"level"`
}

// EvaluateLimit computes the full limit decision for a metric in one pass.
func EvaluateLimit(sub *models.TenantSubscription, m plan.Metric, current int64) LimitCheck {
	pct := UsagePercentage(sub, m, current)
	var max plan.Limit
	if sub != nil {
		max = sub.Limits.Get(m)
	}
	return LimitCheck{
		CanPerform: CheckLimit(sub, m, current),
		Current:    current,
		Max:        max,
		Remaining:  Remaining(sub, m, current),
		Percentage: pct,
		Level:      Classify(pct),
	}
}
