package plan

import (
	"errors"
	"strings"
)

// ID is a subscription tier key.
type ID string

const (
	Free         ID = "free"
	Starter      ID = "starter"
	Professional ID = "professional"
	Enterprise   ID = "enterprise"
)

const (
	CycleMonthly = "month"
	CycleYearly  = "year"
)

var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrUnknownFeature = errors.New("unknown feature")
	ErrUnknownMetric  = errors.New("unknown metric")
)

// Plan is an immutable catalog entry. Rank defines the upgrade direction:
// a transition is an upgrade iff the target rank is strictly greater.
type Plan struct {
	ID           ID         `json:"id"`
	Rank         int        `json:"rank"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	BillingCycle string     `json:"billing_cycle"`
	Features     FeatureSet `json:"features"`
	Limits       LimitSet   `json:"limits"`
}

// ParseID maps a raw string onto a known tier key.
func ParseID(raw string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(raw)))
	switch id {
	case Free, Starter, Professional, Enterprise:
		return id, nil
	}
	return "", ErrPlanNotFound
}
