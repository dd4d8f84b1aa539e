package models

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
)

// TenantSubscription is the per-tenant plan assignment. Features and limits
// are materialized copies of the catalog entry taken at assignment/upgrade
// time, so a later catalog change never silently alters a tenant's
// entitlements. The version column backs the optimistic check that keeps
// plan swaps atomic under concurrent upgrades.
type TenantSubscription struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TenantID        uint            `gorm:"uniqueIndex;not null" json:"tenant_id"`
	PlanID          string          `gorm:"type:varchar(50);not null;default:'free';index" json:"plan_id"`
	Status          string          `gorm:"type:varchar(32);not null;default:'trial'" json:"status" validate:"oneof=trial active suspended cancelled"`
	Features        plan.FeatureSet `gorm:"serializer:json;type:json" json:"features"`
	Limits          plan.LimitSet   `gorm:"serializer:json;type:json" json:"limits"`
	NextBillingDate *time.Time      `gorm:"type:timestamp;default:null" json:"next_billing_date,omitempty"`
	Version         uint            `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *TenantSubscription) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// ApplyPlan materializes a catalog entry onto the subscription.
func (s *TenantSubscription) ApplyPlan(p plan.Plan) {
	s.PlanID = string(p.ID)
	s.Features = p.Features.Clone()
	s.Limits = p.Limits.Clone()
}

// Plan returns the assigned tier key.
func (s *TenantSubscription) Plan() plan.ID {
	return plan.ID(s.PlanID)
}

// Clone returns a deep copy, used to hand out snapshots that callers may
// mutate without touching stored state.
func (s *TenantSubscription) Clone() *TenantSubscription {
	out := *s
	out.Features = s.Features.Clone()
	out.Limits = s.Limits.Clone()
	if s.NextBillingDate != nil {
		t := *s.NextBillingDate
		out.NextBillingDate = &t
	}
	return &out
}
