package apiv1

import (
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/entitlements"
)

// Pong is the ping endpoint response
type Pong struct {
	Ping string `json:"ping"`
}

// CreateTenantRequest registers a tenant with an optional initial plan.
type CreateTenantRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Timezone string `json:"timezone" validate:"omitempty,max=64"`
	Currency string `json:"currency" validate:"omitempty,max=8"`
	Plan     string `json:"plan" validate:"omitempty,max=50"`
}

// UpgradeRequest names the target tier for the upgrade workflow.
type UpgradeRequest struct {
	TargetPlan string `json:"target_plan" validate:"required,max=50"`
}

// ToggleFeatureRequest flips a materialized feature flag.
type ToggleFeatureRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ReportUsageRequest carries point-in-time consumption counts per metric.
type ReportUsageRequest struct {
	Counts map[string]int64 `json:"counts" validate:"required,min=1"`
}

// SubscriptionResponse decorates the subscription with the resolved
// upgrade availability.
type SubscriptionResponse struct {
	*models.TenantSubscription
	CanUpgrade bool `json:"can_upgrade"`
}

// TenantListResponse is a page of tenants plus the total count.
type TenantListResponse struct {
	Tenants []models.Tenant `json:"tenants"`
	Total   int64           `json:"total"`
}

// CreateTenantResponse returns the created tenant and its subscription.
type CreateTenantResponse struct {
	Tenant       *models.Tenant             `json:"tenant"`
	Subscription *models.TenantSubscription `json:"subscription"`
}

// FeatureCheckResponse answers a single feature gate question.
type FeatureCheckResponse struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

// LimitCheckResponse answers a single limit question for a metric.
type LimitCheckResponse struct {
	Metric string `json:"metric"`
	entitlements.LimitCheck
}
