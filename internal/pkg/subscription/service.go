package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/repository"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/eventlog"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
)

var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrInvalidDirection = errors.New("upgrade target must outrank the current plan")
	ErrFeatureNotInPlan = errors.New("feature is not part of the assigned plan")
)

const snapshotTTL = 5 * time.Minute

// Service owns tenant subscription state: creation, settings, the upgrade
// workflow and feature toggles. Writes for one tenant are serialized through
// a per-tenant lock; different tenants never contend. The Redis client holds
// this service's subscription snapshots, so two services built over
// different databases never see each other's cached state.
type Service struct {
	repos   *repository.Repositories
	catalog *plan.Catalog
	events  *eventlog.Log
	rdb     *redis.Client

	locks sync.Map // tenantID -> *sync.Mutex
}

// NewService creates a subscription service from injected dependencies.
func NewService(repos *repository.Repositories, catalog *plan.Catalog, events *eventlog.Log, rdb *redis.Client) *Service {
	return &Service{repos: repos, catalog: catalog, events: events, rdb: rdb}
}

// Catalog returns the plan catalog the service was built with.
func (s *Service) Catalog() *plan.Catalog {
	return s.catalog
}

// Events returns the retained event feed for a tenant, most recent first.
func (s *Service) Events(tenantID uint) []eventlog.TenantEvent {
	return s.events.EventsFor(tenantID)
}

func (s *Service) lockFor(tenantID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(tenantID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create registers a tenant and materializes its initial plan. Tenant and
// subscription land in one transaction; a failed create persists nothing.
func (s *Service) Create(ctx context.Context, tenant *models.Tenant, initialPlanID plan.ID) (*models.TenantSubscription, error) {
	_ = ctx
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	p, err := s.catalog.FindByID(initialPlanID)
	if err != nil {
		return nil, err
	}

	sub := &models.TenantSubscription{Status: models.TenantStatusTrial}
	sub.ApplyPlan(p)
	if err := s.repos.Tenant.CreateWithSubscription(tenant, sub); err != nil {
		return nil, err
	}

	s.events.Append(tenant.ID, eventlog.TypeTenantCreated, map[string]interface{}{
		"name": tenant.Name,
		"plan": sub.PlanID,
	})
	return sub, nil
}

// Fetch returns the subscription for a tenant, serving a cached snapshot
// when one is fresh. Misses fill the cache under the tenant lock and writers
// delete the key under the same lock, so a slow reader can never re-publish
// a pre-upgrade snapshot over a newer plan.
func (s *Service) Fetch(ctx context.Context, tenantID uint) (*models.TenantSubscription, error) {
	if sub := s.cachedSnapshot(ctx, tenantID); sub != nil {
		return sub, nil
	}

	mu := s.lockFor(tenantID)
	mu.Lock()
	defer mu.Unlock()

	if sub := s.cachedSnapshot(ctx, tenantID); sub != nil {
		return sub, nil
	}

	sub, err := s.repos.Subscription.GetByTenantID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	if raw, err := json.Marshal(sub); err == nil {
		_ = s.rdb.Set(ctx, snapshotKey(tenantID), raw, snapshotTTL).Err()
	}
	return sub, nil
}

func (s *Service) cachedSnapshot(ctx context.Context, tenantID uint) *models.TenantSubscription {
	raw, err := s.rdb.Get(ctx, snapshotKey(tenantID)).Result()
	if err != nil {
		return nil
	}
	var sub models.TenantSubscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return nil
	}
	return &sub
}

// FetchTenant returns the tenant record itself.
func (s *Service) FetchTenant(ctx context.Context, tenantID uint) (*models.Tenant, error) {
	_ = ctx
	tenant, err := s.repos.Tenant.GetByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

// List returns a page of tenants plus the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]models.Tenant, int64, error) {
	_ = ctx
	tenants, err := s.repos.Tenant.List(offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Tenant.Count()
	if err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// UpdateSettings edits the non-entitlement tenant fields.
func (s *Service) UpdateSettings(ctx context.Context, tenantID uint, update models.TenantSettingsUpdate) (*models.Tenant, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	mu := s.lockFor(tenantID)
	mu.Lock()
	defer mu.Unlock()

	tenant, err := s.FetchTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !update.Apply(tenant) {
		return tenant, nil
	}
	if err := s.repos.Tenant.Update(tenant); err != nil {
		return nil, err
	}

	s.events.Append(tenantID, eventlog.TypeTenantUpdated, map[string]interface{}{
		"name":     tenant.Name,
		"timezone": tenant.Timezone,
		"currency": tenant.Currency,
	})
	return tenant, nil
}

// Upgrade moves a tenant to a strictly higher tier. Plan id, features,
// limits and status swap in one guarded write, so readers observe either
// the old plan or the new plan, never a mix. A paid tier ends the trial:
// the subscription comes out active. A failed upgrade leaves the
// subscription untouched.
func (s *Service) Upgrade(ctx context.Context, tenantID uint, targetPlanID plan.ID) (*models.TenantSubscription, error) {
	target, err := s.catalog.FindByID(targetPlanID)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(tenantID)
	mu.Lock()
	defer mu.Unlock()

	sub, err := s.repos.Subscription.GetByTenantID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	currentRank, err := s.catalog.RankOf(sub.Plan())
	if err != nil {
		// Legacy plan id from an older catalog: any current tier counts as
		// an upgrade.
		currentRank = -1
	}
	if target.Rank <= currentRank {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidDirection, sub.PlanID, target.ID)
	}

	previousPlan := sub.PlanID
	updated := sub.Clone()
	updated.ApplyPlan(target)
	updated.Status = models.TenantStatusActive
	if err := s.repos.Subscription.UpdateEntitlements(updated); err != nil {
		return nil, err
	}

	s.rdb.Del(ctx, snapshotKey(tenantID))
	s.events.Append(tenantID, eventlog.TypePlanUpgraded, map[string]interface{}{
		"previous_plan": previousPlan,
		"new_plan":      updated.PlanID,
	})
	return updated, nil
}

// ToggleFeature flips one materialized feature flag. Disabling is always
// allowed; enabling requires the assigned plan's catalog entry to grant the
// feature, so a toggle can never hand out entitlements above the tier.
func (s *Service) ToggleFeature(ctx context.Context, tenantID uint, feature plan.Feature, enabled bool) (*models.TenantSubscription, error) {
	mu := s.lockFor(tenantID)
	mu.Lock()
	defer mu.Unlock()

	sub, err := s.repos.Subscription.GetByTenantID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	if sub.Features.Has(feature) == enabled {
		return sub, nil
	}
	if enabled {
		p, err := s.catalog.FindByID(sub.Plan())
		if err != nil || !p.Features.Has(feature) {
			return nil, fmt.Errorf("%w: %s on plan %s", ErrFeatureNotInPlan, feature, sub.PlanID)
		}
	}

	updated := sub.Clone()
	updated.Features[feature] = enabled
	if err := s.repos.Subscription.UpdateEntitlements(updated); err != nil {
		return nil, err
	}

	eventType := eventlog.TypeFeatureEnabled
	if !enabled {
		eventType = eventlog.TypeFeatureDisabled
	}
	s.rdb.Del(ctx, snapshotKey(tenantID))
	s.events.Append(tenantID, eventType, map[string]interface{}{
		"feature": string(feature),
	})
	return updated, nil
}

func snapshotKey(tenantID uint) string {
	return fmt.Sprintf("tenant:%d:subscription", tenantID)
}
