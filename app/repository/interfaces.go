package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
)

// ErrVersionConflict is returned when an optimistic plan update lost the
// race against a concurrent writer. Callers retry or surface a conflict.
var ErrVersionConflict = errors.New("subscription version conflict")

// TenantRepository defines the interface for tenant database operations
type TenantRepository interface {
	// CreateWithSubscription inserts the tenant and its subscription in
	// one transaction. Either both rows land or neither does.
	CreateWithSubscription(tenant *models.Tenant, sub *models.TenantSubscription) error
	GetByID(id uint) (*models.Tenant, error)
	Update(tenant *models.Tenant) error
	List(offset, limit int) ([]models.Tenant, error)
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for subscription database operations
type SubscriptionRepository interface {
	GetByTenantID(tenantID uint) (*models.TenantSubscription, error)
	// UpdateEntitlements writes plan id, features, limits and status in a
	// single statement guarded by the record's version. ErrVersionConflict
	// means no row matched and nothing was written.
	UpdateEntitlements(sub *models.TenantSubscription) error
}

// Repositories holds all repository instances
type Repositories struct {
	Tenant       TenantRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates all repositories with the given database connection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:       NewTenantRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
