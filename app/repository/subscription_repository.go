package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
)

// subscriptionRepository implements SubscriptionRepository using GORM
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByTenantID(tenantID uint) (*models.TenantSubscription, error) {
	var sub models.TenantSubscription
	err := r.db.Where("tenant_id = ?", tenantID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) UpdateEntitlements(sub *models.TenantSubscription) error {
	now := time.Now()
	// Struct-based update so the JSON serializer on features/limits applies.
	tx := r.db.Model(&models.TenantSubscription{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Select("plan_id", "features", "limits", "status", "version", "updated_at").
		Updates(models.TenantSubscription{
			PlanID:    sub.PlanID,
			Features:  sub.Features,
			Limits:    sub.Limits,
			Status:    sub.Status,
			Version:   sub.Version + 1,
			UpdatedAt: now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrVersionConflict
	}
	sub.Version++
	sub.UpdatedAt = now
	return nil
}
