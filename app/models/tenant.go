package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	TenantStatusTrial     = "trial"
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusCancelled = "cancelled"
)

// Tenant is a customer organization. Entitlement-relevant state lives on
// the TenantSubscription; the fields here are plain org settings.
type Tenant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Timezone  string         `gorm:"type:varchar(64);default:'UTC'" json:"timezone" validate:"max=64"`
	Currency  string         `gorm:"type:varchar(8);default:'EUR'" json:"currency" validate:"max=8"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Tenant) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// TenantSettingsUpdate carries the editable non-entitlement fields.
type TenantSettingsUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=150"`
	Timezone *string `json:"timezone" validate:"omitempty,max=64"`
	Currency *string `json:"currency" validate:"omitempty,max=8"`
}

func (u *TenantSettingsUpdate) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// Apply copies the set fields onto the tenant and reports whether anything
// changed.
func (u *TenantSettingsUpdate) Apply(t *Tenant) bool {
	changed := false
	if u.Name != nil && *u.Name != t.Name {
		t.Name = *u.Name
		changed = true
	}
	if u.Timezone != nil && *u.Timezone != t.Timezone {
		t.Timezone = *u.Timezone
		changed = true
	}
	if u.Currency != nil && *u.Currency != t.Currency {
		t.Currency = *u.Currency
		changed = true
	}
	return changed
}
