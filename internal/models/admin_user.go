package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminUser struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"size:32;not null;default:shop_manager"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleShopManager   Role = "shop_manager"
	RoleViewer        Role = "viewer"
)

// Capabilities checked before settings or sync actions run.
const (
	CapManageOptions     = "manage_options"
	CapManageWooCommerce = "manage_woocommerce"
)

// Capabilities returns what the role is allowed to do.
func (r Role) Capabilities() []string {
	switch r {
	case RoleAdministrator:
		return []string{CapManageOptions, CapManageWooCommerce}
	case RoleShopManager:
		return []string{CapManageWooCommerce}
	}
	return nil
}

func (u *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
