package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleReader UserRole = "reader" // Can browse, borrow, and review
	UserRoleStaff  UserRole = "staff"  // Can manage inventory
	UserRoleAdmin  UserRole = "admin"  // Full access including user management
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string   `gorm:"size:100" json:"-"`
	Role         UserRole `gorm:"size:20;default:'reader'" json:"role"`

	// API token (hashed, plaintext shown once on generation)
	TokenHash      string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt *time.Time `json:"-"`

	// Login tracking and lockout
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`

	Checkouts []Checkout `gorm:"foreignKey:UserID" json:"checkouts,omitempty"`
	Reviews   []Review   `gorm:"foreignKey:UserID" json:"reviews,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// CanManageInventory reports whether the role may perform staff inventory actions.
func (r UserRole) CanManageInventory() bool {
	return r == UserRoleStaff || r == UserRoleAdmin
}
