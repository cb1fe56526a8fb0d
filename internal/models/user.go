package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsStaff   bool      `gorm:"not null;default:false" json:"-"`

	// Argon2id hash of the outstanding confirmation code; empty when none is outstanding.
	ConfirmationCodeHash string `gorm:"type:varchar(255)" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin is true for the admin role and for staff accounts.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsStaff
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.IsAdmin()
}
