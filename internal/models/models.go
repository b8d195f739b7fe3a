package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"userhub/internal/roles"
)

type User struct {
	ID           string       `gorm:"primaryKey;size:36"           json:"id"`
	FirstName    string       `gorm:"not null"                     json:"first_name"`
	LastName     string       `gorm:"not null"                     json:"last_name"`
	Email        string       `gorm:"uniqueIndex;not null"         json:"email"`
	PasswordHash string       `gorm:"not null"                     json:"-"`
	Roles        []roles.Role `gorm:"serializer:json;not null"     json:"roles"`
	RefreshToken *string      `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if len(u.Roles) == 0 {
		u.Roles = roles.Default()
	}
	return nil
}
