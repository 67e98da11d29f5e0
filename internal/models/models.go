package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// ParseRole accepts the stored names plus "user", which older clients send for customers.
// An empty string yields the default role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "", string(RoleCustomer), "user":
		return RoleCustomer, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return "", false
	}
}

type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	Role         Role      `gorm:"type:varchar(16);not null"   json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Role == "" {
		a.Role = RoleCustomer
	}
	return nil
}

type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"            json:"id"`
	Name        string    `gorm:"not null"                        json:"name"`
	Price       float64   `gorm:"not null;check:price >= 0"       json:"price"`
	Category    string    `gorm:"index"                           json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Stock       int64     `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
