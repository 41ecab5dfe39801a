package repository

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// User is an account row.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name         string    `gorm:"column:name;type:varchar(255);not null"`
	Age          int       `gorm:"column:age;not null"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex:uk_email;not null"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (User) TableName() string {
	return "users"
}

// HealthProfileRow keeps the whole profile as a JSON document keyed by user.
type HealthProfileRow struct {
	UserID    string         `gorm:"column:user_id;primaryKey;type:varchar(36)"`
	Document  datatypes.JSON `gorm:"column:document;type:json;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (HealthProfileRow) TableName() string {
	return "health_profiles"
}

// OTPEntry is a pending one-time password for an email address.
type OTPEntry struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}
