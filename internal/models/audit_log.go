package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	UserID uint
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	Entity   string         `gorm:"size:50;not null"` // "contact", "contact_group", "user"
	EntityID uint
	Action   string         `gorm:"size:50;not null"` // "create", "update", "delete"
	Details  datatypes.JSON `gorm:"type:json"`
}
