package models

import "time"

// ContactGroup names are unique across all owners.
type ContactGroup struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:100;not null"`
	OwnerID   uint   `gorm:"not null;index"`
	Owner     User   `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact is unique per (owner, phone number); the same number may exist
// under different owners.
type Contact struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:255;not null"`
	PhoneNumber string  `gorm:"size:10;not null;uniqueIndex:idx_contacts_owner_phone,priority:2"`
	Email       *string `gorm:"size:254"`
	PicturePath string  `gorm:"size:255;not null"`

	OwnerID uint `gorm:"not null;index;uniqueIndex:idx_contacts_owner_phone,priority:1"`
	Owner   User `gorm:"constraint:OnDelete:CASCADE"`

	ContactGroupID uint         `gorm:"not null;index"`
	ContactGroup   ContactGroup `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contact) EmailValue() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}

func (c *Contact) HasPicture() bool {
	return c.PicturePath != ""
}
