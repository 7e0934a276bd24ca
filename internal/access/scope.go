package access

import (
	"gorm.io/gorm"

	"contact-book/internal/models"
)

// VisibleContacts restricts a contacts query to what the actor may read.
func VisibleContacts(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if SeesAllContacts(a.Role) {
			return db
		}
		return db.Where("contacts.owner_id = ?", a.ID)
	}
}

// SelectableGroups restricts a contact_groups query to groups the actor may
// file contacts under.
func SelectableGroups(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if SeesAllGroups(a.Role) {
			return db
		}
		return db.Where("contact_groups.owner_id = ?", a.ID)
	}
}

// VisibleUsers is the query form of VisibleUserFilter.
func VisibleUsers(a Actor) (func(*gorm.DB) *gorm.DB, error) {
	f, err := VisibleUserFilter(a)
	if err != nil {
		return nil, err
	}
	return func(db *gorm.DB) *gorm.DB {
		if f.ExcludeID != 0 {
			db = db.Where("users.id <> ?", f.ExcludeID)
		}
		if len(f.ExcludeRoles) > 0 {
			db = db.Where("users.role NOT IN ?", roleNames(f.ExcludeRoles))
		}
		if len(f.OnlyRoles) > 0 {
			db = db.Where("users.role IN ?", roleNames(f.OnlyRoles))
		}
		return db
	}, nil
}

func roleNames(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}
