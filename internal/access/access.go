// Package access decides what an authenticated user may see or change.
//
// Predicates here are pure; scope.go turns the same rules into gorm scopes
// so listings are filtered by the database.
package access

import (
	"fmt"

	"contact-book/internal/common"
	"contact-book/internal/models"
)

// Actor is the authenticated user performing a request.
type Actor struct {
	ID   uint
	Role models.Role
}

func ActorFrom(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// CanManageUsers gates the user management screen.
func CanManageUsers(role models.Role) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	}
	return false
}

// IsOwner is required for every update or delete of a contact, whatever the role.
func IsOwner(actorID, ownerID uint) bool {
	return actorID != 0 && actorID == ownerID
}

// RequireOwner returns ErrForbidden unless the actor owns the resource.
func RequireOwner(a Actor, ownerID uint) error {
	if !IsOwner(a.ID, ownerID) {
		return fmt.Errorf("user %d does not own resource of user %d: %w", a.ID, ownerID, common.ErrForbidden)
	}
	return nil
}

// SeesAllContacts reports whether contact listings skip the owner filter.
// Admins are deliberately scoped like users.
func SeesAllContacts(role models.Role) bool {
	switch role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin, models.RoleUser:
		return false
	}
	return false
}

// SeesAllGroups reports whether group choices skip the owner filter.
func SeesAllGroups(role models.Role) bool {
	switch role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin, models.RoleUser:
		return false
	}
	return false
}

// CanSelectGroup mirrors SelectableGroups for a single group.
func CanSelectGroup(a Actor, groupOwnerID uint) bool {
	if !a.Role.Valid() {
		return false
	}
	return SeesAllGroups(a.Role) || IsOwner(a.ID, groupOwnerID)
}

// UserFilter describes which accounts an actor may list.
type UserFilter struct {
	ExcludeRoles []models.Role
	OnlyRoles    []models.Role
	ExcludeID    uint
}

// Allows applies the filter to a single account.
func (f UserFilter) Allows(u *models.User) bool {
	if f.ExcludeID != 0 && u.ID == f.ExcludeID {
		return false
	}
	for _, r := range f.ExcludeRoles {
		if u.Role == r {
			return false
		}
	}
	if len(f.OnlyRoles) == 0 {
		return true
	}
	for _, r := range f.OnlyRoles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// VisibleUserFilter: super admins see everyone except super admins and
// themselves, admins see plain users, users see nothing.
func VisibleUserFilter(a Actor) (UserFilter, error) {
	switch a.Role {
	case models.RoleSuperAdmin:
		return UserFilter{ExcludeRoles: []models.Role{models.RoleSuperAdmin}, ExcludeID: a.ID}, nil
	case models.RoleAdmin:
		return UserFilter{OnlyRoles: []models.Role{models.RoleUser}}, nil
	case models.RoleUser:
		return UserFilter{}, fmt.Errorf("role %s cannot list users: %w", a.Role, common.ErrForbidden)
	}
	return UserFilter{}, fmt.Errorf("unknown role %s: %w", a.Role, common.ErrForbidden)
}
