package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"contact-book/internal/access"
	"contact-book/internal/common"
	"contact-book/internal/models"
)

// Guards report failures through c.Error and abort; the error responder
// turns them into a redirect, a 403 or a 404.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			fail(c, common.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.Role) gin.HandlerFunc {
	roleSet := map[models.Role]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			fail(c, common.ErrUnauthenticated)
			return
		}
		if _, ok := roleSet[user.Role]; !ok {
			fail(c, fmt.Errorf("role %s not allowed: %w", user.Role, common.ErrForbidden))
			return
		}
		c.Next()
	}
}

// OwnedLoader loads the resource addressed by the request and reports who
// owns it. A missing resource must yield common.ErrNotFound.
type OwnedLoader func(c *gin.Context) (resource any, ownerID uint, err error)

// RequireOwnership lets the request through only for the resource's owner,
// whatever the actor's role.
func RequireOwnership(load OwnedLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			fail(c, common.ErrUnauthenticated)
			return
		}
		resource, ownerID, err := load(c)
		if err != nil {
			fail(c, err)
			return
		}
		if err := access.RequireOwner(actor, ownerID); err != nil {
			fail(c, err)
			return
		}
		c.Set(resourceKey, resource)
		c.Next()
	}
}
