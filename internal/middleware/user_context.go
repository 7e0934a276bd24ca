package middleware

import (
	"context"
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"contact-book/internal/access"
	"contact-book/internal/common"
	"contact-book/internal/models"
)

const (
	SessionUserIDKey = "user_id"
	currentUserKey   = "CurrentUser"
	resourceKey      = "Resource"
)

// UserLoader fetches the account stored in the session.
type UserLoader func(ctx context.Context, id uint) (*models.User, error)

// InjectUser puts the session's user into the gin context. A session that
// points at a missing account is cleared.
func InjectUser(load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get(SessionUserIDKey).(uint); ok && uid > 0 {
			user, err := load(c.Request.Context(), uid)
			switch {
			case err == nil:
				c.Set(currentUserKey, user)
			case errors.Is(err, common.ErrNotFound):
				sess.Clear()
				if err := sess.Save(); err != nil {
					_ = c.Error(err)
					c.Abort()
					return
				}
			default:
				_ = c.Error(err)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// CurrentActor returns the authenticated actor; ok is false for anonymous
// requests.
func CurrentActor(c *gin.Context) (access.Actor, bool) {
	u := CurrentUser(c)
	if u == nil {
		return access.Actor{}, false
	}
	return access.ActorFrom(u), true
}

// Resource returns what RequireOwnership loaded for this request.
func Resource[T any](c *gin.Context) (T, bool) {
	var zero T
	v, ok := c.Get(resourceKey)
	if !ok {
		return zero, false
	}
	r, ok := v.(T)
	return r, ok
}
