package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"contact-book/internal/common"
	"contact-book/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// statusFromErrors stands in for the application's error responder.
func statusFromErrors(c *gin.Context) {
	c.Next()
	if len(c.Errors) > 0 && !c.Writer.Written() {
		c.Status(common.HTTPStatusFromError(c.Errors.Last().Err))
	}
}

func withUser(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u != nil {
			c.Set(currentUserKey, u)
		}
		c.Next()
	}
}

func user(id uint, role models.Role) *models.User {
	u := &models.User{Email: fmt.Sprintf("u%d@example.com", id), Role: role}
	u.ID = id
	return u
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRequireAuth(t *testing.T) {
	for _, tt := range []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"signed in", user(1, models.RoleUser), http.StatusOK},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(statusFromErrors, withUser(tt.user), RequireAuth())
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			if got := serve(r, http.MethodGet, "/").Code; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"super admin", user(1, models.RoleSuperAdmin), http.StatusOK},
		{"admin", user(2, models.RoleAdmin), http.StatusOK},
		{"user", user(3, models.RoleUser), http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(statusFromErrors, withUser(tt.user))
			r.GET("/users", RequireRole(models.RoleSuperAdmin, models.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			if got := serve(r, http.MethodGet, "/users").Code; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

type item struct {
	id, owner uint
}

func TestRequireOwnership(t *testing.T) {
	items := map[string]item{"1": {1, 10}, "2": {2, 20}}
	load := func(c *gin.Context) (any, uint, error) {
		it, ok := items[c.Param("id")]
		if !ok {
			return nil, 0, fmt.Errorf("item %s: %w", c.Param("id"), common.ErrNotFound)
		}
		return it, it.owner, nil
	}

	tests := []struct {
		name string
		user *models.User
		path string
		want int
	}{
		{"owner", user(10, models.RoleUser), "/items/1", http.StatusOK},
		{"super admin is not owner", user(20, models.RoleSuperAdmin), "/items/1", http.StatusForbidden},
		{"missing", user(10, models.RoleUser), "/items/9", http.StatusNotFound},
		{"anonymous", nil, "/items/1", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(statusFromErrors, withUser(tt.user))
			r.POST("/items/:id", RequireOwnership(load), func(c *gin.Context) {
				it, ok := Resource[item](c)
				if !ok || it.owner != 10 {
					c.Status(http.StatusTeapot)
					return
				}
				c.Status(http.StatusOK)
			})
			if got := serve(r, http.MethodPost, tt.path).Code; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentActor(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := CurrentActor(c); ok {
		t.Error("anonymous context has an actor")
	}
	c.Set(currentUserKey, user(5, models.RoleAdmin))
	a, ok := CurrentActor(c)
	if !ok || a.ID != 5 || a.Role != models.RoleAdmin {
		t.Errorf("CurrentActor() = %+v, %v", a, ok)
	}
}

func TestRequestIDAndHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := serve(r, http.MethodGet, "/")
	if id := w.Header().Get("X-Request-ID"); id == "" || id != w.Body.String() {
		t.Errorf("request id header %q body %q", id, w.Body.String())
	}
	if w.Header().Get("X-Frame-Options") != "DENY" || w.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("security headers missing: %v", w.Header())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("incoming request id not reused")
	}
}

func TestFailKeepsError(t *testing.T) {
	r := gin.New()
	var seen error
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			seen = c.Errors.Last().Err
		}
	})
	r.GET("/", RequireAuth())
	serve(r, http.MethodGet, "/")
	if !errors.Is(seen, common.ErrUnauthenticated) {
		t.Errorf("recorded error = %v", seen)
	}
}
