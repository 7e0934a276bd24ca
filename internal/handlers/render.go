package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"contact-book/internal/access"
	"contact-book/internal/middleware"
	"contact-book/internal/models"
)

// render wraps c.HTML and passes the current user and navigation flags to
// every page.
func (h *Handler) render(c *gin.Context, status int, tmpl string, data gin.H) {
	c.HTML(status, tmpl, h.pageData(c, data))
}

func (h *Handler) pageData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	if u := middleware.CurrentUser(c); u != nil {
		data["CurrentUser"] = u
		data["CanManageUsers"] = access.CanManageUsers(u.Role)
		data["IsSuperAdmin"] = u.Role == models.RoleSuperAdmin
	}
	// pages index into errors by field name
	if _, ok := data["errors"]; !ok {
		data["errors"] = map[string][]string{}
	}
	return data
}

// renderFragment executes a partial template into a string for JSON replies.
func (h *Handler) renderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func isAJAX(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

// MediaURL is the template helper for stored picture paths.
func MediaURL(path string) string {
	if path == "" {
		return ""
	}
	return "/media/" + path
}
