package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contact-book/internal/middleware"
)

func (h *Handler) IndexPage(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", gin.H{
		"isAuthed": middleware.CurrentUser(c) != nil,
	})
}

// Health pings the database.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		middleware.Logger(c).Error("health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}
