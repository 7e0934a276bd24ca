package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contact-book/internal/database"
)

const auditPageSize = 200

// ListAuditLogs is mounted behind RequireRole(SUPER_ADMIN).
func (h *Handler) ListAuditLogs(c *gin.Context) {
	logs, err := database.RecentAuditLogs(c.Request.Context(), h.db, auditPageSize)
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "audit_list.html", gin.H{
		"Title": "Audit log",
		"logs":  logs,
	})
}
