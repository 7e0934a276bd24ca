package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contact-book/internal/middleware"
)

func (h *Handler) ListUsers(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	users, err := h.users.Managed(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "users_list.html", gin.H{
		"Title": "Users",
		"users": users,
	})
}
