package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"contact-book/internal/common"
	"contact-book/internal/middleware"
	"contact-book/internal/services"
)

func (h *Handler) ListGroups(c *gin.Context) {
	h.renderGroups(c, "", nil)
}

func (h *Handler) CreateGroup(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	in := services.GroupInput{Name: c.PostForm("name")}
	_, err := h.groups.Create(c.Request.Context(), actor, in)
	var ve common.ValidationErrors
	switch {
	case errors.As(err, &ve):
		h.renderGroups(c, in.Name, ve.ByField())
		return
	case err != nil:
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/groups")
}

func (h *Handler) renderGroups(c *gin.Context, name string, errs map[string][]string) {
	actor, _ := middleware.CurrentActor(c)
	q := c.Query("q")

	groups, err := h.groups.Selectable(c.Request.Context(), actor, q)
	if err != nil {
		fail(c, err)
		return
	}
	if errs == nil {
		errs = map[string][]string{}
	}
	h.render(c, http.StatusOK, "groups_list.html", gin.H{
		"Title":  "Contact groups",
		"q":      q,
		"groups": groups,
		"name":   name,
		"errors": errs,
	})
}
