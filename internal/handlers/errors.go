package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"contact-book/internal/common"
	"contact-book/internal/middleware"
)

// Errors converts the last error recorded on the context into a response
// when the handler did not write one itself.
func (h *Handler) Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		h.respondError(c, c.Errors.Last().Err)
	}
}

// fail records err for the Errors middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := common.HTTPStatusFromError(err)

	if status == http.StatusUnauthorized && !isAJAX(c) {
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		return
	}

	var message string
	var ve common.ValidationErrors
	switch {
	case errors.As(err, &ve):
		message = ve.Error()
	case status == http.StatusBadRequest:
		message = "Invalid request."
	case status == http.StatusUnauthorized:
		message = "Authentication required."
	case status == http.StatusForbidden:
		message = "You do not have permission to perform this action."
	case status == http.StatusNotFound:
		message = "Not found."
	case status == http.StatusConflict:
		message = "The request conflicts with existing data."
	default:
		middleware.Logger(c).Error("request failed", "path", c.Request.URL.Path, "error", err)
		message = "Internal server error."
	}
	if status < http.StatusInternalServerError {
		middleware.Logger(c).Debug("request rejected", "status", status, "error", err)
	}

	if isAJAX(c) {
		c.JSON(status, gin.H{"error": message})
		return
	}
	h.render(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
}
