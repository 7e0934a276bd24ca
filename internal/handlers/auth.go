package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"contact-book/internal/common"
	"contact-book/internal/middleware"
	"contact-book/internal/services"
)

const defaultLanding = "/contacts"

func (h *Handler) ShowRegister(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, defaultLanding)
		return
	}
	h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

// Register always creates a USER account; the form has no role field.
func (h *Handler) Register(c *gin.Context) {
	var form services.RegisterInput
	if err := c.ShouldBind(&form); err != nil {
		fail(c, errors.Join(common.ErrValidation, err))
		return
	}

	_, err := h.users.Register(c.Request.Context(), form)
	var ve common.ValidationErrors
	switch {
	case errors.As(err, &ve):
		h.render(c, http.StatusOK, "register.html", gin.H{
			"Title":  "Register",
			"email":  form.Email,
			"errors": ve.ByField(),
		})
		return
	case err != nil:
		fail(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) ShowLogin(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, next)
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in", "next": c.Query("next")})
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, errors.Join(common.ErrValidation, err))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.render(c, http.StatusOK, "login.html", gin.H{
			"Title": "Log in",
			"error": "Please enter a correct email and password.",
			"email": form.Email,
			"next":  form.Next,
		})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(middleware.SessionUserIDKey, user.ID)
	if err := sess.Save(); err != nil {
		fail(c, err)
		return
	}

	middleware.Logger(c).Info("user logged in", "user_id", user.ID)
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// safeNext only follows local redirects.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLanding
	}
	return next
}
