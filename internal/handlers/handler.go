package handlers

import (
	"html/template"
	"log/slog"

	"gorm.io/gorm"

	"contact-book/internal/services"
)

// Handler serves the HTML pages and AJAX endpoints.
type Handler struct {
	db        *gorm.DB
	contacts  *services.ContactService
	groups    *services.GroupService
	users     *services.UserService
	templates *template.Template
	logger    *slog.Logger
}

func New(db *gorm.DB, contacts *services.ContactService, groups *services.GroupService, users *services.UserService, tmpl *template.Template, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        db,
		contacts:  contacts,
		groups:    groups,
		users:     users,
		templates: tmpl,
		logger:    logger,
	}
}
