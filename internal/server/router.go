package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"contact-book/internal/config"
	"contact-book/internal/handlers"
	"contact-book/internal/middleware"
	"contact-book/internal/models"
	"contact-book/internal/services"
	"contact-book/web"
)

const (
	sessionName    = "contactbook_session"
	sessionMaxAge  = 14 * 24 * 60 * 60
	multipartLimit = 8 << 20
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Contacts *services.ContactService
	Groups   *services.GroupService
	Users    *services.UserService
	Logger   *slog.Logger
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	tmpl, err := web.Templates(template.FuncMap{
		"mediaURL": handlers.MediaURL,
	})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	h := handlers.New(d.DB, d.Contacts, d.Groups, d.Users, tmpl, d.Logger)

	r := gin.New()
	r.MaxMultipartMemory = multipartLimit
	r.SetHTMLTemplate(tmpl)

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   d.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.ContextLogger(d.Logger),
		middleware.RequestLogger(),
		middleware.SecurityHeaders(),
		sessions.Sessions(sessionName, store),
		h.Errors(),
		middleware.InjectUser(d.Users.Get),
	)

	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/", h.IndexPage)
	r.GET("/health", h.Health)

	// AUTH
	r.GET("/register", h.ShowRegister)
	r.POST("/register", h.Register)
	r.GET("/login", h.ShowLogin)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// CONTACTS
	auth.GET("/contacts", h.ContactsPage)
	auth.GET("/contacts/data", h.ContactsData)
	auth.GET("/contacts/export", h.ExportContacts)
	auth.GET("/contacts/new", h.NewContact)
	auth.POST("/contacts/new", h.CreateContact)

	owned := middleware.RequireOwnership(h.LoadContact)
	auth.GET("/contacts/:id/edit", owned, h.EditContact)
	auth.POST("/contacts/:id/edit", owned, h.UpdateContact)
	auth.POST("/contacts/:id/delete", owned, h.DeleteContact)

	auth.GET("/media/*path", h.Media)

	// GROUPS
	auth.GET("/groups", h.ListGroups)
	auth.POST("/groups", h.CreateGroup)

	// USERS
	auth.GET("/users",
		middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin),
		h.ListUsers,
	)

	// AUDIT
	auth.GET("/audit",
		middleware.RequireRole(models.RoleSuperAdmin),
		h.ListAuditLogs,
	)

	return r, nil
}
