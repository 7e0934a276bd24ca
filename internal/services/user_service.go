package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"contact-book/internal/access"
	"contact-book/internal/common"
	"contact-book/internal/database"
	"contact-book/internal/models"
	"contact-book/internal/validator"
)

type RegisterInput struct {
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

type UserService struct {
	db       *gorm.DB
	validate *validator.Validator
	logger   *slog.Logger

	// dummyHash keeps the timing of unknown-email logins close to real ones.
	dummyHash []byte
}

func NewUserService(db *gorm.DB, v *validator.Validator, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return &UserService{db: db, validate: v, logger: logger, dummyHash: dummy}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register creates a USER account. The role is never taken from the request.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)

	var errs common.ValidationErrors
	if err := merge(&errs, s.validate.Struct(&in)); err != nil {
		return nil, err
	}
	if !errs.Has("password") && isAllDigits(in.Password) {
		errs.Add("password", "This password is entirely numeric.")
	}
	if !errs.Has("email") {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			errs.Add("email", msgEmailTaken)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(ctx, tx, user.ID, "user", user.ID, "create", map[string]any{"email": user.Email})
	})
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.ValidationErrors{{Field: "email", Message: msgEmailTaken}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &user, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// Authenticate checks credentials and returns ErrInvalidCredentials on any
// mismatch so callers cannot tell unknown emails from wrong passwords.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// Managed lists the accounts the actor may manage. USER actors get
// common.ErrForbidden.
func (s *UserService) Managed(ctx context.Context, actor access.Actor) ([]models.User, error) {
	scope, err := access.VisibleUsers(actor)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(scope).Order("users.email asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
