package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"contact-book/internal/common"
	"contact-book/internal/models"
)

// ErrUserExists is returned by CreateSuperuser for a taken email.
var ErrUserExists = errors.New("user with this email already exists")

// CreateSuperuser creates a SUPER_ADMIN account. It is the only way such an
// account comes into existence; registration always yields USER.
func CreateSuperuser(ctx context.Context, db *gorm.DB, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash superuser password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if common.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create superuser: %w", err)
	}
	return &user, nil
}

// EnsureSuperuser creates the bootstrap super admin unless one already exists.
func EnsureSuperuser(ctx context.Context, db *gorm.DB, email, password string, logger *slog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleSuperAdmin.String()).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check super admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	user, err := CreateSuperuser(ctx, db, email, password)
	if err != nil {
		return err
	}
	logger.Info("created bootstrap super admin", "email", user.Email, "user_id", user.ID)
	return nil
}
