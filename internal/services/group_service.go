package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"contact-book/internal/access"
	"contact-book/internal/common"
	"contact-book/internal/database"
	"contact-book/internal/models"
	"contact-book/internal/validator"
)

type GroupInput struct {
	Name string `form:"name" validate:"notblank,max=100"`
}

type GroupService struct {
	db       *gorm.DB
	validate *validator.Validator
	logger   *slog.Logger
}

func NewGroupService(db *gorm.DB, v *validator.Validator, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{db: db, validate: v, logger: logger}
}

// Selectable lists the groups the actor may file contacts under, optionally
// filtered by a case-insensitive name substring.
func (s *GroupService) Selectable(ctx context.Context, actor access.Actor, search string) ([]models.ContactGroup, error) {
	q := s.db.WithContext(ctx).
		Model(&models.ContactGroup{}).
		Scopes(access.SelectableGroups(actor)).
		Preload("Owner").
		Order("contact_groups.name asc")
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where(`LOWER(contact_groups.name) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(search)))
	}

	var groups []models.ContactGroup
	if err := q.Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list contact groups: %w", err)
	}
	return groups, nil
}

// Create adds a group owned by actor. Names are unique system wide.
func (s *GroupService) Create(ctx context.Context, actor access.Actor, in GroupInput) (*models.ContactGroup, error) {
	in.Name = strings.TrimSpace(in.Name)

	var errs common.ValidationErrors
	if err := merge(&errs, s.validate.Struct(&in)); err != nil {
		return nil, err
	}
	if !errs.Has("name") {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.ContactGroup{}).
			Where("name = ?", in.Name).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check group name: %w", err)
		}
		if count > 0 {
			errs.Add("name", msgGroupTaken)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	group := models.ContactGroup{Name: in.Name, OwnerID: actor.ID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(ctx, tx, actor.ID, "contact_group", group.ID, "create", map[string]any{"name": group.Name})
	})
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.ValidationErrors{{Field: "name", Message: msgGroupTaken}}
		}
		return nil, fmt.Errorf("create contact group: %w", err)
	}

	s.logger.InfoContext(ctx, "contact group created", "group_id", group.ID, "owner_id", actor.ID)
	return &group, nil
}
