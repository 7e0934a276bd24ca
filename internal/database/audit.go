package database

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"contact-book/internal/models"
)

// CreateAuditLog records an action. It takes the caller's handle so the entry
// shares the caller's transaction.
func CreateAuditLog(ctx context.Context, db *gorm.DB, userID uint, entity string, entityID uint, action string, details map[string]any) error {
	var raw datatypes.JSON
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		raw = datatypes.JSON(b)
	}

	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  raw,
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// RecentAuditLogs returns the newest entries with their users.
func RecentAuditLogs(ctx context.Context, db *gorm.DB, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var logs []models.AuditLog
	err := db.WithContext(ctx).
		Preload("User").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}
	return logs, nil
}
