package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"contact-book/internal/access"
	"contact-book/internal/cache"
	"contact-book/internal/common"
	"contact-book/internal/database"
	"contact-book/internal/models"
	"contact-book/internal/storage"
	"contact-book/internal/validator"
)

// ContactInput is the contact form as submitted. The owner is never part of
// it; it always comes from the authenticated actor.
type ContactInput struct {
	Name           string `form:"name" validate:"notblank,max=255"`
	PhoneNumber    string `form:"phone_number" validate:"required,indian_phone"`
	Email          string `form:"email" validate:"omitempty,email,max=254"`
	ContactGroupID uint   `form:"contact_group" validate:"required"`

	// ClearPicture is the "remove image" checkbox of the edit form.
	ClearPicture bool    `form:"contact_picture-clear" validate:"-"`
	Picture      *Upload `form:"-" validate:"-"`
}

func (in *ContactInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Email = strings.TrimSpace(in.Email)
}

func (in *ContactInput) emailPtr() *string {
	if in.Email == "" {
		return nil
	}
	e := in.Email
	return &e
}

type ContactService struct {
	db       *gorm.DB
	blobs    storage.Store
	counts   *cache.ContactCounts
	validate *validator.Validator
	logger   *slog.Logger
}

func NewContactService(db *gorm.DB, blobs storage.Store, counts *cache.ContactCounts, v *validator.Validator, logger *slog.Logger) *ContactService {
	if counts == nil {
		counts = cache.NewContactCounts(cache.NewHelper(nil, ""))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{db: db, blobs: blobs, counts: counts, validate: v, logger: logger}
}

// Get loads a contact with its group and owner.
func (s *ContactService) Get(ctx context.Context, id uint) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.WithContext(ctx).
		Preload("ContactGroup").
		Preload("Owner").
		First(&contact, id).Error
	if err != nil {
		return nil, notFound(err, "contact", id)
	}
	return &contact, nil
}

// GetOwned loads a contact and checks that the actor owns it.
func (s *ContactService) GetOwned(ctx context.Context, actor access.Actor, id uint) (*models.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(actor, contact.OwnerID); err != nil {
		return nil, err
	}
	return contact, nil
}

// validateInput runs the checks shared by create and update. existingID is
// zero on create.
func (s *ContactService) validateInput(ctx context.Context, actor access.Actor, in *ContactInput, existingID uint) (*models.ContactGroup, common.ValidationErrors, error) {
	var errs common.ValidationErrors
	if err := merge(&errs, s.validate.Struct(in)); err != nil {
		return nil, nil, err
	}

	var group *models.ContactGroup
	if in.ContactGroupID != 0 {
		var g models.ContactGroup
		err := s.db.WithContext(ctx).First(&g, in.ContactGroupID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs.Add("contact_group", msgInvalidChoice)
		case err != nil:
			return nil, nil, fmt.Errorf("load contact group %d: %w", in.ContactGroupID, err)
		case !access.CanSelectGroup(actor, g.OwnerID):
			errs.Add("contact_group", msgInvalidChoice)
		default:
			group = &g
		}
	}

	if !errs.Has("phone_number") {
		var count int64
		q := s.db.WithContext(ctx).Model(&models.Contact{}).
			Where("owner_id = ? AND phone_number = ?", actor.ID, in.PhoneNumber)
		if existingID != 0 {
			q = q.Where("id <> ?", existingID)
		}
		if err := q.Count(&count).Error; err != nil {
			return nil, nil, fmt.Errorf("check phone uniqueness: %w", err)
		}
		if count > 0 {
			errs.Add("phone_number", msgPhoneTaken)
		}
	}
	return group, errs, nil
}

// preparePicture validates an upload and returns the reader to store.
func preparePicture(errs *common.ValidationErrors, in *ContactInput, required bool) (io.Reader, error) {
	if in.Picture == nil {
		if required {
			errs.Add("contact_picture", msgRequired)
		}
		return nil, nil
	}
	r, msg, err := checkImage(in.Picture)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		errs.Add("contact_picture", msg)
		return nil, nil
	}
	return r, nil
}

// Create validates the form and stores a new contact owned by actor.
func (s *ContactService) Create(ctx context.Context, actor access.Actor, in ContactInput) (*models.Contact, error) {
	in.normalize()

	group, errs, err := s.validateInput(ctx, actor, &in, 0)
	if err != nil {
		return nil, err
	}
	picture, err := preparePicture(&errs, &in, true)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	path := storage.PicturePath(in.Name, in.Picture.Filename)
	if err := s.blobs.Save(ctx, path, picture); err != nil {
		return nil, fmt.Errorf("store picture: %w", err)
	}

	contact := models.Contact{
		Name:           in.Name,
		PhoneNumber:    in.PhoneNumber,
		Email:          in.emailPtr(),
		PicturePath:    path,
		OwnerID:        actor.ID,
		ContactGroupID: group.ID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&contact).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(ctx, tx, actor.ID, "contact", contact.ID, "create", map[string]any{
			"name":          contact.Name,
			"phone_number":  contact.PhoneNumber,
			"contact_group": group.Name,
		})
	})
	if err != nil {
		s.discardBlob(ctx, path)
		if common.IsUniqueViolation(err) {
			return nil, common.ValidationErrors{{Field: "phone_number", Message: msgPhoneTaken}}
		}
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.invalidateCounts(ctx, actor.ID)
	contact.ContactGroup = *group
	s.logger.InfoContext(ctx, "contact created", "contact_id", contact.ID, "owner_id", actor.ID)
	return &contact, nil
}

// Update applies the form to an owned contact. Without a new upload and
// without the clear flag the stored picture path is kept and the blob store
// is not touched.
func (s *ContactService) Update(ctx context.Context, actor access.Actor, id uint, in ContactInput) (*models.Contact, error) {
	existing, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.normalize()

	group, errs, err := s.validateInput(ctx, actor, &in, existing.ID)
	if err != nil {
		return nil, err
	}
	if in.ClearPicture && in.Picture != nil {
		errs.Add("contact_picture", msgClearAndFile)
		in.Picture = nil
	}
	picture, err := preparePicture(&errs, &in, in.ClearPicture && !errs.Has("contact_picture"))
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	path := existing.PicturePath
	if picture != nil {
		path = storage.PicturePath(in.Name, in.Picture.Filename)
		if err := s.blobs.Save(ctx, path, picture); err != nil {
			return nil, fmt.Errorf("store picture: %w", err)
		}
	}

	changes := models.Contact{
		Name:           in.Name,
		PhoneNumber:    in.PhoneNumber,
		Email:          in.emailPtr(),
		PicturePath:    path,
		ContactGroupID: group.ID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Contact{ID: existing.ID}).
			Select("Name", "PhoneNumber", "Email", "PicturePath", "ContactGroupID").
			Omit(clause.Associations).
			Updates(&changes).Error
		if err != nil {
			return err
		}
		return database.CreateAuditLog(ctx, tx, actor.ID, "contact", existing.ID, "update", map[string]any{
			"name":            changes.Name,
			"phone_number":    changes.PhoneNumber,
			"contact_group":   group.Name,
			"picture_changed": path != existing.PicturePath,
		})
	})
	if err != nil {
		if path != existing.PicturePath {
			s.discardBlob(ctx, path)
		}
		if common.IsUniqueViolation(err) {
			return nil, common.ValidationErrors{{Field: "phone_number", Message: msgPhoneTaken}}
		}
		return nil, fmt.Errorf("update contact %d: %w", existing.ID, err)
	}

	if path != existing.PicturePath {
		s.discardBlob(ctx, existing.PicturePath)
	}
	s.logger.InfoContext(ctx, "contact updated", "contact_id", existing.ID, "owner_id", actor.ID)
	return s.Get(ctx, existing.ID)
}

// Delete removes an owned contact and its picture. There is no undo.
func (s *ContactService) Delete(ctx context.Context, actor access.Actor, id uint) error {
	contact, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Contact{}, contact.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("contact %d: %w", contact.ID, common.ErrNotFound)
		}
		return database.CreateAuditLog(ctx, tx, actor.ID, "contact", contact.ID, "delete", map[string]any{
			"name":         contact.Name,
			"phone_number": contact.PhoneNumber,
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete contact %d: %w", contact.ID, err)
	}

	s.discardBlob(ctx, contact.PicturePath)
	s.invalidateCounts(ctx, contact.OwnerID)
	s.logger.InfoContext(ctx, "contact deleted", "contact_id", contact.ID, "owner_id", actor.ID)
	return nil
}

// discardBlob removes a picture that no row references any more. The row
// change has already happened, so failures are logged rather than returned.
func (s *ContactService) discardBlob(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.blobs.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.logger.WarnContext(ctx, "failed to delete picture", "path", path, "error", err)
	}
}

func (s *ContactService) invalidateCounts(ctx context.Context, ownerID uint) {
	if err := s.counts.Invalidate(ctx, ownerID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate contact counts", "owner_id", ownerID, "error", err)
	}
}

// OpenPicture opens a stored picture for an actor that can see a contact
// referencing it. Anything else reads as not found.
func (s *ContactService) OpenPicture(ctx context.Context, actor access.Actor, path string) (io.ReadCloser, error) {
	if path == "" || !strings.HasPrefix(path, storage.ContactsPrefix+"/") {
		return nil, fmt.Errorf("picture %q: %w", path, common.ErrNotFound)
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Contact{}).
		Scopes(access.VisibleContacts(actor)).
		Where("contacts.picture_path = ?", path).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("look up picture: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("picture %q: %w", path, common.ErrNotFound)
	}
	rc, err := s.blobs.Open(ctx, path)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, fmt.Errorf("picture %q: %w", path, common.ErrNotFound)
	}
	return rc, err
}
