package database_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"contact-book/internal/common"
	"contact-book/internal/database"
	"contact-book/internal/database/testdb"
	"contact-book/internal/models"
)

func TestCreateSuperuser(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	u, err := database.CreateSuperuser(ctx, db, " Root@Example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("CreateSuperuser() error = %v", err)
	}
	if u.Role != models.RoleSuperAdmin || !u.IsStaff || !u.IsSuperuser {
		t.Errorf("superuser flags not forced: %+v", u)
	}
	if u.Email != "root@example.com" {
		t.Errorf("Email = %q, want normalised", u.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Errorf("password hash does not match: %v", err)
	}

	var stored models.User
	if err := db.First(&stored, u.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Role != models.RoleSuperAdmin {
		t.Errorf("stored role = %v", stored.Role)
	}

	_, err = database.CreateSuperuser(ctx, db, "root@example.com", "other")
	if !errors.Is(err, database.ErrUserExists) {
		t.Errorf("duplicate CreateSuperuser() error = %v, want ErrUserExists", err)
	}
}

func TestEnsureSuperuser_Idempotent(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := database.EnsureSuperuser(ctx, db, "boot@example.com", "pw", slog.Default()); err != nil {
			t.Fatalf("EnsureSuperuser() #%d error = %v", i, err)
		}
	}
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("users = %d, want 1", count)
	}
}

func TestCreateAuditLog(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	u, err := database.CreateSuperuser(ctx, db, "a@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := database.CreateAuditLog(ctx, db, u.ID, "contact", 3, "create", map[string]any{"name": "Jo"}); err != nil {
		t.Fatalf("CreateAuditLog() error = %v", err)
	}
	if err := database.CreateAuditLog(ctx, db, u.ID, "contact", 3, "delete", nil); err != nil {
		t.Fatalf("CreateAuditLog() error = %v", err)
	}

	logs, err := database.RecentAuditLogs(ctx, db, 10)
	if err != nil {
		t.Fatalf("RecentAuditLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Action != "delete" || logs[0].User.Email != "a@example.com" {
		t.Errorf("newest entry = %+v", logs[0])
	}
}

func TestCascadeDelete(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	owner, err := database.CreateSuperuser(ctx, db, "o@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	group := models.ContactGroup{Name: "Family", OwnerID: owner.ID}
	if err := db.Create(&group).Error; err != nil {
		t.Fatal(err)
	}
	contact := models.Contact{
		Name: "Jo", PhoneNumber: "9123456780", PicturePath: "contacts/jo.png",
		OwnerID: owner.ID, ContactGroupID: group.ID,
	}
	if err := db.Create(&contact).Error; err != nil {
		t.Fatal(err)
	}

	if err := db.Delete(&models.ContactGroup{}, group.ID).Error; err != nil {
		t.Fatalf("delete group: %v", err)
	}
	var n int64
	db.Model(&models.Contact{}).Count(&n)
	if n != 0 {
		t.Errorf("contacts after group delete = %d, want 0", n)
	}
}

func TestUniqueIndexes(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	alice, err := database.CreateSuperuser(ctx, db, "alice@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	bob := models.User{Email: "bob@example.com", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(&bob).Error; err != nil {
		t.Fatal(err)
	}

	group := models.ContactGroup{Name: "Family", OwnerID: alice.ID}
	if err := db.Create(&group).Error; err != nil {
		t.Fatal(err)
	}
	err = db.Create(&models.ContactGroup{Name: "Family", OwnerID: bob.ID}).Error
	if !common.IsUniqueViolation(err) {
		t.Errorf("duplicate group name error = %v, want unique violation", err)
	}
	bobGroup := models.ContactGroup{Name: "Gym", OwnerID: bob.ID}
	if err := db.Create(&bobGroup).Error; err != nil {
		t.Fatal(err)
	}

	contact := func(owner uint, groupID uint) *models.Contact {
		return &models.Contact{
			Name: "Jo", PhoneNumber: "9123456780", PicturePath: "contacts/jo.png",
			OwnerID: owner, ContactGroupID: groupID,
		}
	}
	if err := db.Create(contact(alice.ID, group.ID)).Error; err != nil {
		t.Fatalf("first contact: %v", err)
	}
	err = db.Create(contact(alice.ID, group.ID)).Error
	if !common.IsUniqueViolation(err) {
		t.Errorf("duplicate (owner, phone) error = %v, want unique violation", err)
	}
	if err := db.Create(contact(bob.ID, bobGroup.ID)).Error; err != nil {
		t.Errorf("same phone under another owner: %v", err)
	}

	var n int64
	db.Model(&models.Contact{}).Count(&n)
	if n != 2 {
		t.Errorf("contacts = %d, want 2", n)
	}
}
