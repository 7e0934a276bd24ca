package services

import (
	"context"
	"errors"
	"testing"

	"contact-book/internal/access"
	"contact-book/internal/common"
	"contact-book/internal/models"
)

func TestUserService_RegisterLoginCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, RegisterInput{
		Email: " New.User@Example.com ", Password: "correct-horse", PasswordConfirm: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Role != models.RoleUser || u.IsStaff || u.IsSuperuser {
		t.Errorf("registered user = %+v, want plain USER", u)
	}

	if _, err := f.users.Authenticate(ctx, "new.user@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(wrong password) = %v", err)
	}
	if _, err := f.users.Authenticate(ctx, "ghost@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(unknown) = %v", err)
	}
	logged, err := f.users.Authenticate(ctx, "NEW.USER@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	actor := access.ActorFrom(logged)
	g, err := f.groups.Create(ctx, actor, GroupInput{Name: "Mine"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	c, err := f.contacts.Create(ctx, actor, ContactInput{
		Name: "Ravi", PhoneNumber: "9876543210", ContactGroupID: g.ID, Picture: pngUpload("r.png"),
	})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if c.OwnerID != u.ID {
		t.Errorf("OwnerID = %d, want %d", c.OwnerID, u.ID)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "taken@example.com", models.RoleUser)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"taken email", RegisterInput{Email: "TAKEN@example.com", Password: "long-enough", PasswordConfirm: "long-enough"}, "email"},
		{"bad email", RegisterInput{Email: "nope", Password: "long-enough", PasswordConfirm: "long-enough"}, "email"},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", PasswordConfirm: "short"}, "password"},
		{"numeric password", RegisterInput{Email: "a@example.com", Password: "1234567890", PasswordConfirm: "1234567890"}, "password"},
		{"mismatch", RegisterInput{Email: "a@example.com", Password: "long-enough", PasswordConfirm: "long-enougH"}, "password_confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.in)
			if !errors.Is(err, common.ErrValidation) {
				t.Fatalf("Register() = %v, want validation error", err)
			}
			if len(fieldMessages(t, err, tt.field)) == 0 {
				t.Errorf("no error on %s: %v", tt.field, err)
			}
		})
	}
}

func TestUserService_Managed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.user(t, "root@example.com", models.RoleSuperAdmin)
	f.user(t, "root2@example.com", models.RoleSuperAdmin)
	admin := f.user(t, "admin@example.com", models.RoleAdmin)
	user := f.user(t, "user@example.com", models.RoleUser)

	emails := func(us []models.User) []string {
		out := make([]string, len(us))
		for i, u := range us {
			out[i] = u.Email
		}
		return out
	}

	got, err := f.users.Managed(ctx, root)
	if err != nil {
		t.Fatalf("Managed(root) error = %v", err)
	}
	if e := emails(got); len(e) != 2 || e[0] != "admin@example.com" || e[1] != "user@example.com" {
		t.Errorf("super admin manages %v", e)
	}

	got, err = f.users.Managed(ctx, admin)
	if err != nil {
		t.Fatalf("Managed(admin) error = %v", err)
	}
	if e := emails(got); len(e) != 1 || e[0] != "user@example.com" {
		t.Errorf("admin manages %v", e)
	}

	if _, err := f.users.Managed(ctx, user); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("Managed(user) = %v, want ErrForbidden", err)
	}
}

func TestUserService_Get(t *testing.T) {
	f := newFixture(t)
	if _, err := f.users.Get(context.Background(), 42); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}
