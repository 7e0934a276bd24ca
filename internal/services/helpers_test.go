package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"contact-book/internal/access"
	"contact-book/internal/database/testdb"
	"contact-book/internal/models"
	"contact-book/internal/storage"
	"contact-book/internal/validator"
)

// memStore is an in-memory storage.Store that counts writes.
type memStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saves   int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Save(_ context.Context, name string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = b
	m.saves++
	return nil
}

func (m *memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[name]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[name]; !ok {
		return storage.ErrNotExist
	}
	delete(m.blobs, name)
	m.deletes++
	return nil
}

func (m *memStore) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[name]
	return ok
}

type fixture struct {
	db       *gorm.DB
	store    *memStore
	contacts *ContactService
	groups   *GroupService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	store := newMemStore()
	v := validator.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		db:       db,
		store:    store,
		contacts: NewContactService(db, store, nil, v, logger),
		groups:   NewGroupService(db, v, logger),
		users:    NewUserService(db, v, logger),
	}
}

func (f *fixture) user(t *testing.T, email string, role models.Role) access.Actor {
	t.Helper()
	u := models.User{Email: email, PasswordHash: "x", Role: role}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return access.ActorFrom(&u)
}

func (f *fixture) group(t *testing.T, owner access.Actor, name string) models.ContactGroup {
	t.Helper()
	g := models.ContactGroup{Name: name, OwnerID: owner.ID}
	if err := f.db.Create(&g).Error; err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return g
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func pngUpload(name string) *Upload {
	return &Upload{Filename: name, Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
}

func (f *fixture) contact(t *testing.T, owner access.Actor, group models.ContactGroup, name, phone string) *models.Contact {
	t.Helper()
	c, err := f.contacts.Create(context.Background(), owner, ContactInput{
		Name:           name,
		PhoneNumber:    phone,
		ContactGroupID: group.ID,
		Picture:        pngUpload(strings.ToLower(name) + ".png"),
	})
	if err != nil {
		t.Fatalf("create contact %s: %v", name, err)
	}
	return c
}
