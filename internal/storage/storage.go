// Package storage keeps uploaded contact pictures outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ContactsPrefix is the namespace every contact picture lives under.
const ContactsPrefix = "contacts"

var ErrNotExist = errors.New("blob does not exist")

// Store is the blob collaborator. Paths are slash separated and relative.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// PicturePath builds a fresh, collision free path for an uploaded picture.
func PicturePath(contactName, originalFilename string) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
	default:
		ext = ""
	}
	base := slug.Make(contactName)
	if base == "" {
		base = "picture"
	}
	if len(base) > 60 {
		base = base[:60]
	}
	return fmt.Sprintf("%s/%s-%s%s", ContactsPrefix, base, uuid.NewString()[:8], ext)
}

// FileSystem stores blobs below Root.
type FileSystem struct {
	Root string
}

func NewFileSystem(root string) (*FileSystem, error) {
	if err := os.MkdirAll(filepath.Join(root, ContactsPrefix), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &FileSystem{Root: root}, nil
}

func (fs *FileSystem) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "\\") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(fs.Root, filepath.FromSlash(clean[1:])), nil
}

func (fs *FileSystem) Save(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := fs.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish blob: %w", err)
	}
	return nil
}

func (fs *FileSystem) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return f, err
}

func (fs *FileSystem) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := fs.resolve(name)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotExist
	}
	return err
}
