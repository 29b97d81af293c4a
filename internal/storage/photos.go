// Package storage saves report photos.
//
// LocalPhotoStore writes uploads under a directory with random names and
// returns the public reference clients use to fetch them. The filesystem is
// an afero.Fs so tests can run against memory.
//
//	store, err := storage.NewLocalPhotoStore(storage.Config{Dir: "./uploads", URLPrefix: "/uploads/"})
//	ref, err := store.Save(ctx, file)
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrUnsupportedType is returned for uploads that are not JPEG, PNG or WebP
	ErrUnsupportedType = errors.New("photo must be a JPEG, PNG or WebP image")
	// ErrTooLarge is returned when an upload exceeds the size limit
	ErrTooLarge = errors.New("photo is too large")
	// ErrEmpty is returned for zero-byte uploads
	ErrEmpty = errors.New("photo is empty")
	// ErrNotOwned is returned when a reference does not point into this store
	ErrNotOwned = errors.New("photo reference does not belong to this store")
)

// extensions maps sniffed content types to stored file extensions
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Config holds configuration for a LocalPhotoStore
type Config struct {
	Dir       string // Root directory for uploads
	URLPrefix string // Prefix of returned references (default "/uploads/")
	MaxBytes  int64  // Per-photo limit (default 5 MiB)
	Fs        afero.Fs
}

// LocalPhotoStore stores photos in a directory
type LocalPhotoStore struct {
	fs        afero.Fs
	urlPrefix string
	maxBytes  int64
}

// NewLocalPhotoStore creates the upload directory if needed
func NewLocalPhotoStore(cfg Config) (*LocalPhotoStore, error) {
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/uploads/"
	}
	if !strings.HasSuffix(cfg.URLPrefix, "/") {
		cfg.URLPrefix += "/"
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 << 20
	}
	if cfg.Fs == nil {
		if cfg.Dir == "" {
			return nil, errors.New("upload directory is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
		cfg.Fs = afero.NewBasePathFs(afero.NewOsFs(), cfg.Dir)
	}

	return &LocalPhotoStore{
		fs:        cfg.Fs,
		urlPrefix: cfg.URLPrefix,
		maxBytes:  cfg.MaxBytes,
	}, nil
}

// MaxBytes returns the per-photo size limit
func (s *LocalPhotoStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and stores one photo and returns its reference
func (s *LocalPhotoStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.New().String() + ext
	if err := afero.WriteReader(s.fs, "/"+name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return s.urlPrefix + name, nil
}

// Delete removes a stored photo. Missing files are not an error.
func (s *LocalPhotoStore) Delete(ctx context.Context, ref string) error {
	name, err := s.nameOf(ref)
	if err != nil {
		return err
	}
	if err := s.fs.Remove("/" + name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Handler serves stored photos under the URL prefix. Directory listings are
// not served.
func (s *LocalPhotoStore) Handler() http.Handler {
	files := http.StripPrefix(s.urlPrefix, http.FileServer(afero.NewHttpFs(s.fs).Dir("/")))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.nameOf(r.URL.Path); err != nil {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *LocalPhotoStore) nameOf(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, s.urlPrefix)
	if !ok || name == "" || name != path.Base(name) {
		return "", ErrNotOwned
	}
	return name, nil
}
