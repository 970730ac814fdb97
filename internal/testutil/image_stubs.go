// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"instaclone/internal/storage"
)

// ImageStoreStub is an in-memory storage.ImageStore for tests.
// Set UploadErr or DestroyErr to make every later call fail, or FailDestroy
// to fail only selected ids.
type ImageStoreStub struct {
	mu          sync.Mutex
	BaseURL     string
	UploadErr   error
	DestroyErr  error
	FailDestroy func(publicID string) error
	Objects     map[string][]byte
	Destroyed   []string
	next        int
}

// NewImageStoreStub creates an empty stub serving from http://media.test.
func NewImageStoreStub() *ImageStoreStub {
	return &ImageStoreStub{BaseURL: "http://media.test", Objects: make(map[string][]byte)}
}

// Upload records the bytes and returns a deterministic URL.
func (s *ImageStoreStub) Upload(_ context.Context, file storage.Upload, folder string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	s.next++
	id := fmt.Sprintf("%s/%s/img%04d", storage.Namespace, folder, s.next)
	s.Objects[id] = file.Content
	return s.BaseURL + "/" + id + ".webp", nil
}

// Destroy forgets the object.
func (s *ImageStoreStub) Destroy(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DestroyErr != nil {
		return s.DestroyErr
	}
	if s.FailDestroy != nil {
		if err := s.FailDestroy(publicID); err != nil {
			return err
		}
	}
	delete(s.Objects, publicID)
	s.Destroyed = append(s.Destroyed, publicID)
	return nil
}

// Has reports whether the object behind url is still stored.
func (s *ImageStoreStub) Has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[storage.ExtractPublicID(url)]
	return ok
}

// Put stores an object directly, as if it had been uploaded earlier, and returns its URL.
func (s *ImageStoreStub) Put(folder, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s/%s/%s", storage.Namespace, folder, name)
	s.Objects[id] = []byte{0}
	return s.BaseURL + "/" + id + ".webp"
}

// Count returns the number of stored objects.
func (s *ImageStoreStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
