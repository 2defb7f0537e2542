// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"tubbit/internal/storage"
)

// MemoryStore is an in-memory storage.Store.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
	// PutErr, when set, fails every Put.
	PutErr error
	next   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

// Put records the object under a sequential public id.
func (s *MemoryStore) Put(_ context.Context, obj storage.Object) (*storage.Asset, error) {
	if s.PutErr != nil {
		return nil, s.PutErr
	}
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("%s/%d.%s", obj.Folder, s.next, obj.Ext)
	s.Objects[id] = body
	return &storage.Asset{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

// Delete forgets the object and remembers the id.
func (s *MemoryStore) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, publicID)
	s.Deleted = append(s.Deleted, publicID)
	return nil
}

// StaticProber reports a fixed duration for every file.
type StaticProber float64

// Duration implements storage.Prober.
func (p StaticProber) Duration(context.Context, string) (float64, error) {
	return float64(p), nil
}

// NewUploader wires an uploader over store with a fixed video duration.
func NewUploader(store storage.Store, duration float64, tempDir string) *storage.Uploader {
	return storage.NewUploader(store, StaticProber(duration), storage.UploaderOptions{TempDir: tempDir})
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
