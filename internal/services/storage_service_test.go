package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00,
}

type memoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memoryObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	m.types[key] = contentType
	return nil
}

func (m *memoryObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjectStore) URL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestUploadStoresSniffedImage(t *testing.T) {
	store := newMemoryObjectStore()
	svc := NewStorageServiceWithStore(testConfig(), store)

	res, err := svc.Upload(context.Background(), pngHeader, "Mochila.PNG", svc.GetDefaultUploadOptions("products"))
	require.NoError(t, err)

	assert.Equal(t, "image/png", res.MimeType)
	assert.True(t, strings.HasPrefix(res.Key, "products/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.Equal(t, int64(len(pngHeader)), res.Size)
	assert.Equal(t, "image/png", store.types[res.Key])
}

func TestUploadUsesDetectedExtension(t *testing.T) {
	svc := NewStorageServiceWithStore(testConfig(), newMemoryObjectStore())

	res, err := svc.Upload(context.Background(), pngHeader, "blob", svc.GetDefaultUploadOptions("shops"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
}

func TestUploadRejectsWrongTypeAndSize(t *testing.T) {
	svc := NewStorageServiceWithStore(testConfig(), newMemoryObjectStore())
	ctx := context.Background()

	_, err := svc.Upload(ctx, []byte("#!/bin/sh\necho hi\n"), "photo.png", svc.GetDefaultUploadOptions("products"))
	assert.True(t, errors.Is(err, ErrFileTypeInvalid))

	_, err = svc.Upload(ctx, pngHeader, "photo.png", UploadOptions{Folder: "products", MaxSize: 10})
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestDeleteByURLIgnoresForeignHosts(t *testing.T) {
	store := newMemoryObjectStore()
	svc := NewStorageServiceWithStore(testConfig(), store)
	ctx := context.Background()

	res, err := svc.Upload(ctx, pngHeader, "a.png", svc.GetDefaultUploadOptions("products"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByURL(ctx, "https://elsewhere.example.com/"+res.Key))
	assert.Contains(t, store.objects, res.Key)

	require.NoError(t, svc.DeleteByURL(ctx, res.URL))
	assert.NotContains(t, store.objects, res.Key)
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig().Storage
	cfg.LocalPath = root
	store, err := newLocalStore(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "products/a.png", pngHeader, "image/png"))
	data, err := os.ReadFile(filepath.Join(root, "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "http://localhost:8080/uploads/products/a.png", store.URL("products/a.png"))

	assert.Error(t, store.Put(ctx, "../escape.png", pngHeader, "image/png"))
	assert.Error(t, store.Delete(ctx, "../../etc/passwd"))

	require.NoError(t, store.Delete(ctx, "products/a.png"))
	require.NoError(t, store.Delete(ctx, "products/a.png"))
}
