package objectclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/markdave123-py/legalmind/internal/core"
)

var _ core.ObjectClient = (*MemoryClient)(nil)

// MemoryClient keeps objects in process memory. It backs local runs and tests.
type MemoryClient struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

func NewMemoryClient(bucket string) *MemoryClient {
	return &MemoryClient{bucket: bucket, objects: make(map[string][]byte)}
}

func (c *MemoryClient) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	if bucket == "" {
		bucket = c.bucket
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s/%s", bucket, key), nil
}

func (c *MemoryClient) DeleteFile(_ context.Context, bucket, key string) error {
	if bucket == "" {
		bucket = c.bucket
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, bucket+"/"+key)
	return nil
}

func (c *MemoryClient) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		bucket = c.bucket
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: object %s/%s", core.ErrNotFound, bucket, key)
	}
	return append([]byte(nil), data...), nil
}

// Len reports how many objects are stored.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
