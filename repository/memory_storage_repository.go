package repository

import (
	"context"
	"sync"
)

// MemoryStorageRepository keeps device storage in process memory.
// Used when no database is configured and in tests.
type MemoryStorageRepository struct {
	mu      sync.RWMutex
	devices map[string]map[string]string
}

// NewMemoryStorageRepository creates a new MemoryStorageRepository
func NewMemoryStorageRepository() *MemoryStorageRepository {
	return &MemoryStorageRepository{devices: make(map[string]map[string]string)}
}

// Ensure MemoryStorageRepository implements DeviceStorageRepositoryInterface
var _ DeviceStorageRepositoryInterface = (*MemoryStorageRepository)(nil)

func (r *MemoryStorageRepository) Get(_ context.Context, deviceID, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.devices[deviceID][key]
	return value, ok, nil
}

func (r *MemoryStorageRepository) Set(_ context.Context, deviceID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.devices[deviceID]
	if !ok {
		slot = make(map[string]string)
		r.devices[deviceID] = slot
	}
	slot[key] = value
	return nil
}

func (r *MemoryStorageRepository) Delete(_ context.Context, deviceID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.devices[deviceID]
	if !ok {
		return nil
	}
	delete(slot, key)
	if len(slot) == 0 {
		delete(r.devices, deviceID)
	}
	return nil
}
