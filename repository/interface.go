package repository

import (
	"context"
)

// DeviceStorageRepositoryInterface defines the contract for per-device key/value persistence.
// A device plays the part of a browser tab; each device has its own small key space.
type DeviceStorageRepositoryInterface interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, deviceID, key string) (string, bool, error)
	Set(ctx context.Context, deviceID, key, value string) error
	// Delete is a no-op when the key does not exist
	Delete(ctx context.Context, deviceID, key string) error
}

// Storage is the key/value slot of a single device
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// deviceStorage binds a repository to one device id
type deviceStorage struct {
	repo     DeviceStorageRepositoryInterface
	deviceID string
}

// ForDevice returns the Storage of deviceID backed by repo
func ForDevice(repo DeviceStorageRepositoryInterface, deviceID string) Storage {
	return &deviceStorage{repo: repo, deviceID: deviceID}
}

func (s *deviceStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, s.deviceID, key)
}

func (s *deviceStorage) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.deviceID, key, value)
}

func (s *deviceStorage) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.deviceID, key)
}
