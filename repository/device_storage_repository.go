package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DeviceStorageRepository handles database operations for the device_storage table
// Implements DeviceStorageRepositoryInterface
type DeviceStorageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceStorageRepository creates a new DeviceStorageRepository
func NewDeviceStorageRepository(conn *sql.DB, logger *zap.Logger) *DeviceStorageRepository {
	return &DeviceStorageRepository{db: conn, logger: logger}
}

// Ensure DeviceStorageRepository implements DeviceStorageRepositoryInterface
var _ DeviceStorageRepositoryInterface = (*DeviceStorageRepository)(nil)

// Get reads one key of a device
func (r *DeviceStorageRepository) Get(ctx context.Context, deviceID, key string) (string, bool, error) {
	query := `SELECT value FROM device_storage WHERE device_id = $1 AND key = $2`

	var value string
	err := r.db.QueryRowContext(ctx, query, deviceID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("❌ Error reading device storage",
			zap.String("device_id", deviceID), zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("failed to read device storage: %w", err)
	}
	return value, true, nil
}

// Set upserts one key of a device
func (r *DeviceStorageRepository) Set(ctx context.Context, deviceID, key, value string) error {
	query := `
		INSERT INTO device_storage (device_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (device_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, deviceID, key, value); err != nil {
		r.logger.Error("❌ Error writing device storage",
			zap.String("device_id", deviceID), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write device storage: %w", err)
	}

	r.logger.Debug("💾 Device storage updated", zap.String("device_id", deviceID), zap.String("key", key))
	return nil
}

// Delete removes one key of a device
func (r *DeviceStorageRepository) Delete(ctx context.Context, deviceID, key string) error {
	query := `DELETE FROM device_storage WHERE device_id = $1 AND key = $2`

	if _, err := r.db.ExecContext(ctx, query, deviceID, key); err != nil {
		r.logger.Error("❌ Error deleting device storage",
			zap.String("device_id", deviceID), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete device storage: %w", err)
	}
	return nil
}
