// Package db pkg/db/interfaces.go
package db

import (
	"context"

	"github.com/ilvi/link/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/ilvi/link/pkg/db Service

// Service represents all database operations used by the link service.
type Service interface {
	Close() error

	// Device operations.

	ListDevices(ctx context.Context) ([]models.Device, error)
	ListActiveDevices(ctx context.Context) ([]models.Device, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
	CreateDevice(ctx context.Context, device *models.Device) error
	UpdateDevice(ctx context.Context, device *models.Device) error
	DeleteDevice(ctx context.Context, id int64) error

	// Setting operations.

	GetSetting(ctx context.Context, key string) (string, bool, error)
	ListSettings(ctx context.Context) (map[string]string, error)
	UpsertSettings(ctx context.Context, settings map[string]string) error

	// Sync history operations. History is append-only; there is no update
	// or delete on purpose.

	InsertSyncHistory(ctx context.Context, entry *models.SyncHistory) error
	ListSyncHistory(ctx context.Context, limit int) ([]models.SyncHistory, error)
	LatestSyncByStore(ctx context.Context) ([]models.SyncHistory, error)
}
