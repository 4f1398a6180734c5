// Package sync pkg/sync/interfaces.go
package sync

import (
	"context"
	"time"

	"github.com/ilvi/link/pkg/models"
	"github.com/ilvi/link/pkg/nebim"
	"github.com/ilvi/link/pkg/pronet"
)

//go:generate mockgen -destination=mock_sync.go -package=sync github.com/ilvi/link/pkg/sync SourceClient,SinkClient,DeviceStore,HistoryStore,Clock

// SourceClient fetches visitor statistics for one device over one time
// bucket. A nil result with nil error means no usable data.
type SourceClient interface {
	GetStatistics(ctx context.Context, device *models.Device, start, end time.Time) (*pronet.Statistics, error)
}

// SinkClient opens a session with the sink and posts traffic documents
// under it.
type SinkClient interface {
	Connect(ctx context.Context) (*models.Session, error)
	Post(ctx context.Context, session *models.Session, record *nebim.SinkRecord) error
}

// DeviceStore supplies the active device snapshot for a cycle.
type DeviceStore interface {
	ListActiveDevices(ctx context.Context) ([]models.Device, error)
}

// HistoryStore persists one outcome row per processed device per cycle.
type HistoryStore interface {
	InsertSyncHistory(ctx context.Context, entry *models.SyncHistory) error
}

// Clock abstracts time for testing. After is used for the inter-cycle
// sleep; the interval changes between cycles, so a Ticker does not fit.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
