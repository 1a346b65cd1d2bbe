package repository

import (
	"context"
	"time"

	"AuctionPulse/internal/domain/models"
)

// SnapshotStore persists and serves normalized market snapshots.
// A missing (date, phase) snapshot is reported as an empty slice, not
// an error; analysis stages resolve absence by omission.
type SnapshotStore interface {
	Snapshot(ctx context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error)
	StoreSnapshot(ctx context.Context, date time.Time, phase models.SessionPhase, recs []models.InstrumentRecord) error

	LimitPool(ctx context.Context, date time.Time) ([]models.LimitPoolEntry, error)
	StoreLimitPool(ctx context.Context, date time.Time, entries []models.LimitPoolEntry) error

	// ConceptMembers returns the static concept/industry membership map
	// keyed by prefixed instrument code.
	ConceptMembers(ctx context.Context) (map[string]models.ConceptInfo, error)
	StoreConceptMembers(ctx context.Context, members map[string]models.ConceptInfo) error

	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics for ingestion and queries.
type Metrics interface {
	RecordRowsStored(phase string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordQuery(query string)
}
