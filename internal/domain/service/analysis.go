package service

import (
	"context"
	"time"

	"AuctionPulse/internal/domain/models"
)

// MarketAnalytics is the read-only query surface of the analysis core.
// All methods are pure with respect to persistent state; implementations
// may cache, but callers must never depend on it.
type MarketAnalytics interface {
	// Trend rebuilds the sentiment trend table over the most recent days
	// trading dates ending at end (zero end means today). Output is
	// sorted ascending by date.
	Trend(ctx context.Context, end time.Time, days int) ([]models.TrendRow, error)

	// Structure assigns exactly one structural tag per instrument for
	// date, judged against prior's auction pattern and continuation count.
	Structure(ctx context.Context, date, prior time.Time) (map[string]string, error)

	// Concepts aggregates concept/industry capital flow for date,
	// descending by net inflow.
	Concepts(ctx context.Context, date time.Time) ([]models.ConceptAggregate, error)

	// Concentration computes the top-N turnover share series over a
	// rolling window ending at date, plus membership streaks.
	Concentration(ctx context.Context, date time.Time, windowDays, topN int) (*models.ConcentrationReport, error)
}
