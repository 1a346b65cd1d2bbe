package trend

import (
	"context"
	"sort"
	"time"

	"AuctionPulse/internal/domain/models"
	"AuctionPulse/internal/services/sentiment"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/pool"
	"AuctionPulse/pkg/util"
)

// DefaultWorkers bounds the per-date fan-out of snapshot fetches.
const DefaultWorkers = 6

// FetchFunc returns the instrument records for one (date, phase)
// snapshot. A missing snapshot is (nil, nil); errors are treated the
// same way after logging, so one bad date never aborts the batch.
type FetchFunc func(ctx context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error)

// Assembler builds the multi-day trend table.
type Assembler struct {
	fetch FetchFunc
	pool  *pool.Pool
	l     *applogger.Logger
}

func NewAssembler(fetch FetchFunc, workers int, l *applogger.Logger) *Assembler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Assembler{fetch: fetch, pool: pool.New(workers), l: l}
}

// Report aggregates every date for both phases concurrently, drops dates
// with no usable phase, sorts ascending by date and fills in the
// day-over-day derived columns. Input date order does not matter.
func (a *Assembler) Report(ctx context.Context, dates []time.Time) []models.TrendRow {
	if len(dates) == 0 {
		return nil
	}

	type unit struct {
		date  time.Time
		phase models.SessionPhase
	}
	units := make([]unit, 0, len(dates)*2)
	for _, d := range dates {
		units = append(units, unit{d, models.PhaseAuction}, unit{d, models.PhaseClose})
	}

	aggs := make([]*models.SessionAggregate, len(units))
	errs := a.pool.Each(ctx, len(units), func(ctx context.Context, i int) error {
		u := units[i]
		recs, err := a.fetch(ctx, u.date, u.phase)
		if err != nil {
			return err
		}
		aggs[i] = sentiment.Aggregate(util.FormatDate(u.date), u.phase, recs)
		return nil
	})
	for i, err := range errs {
		if err != nil {
			a.l.Warn("trend unit dropped",
				applogger.String("date", util.FormatDate(units[i].date)),
				applogger.String("phase", string(units[i].phase)),
				applogger.Error(err),
			)
		}
	}

	rows := make([]models.TrendRow, 0, len(dates))
	for i := 0; i < len(units); i += 2 {
		auction, close := aggs[i], aggs[i+1]
		if auction == nil && close == nil {
			continue
		}
		row := models.TrendRow{Date: util.FormatDate(units[i].date)}
		if auction != nil {
			row.Auction = &models.PhaseTrend{SessionAggregate: *auction}
		}
		if close != nil {
			row.Close = &models.PhaseTrend{SessionAggregate: *close}
		}
		rows = append(rows, row)
	}

	// Ascending date order is a precondition for every derived column.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	derive(rows, func(r *models.TrendRow) *models.PhaseTrend { return r.Auction })
	derive(rows, func(r *models.TrendRow) *models.PhaseTrend { return r.Close })

	return rows
}

// derive fills day-over-day columns for one phase. Deltas compare with
// the nearest earlier row that carries the phase; the phase's first
// appearance keeps zero deltas.
func derive(rows []models.TrendRow, phase func(*models.TrendRow) *models.PhaseTrend) {
	var prev *models.PhaseTrend
	for i := range rows {
		cur := phase(&rows[i])
		if cur == nil {
			continue
		}

		cur.AdvDeclRatio = ratio(cur.Advancers, cur.Decliners)
		cur.SHAdvDeclRatio = ratio(cur.SHAdvancers, cur.SHDecliners)
		cur.CNAdvDeclRatio = ratio(cur.CNAdvancers, cur.CNDecliners)

		if prev != nil {
			cur.AmountDelta = cur.TotalAmount - prev.TotalAmount
			if prev.TotalAmount > 0 {
				cur.AmountPctChange = cur.TotalAmount/prev.TotalAmount - 1
			}
			cur.SHMainDelta = cur.SHMainAmount - prev.SHMainAmount
			cur.ChiNextDelta = cur.ChiNextAmount - prev.ChiNextAmount
			cur.LimitUpDelta = cur.LimitUp - prev.LimitUp
			cur.LimitDownDelta = cur.LimitDown - prev.LimitDown
			cur.StrongDelta = cur.Strong - prev.Strong
			cur.WeakDelta = cur.Weak - prev.Weak
		}
		prev = cur
	}
}

// ratio guards the decliner denominator with 1 instead of producing Inf.
func ratio(adv, decl int) float64 {
	if decl == 0 {
		decl = 1
	}
	return float64(adv) / float64(decl)
}
