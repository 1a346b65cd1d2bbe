package concentration

import (
	"context"
	"sort"
	"time"

	"AuctionPulse/internal/domain/models"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/pool"
	"AuctionPulse/pkg/util"
)

const (
	// DefaultTopN is the size of the head whose turnover share is tracked.
	DefaultTopN = 15
	// DefaultWindow is the trailing trade-date window of the share series.
	DefaultWindow = 30

	defaultWorkers = 6
)

// Unit auto-detection bounds. Source snapshots report turnover in yuan
// or in 万 depending on feed vintage; magnitudes never overlap.
const (
	yuanFloor   = 1e7 // above this the column is yuan
	wanCeiling  = 1e6 // below this (but nonzero) the column is 万
	hundredMill = 1e8
)

// FetchFunc returns the instrument records of one (date, phase)
// snapshot; (nil, nil) means the snapshot does not exist.
type FetchFunc func(ctx context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error)

// Tracker computes turnover-concentration shares and top-set
// membership streaks over a trailing window.
type Tracker struct {
	fetch FetchFunc
	pool  *pool.Pool
	l     *applogger.Logger
}

func NewTracker(fetch FetchFunc, l *applogger.Logger) *Tracker {
	if l == nil {
		l = applogger.Nop()
	}
	return &Tracker{fetch: fetch, pool: pool.New(defaultWorkers), l: l}
}

// normalizeScale converts a turnover column of unknown unit to
// hundred-million yuan, keying off the largest value in the snapshot.
func normalizeScale(maxAmount float64) float64 {
	switch {
	case maxAmount > yuanFloor:
		return 1.0 / hundredMill
	case maxAmount > 0 && maxAmount < wanCeiling:
		return 1.0 / 1e4
	default:
		return 1.0
	}
}

// TopShare ranks the snapshot by turnover and returns the top-N share
// of total turnover (percent) together with the ranked head, amounts
// normalized to hundred-million yuan. An empty snapshot yields (0, nil).
func TopShare(recs []models.InstrumentRecord, topN int) (float64, []models.StreakEntry) {
	if len(recs) == 0 {
		return 0, nil
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	idx := make([]int, len(recs))
	var total, maxAmount float64
	for i := range recs {
		idx[i] = i
		total += recs[i].Amount
		if recs[i].Amount > maxAmount {
			maxAmount = recs[i].Amount
		}
	}
	if total <= 0 {
		return 0, nil
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return recs[idx[a]].Amount > recs[idx[b]].Amount
	})
	if topN > len(idx) {
		topN = len(idx)
	}

	scale := normalizeScale(maxAmount)
	var topSum float64
	top := make([]models.StreakEntry, 0, topN)
	for _, i := range idx[:topN] {
		r := &recs[i]
		topSum += r.Amount
		top = append(top, models.StreakEntry{
			Code:      r.Code,
			Name:      r.Name,
			Amount:    r.Amount * scale,
			PctChange: r.PctChange,
		})
	}
	return topSum / total * 100, top
}

type phaseDay struct {
	share float64
	top   []models.StreakEntry
	codes map[string]struct{}
	ok    bool // snapshot existed
}

// Report builds the concentration series over the given ascending
// trade dates and the evaluated (last) date's top tables with
// consecutive-membership streaks. Dates with no snapshot in either
// phase are dropped from the series; fetch failures are logged and
// treated as missing.
func (t *Tracker) Report(ctx context.Context, dates []time.Time, topN int) *models.ConcentrationReport {
	if len(dates) == 0 {
		return &models.ConcentrationReport{}
	}

	phases := []models.SessionPhase{models.PhaseAuction, models.PhaseClose}
	days := make([][2]phaseDay, len(dates)) // [date][phase]
	errs := t.pool.Each(ctx, len(dates)*2, func(ctx context.Context, i int) error {
		di, pi := i/2, i%2
		recs, err := t.fetch(ctx, dates[di], phases[pi])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		share, top := TopShare(recs, topN)
		codes := make(map[string]struct{}, len(top))
		for _, e := range top {
			codes[e.Code] = struct{}{}
		}
		days[di][pi] = phaseDay{share: share, top: top, codes: codes, ok: true}
		return nil
	})
	for i, err := range errs {
		if err != nil {
			t.l.Warn("concentration snapshot dropped",
				applogger.String("date", util.FormatDate(dates[i/2])),
				applogger.String("phase", string(phases[i%2])),
				applogger.Error(err),
			)
		}
	}

	report := &models.ConcentrationReport{}
	for di := range days {
		auction, close := days[di][0], days[di][1]
		if !auction.ok && !close.ok {
			continue
		}
		report.Series = append(report.Series, models.ConcentrationPoint{
			Date:         util.FormatDate(dates[di]),
			AuctionShare: auction.share,
			CloseShare:   close.share,
		})
	}

	last := len(days) - 1
	report.AuctionTop = withStreaks(days, last, 0)
	report.CloseTop = withStreaks(days, last, 1)
	return report
}

// withStreaks annotates the evaluated date's top entries with the
// length of their maximal trailing run of top-set membership. The walk
// stops at the first earlier date where the snapshot is missing or the
// code fell out of the set.
func withStreaks(days [][2]phaseDay, last, phase int) []models.StreakEntry {
	day := days[last][phase]
	if !day.ok {
		return nil
	}
	out := make([]models.StreakEntry, len(day.top))
	copy(out, day.top)
	for i := range out {
		streak := 1
		for di := last - 1; di >= 0; di-- {
			prev := days[di][phase]
			if !prev.ok {
				break
			}
			if _, in := prev.codes[out[i].Code]; !in {
				break
			}
			streak++
		}
		out[i].Streak = streak
	}
	return out
}
