package concentration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"AuctionPulse/internal/domain/models"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/util"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

// universe builds a snapshot whose turnover ranking is fixed by the
// argument order: amounts[0] is the largest.
func universe(amounts ...float64) []models.InstrumentRecord {
	recs := make([]models.InstrumentRecord, 0, len(amounts))
	for i, a := range amounts {
		recs = append(recs, models.InstrumentRecord{
			Code:   fmt.Sprintf("sh6%05d", i),
			Name:   fmt.Sprintf("标的%d", i),
			Amount: a,
		})
	}
	return recs
}

func fetchFrom(data map[string]map[models.SessionPhase][]models.InstrumentRecord, fail map[string]bool) FetchFunc {
	return func(ctx context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error) {
		key := util.FormatDate(date)
		if fail[key] {
			return nil, errors.New("snapshot unavailable")
		}
		return data[key][phase], nil
	}
}

func TestTopShareBasic(t *testing.T) {
	recs := universe(6e8, 3e8, 1e8) // yuan scale
	share, top := TopShare(recs, 2)
	if share != 90.0 {
		t.Fatalf("share = %v, want 90.0", share)
	}
	if len(top) != 2 || top[0].Code != "sh600000" || top[1].Code != "sh600001" {
		t.Fatalf("top = %+v", top)
	}
	// amounts reported in hundred-million yuan
	if top[0].Amount != 6.0 || top[1].Amount != 3.0 {
		t.Fatalf("amounts not normalized: %+v", top)
	}
}

func TestTopShareUnitAutoDetection(t *testing.T) {
	// 万-scale feed: 5e4 万 = 5 hundred-million.
	wan := universe(5e4, 3e4)
	_, top := TopShare(wan, 2)
	if top[0].Amount != 5.0 {
		t.Fatalf("万 amount = %v, want 5.0", top[0].Amount)
	}

	// Ambiguous mid-range magnitudes are passed through untouched.
	mid := universe(5e6, 3e6)
	_, top = TopShare(mid, 2)
	if top[0].Amount != 5e6 {
		t.Fatalf("mid-range amount = %v, want 5e6", top[0].Amount)
	}
}

func TestTopShareSmallUniverse(t *testing.T) {
	recs := universe(2e8, 1e8)
	share, top := TopShare(recs, 15)
	if share != 100.0 {
		t.Fatalf("share = %v, want 100.0", share)
	}
	if len(top) != 2 {
		t.Fatalf("top = %+v", top)
	}
}

func TestTopShareEmptyAndZeroTurnover(t *testing.T) {
	if share, top := TopShare(nil, 15); share != 0 || top != nil {
		t.Fatalf("empty snapshot: share=%v top=%+v", share, top)
	}
	if share, top := TopShare(universe(0, 0), 15); share != 0 || top != nil {
		t.Fatalf("zero turnover: share=%v top=%+v", share, top)
	}
}

func TestReportSeriesAndMissingDates(t *testing.T) {
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {
			models.PhaseAuction: universe(6e8, 3e8, 1e8),
			models.PhaseClose:   universe(5e8, 4e8, 1e8),
		},
		// 06-17 holiday gap: no snapshots
		"2025-06-18": {
			models.PhaseAuction: universe(8e8, 1e8, 1e8),
		},
	}
	tr := NewTracker(fetchFrom(data, nil), applogger.Nop())
	rep := tr.Report(context.Background(), []time.Time{day(16), day(17), day(18)}, 2)

	if len(rep.Series) != 2 {
		t.Fatalf("series = %+v", rep.Series)
	}
	if rep.Series[0].Date != "2025-06-16" || rep.Series[0].AuctionShare != 90.0 || rep.Series[0].CloseShare != 90.0 {
		t.Fatalf("series[0] = %+v", rep.Series[0])
	}
	if rep.Series[1].Date != "2025-06-18" || rep.Series[1].AuctionShare != 90.0 || rep.Series[1].CloseShare != 0 {
		t.Fatalf("series[1] = %+v", rep.Series[1])
	}
	if rep.CloseTop != nil {
		t.Fatalf("close phase absent on evaluated date: %+v", rep.CloseTop)
	}
}

func TestReportStreaks(t *testing.T) {
	// sh600000 stays in the top-2 all three days; sh600002 enters only
	// on the evaluated date.
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: universe(6e8, 3e8, 1e8)},
		"2025-06-17": {models.PhaseAuction: universe(6e8, 3e8, 1e8)},
		"2025-06-18": {models.PhaseAuction: []models.InstrumentRecord{
			{Code: "sh600000", Name: "标的0", Amount: 6e8},
			{Code: "sh600002", Name: "标的2", Amount: 5e8},
			{Code: "sh600001", Name: "标的1", Amount: 1e8},
		}},
	}
	tr := NewTracker(fetchFrom(data, nil), applogger.Nop())
	rep := tr.Report(context.Background(), []time.Time{day(16), day(17), day(18)}, 2)

	streaks := map[string]int{}
	for _, e := range rep.AuctionTop {
		streaks[e.Code] = e.Streak
	}
	if streaks["sh600000"] != 3 {
		t.Fatalf("persistent member streak = %d, want 3", streaks["sh600000"])
	}
	if streaks["sh600002"] != 1 {
		t.Fatalf("new entrant streak = %d, want 1", streaks["sh600002"])
	}
}

func TestReportStreakStopsAtGap(t *testing.T) {
	// Member present day 16 and 18 but day 17's snapshot is missing:
	// the trailing run must not see through the gap.
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: universe(6e8, 3e8)},
		"2025-06-18": {models.PhaseAuction: universe(6e8, 3e8)},
	}
	tr := NewTracker(fetchFrom(data, nil), applogger.Nop())
	rep := tr.Report(context.Background(), []time.Time{day(16), day(17), day(18)}, 2)

	for _, e := range rep.AuctionTop {
		if e.Streak != 1 {
			t.Fatalf("streak through gap: %+v", e)
		}
	}
}

func TestReportFetchErrorTreatedAsMissing(t *testing.T) {
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: universe(6e8, 3e8)},
		"2025-06-17": {models.PhaseAuction: universe(6e8, 3e8)},
	}
	fail := map[string]bool{"2025-06-16": true}
	tr := NewTracker(fetchFrom(data, fail), applogger.Nop())
	rep := tr.Report(context.Background(), []time.Time{day(16), day(17)}, 2)

	if len(rep.Series) != 1 || rep.Series[0].Date != "2025-06-17" {
		t.Fatalf("series = %+v", rep.Series)
	}
	for _, e := range rep.AuctionTop {
		if e.Streak != 1 {
			t.Fatalf("failed date must break the run: %+v", e)
		}
	}
}

func TestReportEmptyWindow(t *testing.T) {
	tr := NewTracker(fetchFrom(nil, nil), applogger.Nop())
	rep := tr.Report(context.Background(), nil, 2)
	if rep == nil || rep.Series != nil || rep.AuctionTop != nil {
		t.Fatalf("empty window report = %+v", rep)
	}
}
