package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"AuctionPulse/internal/domain/models"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/util"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func univ(amount, pct float64) []models.InstrumentRecord {
	return []models.InstrumentRecord{
		{Code: "sh600001", Amount: amount, PctChange: pct, Price: 10},
		{Code: "sz000002", Amount: amount, PctChange: -pct, Price: 10},
	}
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

func TestReportSortsAscendingRegardlessOfInput(t *testing.T) {
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: univ(1e8, 1), models.PhaseClose: univ(2e8, 1)},
		"2025-06-17": {models.PhaseAuction: univ(2e8, 1), models.PhaseClose: univ(3e8, 1)},
		"2025-06-18": {models.PhaseAuction: univ(3e8, 1), models.PhaseClose: univ(4e8, 1)},
	}
	a := NewAssembler(fetchFrom(data, nil), 3, applogger.Nop())

	rows := a.Report(context.Background(), []time.Time{day(18), day(16), day(17)})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Date <= rows[i-1].Date {
			t.Fatalf("rows not ascending: %s then %s", rows[i-1].Date, rows[i].Date)
		}
	}
}

func TestReportFirstRowDeltasZero(t *testing.T) {
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: univ(1e8, 1)},
		"2025-06-17": {models.PhaseAuction: univ(3e8, 1)},
	}
	a := NewAssembler(fetchFrom(data, nil), 2, applogger.Nop())
	rows := a.Report(context.Background(), []time.Time{day(16), day(17)})

	first := rows[0].Auction
	if first.AmountDelta != 0 || first.AmountPctChange != 0 || first.LimitUpDelta != 0 {
		t.Fatalf("first row deltas must be zero: %+v", first)
	}
	second := rows[1].Auction
	// 2e8 total yuan -> 2.00; 6e8 -> 6.00
	if second.AmountDelta != 4.0 {
		t.Fatalf("second row amount delta = %v, want 4.0", second.AmountDelta)
	}
	if second.AmountPctChange != 2.0 {
		t.Fatalf("second row pct change = %v, want 2.0", second.AmountPctChange)
	}
}

func TestReportDropsFailingAndEmptyDates(t *testing.T) {
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: univ(1e8, 1)},
		// 06-17 has no snapshots at all
		"2025-06-18": {models.PhaseAuction: univ(2e8, 1)},
	}
	fail := map[string]bool{"2025-06-18": true}
	a := NewAssembler(fetchFrom(data, fail), 2, applogger.Nop())

	rows := a.Report(context.Background(), []time.Time{day(16), day(17), day(18)})
	if len(rows) != 1 || rows[0].Date != "2025-06-16" {
		t.Fatalf("expected only 2025-06-16, got %+v", rows)
	}
}

func TestReportToleratesMissingPhase(t *testing.T) {
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: univ(1e8, 1), models.PhaseClose: univ(2e8, 1)},
		"2025-06-17": {models.PhaseAuction: univ(2e8, 1)}, // close not yet captured
	}
	a := NewAssembler(fetchFrom(data, nil), 2, applogger.Nop())
	rows := a.Report(context.Background(), []time.Time{day(16), day(17)})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Close != nil {
		t.Fatalf("missing phase must stay nil")
	}
	if rows[1].Auction == nil || rows[1].Auction.AmountDelta != 2.0 {
		t.Fatalf("present phase must keep derived columns: %+v", rows[1].Auction)
	}
}

func TestReportAdvDeclRatioGuard(t *testing.T) {
	allUp := []models.InstrumentRecord{
		{Code: "sh600001", Amount: 1e8, PctChange: 2, Price: 10},
		{Code: "sh600002", Amount: 1e8, PctChange: 3, Price: 10},
	}
	data := map[string]map[models.SessionPhase][]models.InstrumentRecord{
		"2025-06-16": {models.PhaseAuction: allUp},
	}
	a := NewAssembler(fetchFrom(data, nil), 1, applogger.Nop())
	rows := a.Report(context.Background(), []time.Time{day(16)})

	if got := rows[0].Auction.AdvDeclRatio; got != 2.0 {
		t.Fatalf("ratio with zero decliners = %v, want 2.0", got)
	}
}

func TestReportEmptyDateList(t *testing.T) {
	a := NewAssembler(fetchFrom(nil, nil), 2, applogger.Nop())
	if rows := a.Report(context.Background(), nil); rows != nil {
		t.Fatalf("expected nil rows")
	}
}
