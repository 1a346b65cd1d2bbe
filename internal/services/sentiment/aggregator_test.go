package sentiment

import (
	"testing"

	"AuctionPulse/internal/domain/models"
)

func rec(code string, amount, pct float64) models.InstrumentRecord {
	return models.InstrumentRecord{Code: code, Amount: amount, PctChange: pct, Price: 10}
}

func TestAggregateScenario(t *testing.T) {
	// A:5e8 up, B:3e8 up, C:2e8 down -> 2 advancers, 1 decliner, 10.00
	recs := []models.InstrumentRecord{
		rec("sh600001", 5e8, 2.0),
		rec("sz000002", 3e8, 0.5),
		rec("sz000003", 2e8, -1.0),
	}
	agg := Aggregate("2025-06-18", models.PhaseAuction, recs)
	if agg == nil {
		t.Fatalf("expected aggregate")
	}
	if agg.Advancers != 2 || agg.Decliners != 1 {
		t.Fatalf("adv/decl = %d/%d", agg.Advancers, agg.Decliners)
	}
	if agg.TotalAmount != 10.0 {
		t.Fatalf("total = %v, want 10.00", agg.TotalAmount)
	}
}

func TestAggregateBreadthPartition(t *testing.T) {
	recs := []models.InstrumentRecord{
		rec("sh600001", 1e8, 1.0),
		rec("sz000002", 1e8, -2.0),
		rec("sz000003", 1e8, 0),
		rec("sz300004", 1e8, 3.0),
	}
	agg := Aggregate("2025-06-18", models.PhaseClose, recs)
	if got := agg.Advancers + agg.Decliners + agg.Flat; got != agg.Instruments {
		t.Fatalf("adv+decl+flat = %d, universe = %d", got, agg.Instruments)
	}
}

func TestAggregateSegmentTurnoverBound(t *testing.T) {
	recs := []models.InstrumentRecord{
		rec("sh600001", 4e8, 1.0), // SH main
		rec("sz300002", 3e8, 1.0), // ChiNext
		rec("bj830003", 2e8, 1.0), // Beijing, outside both segments
	}
	agg := Aggregate("2025-06-18", models.PhaseAuction, recs)
	if agg.SHMainAmount+agg.ChiNextAmount > agg.TotalAmount {
		t.Fatalf("segment sum %v exceeds total %v", agg.SHMainAmount+agg.ChiNextAmount, agg.TotalAmount)
	}
	if agg.SHMainAmount != 4.0 || agg.ChiNextAmount != 3.0 {
		t.Fatalf("segments = %v / %v", agg.SHMainAmount, agg.ChiNextAmount)
	}
}

func TestAggregateExcludesSTFromCountsNotTurnover(t *testing.T) {
	st := models.InstrumentRecord{Code: "sh600009", Name: "ST同方", Amount: 1e8, PctChange: 5.0, Price: 10, ST: true}
	recs := []models.InstrumentRecord{rec("sh600001", 1e8, 1.0), st}
	agg := Aggregate("2025-06-18", models.PhaseAuction, recs)
	if agg.TotalAmount != 2.0 {
		t.Fatalf("ST turnover must count: %v", agg.TotalAmount)
	}
	if agg.Advancers != 1 {
		t.Fatalf("ST must not count as advancer: %d", agg.Advancers)
	}
}

func TestAggregateLimitDetectionDualCheck(t *testing.T) {
	recs := []models.InstrumentRecord{
		// at limit price with confirming pct -> limit-up
		{Code: "sh600001", Price: 11.0, LimitUp: 11.0005, PctChange: 10.0, Amount: 1e8},
		// at limit price but pct below threshold (stale reference) -> no
		{Code: "sh600002", Price: 11.0, LimitUp: 11.0005, PctChange: 2.0, Amount: 1e8},
		// zero price (halted) -> no
		{Code: "sh600003", Price: 0, LimitUp: 0, PctChange: 10.0, Amount: 1e8},
		// limit-down with confirming pct
		{Code: "sz000004", Price: 9.0, LimitDown: 9.0002, PctChange: -10.0, Amount: 1e8},
		// 20cm board limit-up
		{Code: "sz300005", Price: 24.0, LimitUp: 24.0, PctChange: 20.0, Amount: 1e8},
	}
	agg := Aggregate("2025-06-18", models.PhaseAuction, recs)
	if agg.LimitUp != 2 {
		t.Fatalf("limit-up = %d, want 2", agg.LimitUp)
	}
	if agg.LimitDown != 1 {
		t.Fatalf("limit-down = %d, want 1", agg.LimitDown)
	}
	if agg.LimitUp20cm != 1 {
		t.Fatalf("limit-up 20cm = %d, want 1", agg.LimitUp20cm)
	}
}

func TestAggregateStrongWeak(t *testing.T) {
	recs := []models.InstrumentRecord{
		rec("sh600001", 1e8, 7.0),
		rec("sh600002", 1e8, 6.99),
		rec("sh600003", 1e8, -7.0),
		rec("sh600004", 1e8, -8.5),
	}
	agg := Aggregate("2025-06-18", models.PhaseAuction, recs)
	if agg.Strong != 1 || agg.Weak != 2 {
		t.Fatalf("strong/weak = %d/%d", agg.Strong, agg.Weak)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	if agg := Aggregate("2025-06-18", models.PhaseAuction, nil); agg != nil {
		t.Fatalf("expected nil aggregate for empty input")
	}
}
