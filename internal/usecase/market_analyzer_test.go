package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"AuctionPulse/internal/domain/models"
	"AuctionPulse/internal/service/cache"
	pkgcal "AuctionPulse/pkg/calendar"
	"AuctionPulse/pkg/util"
)

// fakeStore serves snapshots from in-memory maps, keyed by
// "date:phase". Errors are injected per key.
type fakeStore struct {
	snapshots map[string][]models.InstrumentRecord
	pools     map[string][]models.LimitPoolEntry
	meta      map[string]models.ConceptInfo
	fail      map[string]error
	reads     int
}

func snapKey(date time.Time, phase models.SessionPhase) string {
	return util.FormatDate(date) + ":" + string(phase)
}

func (f *fakeStore) Snapshot(_ context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error) {
	f.reads++
	key := snapKey(date, phase)
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	return f.snapshots[key], nil
}

func (f *fakeStore) StoreSnapshot(_ context.Context, date time.Time, phase models.SessionPhase, recs []models.InstrumentRecord) error {
	if f.snapshots == nil {
		f.snapshots = map[string][]models.InstrumentRecord{}
	}
	f.snapshots[snapKey(date, phase)] = recs
	return nil
}

func (f *fakeStore) LimitPool(_ context.Context, date time.Time) ([]models.LimitPoolEntry, error) {
	return f.pools[util.FormatDate(date)], nil
}

func (f *fakeStore) StoreLimitPool(_ context.Context, date time.Time, entries []models.LimitPoolEntry) error {
	if f.pools == nil {
		f.pools = map[string][]models.LimitPoolEntry{}
	}
	f.pools[util.FormatDate(date)] = entries
	return nil
}

func (f *fakeStore) ConceptMembers(_ context.Context) (map[string]models.ConceptInfo, error) {
	return f.meta, nil
}

func (f *fakeStore) StoreConceptMembers(_ context.Context, members map[string]models.ConceptInfo) error {
	f.meta = members
	return nil
}

func (f *fakeStore) Health(_ context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := util.ParseDate(s)
	if !ok {
		t.Fatalf("parse %s failed", s)
	}
	return d
}

func rec(code, name string, price, amount, pct float64) models.InstrumentRecord {
	return models.InstrumentRecord{
		Code: code, Name: name,
		Price: price, Amount: amount, PctChange: pct,
		PrevClose: price, High: price,
	}
}

func newTestAnalyzer(store *fakeStore, cfg AnalyzerConfig) *MarketAnalyzer {
	return NewMarketAnalyzer(store, pkgcal.NewXSHG(), cache.NewTTLCache(), nil, cfg, nil)
}

func TestTrendWindowAscending(t *testing.T) {
	d1 := day(t, "2025-06-12")
	d2 := day(t, "2025-06-13")
	store := &fakeStore{snapshots: map[string][]models.InstrumentRecord{
		snapKey(d1, models.PhaseAuction): {rec("sh600001", "甲", 10, 1e8, 1.0)},
		snapKey(d1, models.PhaseClose):   {rec("sh600001", "甲", 10.2, 3e8, 2.0)},
		snapKey(d2, models.PhaseAuction): {rec("sh600001", "甲", 10.5, 2e8, 3.0)},
		snapKey(d2, models.PhaseClose):   {rec("sh600001", "甲", 10.8, 5e8, 3.0)},
	}}
	a := newTestAnalyzer(store, AnalyzerConfig{})

	rows, err := a.Trend(context.Background(), d2, 2)
	if err != nil {
		t.Fatalf("Trend error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Date != "2025-06-12" || rows[1].Date != "2025-06-13" {
		t.Fatalf("dates = %s, %s", rows[0].Date, rows[1].Date)
	}
	if rows[0].Auction == nil || rows[1].Auction == nil {
		t.Fatal("auction blocks missing")
	}
	if got := rows[0].Auction.AmountDelta; got != 0 {
		t.Fatalf("first-row AmountDelta = %v, want 0", got)
	}
	if got := rows[1].Auction.AmountDelta; got != 1.0 {
		t.Fatalf("AmountDelta = %v, want 1.0", got)
	}
	if got := rows[1].Close.AmountDelta; got != 2.0 {
		t.Fatalf("close AmountDelta = %v, want 2.0", got)
	}
}

func TestTrendServedFromCache(t *testing.T) {
	d := day(t, "2025-06-13")
	store := &fakeStore{snapshots: map[string][]models.InstrumentRecord{
		snapKey(d, models.PhaseAuction): {rec("sh600001", "甲", 10, 1e8, 1.0)},
	}}
	a := newTestAnalyzer(store, AnalyzerConfig{})

	if _, err := a.Trend(context.Background(), d, 1); err != nil {
		t.Fatalf("first call: %v", err)
	}
	reads := store.reads
	rows, err := a.Trend(context.Background(), d, 1)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if store.reads != reads {
		t.Fatalf("store reads grew from %d to %d, expected cache hit", reads, store.reads)
	}
	if len(rows) != 1 || rows[0].Date != "2025-06-13" {
		t.Fatalf("cached rows = %+v", rows)
	}
}

func TestStructureSnapshotLoadBearing(t *testing.T) {
	d := day(t, "2025-06-13")
	store := &fakeStore{fail: map[string]error{
		snapKey(d, models.PhaseAuction): errors.New("clickhouse down"),
	}}
	a := newTestAnalyzer(store, AnalyzerConfig{})

	if _, err := a.Structure(context.Background(), d, time.Time{}); err == nil {
		t.Fatal("expected error when the evaluated snapshot is unreadable")
	}

	// Missing snapshot is absence, not failure.
	empty := newTestAnalyzer(&fakeStore{}, AnalyzerConfig{})
	tags, err := empty.Structure(context.Background(), d, time.Time{})
	if err != nil {
		t.Fatalf("empty snapshot: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("tags = %v, want empty", tags)
	}
}

func TestStructureJoinsPriorDay(t *testing.T) {
	d := day(t, "2025-06-13")
	prior := day(t, "2025-06-12")
	store := &fakeStore{
		snapshots: map[string][]models.InstrumentRecord{
			snapKey(d, models.PhaseAuction): {
				rec("sh600001", "甲", 10, 5e8, 1.0),
				rec("sz000002", "乙", 8, 1e8, 0.5),
			},
			snapKey(prior, models.PhaseAuction): {
				rec("sh600001", "甲", 10, 1e8, 0.5),
				rec("sz000002", "乙", 8, 1e8, 0.3),
			},
		},
	}
	a := newTestAnalyzer(store, AnalyzerConfig{})

	tags, err := a.Structure(context.Background(), d, time.Time{})
	if err != nil {
		t.Fatalf("Structure error: %v", err)
	}
	if got := tags["sh600001"]; got != models.TagSuddenVolume {
		t.Fatalf("sh600001 tag = %q, want %q", got, models.TagSuddenVolume)
	}
	if got := tags["sz000002"]; got != models.TagNone {
		t.Fatalf("sz000002 tag = %q, want %q", got, models.TagNone)
	}
}

func TestConceptsInflowAndLeader(t *testing.T) {
	d := day(t, "2025-06-13")
	prior := day(t, "2025-06-12")

	today := []models.InstrumentRecord{
		rec("sh600001", "甲", 10, 5e8, 2.0),
		rec("sh600002", "乙", 11, 4e8, 1.0),
		rec("sz000003", "丙", 12, 3e8, 3.0),
		rec("sz000004", "丁", 13, 2e8, 1.0),
	}
	for i := range today {
		today[i].Concepts = []string{"半导体", "融资融券"}
	}
	prev := []models.InstrumentRecord{
		rec("sh600001", "甲", 10, 1e8, 0),
		rec("sh600002", "乙", 11, 1e8, 0),
		rec("sz000003", "丙", 12, 1e8, 0),
		rec("sz000004", "丁", 13, 1e8, 0),
	}
	store := &fakeStore{snapshots: map[string][]models.InstrumentRecord{
		snapKey(d, models.PhaseAuction):     today,
		snapKey(prior, models.PhaseAuction): prev,
	}}
	a := newTestAnalyzer(store, AnalyzerConfig{ConceptBlacklist: []string{"融资融券"}})

	aggs, err := a.Concepts(context.Background(), d)
	if err != nil {
		t.Fatalf("Concepts error: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("aggregates = %d, want 1 (blacklist drops 融资融券)", len(aggs))
	}
	got := aggs[0]
	if got.Name != "半导体" || got.Members != 4 {
		t.Fatalf("aggregate = %s/%d members", got.Name, got.Members)
	}
	if got.NetInflow != 10.0 {
		t.Fatalf("NetInflow = %v, want 10.0", got.NetInflow)
	}
	if got.Leader.Code != "sh600001" {
		t.Fatalf("leader = %s, want sh600001", got.Leader.Code)
	}
	if got.Regime != models.RegimeBroadRally {
		t.Fatalf("regime = %s, want %s", got.Regime, models.RegimeBroadRally)
	}
}

func TestConcentrationAnnotatesTags(t *testing.T) {
	d := day(t, "2025-06-13")
	prior := day(t, "2025-06-12")
	store := &fakeStore{snapshots: map[string][]models.InstrumentRecord{
		snapKey(d, models.PhaseAuction): {
			rec("sh600001", "甲", 10, 6e8, 1.0),
			rec("sz000002", "乙", 8, 1e8, 0.5),
		},
		snapKey(prior, models.PhaseAuction): {
			rec("sh600001", "甲", 10, 1e8, 0.5),
			rec("sz000002", "乙", 8, 1e8, 0.3),
		},
	}}
	a := newTestAnalyzer(store, AnalyzerConfig{})

	report, err := a.Concentration(context.Background(), d, 2, 1)
	if err != nil {
		t.Fatalf("Concentration error: %v", err)
	}
	if len(report.Series) != 2 {
		t.Fatalf("series = %d points, want 2", len(report.Series))
	}
	if len(report.AuctionTop) != 1 || report.AuctionTop[0].Code != "sh600001" {
		t.Fatalf("auction top = %+v", report.AuctionTop)
	}
	if got := report.AuctionTop[0].Tag; got != models.TagSuddenVolume {
		t.Fatalf("top tag = %q, want %q", got, models.TagSuddenVolume)
	}
	if got := report.AuctionTop[0].Streak; got != 2 {
		t.Fatalf("streak = %d, want 2", got)
	}
}
