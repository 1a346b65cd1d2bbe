package usecase

import (
	"context"
	"fmt"
	"time"

	"AuctionPulse/internal/domain/models"
	domrepo "AuctionPulse/internal/domain/repository"
	domsvc "AuctionPulse/internal/domain/service"
	"AuctionPulse/internal/service/cache"
	"AuctionPulse/internal/services/concentration"
	"AuctionPulse/internal/services/concepts"
	"AuctionPulse/internal/services/structure"
	"AuctionPulse/internal/services/trend"
	pkgcal "AuctionPulse/pkg/calendar"
	applogger "AuctionPulse/pkg/logger"
	"AuctionPulse/pkg/util"
)

const hundredMillion = 1e8

// AnalyzerConfig tunes the analysis core.
type AnalyzerConfig struct {
	ConceptBlacklist []string
	TopN             int
	WindowDays       int
	Workers          int
	CacheTTL         time.Duration
}

// MarketAnalyzer composes the analysis services over the snapshot store
// and implements the read-only query surface. Supporting inputs (prior
// snapshots, limit pool, concept metadata) are fetched best-effort:
// their absence degrades the answer, never fails it.
type MarketAnalyzer struct {
	store   domrepo.SnapshotStore
	cal     *pkgcal.TradingCalendar
	cache   cache.BytesCache
	metrics domrepo.Metrics
	l       *applogger.Logger

	assembler *trend.Assembler
	tracker   *concentration.Tracker
	blacklist map[string]struct{}
	cfg       AnalyzerConfig
}

func NewMarketAnalyzer(
	store domrepo.SnapshotStore,
	cal *pkgcal.TradingCalendar,
	c cache.BytesCache,
	metrics domrepo.Metrics,
	cfg AnalyzerConfig,
	l *applogger.Logger,
) *MarketAnalyzer {
	if cfg.TopN <= 0 {
		cfg.TopN = concentration.DefaultTopN
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = concentration.DefaultWindow
	}
	if cfg.Workers <= 0 {
		cfg.Workers = trend.DefaultWorkers
	}
	if l == nil {
		l = applogger.Nop()
	}

	blacklist := make(map[string]struct{}, len(cfg.ConceptBlacklist))
	for _, b := range cfg.ConceptBlacklist {
		blacklist[b] = struct{}{}
	}

	a := &MarketAnalyzer{
		store:     store,
		cal:       cal,
		cache:     c,
		metrics:   metrics,
		l:         l,
		blacklist: blacklist,
		cfg:       cfg,
	}
	a.assembler = trend.NewAssembler(a.fetchSnapshot, cfg.Workers, l)
	a.tracker = concentration.NewTracker(a.fetchSnapshot, l)
	return a
}

func (a *MarketAnalyzer) fetchSnapshot(ctx context.Context, date time.Time, phase models.SessionPhase) ([]models.InstrumentRecord, error) {
	return a.store.Snapshot(ctx, date, phase)
}

func (a *MarketAnalyzer) Trend(ctx context.Context, end time.Time, days int) ([]models.TrendRow, error) {
	defer a.observe("trend", time.Now())
	if end.IsZero() {
		end = time.Now()
	}

	key := fmt.Sprintf("trend:%s:%d", util.FormatDate(end), days)
	var cached []models.TrendRow
	if cache.GetJSON(a.cache, key, &cached) {
		return cached, nil
	}

	rows := a.assembler.Report(ctx, a.cal.Window(end, days))
	cache.SetJSON(a.cache, key, rows, a.cfg.CacheTTL)
	return rows, nil
}

func (a *MarketAnalyzer) Structure(ctx context.Context, date, prior time.Time) (map[string]string, error) {
	defer a.observe("structure", time.Now())
	if prior.IsZero() {
		prior = a.cal.PrevTradingDay(date)
	}

	key := fmt.Sprintf("structure:%s:%s", util.FormatDate(date), util.FormatDate(prior))
	var cached map[string]string
	if cache.GetJSON(a.cache, key, &cached) {
		return cached, nil
	}

	tags, err := a.classify(ctx, date, prior)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(a.cache, key, tags, a.cfg.CacheTTL)
	return tags, nil
}

// classify runs the rule table for date against prior. Only the
// evaluated date's snapshot is load-bearing; prior-day inputs degrade
// to zero/normal defaults when missing.
func (a *MarketAnalyzer) classify(ctx context.Context, date, prior time.Time) (map[string]string, error) {
	today, err := a.store.Snapshot(ctx, date, models.PhaseAuction)
	if err != nil {
		a.recordErr("structure_snapshot")
		return nil, fmt.Errorf("structure snapshot %s: %w", util.FormatDate(date), err)
	}
	if len(today) == 0 {
		return map[string]string{}, nil
	}

	prevAuction := a.snapshotOrEmpty(ctx, prior, models.PhaseAuction)
	prevClose := a.snapshotOrEmpty(ctx, prior, models.PhaseClose)
	pool, err := a.store.LimitPool(ctx, prior)
	if err != nil {
		a.l.Warn("limit pool unavailable, streak rules degrade",
			applogger.String("date", util.FormatDate(prior)),
			applogger.Error(err),
		)
		pool = nil
	}

	inputs := structure.BuildInputs(today, prevAuction, prevClose, pool)
	return structure.ClassifyAll(inputs), nil
}

func (a *MarketAnalyzer) Concepts(ctx context.Context, date time.Time) ([]models.ConceptAggregate, error) {
	defer a.observe("concepts", time.Now())
	prior := a.cal.PrevTradingDay(date)

	key := "concepts:" + util.FormatDate(date)
	var cached []models.ConceptAggregate
	if cache.GetJSON(a.cache, key, &cached) {
		return cached, nil
	}

	today, err := a.store.Snapshot(ctx, date, models.PhaseAuction)
	if err != nil {
		a.recordErr("concepts_snapshot")
		return nil, fmt.Errorf("concepts snapshot %s: %w", util.FormatDate(date), err)
	}
	if len(today) == 0 {
		return nil, nil
	}

	prevAmt := make(map[string]float64)
	for _, r := range a.snapshotOrEmpty(ctx, prior, models.PhaseAuction) {
		prevAmt[r.Code] = r.Amount
	}

	tags, err := a.classify(ctx, date, prior)
	if err != nil {
		a.l.Warn("structural tags unavailable for concepts", applogger.Error(err))
		tags = map[string]string{}
	}

	meta, err := a.store.ConceptMembers(ctx)
	if err != nil {
		a.l.Warn("concept metadata unavailable", applogger.Error(err))
		meta = nil
	}

	members := make([]concepts.Member, 0, len(today))
	for i := range today {
		r := &today[i]
		tag, ok := tags[r.Code]
		if !ok {
			tag = models.TagNone
		}
		m := concepts.Member{
			Code:      r.Code,
			Name:      r.Name,
			PctChange: r.PctChange,
			Inflow:    (r.Amount - prevAmt[r.Code]) / hundredMillion,
			Tag:       tag,
			Concepts:  r.Concepts,
			Industry:  r.Industry,
		}
		if info, ok := meta[r.Code]; ok {
			if len(m.Concepts) == 0 {
				m.Concepts = info.Concepts
			}
			if m.Industry == "" {
				m.Industry = info.Industry
			}
		}
		members = append(members, m)
	}

	out := concepts.Aggregate(members, a.blacklist)
	cache.SetJSON(a.cache, key, out, a.cfg.CacheTTL)
	return out, nil
}

func (a *MarketAnalyzer) Concentration(ctx context.Context, date time.Time, windowDays, topN int) (*models.ConcentrationReport, error) {
	defer a.observe("concentration", time.Now())
	if windowDays <= 0 {
		windowDays = a.cfg.WindowDays
	}
	if topN <= 0 {
		topN = a.cfg.TopN
	}

	key := fmt.Sprintf("concentration:%s:%d:%d", util.FormatDate(date), windowDays, topN)
	var cached models.ConcentrationReport
	if cache.GetJSON(a.cache, key, &cached) {
		return &cached, nil
	}

	report := a.tracker.Report(ctx, a.cal.Window(date, windowDays), topN)

	// Annotate the evaluated date's members with structural tags when
	// the classifier has the data for it.
	if tags, err := a.Structure(ctx, date, time.Time{}); err == nil {
		for i := range report.AuctionTop {
			report.AuctionTop[i].Tag = tags[report.AuctionTop[i].Code]
		}
		for i := range report.CloseTop {
			report.CloseTop[i].Tag = tags[report.CloseTop[i].Code]
		}
	}

	cache.SetJSON(a.cache, key, report, a.cfg.CacheTTL)
	return report, nil
}

func (a *MarketAnalyzer) snapshotOrEmpty(ctx context.Context, date time.Time, phase models.SessionPhase) []models.InstrumentRecord {
	recs, err := a.store.Snapshot(ctx, date, phase)
	if err != nil {
		a.l.Warn("prior snapshot unavailable",
			applogger.String("date", util.FormatDate(date)),
			applogger.String("phase", string(phase)),
			applogger.Error(err),
		)
		return nil
	}
	return recs
}

func (a *MarketAnalyzer) observe(query string, start time.Time) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordQuery(query)
	a.metrics.RecordLatency("query_"+query, time.Since(start).Seconds())
}

func (a *MarketAnalyzer) recordErr(kind string) {
	if a.metrics != nil {
		a.metrics.RecordError(kind)
	}
}

var _ domsvc.MarketAnalytics = (*MarketAnalyzer)(nil)
