package models

import "strings"

// SessionPhase identifies which snapshot of the trading day a record
// belongs to: the pre-open call auction or the end-of-day close.
type SessionPhase string

const (
	PhaseAuction SessionPhase = "auction"
	PhaseClose   SessionPhase = "close"
)

// IsValid reports whether p is a known session phase.
func (p SessionPhase) IsValid() bool {
	return p == PhaseAuction || p == PhaseClose
}

// Segment is the exchange/board classification derived from the code prefix.
type Segment string

const (
	SegmentSHMain  Segment = "sh_main" // Shanghai main board (sh6xxxxx)
	SegmentChiNext Segment = "chinext" // Shenzhen ChiNext (sz3xxxxx)
	SegmentBeijing Segment = "beijing" // Beijing exchange (bj4/8/9xxxxx)
	SegmentSZOther Segment = "sz_other"
)

// RawRow is one source row of a tabular snapshot before normalization.
// Values are kept as strings; the normalizer owns all coercion.
type RawRow map[string]string

// InstrumentRecord is one instrument in one (date, phase) snapshot,
// immutable once produced by the normalizer.
type InstrumentRecord struct {
	Code      string   `json:"code"` // segment-prefixed, e.g. sh600519
	Name      string   `json:"name"`
	Price     float64  `json:"price"`  // auction or close price depending on phase
	Amount    float64  `json:"amount"` // session turnover, yuan
	PctChange float64  `json:"pct_change"`
	LimitUp   float64  `json:"limit_up"`
	LimitDown float64  `json:"limit_down"`
	High      float64  `json:"high"`
	PrevClose float64  `json:"prev_close"`
	Concepts  []string `json:"concepts,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	ST        bool     `json:"st"` // special-treatment marker in the name
}

// Segment classifies the record by its code prefix.
func (r *InstrumentRecord) Segment() Segment {
	switch {
	case strings.HasPrefix(r.Code, "sh6"):
		return SegmentSHMain
	case strings.HasPrefix(r.Code, "sz3"):
		return SegmentChiNext
	case strings.HasPrefix(r.Code, "bj"):
		return SegmentBeijing
	default:
		return SegmentSZOther
	}
}

// SessionAggregate holds per-(date, phase) sentiment metrics.
// Turnover figures are in hundred-million yuan; counts exclude
// special-treatment instruments except where noted.
type SessionAggregate struct {
	Date  string       `json:"date"`
	Phase SessionPhase `json:"phase"`

	// Turnover, all instruments including ST.
	TotalAmount   float64 `json:"total_amount"`
	SHMainAmount  float64 `json:"sh_main_amount"`
	ChiNextAmount float64 `json:"chinext_amount"`

	// Breadth, ST excluded.
	Advancers   int `json:"advancers"`
	Decliners   int `json:"decliners"`
	Flat        int `json:"flat"`
	SHAdvancers int `json:"sh_advancers"`
	SHDecliners int `json:"sh_decliners"`
	CNAdvancers int `json:"cn_advancers"`
	CNDecliners int `json:"cn_decliners"`

	// Sentiment extremes, ST excluded.
	Strong      int `json:"strong"` // pct >= +7
	Weak        int `json:"weak"`   // pct <= -7
	LimitUp     int `json:"limit_up"`
	LimitDown   int `json:"limit_down"`
	LimitUp20cm int `json:"limit_up_20cm"` // limit-up with pct > 19

	Instruments int `json:"instruments"` // non-ST universe size
}

// PhaseTrend is a SessionAggregate enriched with day-over-day derived
// columns. Derived fields are zero on the first row of a trend table.
type PhaseTrend struct {
	SessionAggregate

	AmountDelta     float64 `json:"amount_delta"`
	AmountPctChange float64 `json:"amount_pct_change"`
	SHMainDelta     float64 `json:"sh_main_delta"`
	ChiNextDelta    float64 `json:"chinext_delta"`

	AdvDeclRatio   float64 `json:"adv_decl_ratio"`
	SHAdvDeclRatio float64 `json:"sh_adv_decl_ratio"`
	CNAdvDeclRatio float64 `json:"cn_adv_decl_ratio"`

	LimitUpDelta   int `json:"limit_up_delta"`
	LimitDownDelta int `json:"limit_down_delta"`
	StrongDelta    int `json:"strong_delta"`
	WeakDelta      int `json:"weak_delta"`
}

// TrendRow is one trading date in the rolling trend table. A nil phase
// block means no snapshot existed for that phase on that date.
type TrendRow struct {
	Date    string      `json:"date"`
	Auction *PhaseTrend `json:"auction,omitempty"`
	Close   *PhaseTrend `json:"close,omitempty"`
}

// PriorPattern summarizes yesterday's close-session behavior for the
// structural tag rules.
type PriorPattern string

const (
	PatternNormal      PriorPattern = "normal"
	PatternFailedLimit PriorPattern = "failed-limit" // touched limit-up, closed below it
	PatternBigDrop     PriorPattern = "big-drop"     // pct <= -5
	PatternBigRally    PriorPattern = "big-rally"    // pct >= +5
)

// Structural tag vocabulary. Streak-dependent tags are produced via
// their format helpers in the structure service.
const (
	TagNone              = "--"
	TagNewlyListed       = "newly-listed"
	TagPriorLimitDown    = "prior-day-limit-down"
	TagFirstLimitUp      = "first-limit-up"
	TagFailedLimitStrong = "failed-limit-reattempt-strong"
	TagFailedLimitWeak   = "failed-limit-reattempt-weak"
	TagBigRallyHeavy     = "big-rally-no-limit-heavy-volume"
	TagBigRallyLight     = "big-rally-no-limit-light-volume"
	TagPriorBigDrop      = "prior-day-big-drop"
	TagSuddenVolume      = "sudden-volume-watch"
	TagActiveHeavy       = "active-heavy-volume"
)

// LimitPoolEntry is one row of the prior-day limit-up/limit-down pool.
type LimitPoolEntry struct {
	Code       string `json:"code"`
	StreakDays int    `json:"streak_days"` // consecutive limit-up days
	Status     string `json:"status"`      // e.g. "limit-up", "limit-down", "failed-limit"
	Reason     string `json:"reason,omitempty"`
}

// ConceptInfo is the static concept/industry membership of one instrument.
type ConceptInfo struct {
	Concepts []string `json:"concepts"`
	Industry string   `json:"industry"`
}

// Capital-flow regime of a concept.
const (
	RegimeSingleDriver = "single-driver" // top-2 members carry >70% of inflow
	RegimeBroadRally   = "broad-rally"
)

// ConceptLeader is the member with the largest capital inflow.
type ConceptLeader struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	PctChange float64 `json:"pct_change"`
	Tag       string  `json:"tag"`
}

// ConceptAggregate is the per-concept capital-flow summary.
type ConceptAggregate struct {
	Name          string        `json:"name"`
	Members       int           `json:"members"`
	PositiveRatio float64       `json:"positive_ratio"` // percent of members with pct > 0
	AvgPctChange  float64       `json:"avg_pct_change"`
	NetInflow     float64       `json:"net_inflow"` // hundred-million yuan
	Top2Share     float64       `json:"top2_share"`
	Regime        string        `json:"regime"`
	Leader        ConceptLeader `json:"leader"`
	Movers        []string      `json:"movers,omitempty"` // notable-member digest
}

// ConcentrationPoint is the top-N turnover share (%) of one date.
type ConcentrationPoint struct {
	Date         string  `json:"date"`
	AuctionShare float64 `json:"auction_share"`
	CloseShare   float64 `json:"close_share"`
}

// StreakEntry is one member of the evaluated date's top-N set with its
// consecutive-membership streak.
type StreakEntry struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"` // hundred-million yuan
	PctChange float64 `json:"pct_change"`
	Streak    int     `json:"streak"`
	Tag       string  `json:"tag,omitempty"`
}

// ConcentrationReport bundles the share series with the evaluated date's
// top-N tables.
type ConcentrationReport struct {
	Series     []ConcentrationPoint `json:"series"`
	AuctionTop []StreakEntry        `json:"auction_top"`
	CloseTop   []StreakEntry        `json:"close_top"`
}

// SplitTags splits a delimited concept/industry string into individual
// tags. Source feeds mix ASCII and fullwidth separators.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	f := func(r rune) bool {
		return r == ';' || r == ',' || r == '；' || r == '，'
	}
	parts := strings.FieldsFunc(s, f)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
