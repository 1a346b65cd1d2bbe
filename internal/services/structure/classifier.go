package structure

import (
	"fmt"
	"math"
	"strings"

	"AuctionPulse/internal/domain/models"
)

// Input carries the precomputed per-instrument columns the rule table
// judges. Absent optional inputs default to zero / PatternNormal.
type Input struct {
	Code        string
	Name        string
	PctChange   float64 // today's auction percent change
	TodayAmount float64 // today's auction turnover, yuan
	PrevAmount  float64 // yesterday's auction turnover, yuan
	Pattern     models.PriorPattern
	StreakDays  int    // consecutive limit-up days before today
	LimitStatus string // yesterday's limit-pool status string
}

// VolumeRatio relates today's auction turnover to yesterday's, flooring
// the denominator at 1e6 yuan to avoid divide-by-near-zero blowups on
// thinly traded names.
func VolumeRatio(today, prev float64) float64 {
	return today / math.Max(prev, 1e6)
}

// PriorPattern derives yesterday's close-session pattern. The failed
// limit case requires the high to have touched the limit price while
// the close finished below it.
func PriorPattern(high, close, limitUp, pct float64) models.PriorPattern {
	switch {
	case high >= limitUp && limitUp > close:
		return models.PatternFailedLimit
	case pct <= -5:
		return models.PatternBigDrop
	case pct >= 5:
		return models.PatternBigRally
	default:
		return models.PatternNormal
	}
}

// rule pairs a predicate with its label. The table is evaluated top to
// bottom, first match wins; the order is a correctness invariant, not a
// style choice.
type rule struct {
	match func(in Input, ratio float64) bool
	label func(in Input) string
}

func fixed(tag string) func(Input) string {
	return func(Input) string { return tag }
}

var rules = []rule{
	{ // fresh listings open far beyond any regular band
		func(in Input, _ float64) bool { return in.PctChange >= 33 },
		fixed(models.TagNewlyListed),
	},
	{
		func(in Input, _ float64) bool { return strings.Contains(in.LimitStatus, "limit-down") },
		fixed(models.TagPriorLimitDown),
	},
	{
		func(in Input, r float64) bool { return in.StreakDays >= 2 && r <= 0.85 },
		func(in Input) string {
			return fmt.Sprintf("%d-day-shrinking-volume-stable-holding", in.StreakDays)
		},
	},
	{
		func(in Input, r float64) bool { return in.StreakDays >= 2 && r >= 1.8 },
		func(in Input) string { return fmt.Sprintf("%d-day-heavy-volume-loosening", in.StreakDays) },
	},
	{
		func(in Input, _ float64) bool { return in.StreakDays >= 2 },
		func(in Input) string { return fmt.Sprintf("%d-day-healthy-turnover", in.StreakDays) },
	},
	{
		func(in Input, _ float64) bool { return in.StreakDays == 1 },
		fixed(models.TagFirstLimitUp),
	},
	{
		func(in Input, r float64) bool {
			return in.Pattern == models.PatternFailedLimit && r >= 2.5 && in.TodayAmount >= 5e6
		},
		fixed(models.TagFailedLimitStrong),
	},
	{
		func(in Input, _ float64) bool { return in.Pattern == models.PatternFailedLimit },
		fixed(models.TagFailedLimitWeak),
	},
	{
		func(in Input, r float64) bool { return in.Pattern == models.PatternBigRally && r >= 2.0 },
		fixed(models.TagBigRallyHeavy),
	},
	{
		func(in Input, _ float64) bool { return in.Pattern == models.PatternBigRally },
		fixed(models.TagBigRallyLight),
	},
	{
		func(in Input, _ float64) bool { return in.Pattern == models.PatternBigDrop },
		fixed(models.TagPriorBigDrop),
	},
	{
		func(in Input, r float64) bool { return r >= 3.0 && in.TodayAmount >= 1e6 },
		fixed(models.TagSuddenVolume),
	},
	{
		func(in Input, r float64) bool { return r >= 2.5 && in.TodayAmount >= 1e6 },
		fixed(models.TagActiveHeavy),
	},
}

// Classify assigns exactly one tag to one instrument; "--" when no rule
// matches. Pure and deterministic over its input.
func Classify(in Input) string {
	ratio := VolumeRatio(in.TodayAmount, in.PrevAmount)
	for _, r := range rules {
		if r.match(in, ratio) {
			return r.label(in)
		}
	}
	return models.TagNone
}

// BuildInputs joins today's auction snapshot with yesterday's auction
// turnover, close-session pattern and limit-pool row. Instruments absent
// from the joined sources keep zero / normal defaults.
func BuildInputs(
	today []models.InstrumentRecord,
	prevAuction []models.InstrumentRecord,
	prevClose []models.InstrumentRecord,
	pool []models.LimitPoolEntry,
) []Input {
	prevAmt := make(map[string]float64, len(prevAuction))
	for i := range prevAuction {
		prevAmt[prevAuction[i].Code] = prevAuction[i].Amount
	}

	pattern := make(map[string]models.PriorPattern, len(prevClose))
	for i := range prevClose {
		r := &prevClose[i]
		pattern[r.Code] = PriorPattern(r.High, r.Price, r.LimitUp, r.PctChange)
	}

	poolByCode := make(map[string]models.LimitPoolEntry, len(pool))
	for _, e := range pool {
		poolByCode[e.Code] = e
	}

	inputs := make([]Input, 0, len(today))
	for i := range today {
		r := &today[i]
		in := Input{
			Code:        r.Code,
			Name:        r.Name,
			PctChange:   r.PctChange,
			TodayAmount: r.Amount,
			PrevAmount:  prevAmt[r.Code],
			Pattern:     models.PatternNormal,
		}
		if p, ok := pattern[r.Code]; ok {
			in.Pattern = p
		}
		if e, ok := poolByCode[r.Code]; ok {
			in.StreakDays = e.StreakDays
			in.LimitStatus = e.Status
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// ClassifyAll runs the rule table over every input, keyed by code.
func ClassifyAll(inputs []Input) map[string]string {
	out := make(map[string]string, len(inputs))
	for _, in := range inputs {
		out[in.Code] = Classify(in)
	}
	return out
}
