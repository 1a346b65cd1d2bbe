package sentiment

import (
	"math"

	"AuctionPulse/internal/domain/models"
)

const (
	// hundredMillion converts yuan turnover into the reporting unit.
	hundredMillion = 1e8

	// limitTolerance is the absolute price proximity for limit matching.
	// The confirming percent threshold guards against stale or zero
	// reference prices triggering a false match.
	limitTolerance  = 0.001
	limitConfirmPct = 9.0

	strongMovePct = 7.0
	pct20cm       = 19.0
)

// Aggregate computes the per-session sentiment aggregate for one
// (date, phase) instrument set. Turnover sums cover every record
// including special-treatment ones; all counting metrics exclude them
// because their price limits behave differently. Empty input returns
// nil, which marks the phase as absent.
func Aggregate(date string, phase models.SessionPhase, recs []models.InstrumentRecord) *models.SessionAggregate {
	if len(recs) == 0 {
		return nil
	}

	agg := &models.SessionAggregate{Date: date, Phase: phase}

	for i := range recs {
		r := &recs[i]

		agg.TotalAmount += r.Amount / hundredMillion
		switch r.Segment() {
		case models.SegmentSHMain:
			agg.SHMainAmount += r.Amount / hundredMillion
		case models.SegmentChiNext:
			agg.ChiNextAmount += r.Amount / hundredMillion
		}

		if r.ST {
			continue
		}
		agg.Instruments++

		switch {
		case r.PctChange > 0:
			agg.Advancers++
		case r.PctChange < 0:
			agg.Decliners++
		default:
			agg.Flat++
		}

		switch r.Segment() {
		case models.SegmentSHMain:
			if r.PctChange > 0 {
				agg.SHAdvancers++
			} else if r.PctChange < 0 {
				agg.SHDecliners++
			}
		case models.SegmentChiNext:
			if r.PctChange > 0 {
				agg.CNAdvancers++
			} else if r.PctChange < 0 {
				agg.CNDecliners++
			}
		}

		if r.PctChange >= strongMovePct {
			agg.Strong++
		}
		if r.PctChange <= -strongMovePct {
			agg.Weak++
		}

		if atLimitUp(r) {
			agg.LimitUp++
			if r.PctChange > pct20cm {
				agg.LimitUp20cm++
			}
		}
		if atLimitDown(r) {
			agg.LimitDown++
		}
	}

	return agg
}

func atLimitUp(r *models.InstrumentRecord) bool {
	return r.Price > 0 &&
		math.Abs(r.Price-r.LimitUp) < limitTolerance &&
		r.PctChange > limitConfirmPct
}

func atLimitDown(r *models.InstrumentRecord) bool {
	return r.Price > 0 &&
		math.Abs(r.Price-r.LimitDown) < limitTolerance &&
		r.PctChange < -limitConfirmPct
}
