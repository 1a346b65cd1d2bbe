package concepts

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"AuctionPulse/internal/domain/models"
)

// Emission thresholds: concepts outside these bounds are statistically
// insignificant (too narrow), index-like (too broad) or not actually
// attracting capital.
const (
	minMembers = 4
	maxMembers = 100
	minInflow  = 0.3 // hundred-million yuan
	minTagLen  = 2   // runes

	singleDriverShare = 0.7
	notableMovePct    = 5.0
	notableWeight     = 0.20
	maxMovers         = 5
)

// Fallback mover labels for members without a structural tag.
const (
	moverBigPush       = "big-push"
	moverBigFlush      = "big-flush"
	moverInflowAnomaly = "inflow-anomaly"
)

// Member is one tagged instrument feeding the concept explosion.
type Member struct {
	Code      string
	Name      string
	PctChange float64
	Inflow    float64 // turnover delta vs prior session, hundred-million yuan
	Tag       string  // structural tag, "--" when none
	Concepts  []string
	Industry  string
}

// eachTag yields every usable concept/industry tag of a member exactly
// once, applying the blacklist and minimum-length filters. The callback
// form keeps the one-to-many explosion lazy instead of materializing
// (member, tag) pairs for the whole universe.
func eachTag(m *Member, blacklist map[string]struct{}, fn func(tag string)) {
	seen := make(map[string]struct{}, len(m.Concepts)+1)
	emit := func(tag string) {
		if utf8.RuneCountInString(tag) < minTagLen {
			return
		}
		if _, banned := blacklist[tag]; banned {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		fn(tag)
	}
	for _, c := range m.Concepts {
		emit(c)
	}
	if m.Industry != "" {
		emit(m.Industry)
	}
}

type conceptAcc struct {
	name    string
	members []*Member
}

// Aggregate explodes each member's concept/industry tags into
// concept-level rows, aggregates capital flow per concept, classifies
// the flow regime and filters out insignificant concepts. Output is
// ordered descending by net inflow.
func Aggregate(members []Member, blacklist map[string]struct{}) []models.ConceptAggregate {
	if len(members) == 0 {
		return nil
	}

	accs := make(map[string]*conceptAcc)
	for i := range members {
		m := &members[i]
		eachTag(m, blacklist, func(tag string) {
			acc, ok := accs[tag]
			if !ok {
				acc = &conceptAcc{name: tag}
				accs[tag] = acc
			}
			acc.members = append(acc.members, m)
		})
	}

	out := make([]models.ConceptAggregate, 0, len(accs))
	for _, acc := range accs {
		if agg, ok := summarize(acc); ok {
			out = append(out, agg)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].NetInflow != out[j].NetInflow {
			return out[i].NetInflow > out[j].NetInflow
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func summarize(acc *conceptAcc) (models.ConceptAggregate, bool) {
	n := len(acc.members)
	if n < minMembers || n > maxMembers {
		return models.ConceptAggregate{}, false
	}

	var positive int
	var sumPct, netInflow float64
	top1, top2 := math.Inf(-1), math.Inf(-1)
	var leader *Member
	for _, m := range acc.members {
		if m.PctChange > 0 {
			positive++
		}
		sumPct += m.PctChange
		netInflow += m.Inflow

		if m.Inflow > top1 {
			top2 = top1
			top1 = m.Inflow
		} else if m.Inflow > top2 {
			top2 = m.Inflow
		}
		if leader == nil || m.Inflow > leader.Inflow {
			leader = m
		}
	}

	avgPct := sumPct / float64(n)
	if netInflow <= minInflow || avgPct <= 0 {
		return models.ConceptAggregate{}, false
	}

	denom := netInflow
	if denom == 0 {
		denom = 1
	}
	top2Share := (top1 + top2) / denom
	regime := models.RegimeBroadRally
	if top2Share > singleDriverShare {
		regime = models.RegimeSingleDriver
	}

	agg := models.ConceptAggregate{
		Name:          acc.name,
		Members:       n,
		PositiveRatio: float64(positive) / float64(n) * 100,
		AvgPctChange:  avgPct,
		NetInflow:     netInflow,
		Top2Share:     top2Share,
		Regime:        regime,
		Leader: models.ConceptLeader{
			Code:      leader.Code,
			Name:      leader.Name,
			PctChange: leader.PctChange,
			Tag:       leader.Tag,
		},
		Movers: movers(acc.members, netInflow),
	}
	return agg, true
}

// movers builds the notable-member digest: members with a structural
// tag, a large move, or an outsized share of the concept's inflow.
func movers(members []*Member, netInflow float64) []string {
	denom := netInflow
	if denom <= 0 {
		denom = 1
	}

	notable := make([]*Member, 0, len(members))
	for _, m := range members {
		weight := m.Inflow / denom
		if m.Tag != models.TagNone || math.Abs(m.PctChange) >= notableMovePct || weight >= notableWeight {
			notable = append(notable, m)
		}
	}
	if len(notable) == 0 {
		return nil
	}

	sort.Slice(notable, func(i, j int) bool { return notable[i].Inflow > notable[j].Inflow })
	if len(notable) > maxMovers {
		notable = notable[:maxMovers]
	}

	out := make([]string, 0, len(notable))
	for _, m := range notable {
		label := m.Tag
		if label == models.TagNone {
			switch {
			case m.PctChange >= notableMovePct:
				label = moverBigPush
			case m.PctChange <= -notableMovePct:
				label = moverBigFlush
			default:
				label = moverInflowAnomaly
			}
		}
		out = append(out, fmt.Sprintf("%s(%s)", m.Name, label))
	}
	return out
}
