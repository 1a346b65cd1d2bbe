package snapshot

import (
	"regexp"
	"strconv"
	"strings"

	"AuctionPulse/internal/domain/models"
	applogger "AuctionPulse/pkg/logger"
)

// Canonical field keys after alias reconciliation.
const (
	fieldCode      = "code"
	fieldName      = "name"
	fieldPrice     = "price"
	fieldAmount    = "amount"
	fieldPct       = "pct_change"
	fieldLimitUp   = "limit_up"
	fieldLimitDown = "limit_down"
	fieldHigh      = "high"
	fieldPrevClose = "prev_close"
	fieldConcepts  = "concepts"
	fieldIndustry  = "industry"
)

// commonAliases maps source column labels to canonical keys, covering
// both the vendor's English export labels and the Chinese feed headers.
// On collision the first occurrence in the row's iteration over this
// table wins and later aliases are dropped.
var commonAliases = [][2]string{
	{"code", fieldCode},
	{"股票代码", fieldCode},
	{"name", fieldName},
	{"股票简称", fieldName},
	{"涨跌幅", fieldPct},
	{"涨幅", fieldPct},
	{"涨幅%", fieldPct},
	{"涨跌(%)", fieldPct},
	{"pct_chg", fieldPct},
	{"涨停价", fieldLimitUp},
	{"limit_up", fieldLimitUp},
	{"跌停价", fieldLimitDown},
	{"limit_down", fieldLimitDown},
	{"high", fieldHigh},
	{"最高价", fieldHigh},
	{"close", fieldPrevClose},
	{"昨收盘", fieldPrevClose},
	{"所属概念", fieldConcepts},
	{"concepts", fieldConcepts},
	{"所属行业", fieldIndustry},
	{"industry", fieldIndustry},
}

// amountAliases are checked in order; a label carrying the 万 unit
// marker is rescaled to yuan.
var amountAliases = []string{"竞价成交金额", "成交额", "成交额(万)", "总成交额", "amount"}

// priceAliases depend on the session phase so downstream stages can stay
// phase-agnostic.
var priceAliases = map[models.SessionPhase][]string{
	models.PhaseAuction: {"竞价价", "open", "开盘价", "auction_price"},
	models.PhaseClose:   {"收盘价", "now", "最新价", "close_price"},
}

var codePattern = regexp.MustCompile(`\d{6}`)

// Normalizer maps heterogeneous raw snapshot rows onto the canonical
// InstrumentRecord schema. It is a pure transform: bad rows are dropped,
// bad values coerced to zero, and empty input yields empty output.
type Normalizer struct {
	l *applogger.Logger
}

func NewNormalizer(l *applogger.Logger) *Normalizer {
	if l == nil {
		l = applogger.Nop()
	}
	return &Normalizer{l: l}
}

// Normalize converts one (date, phase) raw snapshot into instrument
// records. Rows without a resolvable 6-digit code are discarded.
func (n *Normalizer) Normalize(rows []models.RawRow, phase models.SessionPhase) []models.InstrumentRecord {
	out := make([]models.InstrumentRecord, 0, len(rows))
	for _, raw := range rows {
		canon := reconcile(raw, phase)

		code, ok := StandardizeCode(canon[fieldCode])
		if !ok {
			continue
		}

		name := strings.TrimSpace(canon[fieldName])
		rec := models.InstrumentRecord{
			Code:      code,
			Name:      name,
			Price:     n.coerce(code, fieldPrice, canon[fieldPrice]),
			Amount:    n.coerce(code, fieldAmount, canon[fieldAmount]),
			PctChange: n.coerce(code, fieldPct, canon[fieldPct]),
			LimitUp:   n.coerce(code, fieldLimitUp, canon[fieldLimitUp]),
			LimitDown: n.coerce(code, fieldLimitDown, canon[fieldLimitDown]),
			High:      n.coerce(code, fieldHigh, canon[fieldHigh]),
			PrevClose: n.coerce(code, fieldPrevClose, canon[fieldPrevClose]),
			Concepts:  models.SplitTags(canon[fieldConcepts]),
			Industry:  canon[fieldIndustry],
			ST:        strings.Contains(strings.ToLower(name), "st"),
		}
		out = append(out, rec)
	}
	return out
}

// reconcile applies the alias mapping for one row; first occurrence wins
// when several source columns alias to the same canonical name.
func reconcile(raw models.RawRow, phase models.SessionPhase) map[string]string {
	canon := make(map[string]string, 12)

	for _, a := range commonAliases {
		src, dst := a[0], a[1]
		if v, ok := raw[src]; ok {
			if _, taken := canon[dst]; !taken {
				canon[dst] = v
			}
		}
	}

	for _, src := range priceAliases[phase] {
		if v, ok := raw[src]; ok {
			canon[fieldPrice] = v
			break
		}
	}

	for _, src := range amountAliases {
		v, ok := raw[src]
		if !ok {
			continue
		}
		if strings.Contains(src, "万") {
			if f, err := parseNumeric(v); err == nil {
				v = strconv.FormatFloat(f*1e4, 'f', -1, 64)
			}
		}
		canon[fieldAmount] = v
		break
	}

	return canon
}

func (n *Normalizer) coerce(code, field, s string) float64 {
	if s == "" {
		return 0
	}
	f, err := parseNumeric(s)
	if err != nil {
		n.l.Warn("unparsable numeric field, coerced to zero",
			applogger.String("code", code),
			applogger.String("field", field),
			applogger.String("value", s),
		)
		return 0
	}
	return f
}

func parseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

// StandardizeCode strips an instrument identifier to its embedded
// 6-digit code and prefixes the exchange segment: 6xxxxx Shanghai,
// 4/8/9xxxxx Beijing, everything else Shenzhen. A string that does not
// contain exactly one 6-digit sequence is rejected.
func StandardizeCode(s string) (string, bool) {
	matches := codePattern.FindAllString(s, 2)
	if len(matches) != 1 {
		return "", false
	}
	digits := matches[0]
	switch digits[0] {
	case '6':
		return "sh" + digits, true
	case '4', '8', '9':
		return "bj" + digits, true
	default:
		return "sz" + digits, true
	}
}
