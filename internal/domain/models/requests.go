package models

// TrendRequest asks for the rolling sentiment trend over the most recent
// trading dates (or an explicit window ending at Date).
type TrendRequest struct {
	Days int    `query:"days" json:"days" default:"10" validate:"gte=2,lte=120"`
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// StructureRequest asks for structural tags of one trading date against
// its prior trading date. Prior defaults to the previous trading date.
type StructureRequest struct {
	Date  string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Prior string `query:"prior" json:"prior" validate:"omitempty,datetime=2006-01-02"`
}

// ConceptsRequest asks for concept resonance aggregates of one date.
type ConceptsRequest struct {
	Date string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// ConcentrationRequest asks for the top-N concentration series and
// streak table for a rolling window ending at Date.
type ConcentrationRequest struct {
	Date   string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Window int    `query:"window" json:"window" default:"30" validate:"gte=2,lte=120"`
	Top    int    `query:"top" json:"top" default:"15" validate:"gte=1,lte=100"`
}
