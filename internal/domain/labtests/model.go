package labtests

import "time"

// Test es un estudio diagnóstico (FIV, leishmania, etc.) con su resultado.
type Test struct {
	ID         string
	AnimalID   string
	TestTypeID string
	// ResultID vacío = sin resultado cargado.
	ResultID string

	RequiredDate  time.Time
	PerformedDate *time.Time

	AdministeringVetID string
	Cost               int64
	CostPaidDate       *time.Time
	Comments           string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Test) Performed() bool { return t.PerformedDate != nil }

type SortOrder string

const (
	SortRequiredAsc  SortOrder = "required_asc"
	SortRequiredDesc SortOrder = "required_desc"
)
