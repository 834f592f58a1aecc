package vaccinations

import "time"

// Vaccination es un registro de vacuna. No forma parte de un ciclo: la
// siguiente dosis se crea explícitamente con Reschedule.
type Vaccination struct {
	ID                string
	AnimalID          string
	VaccinationTypeID string

	RequiredDate time.Time
	GivenDate    *time.Time // nil = pendiente
	ExpiryDate   *time.Time

	AdministeringVetID string
	BatchNumber        string
	Manufacturer       string

	Cost         int64
	CostPaidDate *time.Time
	Comments     string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v Vaccination) Given() bool { return v.GivenDate != nil }

// TypeBatch es el último lote/fabricante no vacío visto para un tipo.
type TypeBatch struct {
	VaccinationTypeID string
	BatchNumber       string
	Manufacturer      string
}

type SortOrder string

const (
	SortRequiredAsc  SortOrder = "required_asc"
	SortRequiredDesc SortOrder = "required_desc"
)
