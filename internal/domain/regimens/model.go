package regimens

import (
	"time"

	"shelter-medical/internal/domain/schedule"
)

// Status del régimen.
// @Enum active, held, completed
type Status string

const (
	StatusActive    Status = "active"
	StatusHeld      Status = "held"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusHeld, StatusCompleted:
		return true
	}
	return false
}

// Regimen es un plan de tratamiento para un animal.
type Regimen struct {
	ID        string
	AnimalID  string
	ProfileID string

	TreatmentName string
	Dosage        string
	StartDate     time.Time
	Status        Status

	Cost         int64 // centavos
	CostPaidDate *time.Time

	Rule schedule.Rule

	// Proyección cacheada del historial; no gobierna el ciclo de vida.
	TreatmentsGiven     int
	TreatmentsRemaining int

	Comments string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Treatment es una dosis concreta de un régimen.
type Treatment struct {
	ID        string
	RegimenID string
	AnimalID  string

	RequiredDate time.Time
	GivenDate    *time.Time // nil = pendiente
	GivenBy      string

	TreatmentNumber int // 1..TotalTreatments dentro del lote
	TotalTreatments int // copia de max(TimingRule, 1) al crear el lote

	AdministeringVetID string
	Comments           string

	CreatedAt time.Time
}

func (t Treatment) Given() bool { return t.GivenDate != nil }

// CompositeID es la clave de display regimenID_treatmentID.
func (t Treatment) CompositeID() string { return t.RegimenID + "_" + t.ID }

// Given agrupa los datos de una aplicación.
type Given struct {
	Date     time.Time
	By       string
	VetID    string
	Comments string
}

// Summary es un régimen con datos derivados para listados.
type Summary struct {
	Regimen
	NextTreatmentDue   *time.Time
	LastTreatmentGiven *time.Time
}

type SortOrder string

const (
	SortStartAsc  SortOrder = "start_asc"
	SortStartDesc SortOrder = "start_desc"
)

type ListFilter struct {
	OnlyCompleted bool
	Sort          SortOrder
}

type TreatmentSort string

const (
	SortRequiredAsc  TreatmentSort = "required_asc"
	SortRequiredDesc TreatmentSort = "required_desc"
	SortGivenDesc    TreatmentSort = "given_desc"
)

type TreatmentFilter struct {
	AnimalID  string
	RegimenID string
	Sort      TreatmentSort
}
