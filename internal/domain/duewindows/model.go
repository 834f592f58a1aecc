package duewindows

import (
	"time"

	"shelter-medical/internal/domain/animals"
)

// Kind es el tipo de registro médico consultado.
// @Enum vaccination, test, treatment
type Kind string

const (
	KindVaccination Kind = "vaccination"
	KindTest        Kind = "test"
	KindTreatment   Kind = "treatment"
)

func (k Kind) Valid() bool {
	switch k {
	case KindVaccination, KindTest, KindTreatment:
		return true
	}
	return false
}

// Record es una fila de reporte, común a vacunas, estudios y tratamientos.
type Record struct {
	Kind Kind
	ID   string

	Animal animals.Animal

	// TypeID: tipo de vacuna, tipo de estudio o nombre del tratamiento.
	TypeID string

	RegimenID       string
	TreatmentNumber int
	TotalTreatments int

	RequiredDate time.Time
	GivenDate    *time.Time
	ExpiryDate   *time.Time

	Comments string
}

// sortDate es la fecha que ordena el listado: vencimiento si lo hay.
func (r Record) sortDate(expiry bool) time.Time {
	if expiry && r.ExpiryDate != nil {
		return *r.ExpiryDate
	}
	return r.RequiredDate
}
