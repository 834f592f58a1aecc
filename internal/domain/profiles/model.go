package profiles

import (
	"time"

	"shelter-medical/internal/domain/schedule"
)

// Profile es una plantilla con nombre para precargar regímenes nuevos.
// El motor nunca la modifica.
type Profile struct {
	ID            string
	ProfileName   string
	TreatmentName string
	Dosage        string
	Cost          int64
	Rule          schedule.Rule
	Comments      string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SortOrder string

const (
	SortNameAsc  SortOrder = "name_asc"
	SortNameDesc SortOrder = "name_desc"
)
