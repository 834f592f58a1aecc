package animals

import "time"

// Species define las especies que recibe el refugio.
// @Enum dog, cat, rabbit, other
type Species string

const (
	SpeciesDog    Species = "dog"
	SpeciesCat    Species = "cat"
	SpeciesRabbit Species = "rabbit"
	SpeciesOther  Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesRabbit, SpeciesOther:
		return true
	}
	return false
}

// Animal es el modelo mínimo que necesita el módulo médico: nombre para
// ordenar listados, fecha de fallecimiento y si sigue en el refugio.
type Animal struct {
	ID          string
	Name        string
	ShelterCode string
	Species     Species

	DeceasedDate *time.Time

	// Archived = ya no está en el refugio (adoptado, transferido, etc.).
	Archived bool
	// Fostered = en hogar de tránsito; cuenta como "en refugio" para reportes.
	Fostered bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Animal) Deceased() bool { return a.DeceasedDate != nil }

// OnShelter: no archivado, o archivado pero en tránsito.
func (a Animal) OnShelter() bool { return !a.Archived || a.Fostered }
