package duewindows

import (
	"sort"
	"time"

	"shelter-medical/internal/domain/vaccinations"
)

type vaccinationKey struct {
	animalID string
	typeID   string
}

type requiredEntry struct {
	id       string
	required time.Time
}

// SupersessionIndex agrupa vacunas por (animal, tipo) con fechas requeridas
// ordenadas, para responder Superseded sin recorrer todo el historial.
type SupersessionIndex struct {
	byKey map[vaccinationKey][]requiredEntry
}

func NewSupersessionIndex(vs []vaccinations.Vaccination) *SupersessionIndex {
	ix := &SupersessionIndex{byKey: make(map[vaccinationKey][]requiredEntry)}
	for _, v := range vs {
		k := vaccinationKey{v.AnimalID, v.VaccinationTypeID}
		ix.byKey[k] = append(ix.byKey[k], requiredEntry{id: v.ID, required: v.RequiredDate})
	}
	for _, entries := range ix.byKey {
		sort.Slice(entries, func(i, j int) bool { return entries[i].required.Before(entries[j].required) })
	}
	return ix
}

// Superseded: existe otro registro (ID distinto) del mismo animal y tipo con
// fecha requerida >= la fecha de aplicación de v. Sin aplicación no hay
// reemplazo posible.
func (ix *SupersessionIndex) Superseded(v vaccinations.Vaccination) bool {
	if v.GivenDate == nil {
		return false
	}
	entries := ix.byKey[vaccinationKey{v.AnimalID, v.VaccinationTypeID}]
	given := *v.GivenDate

	i := sort.Search(len(entries), func(i int) bool { return !entries[i].required.Before(given) })
	for _, e := range entries[i:] {
		if e.id != v.ID {
			return true
		}
	}
	return false
}
