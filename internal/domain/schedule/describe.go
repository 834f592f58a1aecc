package schedule

// FrequencyDescription es el código estable para "cada cuánto" se aplica.
type FrequencyDescription struct {
	Kind      FrequencyKind `json:"kind"`
	Frequency Frequency     `json:"frequency,omitempty"`
	Interval  int           `json:"interval,omitempty"`
	Count     int           `json:"count,omitempty"`
}

// CountDescription es el código estable para "cuántos" tratamientos en total.
type CountDescription struct {
	Kind            CountKind `json:"kind"`
	Total           int       `json:"total,omitempty"`
	Unit            Frequency `json:"unit,omitempty"`
	TotalTreatments int       `json:"total_treatments,omitempty"`
}

// Describe proyecta la regla a códigos; el Presenter los traduce.
func Describe(r Rule) (FrequencyDescription, CountDescription) {
	var fd FrequencyDescription
	if r.OneOff() {
		fd = FrequencyDescription{Kind: FrequencyKindOneOff}
	} else {
		fd = FrequencyDescription{
			Kind:      FrequencyKindPeriodic,
			Frequency: r.Frequency,
			Interval:  r.Interval,
			Count:     r.TimingRule,
		}
	}

	var cd CountDescription
	switch {
	case r.OneOff():
		cd = CountDescription{Kind: CountKindSingleTreatment}
	case r.TreatmentRule == TreatmentRuleUnspecified:
		cd = CountDescription{Kind: CountKindUnspecified}
	default:
		unit := r.Frequency
		if unit == FrequencyNone {
			unit = FrequencyDaily
		}
		cd = CountDescription{
			Kind:            CountKindPeriodic,
			Total:           r.TotalCycles,
			Unit:            unit,
			TotalTreatments: r.TotalCycles * r.TimingRule,
		}
	}

	return fd, cd
}
