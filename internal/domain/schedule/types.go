package schedule

// Frequency es la unidad de recurrencia de una regla de tiempo.
type Frequency string

const (
	FrequencyNone     Frequency = ""
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyYearly   Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekdays, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// TreatmentRule indica si el régimen tiene duración fija o indefinida.
type TreatmentRule string

const (
	TreatmentRuleFixed       TreatmentRule = "fixed_length"
	TreatmentRuleUnspecified TreatmentRule = "unspecified_length"
)

func (t TreatmentRule) Valid() bool {
	return t == TreatmentRuleFixed || t == TreatmentRuleUnspecified
}

// FrequencyKind clasifica la descripción de frecuencia.
type FrequencyKind string

const (
	FrequencyKindOneOff   FrequencyKind = "one_off"
	FrequencyKindPeriodic FrequencyKind = "periodic"
)

// CountKind clasifica la descripción del total de tratamientos.
type CountKind string

const (
	CountKindSingleTreatment CountKind = "single_treatment"
	CountKindUnspecified     CountKind = "unspecified"
	CountKindPeriodic        CountKind = "periodic"
)
