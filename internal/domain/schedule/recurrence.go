package schedule

import (
	"time"

	"shelter-medical/internal/platform/civil"
)

// Anchos fijos para meses y años. No es aritmética de calendario: un régimen
// mensual avanza siempre 31 días y uno anual 365 (sin bisiestos).
// TODO: decidir con clínica si pasamos a AddDate(0, n, 0); cambia fechas de historiales existentes.
const (
	daysPerWeek  = 7
	daysPerMonth = 31
	daysPerYear  = 365
)

// NextRequiredDate calcula la siguiente fecha requerida a partir de ref.
// No se usa para el primer lote: ahí la fecha de inicio va tal cual.
func NextRequiredDate(freq Frequency, interval int, ref time.Time) time.Time {
	ref = civil.Day(ref)

	switch freq {
	case FrequencyDaily:
		return civil.AddDays(ref, interval)
	case FrequencyWeekdays:
		next := civil.AddDays(ref, interval)
		for isWeekend(next) {
			next = civil.AddDays(next, 1)
		}
		return next
	case FrequencyWeekly:
		return civil.AddDays(ref, interval*daysPerWeek)
	case FrequencyMonthly:
		return civil.AddDays(ref, interval*daysPerMonth)
	case FrequencyYearly:
		return civil.AddDays(ref, interval*daysPerYear)
	default:
		return ref
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
