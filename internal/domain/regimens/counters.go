package regimens

import "shelter-medical/internal/domain/schedule"

// Recompute deriva given/remaining del historial. El resultado se persiste
// como dato de display; nadie decide nada en base a él.
func Recompute(r Regimen, ts []Treatment) (given, remaining int) {
	for _, t := range ts {
		if t.Given() {
			given++
		}
	}
	if r.Rule.TreatmentRule == schedule.TreatmentRuleUnspecified {
		return given, 0
	}
	return given, r.Rule.TotalCycles*r.Rule.PerCycle() - given
}
