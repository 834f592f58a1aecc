package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRule = errors.New("invalid timing rule")
)

// Rule agrupa la configuración de tiempo de un régimen o perfil.
type Rule struct {
	// TimingRule: tratamientos por ciclo. 0 = dosis única.
	TimingRule int
	Frequency  Frequency
	// Interval: "cada N unidades" de Frequency.
	Interval      int
	TreatmentRule TreatmentRule
	// TotalCycles solo aplica con TreatmentRuleFixed.
	TotalCycles int
}

func (r Rule) OneOff() bool { return r.TimingRule == 0 }

// PerCycle devuelve cuántos tratamientos se generan por lote (mínimo 1).
func (r Rule) PerCycle() int {
	if r.TimingRule < 1 {
		return 1
	}
	return r.TimingRule
}

// Target es el total de tratamientos esperado para un régimen de duración fija.
// Para duración indefinida devuelve 0.
func (r Rule) Target() int {
	if r.TreatmentRule != TreatmentRuleFixed {
		return 0
	}
	return r.TotalCycles * r.PerCycle()
}

// Normalize aplica las reglas de alta: dosis única fuerza una sola aplicación,
// TotalCycles 0 pasa a 1 y la duración indefinida ignora TotalCycles.
func (r Rule) Normalize(singleOccurrence bool) Rule {
	if r.TreatmentRule == "" {
		r.TreatmentRule = TreatmentRuleFixed
	}
	if singleOccurrence {
		r.TimingRule = 0
		r.Frequency = FrequencyNone
		r.Interval = 0
		r.TotalCycles = 1
	}
	if r.TotalCycles == 0 {
		r.TotalCycles = 1
	}
	if r.TreatmentRule == TreatmentRuleUnspecified {
		r.TotalCycles = 0
	}
	return r
}

// Validate se llama antes de cualquier escritura.
func (r Rule) Validate() error {
	if r.TimingRule < 0 {
		return fmt.Errorf("%w: timing rule must be >= 0", ErrInvalidRule)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: interval must be >= 0", ErrInvalidRule)
	}
	if r.TotalCycles < 0 {
		return fmt.Errorf("%w: total cycles must be >= 0", ErrInvalidRule)
	}
	if !r.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, r.Frequency)
	}
	if r.TreatmentRule != "" && !r.TreatmentRule.Valid() {
		return fmt.Errorf("%w: unknown treatment rule %q", ErrInvalidRule, r.TreatmentRule)
	}
	if r.TimingRule > 0 {
		if r.Frequency == FrequencyNone {
			return fmt.Errorf("%w: recurring rule requires a frequency", ErrInvalidRule)
		}
		if r.Interval < 1 {
			return fmt.Errorf("%w: recurring rule requires interval >= 1", ErrInvalidRule)
		}
	}
	return nil
}
