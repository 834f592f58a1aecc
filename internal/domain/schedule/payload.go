package schedule

// RulePayload es la forma JSON de Rule, compartida por los handlers de
// regímenes y perfiles.
type RulePayload struct {
	TimingRule    int    `json:"timing_rule"`
	Frequency     string `json:"frequency"`
	Interval      int    `json:"interval"`
	TreatmentRule string `json:"treatment_rule"`
	TotalCycles   int    `json:"total_cycles"`
}

func (p RulePayload) Rule() Rule {
	return Rule{
		TimingRule:    p.TimingRule,
		Frequency:     Frequency(p.Frequency),
		Interval:      p.Interval,
		TreatmentRule: TreatmentRule(p.TreatmentRule),
		TotalCycles:   p.TotalCycles,
	}
}

func (p RulePayload) IsZero() bool { return p == RulePayload{} }

func PayloadOf(r Rule) RulePayload {
	return RulePayload{
		TimingRule:    r.TimingRule,
		Frequency:     string(r.Frequency),
		Interval:      r.Interval,
		TreatmentRule: string(r.TreatmentRule),
		TotalCycles:   r.TotalCycles,
	}
}
