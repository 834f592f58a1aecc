package regimens

import "shelter-medical/internal/domain/schedule"

// DisplayCodes son los códigos estables que el Presenter localiza.
type DisplayCodes struct {
	Frequency schedule.FrequencyDescription `json:"frequency"`
	Count     schedule.CountDescription     `json:"count"`
	Status    Status                        `json:"status"`
}

func Project(r Regimen) DisplayCodes {
	fd, cd := schedule.Describe(r.Rule)
	return DisplayCodes{Frequency: fd, Count: cd, Status: r.Status}
}
