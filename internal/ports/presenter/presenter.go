package presenter

import "shelter-medical/internal/domain/schedule"

// Presenter traduce los códigos de display a texto localizado. locale es el
// valor crudo de Accept-Language (vacío = idioma por defecto).
type Presenter interface {
	Frequency(locale string, fd schedule.FrequencyDescription) string
	Count(locale string, cd schedule.CountDescription) string
	Status(locale string, status string) string
}
