package xtext

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Claves del catálogo. El texto en inglés es también el fallback si falta
// una traducción.
const (
	keyOneOff          = "One off"
	keyOneTreatment    = "1 treatment every %s"
	keyManyTreatments  = "%d treatments every %s"
	keySingleTreatment = "Single treatment"
	keyUnspecified     = "Unspecified length"
	keyCountPeriodic   = "for %s (%d treatments)"

	keyActive    = "Active"
	keyHeld      = "Held"
	keyCompleted = "Completed"
)

type unitWords struct {
	singular string // "week"
	plural   string // "%d weeks"
}

var units = map[string]unitWords{
	"daily":    {"day", "%d days"},
	"weekdays": {"weekday", "%d weekdays"},
	"weekly":   {"week", "%d weeks"},
	"monthly":  {"month", "%d months"},
	"yearly":   {"year", "%d years"},
}

var translations = map[language.Tag]map[string]string{
	language.English: {
		keyOneOff:          "One off",
		keyOneTreatment:    "1 treatment every %s",
		keyManyTreatments:  "%d treatments every %s",
		keySingleTreatment: "Single treatment",
		keyUnspecified:     "Unspecified length",
		keyCountPeriodic:   "for %s (%d treatments)",
		keyActive:          "Active",
		keyHeld:            "Held",
		keyCompleted:       "Completed",

		"day": "day", "%d days": "%d days",
		"weekday": "weekday", "%d weekdays": "%d weekdays",
		"week": "week", "%d weeks": "%d weeks",
		"month": "month", "%d months": "%d months",
		"year": "year", "%d years": "%d years",
	},
	language.Spanish: {
		keyOneOff:          "Dosis única",
		keyOneTreatment:    "1 tratamiento cada %s",
		keyManyTreatments:  "%d tratamientos cada %s",
		keySingleTreatment: "Tratamiento único",
		keyUnspecified:     "Duración indefinida",
		keyCountPeriodic:   "durante %s (%d tratamientos)",
		keyActive:          "Activo",
		keyHeld:            "En pausa",
		keyCompleted:       "Completado",

		"day": "día", "%d days": "%d días",
		"weekday": "día hábil", "%d weekdays": "%d días hábiles",
		"week": "semana", "%d weeks": "%d semanas",
		"month": "mes", "%d months": "%d meses",
		"year": "año", "%d years": "%d años",
	},
}

func supported() []language.Tag {
	return []language.Tag{language.English, language.Spanish}
}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
