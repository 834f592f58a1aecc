// Package xtext implementa presenter.Presenter con golang.org/x/text:
// negociación de idioma por Accept-Language y catálogo de mensajes en/es.
package xtext

import (
	"fmt"

	"shelter-medical/internal/domain/schedule"
	"shelter-medical/internal/ports/presenter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Presenter struct {
	cat      catalog.Catalog
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

var _ presenter.Presenter = (*Presenter)(nil)

// New arma el catálogo. defaultLocale se usa cuando el request no trae
// Accept-Language o no coincide con ningún idioma soportado.
func New(defaultLocale string) (*Presenter, error) {
	b, err := buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	tags := supported()
	p := &Presenter{
		cat:      b,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		fallback: language.English,
	}
	if defaultLocale != "" {
		p.fallback = p.match(defaultLocale, language.English)
	}
	return p, nil
}

func (p *Presenter) match(locale string, def language.Tag) language.Tag {
	if locale == "" {
		return def
	}
	prefs, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(prefs) == 0 {
		return def
	}
	_, idx, conf := p.matcher.Match(prefs...)
	if conf == language.No {
		return def
	}
	return p.tags[idx]
}

func (p *Presenter) printer(locale string) *message.Printer {
	return message.NewPrinter(p.match(locale, p.fallback), message.Catalog(p.cat))
}

func (p *Presenter) period(pr *message.Printer, unit schedule.Frequency, n int) string {
	w, ok := units[string(unit)]
	if !ok {
		w = units[string(schedule.FrequencyDaily)]
	}
	if n == 1 {
		return pr.Sprintf(w.singular)
	}
	return pr.Sprintf(w.plural, n)
}

func (p *Presenter) Frequency(locale string, fd schedule.FrequencyDescription) string {
	pr := p.printer(locale)
	if fd.Kind == schedule.FrequencyKindOneOff {
		return pr.Sprintf(keyOneOff)
	}
	every := p.period(pr, fd.Frequency, fd.Interval)
	if fd.Count == 1 {
		return pr.Sprintf(keyOneTreatment, every)
	}
	return pr.Sprintf(keyManyTreatments, fd.Count, every)
}

func (p *Presenter) Count(locale string, cd schedule.CountDescription) string {
	pr := p.printer(locale)
	switch cd.Kind {
	case schedule.CountKindSingleTreatment:
		return pr.Sprintf(keySingleTreatment)
	case schedule.CountKindUnspecified:
		return pr.Sprintf(keyUnspecified)
	}
	total := p.period(pr, cd.Unit, cd.Total)
	if cd.Total == 1 {
		total = "1 " + total
	}
	return pr.Sprintf(keyCountPeriodic, total, cd.TotalTreatments)
}

func (p *Presenter) Status(locale string, status string) string {
	pr := p.printer(locale)
	switch status {
	case "active":
		return pr.Sprintf(keyActive)
	case "held":
		return pr.Sprintf(keyHeld)
	case "completed":
		return pr.Sprintf(keyCompleted)
	}
	return status
}
