package duewindows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shelter-medical/internal/platform/civil"
)

var ErrInvalidWindow = errors.New("invalid window")

// Window es un rango cerrado de días. Expiry indica que se filtra por fecha
// de vencimiento en lugar de fecha requerida.
type Window struct {
	From   time.Time
	To     time.Time
	Expiry bool
}

// ParseWindow interpreta "mN" (hacia atrás), "pN" (hacia adelante) y sus
// variantes de vencimiento "xmN"/"xpN", relativos a asOf.
func ParseWindow(spec string, asOf time.Time) (Window, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	w := Window{}

	if strings.HasPrefix(s, "x") {
		w.Expiry = true
		s = s[1:]
	}
	if len(s) < 2 {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidWindow, spec)
	}

	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidWindow, spec)
	}

	today := civil.Day(asOf)
	switch s[0] {
	case 'm':
		w.From, w.To = civil.AddDays(today, -n), today
	case 'p':
		w.From, w.To = today, civil.AddDays(today, n)
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidWindow, spec)
	}
	return w, nil
}
