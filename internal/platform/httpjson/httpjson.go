// Package httpjson junta los helpers de JSON que antes estaban duplicados en
// cada handler.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shelter-medical/internal/platform/civil"
)

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode lee el body en v. Body vacío no es error (POST sin payload).
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// QueryDate parsea un query param YYYY-MM-DD; vacío devuelve def.
func QueryDate(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	return civil.Parse(v)
}

func QueryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return b
}
