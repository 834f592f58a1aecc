package duewindows

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.Route("/due", func(dr chi.Router) {
		dr.Get("/vaccinations/expiring", expiringHandler(svc))
		dr.Get("/{kind}", outstandingHandler(svc, now))
		dr.Get("/{kind}/between", betweenHandler(svc))
	})
}

type recordResponse struct {
	Kind            Kind       `json:"kind"`
	ID              string     `json:"id"`
	AnimalID        string     `json:"animal_id"`
	AnimalName      string     `json:"animal_name"`
	ShelterCode     string     `json:"shelter_code,omitempty"`
	TypeID          string     `json:"type_id"`
	RegimenID       string     `json:"regimen_id,omitempty"`
	TreatmentNumber int        `json:"treatment_number,omitempty"`
	TotalTreatments int        `json:"total_treatments,omitempty"`
	RequiredDate    time.Time  `json:"required_date"`
	GivenDate       *time.Time `json:"given_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	Comments        string     `json:"comments,omitempty"`
}

// kindParam acepta singular o plural en la URL (/due/vaccinations).
func kindParam(r *http.Request) Kind {
	k := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "kind")))
	return Kind(strings.TrimSuffix(k, "s"))
}

// outstandingHandler godoc
// @Summary Pendientes en una ventana relativa
// @Description offset: mN (últimos N días), pN (próximos N días), xmN/xpN (vencimientos, solo vacunas).
// @Tags due
// @Produce json
// @Param kind path string true "vaccinations | tests | treatments"
// @Param offset query string true "Ventana, p.ej. m31"
// @Param as_of query string false "Fecha de referencia YYYY-MM-DD (default hoy)"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string
// @Router /due/{kind} [get]
func outstandingHandler(svc *Service, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := httpjson.QueryDate(r, "as_of", civil.Day(now()))
		if err != nil {
			http.Error(w, "as_of must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		items, err := svc.Outstanding(r.Context(), kindParam(r), r.URL.Query().Get("offset"), asOf)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponses(items))
	}
}

func betweenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := rangeParams(w, r)
		if !ok {
			return
		}
		items, err := svc.DueBetween(r.Context(), kindParam(r), from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponses(items))
	}
}

// expiringHandler godoc
// @Summary Vacunas que vencen entre dos fechas
// @Description Excluye las que ya tienen otra dosis del mismo tipo programada o aplicada.
// @Tags due
// @Produce json
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {array} recordResponse
// @Router /due/vaccinations/expiring [get]
func expiringHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := rangeParams(w, r)
		if !ok {
			return
		}
		items, err := svc.Expiring(r.Context(), from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponses(items))
	}
}

func rangeParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := httpjson.QueryDate(r, "from", time.Time{})
	if err != nil {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	to, err := httpjson.QueryDate(r, "to", time.Time{})
	if err != nil {
		http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func toResponses(items []Record) []recordResponse {
	out := make([]recordResponse, 0, len(items))
	for _, it := range items {
		out = append(out, recordResponse{
			Kind:            it.Kind,
			ID:              it.ID,
			AnimalID:        it.Animal.ID,
			AnimalName:      it.Animal.Name,
			ShelterCode:     it.Animal.ShelterCode,
			TypeID:          it.TypeID,
			RegimenID:       it.RegimenID,
			TreatmentNumber: it.TreatmentNumber,
			TotalTreatments: it.TotalTreatments,
			RequiredDate:    it.RequiredDate,
			GivenDate:       it.GivenDate,
			ExpiryDate:      it.ExpiryDate,
			Comments:        it.Comments,
		})
	}
	return out
}
