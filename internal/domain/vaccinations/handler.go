package vaccinations

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"shelter-medical/internal/middleware"
	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals/{animalID}/vaccinations", func(ar chi.Router) {
		ar.Post("/", createVaccinationHandler(svc))
		ar.Get("/", listVaccinationsHandler(svc))
	})
	r.Get("/animals/{animalID}/vaccinated", vaccinatedHandler(svc))

	r.Route("/vaccinations/{vaccinationID}", func(vr chi.Router) {
		vr.Get("/", getVaccinationHandler(svc))
		vr.Put("/", updateVaccinationHandler(svc))
		vr.Delete("/", deleteVaccinationHandler(svc))
		vr.Post("/complete", completeVaccinationHandler(svc))
		vr.Post("/given-today", givenTodayHandler(svc))
		vr.Post("/reschedule", rescheduleHandler(svc))
		vr.Patch("/required", updateRequiredHandler(svc))
	})

	r.Get("/vaccination-types/batches", lastBatchesHandler(svc))
	r.Get("/vaccination-manufacturers", manufacturersHandler(svc))
}

type vaccinationRequest struct {
	VaccinationTypeID  string `json:"vaccination_type_id"`
	RequiredDate       string `json:"required_date"`
	GivenDate          string `json:"given_date"`
	ExpiryDate         string `json:"expiry_date"`
	AdministeringVetID string `json:"administering_vet_id"`
	BatchNumber        string `json:"batch_number"`
	Manufacturer       string `json:"manufacturer"`
	Cost               int64  `json:"cost"`
	CostPaidDate       string `json:"cost_paid_date"`
	Comments           string `json:"comments"`
	// Solo en PUT; en POST el animal sale del path.
	AnimalID string `json:"animal_id,omitempty"`
}

type completeRequest struct {
	Date         string `json:"date"`
	ExpiryDate   string `json:"expiry_date"`
	VetID        string `json:"vet_id"`
	BatchNumber  string `json:"batch_number"`
	Manufacturer string `json:"manufacturer"`
}

type rescheduleRequest struct {
	NewDate  string `json:"new_date"`
	Comments string `json:"comments"`
}

type vaccinationResponse struct {
	ID                 string     `json:"id"`
	AnimalID           string     `json:"animal_id"`
	VaccinationTypeID  string     `json:"vaccination_type_id"`
	RequiredDate       time.Time  `json:"required_date"`
	GivenDate          *time.Time `json:"given_date,omitempty"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
	AdministeringVetID string     `json:"administering_vet_id,omitempty"`
	BatchNumber        string     `json:"batch_number,omitempty"`
	Manufacturer       string     `json:"manufacturer,omitempty"`
	Cost               int64      `json:"cost"`
	CostPaidDate       *time.Time `json:"cost_paid_date,omitempty"`
	Comments           string     `json:"comments"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type typeBatchResponse struct {
	VaccinationTypeID string `json:"vaccination_type_id"`
	BatchNumber       string `json:"batch_number"`
	Manufacturer      string `json:"manufacturer"`
}

func (req vaccinationRequest) input(animalID string) (Input, error) {
	in := Input{
		AnimalID:           animalID,
		VaccinationTypeID:  req.VaccinationTypeID,
		AdministeringVetID: req.AdministeringVetID,
		BatchNumber:        req.BatchNumber,
		Manufacturer:       req.Manufacturer,
		Cost:               req.Cost,
		Comments:           req.Comments,
	}
	var err error
	if in.RequiredDate, err = civil.Parse(req.RequiredDate); err != nil {
		return Input{}, errors.New("required_date must be YYYY-MM-DD")
	}
	if in.GivenDate, err = civil.ParseOptional(req.GivenDate); err != nil {
		return Input{}, errors.New("given_date must be YYYY-MM-DD")
	}
	if in.ExpiryDate, err = civil.ParseOptional(req.ExpiryDate); err != nil {
		return Input{}, errors.New("expiry_date must be YYYY-MM-DD")
	}
	if in.CostPaidDate, err = civil.ParseOptional(req.CostPaidDate); err != nil {
		return Input{}, errors.New("cost_paid_date must be YYYY-MM-DD")
	}
	return in, nil
}

// createVaccinationHandler godoc
// @Summary Alta de vacuna
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param animalID path string true "Animal ID"
// @Param body body vaccinationRequest true "Vacuna"
// @Success 201 {object} vaccinationResponse
// @Failure 400 {string} string
// @Router /animals/{animalID}/vaccinations [post]
func createVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vaccinationRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in, err := req.input(chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		v, err := svc.Create(r.Context(), middleware.ActorID(r.Context()), in)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, toResponse(v))
	}
}

// listVaccinationsHandler godoc
// @Summary Vacunas de un animal
// @Tags vaccinations
// @Produce json
// @Param animalID path string true "Animal ID"
// @Param only_given query bool false "Solo aplicadas"
// @Param sort query string false "required_asc | required_desc"
// @Success 200 {array} vaccinationResponse
// @Router /animals/{animalID}/vaccinations [get]
func listVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByAnimal(r.Context(),
			chi.URLParam(r, "animalID"),
			httpjson.QueryBool(r, "only_given"),
			SortOrder(strings.TrimSpace(r.URL.Query().Get("sort"))),
		)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]vaccinationResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toResponse(v))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func vaccinatedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := svc.IsVaccinated(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]bool{"vaccinated": ok})
	}
}

func getVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetByID(r.Context(), chi.URLParam(r, "vaccinationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(v))
	}
}

func updateVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "vaccinationID")

		var req vaccinationRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		animalID := req.AnimalID
		if strings.TrimSpace(animalID) == "" {
			cur, err := svc.GetByID(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			animalID = cur.AnimalID
		}
		in, err := req.input(animalID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		v, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(v))
	}
}

func deleteVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "vaccinationID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// completeVaccinationHandler godoc
// @Summary Registra la aplicación de una vacuna
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param vaccinationID path string true "Vaccination ID"
// @Param body body completeRequest true "Aplicación"
// @Success 200 {object} vaccinationResponse
// @Router /vaccinations/{vaccinationID}/complete [post]
func completeVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := civil.Parse(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		expiry, err := civil.ParseOptional(req.ExpiryDate)
		if err != nil {
			http.Error(w, "expiry_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.Complete(r.Context(), chi.URLParam(r, "vaccinationID"), CompleteInput{
			Date:         date,
			ExpiryDate:   expiry,
			VetID:        req.VetID,
			BatchNumber:  req.BatchNumber,
			Manufacturer: req.Manufacturer,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(v))
	}
}

func givenTodayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.MarkGivenToday(r.Context(), chi.URLParam(r, "vaccinationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(v))
	}
}

// rescheduleHandler godoc
// @Summary Reprograma una vacuna
// @Description Cierra la actual (hoy, si estaba pendiente) y crea una nueva en new_date.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param vaccinationID path string true "Vaccination ID"
// @Param body body rescheduleRequest true "Nueva fecha"
// @Success 201 {object} vaccinationResponse
// @Router /vaccinations/{vaccinationID}/reschedule [post]
func rescheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rescheduleRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := civil.Parse(req.NewDate)
		if err != nil {
			http.Error(w, "new_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.Reschedule(r.Context(), middleware.ActorID(r.Context()), chi.URLParam(r, "vaccinationID"), date, req.Comments)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, toResponse(v))
	}
}

func updateRequiredHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RequiredDate string `json:"required_date"`
		}
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := civil.Parse(req.RequiredDate)
		if err != nil {
			http.Error(w, "required_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.UpdateRequired(r.Context(), chi.URLParam(r, "vaccinationID"), date)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(v))
	}
}

func lastBatchesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.LastBatches(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]typeBatchResponse, 0, len(items))
		for _, b := range items {
			out = append(out, typeBatchResponse(b))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func manufacturersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Manufacturers(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if items == nil {
			items = []string{}
		}
		httpjson.Write(w, http.StatusOK, items)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toResponse(v Vaccination) vaccinationResponse {
	return vaccinationResponse{
		ID:                 v.ID,
		AnimalID:           v.AnimalID,
		VaccinationTypeID:  v.VaccinationTypeID,
		RequiredDate:       v.RequiredDate,
		GivenDate:          v.GivenDate,
		ExpiryDate:         v.ExpiryDate,
		AdministeringVetID: v.AdministeringVetID,
		BatchNumber:        v.BatchNumber,
		Manufacturer:       v.Manufacturer,
		Cost:               v.Cost,
		CostPaidDate:       v.CostPaidDate,
		Comments:           v.Comments,
		CreatedBy:          v.CreatedBy,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}
