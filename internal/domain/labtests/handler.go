package labtests

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
	r.Route("/animals/{animalID}/tests", func(ar chi.Router) {
		ar.Post("/", createTestHandler(svc))
		ar.Get("/", listTestsHandler(svc))
	})

	r.Route("/tests/{testID}", func(tr chi.Router) {
		tr.Get("/", getTestHandler(svc))
		tr.Put("/", updateTestHandler(svc))
		tr.Delete("/", deleteTestHandler(svc))
		tr.Post("/complete", completeTestHandler(svc))
		tr.Post("/performed-today", performedTodayHandler(svc))
	})
}

type testRequest struct {
	AnimalID           string `json:"animal_id,omitempty"`
	TestTypeID         string `json:"test_type_id"`
	ResultID           string `json:"result_id"`
	RequiredDate       string `json:"required_date"`
	PerformedDate      string `json:"performed_date"`
	AdministeringVetID string `json:"administering_vet_id"`
	Cost               int64  `json:"cost"`
	CostPaidDate       string `json:"cost_paid_date"`
	Comments           string `json:"comments"`
}

type completeRequest struct {
	Date     string `json:"date"`
	ResultID string `json:"result_id"`
	VetID    string `json:"vet_id"`
}

type testResponse struct {
	ID                 string     `json:"id"`
	AnimalID           string     `json:"animal_id"`
	TestTypeID         string     `json:"test_type_id"`
	ResultID           string     `json:"result_id,omitempty"`
	RequiredDate       time.Time  `json:"required_date"`
	PerformedDate      *time.Time `json:"performed_date,omitempty"`
	AdministeringVetID string     `json:"administering_vet_id,omitempty"`
	Cost               int64      `json:"cost"`
	CostPaidDate       *time.Time `json:"cost_paid_date,omitempty"`
	Comments           string     `json:"comments"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (req testRequest) input(animalID string) (Input, error) {
	required, err := civil.Parse(req.RequiredDate)
	if err != nil {
		return Input{}, errors.New("required_date must be YYYY-MM-DD")
	}
	performed, err := civil.ParseOptional(req.PerformedDate)
	if err != nil {
		return Input{}, errors.New("performed_date must be YYYY-MM-DD")
	}
	paid, err := civil.ParseOptional(req.CostPaidDate)
	if err != nil {
		return Input{}, errors.New("cost_paid_date must be YYYY-MM-DD")
	}
	return Input{
		AnimalID:           animalID,
		TestTypeID:         req.TestTypeID,
		ResultID:           req.ResultID,
		RequiredDate:       required,
		PerformedDate:      performed,
		AdministeringVetID: req.AdministeringVetID,
		Cost:               req.Cost,
		CostPaidDate:       paid,
		Comments:           req.Comments,
	}, nil
}

// createTestHandler godoc
// @Summary Alta de estudio
// @Tags tests
// @Accept json
// @Produce json
// @Param animalID path string true "Animal ID"
// @Param body body testRequest true "Estudio"
// @Success 201 {object} testResponse
// @Router /animals/{animalID}/tests [post]
func createTestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in, err := req.input(chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		t, err := svc.Create(r.Context(), middleware.ActorID(r.Context()), in)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, toResponse(t))
	}
}

func listTestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByAnimal(r.Context(),
			chi.URLParam(r, "animalID"),
			httpjson.QueryBool(r, "only_performed"),
			SortOrder(strings.TrimSpace(r.URL.Query().Get("sort"))),
		)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]testResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toResponse(t))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func getTestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetByID(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(t))
	}
}

func updateTestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")

		var req testRequest
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

		t, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(t))
	}
}

func deleteTestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "testID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// completeTestHandler godoc
// @Summary Carga el resultado de un estudio
// @Tags tests
// @Accept json
// @Produce json
// @Param testID path string true "Test ID"
// @Param body body completeRequest true "Resultado"
// @Success 200 {object} testResponse
// @Router /tests/{testID}/complete [post]
func completeTestHandler(svc *Service) http.HandlerFunc {
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

		t, err := svc.Complete(r.Context(), chi.URLParam(r, "testID"), date, req.ResultID, req.VetID)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(t))
	}
}

func performedTodayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResultID string `json:"result_id"`
		}
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.MarkPerformedToday(r.Context(), chi.URLParam(r, "testID"), req.ResultID)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toResponse(t))
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

func toResponse(t Test) testResponse {
	return testResponse{
		ID:                 t.ID,
		AnimalID:           t.AnimalID,
		TestTypeID:         t.TestTypeID,
		ResultID:           t.ResultID,
		RequiredDate:       t.RequiredDate,
		PerformedDate:      t.PerformedDate,
		AdministeringVetID: t.AdministeringVetID,
		Cost:               t.Cost,
		CostPaidDate:       t.CostPaidDate,
		Comments:           t.Comments,
		CreatedBy:          t.CreatedBy,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}
