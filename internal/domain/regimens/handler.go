package regimens

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"shelter-medical/internal/domain/schedule"
	"shelter-medical/internal/middleware"
	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/httpjson"
	"shelter-medical/internal/ports/presenter"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, pr presenter.Presenter) {
	r.Route("/animals/{animalID}/regimens", func(rr chi.Router) {
		rr.Post("/", createRegimenHandler(svc, pr))
		rr.Get("/", listRegimensHandler(svc, pr))
	})
	r.Get("/animals/{animalID}/treatments", listAnimalTreatmentsHandler(svc))

	r.Route("/regimens/{regimenID}", func(rr chi.Router) {
		rr.Get("/", getRegimenHandler(svc, pr))
		rr.Patch("/", updateRegimenHandler(svc, pr))
		rr.Delete("/", deleteRegimenHandler(svc))
		rr.Get("/treatments", listRegimenTreatmentsHandler(svc))
		rr.Post("/advance", advanceRegimenHandler(svc))
	})

	r.Route("/treatments/{treatmentID}", func(tr chi.Router) {
		tr.Post("/given", markGivenHandler(svc))
		tr.Post("/given-today", markGivenTodayHandler(svc))
		tr.Patch("/required", updateRequiredHandler(svc))
		tr.Delete("/", deleteTreatmentHandler(svc))
	})
}

type createRegimenRequest struct {
	ProfileID        string               `json:"profile_id"`
	TreatmentName    string               `json:"treatment_name"`
	Dosage           string               `json:"dosage"`
	StartDate        string               `json:"start_date"` // YYYY-MM-DD
	Status           string               `json:"status"`
	Cost             int64                `json:"cost"`
	CostPaidDate     string               `json:"cost_paid_date"`
	Rule             schedule.RulePayload `json:"rule"`
	SingleOccurrence bool                 `json:"single_occurrence"`
	Comments         string               `json:"comments"`
}

type updateRegimenRequest struct {
	TreatmentName *string `json:"treatment_name"`
	Dosage        *string `json:"dosage"`
	StartDate     *string `json:"start_date"`
	Status        *string `json:"status"`
	Cost          *int64  `json:"cost"`
	// "" limpia la fecha de pago.
	CostPaidDate *string `json:"cost_paid_date"`
	Comments     *string `json:"comments"`
}

type regimenResponse struct {
	ID                  string               `json:"id"`
	AnimalID            string               `json:"animal_id"`
	ProfileID           string               `json:"profile_id,omitempty"`
	TreatmentName       string               `json:"treatment_name"`
	Dosage              string               `json:"dosage"`
	StartDate           time.Time            `json:"start_date"`
	Status              Status               `json:"status"`
	Cost                int64                `json:"cost"`
	CostPaidDate        *time.Time           `json:"cost_paid_date,omitempty"`
	Rule                schedule.RulePayload `json:"rule"`
	TreatmentsGiven     int                  `json:"treatments_given"`
	TreatmentsRemaining int                  `json:"treatments_remaining"`
	Comments            string               `json:"comments"`
	NextTreatmentDue    *time.Time           `json:"next_treatment_due,omitempty"`
	LastTreatmentGiven  *time.Time           `json:"last_treatment_given,omitempty"`
	Display             DisplayCodes         `json:"display"`
	Descriptions        descriptions         `json:"descriptions"`
	CreatedBy           string               `json:"created_by"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

type descriptions struct {
	Frequency string `json:"frequency"`
	Count     string `json:"count"`
	Status    string `json:"status"`
}

type treatmentResponse struct {
	ID                 string     `json:"id"`
	CompositeID        string     `json:"composite_id"`
	RegimenID          string     `json:"regimen_id"`
	AnimalID           string     `json:"animal_id"`
	RequiredDate       time.Time  `json:"required_date"`
	GivenDate          *time.Time `json:"given_date,omitempty"`
	GivenBy            string     `json:"given_by,omitempty"`
	TreatmentNumber    int        `json:"treatment_number"`
	TotalTreatments    int        `json:"total_treatments"`
	AdministeringVetID string     `json:"administering_vet_id,omitempty"`
	Comments           string     `json:"comments"`
}

type markGivenRequest struct {
	Date     string `json:"date"` // YYYY-MM-DD
	By       string `json:"by"`
	VetID    string `json:"vet_id"`
	Comments string `json:"comments"`
}

type updateRequiredRequest struct {
	RequiredDate string `json:"required_date"`
}

type deleteTreatmentResponse struct {
	RegimenDeleted bool `json:"regimen_deleted"`
}

// createRegimenHandler godoc
// @Summary Alta de régimen médico
// @Description Genera el primer lote de tratamientos en la fecha de inicio.
// @Tags regimens
// @Accept json
// @Produce json
// @Param animalID path string true "Animal ID"
// @Param body body createRegimenRequest true "Régimen"
// @Success 201 {object} regimenResponse
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Router /animals/{animalID}/regimens [post]
func createRegimenHandler(svc *Service, pr presenter.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRegimenRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := civil.Parse(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		paid, err := civil.ParseOptional(req.CostPaidDate)
		if err != nil {
			http.Error(w, "cost_paid_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		reg, err := svc.CreateRegimen(r.Context(), middleware.ActorID(r.Context()), CreateInput{
			AnimalID:         chi.URLParam(r, "animalID"),
			ProfileID:        req.ProfileID,
			TreatmentName:    req.TreatmentName,
			Dosage:           req.Dosage,
			StartDate:        start,
			Status:           Status(req.Status),
			Cost:             req.Cost,
			CostPaidDate:     paid,
			Rule:             req.Rule.Rule(),
			SingleOccurrence: req.SingleOccurrence,
			Comments:         req.Comments,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		httpjson.Write(w, http.StatusCreated, toRegimenResponse(Summary{Regimen: reg}, pr, r.Header.Get("Accept-Language")))
	}
}

// listRegimensHandler godoc
// @Summary Regímenes de un animal
// @Tags regimens
// @Produce json
// @Param animalID path string true "Animal ID"
// @Param only_completed query bool false "Solo completados"
// @Param sort query string false "start_asc | start_desc"
// @Success 200 {array} regimenResponse
// @Router /animals/{animalID}/regimens [get]
func listRegimensHandler(svc *Service, pr presenter.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByAnimal(r.Context(), chi.URLParam(r, "animalID"), ListFilter{
			OnlyCompleted: httpjson.QueryBool(r, "only_completed"),
			Sort:          SortOrder(strings.TrimSpace(r.URL.Query().Get("sort"))),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		locale := r.Header.Get("Accept-Language")
		out := make([]regimenResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRegimenResponse(it, pr, locale))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func getRegimenHandler(svc *Service, pr presenter.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, err := svc.GetRegimen(r.Context(), chi.URLParam(r, "regimenID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toRegimenResponse(Summary{Regimen: reg}, pr, r.Header.Get("Accept-Language")))
	}
}

// updateRegimenHandler godoc
// @Summary Edita un régimen
// @Description Cambiar status a active reactiva sin generar dosis perdidas.
// @Tags regimens
// @Accept json
// @Produce json
// @Param regimenID path string true "Regimen ID"
// @Param body body updateRegimenRequest true "Campos a modificar"
// @Success 200 {object} regimenResponse
// @Router /regimens/{regimenID} [patch]
func updateRegimenHandler(svc *Service, pr presenter.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRegimenRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			TreatmentName: req.TreatmentName,
			Dosage:        req.Dosage,
			Cost:          req.Cost,
			Comments:      req.Comments,
		}
		if req.StartDate != nil {
			t, err := civil.Parse(*req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = &t
		}
		if req.Status != nil {
			st := Status(*req.Status)
			in.Status = &st
		}
		if req.CostPaidDate != nil {
			paid, err := civil.ParseOptional(*req.CostPaidDate)
			if err != nil {
				http.Error(w, "cost_paid_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.CostPaidDate = paid
			in.ClearCostPaidDate = paid == nil
		}

		reg, err := svc.UpdateRegimen(r.Context(), chi.URLParam(r, "regimenID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toRegimenResponse(Summary{Regimen: reg}, pr, r.Header.Get("Accept-Language")))
	}
}

func deleteRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteRegimen(r.Context(), chi.URLParam(r, "regimenID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func advanceRegimenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Advance(r.Context(), chi.URLParam(r, "regimenID"))
		if err != nil {
			writeError(w, err)
			return
		}
		resp := map[string]any{"action": d.Action.String(), "reason": d.Reason}
		if d.Action == ActionGenerate {
			resp["required_date"] = d.RequiredDate.Format(civil.Layout)
		}
		httpjson.Write(w, http.StatusOK, resp)
	}
}

func listAnimalTreatmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := svc.ListTreatments(r.Context(), TreatmentFilter{
			AnimalID: chi.URLParam(r, "animalID"),
			Sort:     TreatmentSort(strings.TrimSpace(r.URL.Query().Get("sort"))),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toTreatmentResponses(ts))
	}
}

func listRegimenTreatmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := svc.ListTreatments(r.Context(), TreatmentFilter{
			RegimenID: chi.URLParam(r, "regimenID"),
			Sort:      TreatmentSort(strings.TrimSpace(r.URL.Query().Get("sort"))),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toTreatmentResponses(ts))
	}
}

// markGivenHandler godoc
// @Summary Marca un tratamiento como aplicado
// @Tags treatments
// @Accept json
// @Produce json
// @Param treatmentID path string true "Treatment ID"
// @Param body body markGivenRequest true "Aplicación"
// @Success 200 {object} treatmentResponse
// @Failure 409 {string} string "ya aplicado"
// @Router /treatments/{treatmentID}/given [post]
func markGivenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markGivenRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := civil.Parse(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		t, err := svc.MarkGiven(r.Context(), chi.URLParam(r, "treatmentID"), middleware.ActorID(r.Context()), MarkGivenInput{
			Date:     date,
			By:       req.By,
			VetID:    req.VetID,
			Comments: req.Comments,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toTreatmentResponse(t))
	}
}

func markGivenTodayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.MarkGivenToday(r.Context(), chi.URLParam(r, "treatmentID"), middleware.ActorID(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toTreatmentResponse(t))
	}
}

func updateRequiredHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequiredRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := civil.Parse(req.RequiredDate)
		if err != nil {
			http.Error(w, "required_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		t, err := svc.UpdateTreatmentRequired(r.Context(), chi.URLParam(r, "treatmentID"), date)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toTreatmentResponse(t))
	}
}

// deleteTreatmentHandler godoc
// @Summary Borra un tratamiento
// @Description Si era el último del régimen, el régimen también se borra.
// @Tags treatments
// @Produce json
// @Param treatmentID path string true "Treatment ID"
// @Success 200 {object} deleteTreatmentResponse
// @Router /treatments/{treatmentID} [delete]
func deleteTreatmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := svc.DeleteTreatment(r.Context(), chi.URLParam(r, "treatmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, deleteTreatmentResponse{RegimenDeleted: deleted})
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyGiven):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRegimenResponse(s Summary, pr presenter.Presenter, locale string) regimenResponse {
	codes := Project(s.Regimen)
	resp := regimenResponse{
		ID:                  s.ID,
		AnimalID:            s.AnimalID,
		ProfileID:           s.ProfileID,
		TreatmentName:       s.TreatmentName,
		Dosage:              s.Dosage,
		StartDate:           s.StartDate,
		Status:              s.Status,
		Cost:                s.Cost,
		CostPaidDate:        s.CostPaidDate,
		Rule:                schedule.PayloadOf(s.Rule),
		TreatmentsGiven:     s.TreatmentsGiven,
		TreatmentsRemaining: s.TreatmentsRemaining,
		Comments:            s.Comments,
		NextTreatmentDue:    s.NextTreatmentDue,
		LastTreatmentGiven:  s.LastTreatmentGiven,
		Display:             codes,
		CreatedBy:           s.CreatedBy,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	if pr != nil {
		resp.Descriptions = descriptions{
			Frequency: pr.Frequency(locale, codes.Frequency),
			Count:     pr.Count(locale, codes.Count),
			Status:    pr.Status(locale, string(codes.Status)),
		}
	}
	return resp
}

func toTreatmentResponse(t Treatment) treatmentResponse {
	return treatmentResponse{
		ID:                 t.ID,
		CompositeID:        t.CompositeID(),
		RegimenID:          t.RegimenID,
		AnimalID:           t.AnimalID,
		RequiredDate:       t.RequiredDate,
		GivenDate:          t.GivenDate,
		GivenBy:            t.GivenBy,
		TreatmentNumber:    t.TreatmentNumber,
		TotalTreatments:    t.TotalTreatments,
		AdministeringVetID: t.AdministeringVetID,
		Comments:           t.Comments,
	}
}

func toTreatmentResponses(ts []Treatment) []treatmentResponse {
	out := make([]treatmentResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTreatmentResponse(t))
	}
	return out
}
