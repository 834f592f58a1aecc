package profiles

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"shelter-medical/internal/domain/schedule"
	"shelter-medical/internal/middleware"
	"shelter-medical/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/profiles", func(pr chi.Router) {
		pr.Post("/", createProfileHandler(svc))
		pr.Get("/", listProfilesHandler(svc))
		pr.Get("/{profileID}", getProfileHandler(svc))
		pr.Put("/{profileID}", updateProfileHandler(svc))
		pr.Delete("/{profileID}", deleteProfileHandler(svc))
	})
}

type profileRequest struct {
	ProfileName      string               `json:"profile_name"`
	TreatmentName    string               `json:"treatment_name"`
	Dosage           string               `json:"dosage"`
	Cost             int64                `json:"cost"`
	Rule             schedule.RulePayload `json:"rule"`
	SingleOccurrence bool                 `json:"single_occurrence"`
	Comments         string               `json:"comments"`
}

func (req profileRequest) input() Input {
	return Input{
		ProfileName:      req.ProfileName,
		TreatmentName:    req.TreatmentName,
		Dosage:           req.Dosage,
		Cost:             req.Cost,
		Rule:             req.Rule.Rule(),
		SingleOccurrence: req.SingleOccurrence,
		Comments:         req.Comments,
	}
}

type profileResponse struct {
	ID            string               `json:"id"`
	ProfileName   string               `json:"profile_name"`
	TreatmentName string               `json:"treatment_name"`
	Dosage        string               `json:"dosage"`
	Cost          int64                `json:"cost"`
	Rule          schedule.RulePayload `json:"rule"`
	Comments      string               `json:"comments"`
	CreatedBy     string               `json:"created_by"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// createProfileHandler godoc
// @Summary Alta de perfil de tratamiento
// @Tags profiles
// @Accept json
// @Produce json
// @Param body body profileRequest true "Perfil"
// @Success 201 {object} profileResponse
// @Router /profiles [post]
func createProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), middleware.ActorID(r.Context()), req.input())
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, toProfileResponse(p))
	}
}

// listProfilesHandler godoc
// @Summary Lista perfiles ordenados por nombre
// @Tags profiles
// @Produce json
// @Param sort query string false "name_asc | name_desc"
// @Success 200 {array} profileResponse
// @Router /profiles [get]
func listProfilesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order := SortOrder(strings.TrimSpace(r.URL.Query().Get("sort")))

		items, err := svc.List(r.Context(), order)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]profileResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProfileResponse(p))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "profileID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toProfileResponse(p))
	}
}

func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "profileID"), req.input())
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toProfileResponse(p))
	}
}

func deleteProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "profileID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "profile not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{
		ID:            p.ID,
		ProfileName:   p.ProfileName,
		TreatmentName: p.TreatmentName,
		Dosage:        p.Dosage,
		Cost:          p.Cost,
		Rule:          schedule.PayloadOf(p.Rule),
		Comments:      p.Comments,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
