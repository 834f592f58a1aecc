package animals

import (
	"errors"
	"net/http"
	"time"

	"shelter-medical/internal/platform/civil"
	"shelter-medical/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))
		ar.Post("/{animalID}/deceased", markDeceasedHandler(svc))
	})
}

type createAnimalRequest struct {
	Name        string `json:"name"`
	ShelterCode string `json:"shelter_code"`
	Species     string `json:"species"`
	Archived    bool   `json:"archived"`
	Fostered    bool   `json:"fostered"`
}

type updateAnimalRequest struct {
	Name        *string `json:"name"`
	ShelterCode *string `json:"shelter_code"`
	Species     *string `json:"species"`
	Archived    *bool   `json:"archived"`
	Fostered    *bool   `json:"fostered"`
}

type markDeceasedRequest struct {
	Date string `json:"date"` // YYYY-MM-DD opcional, default hoy
}

type animalResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ShelterCode  string     `json:"shelter_code"`
	Species      Species    `json:"species"`
	DeceasedDate *time.Time `json:"deceased_date,omitempty"`
	Archived     bool       `json:"archived"`
	Fostered     bool       `json:"fostered"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// createAnimalHandler godoc
// @Summary Alta de animal
// @Tags animals
// @Accept json
// @Produce json
// @Param body body createAnimalRequest true "Animal"
// @Success 201 {object} animalResponse
// @Router /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), CreateInput{
			Name:        req.Name,
			ShelterCode: req.ShelterCode,
			Species:     Species(req.Species),
			Archived:    req.Archived,
			Fostered:    req.Fostered,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		httpjson.Write(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// listAnimalsHandler godoc
// @Summary Lista animales
// @Tags animals
// @Produce json
// @Success 200 {array} animalResponse
// @Router /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

// getAnimalHandler godoc
// @Summary Detalle de animal
// @Tags animals
// @Produce json
// @Param animalID path string true "Animal ID"
// @Success 200 {object} animalResponse
// @Failure 404 {string} string
// @Router /animals/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAnimalResponse(a))
	}
}

func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAnimalRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:        req.Name,
			ShelterCode: req.ShelterCode,
			Archived:    req.Archived,
			Fostered:    req.Fostered,
		}
		if req.Species != nil {
			sp := Species(*req.Species)
			in.Species = &sp
		}

		a, err := svc.Update(r.Context(), chi.URLParam(r, "animalID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAnimalResponse(a))
	}
}

// markDeceasedHandler godoc
// @Summary Registra fallecimiento
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "Animal ID"
// @Param body body markDeceasedRequest false "Fecha"
// @Success 200 {object} animalResponse
// @Router /animals/{animalID}/deceased [post]
func markDeceasedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markDeceasedRequest
		if err := httpjson.Decode(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		date, err := civil.ParseOptional(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		a, err := svc.MarkDeceased(r.Context(), chi.URLParam(r, "animalID"), date)
		if err != nil {
			writeError(w, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAnimalResponse(a))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:           a.ID,
		Name:         a.Name,
		ShelterCode:  a.ShelterCode,
		Species:      a.Species,
		DeceasedDate: a.DeceasedDate,
		Archived:     a.Archived,
		Fostered:     a.Fostered,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
