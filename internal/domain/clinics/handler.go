package clinics

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/clinics", func(cr chi.Router) {
		cr.Post("/", createClinicHandler(svc))
		cr.Get("/{clinicID}", getClinicHandler(svc))
		cr.Post("/{clinicID}/vets", addVetHandler(svc))
	})

	// Roster por clínica: GET /vets?clinic_id=...
	r.Get("/vets", listVetsHandler(svc))
}

type createClinicRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Timezone string `json:"timezone"`
}

// ClinicResponse es la representación pública de una clínica.
type ClinicResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type addVetRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
}

// VetResponse es la representación pública de un veterinario.
type VetResponse struct {
	ID             string `json:"id"`
	ClinicID       string `json:"clinic_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
}

// createClinicHandler godoc
// @Summary Crear clínica
// @Tags clinics
// @Accept json
// @Produce json
// @Param payload body createClinicRequest true "Datos de la clínica"
// @Success 201 {object} ClinicResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /clinics [post]
func createClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.RequireIdentity(w, r); !ok {
			return
		}

		var req createClinicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.CreateClinic(r.Context(), CreateClinicInput(req))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, ToClinicResponse(c))
	}
}

// getClinicHandler godoc
// @Summary Obtener clínica
// @Tags clinics
// @Produce json
// @Param clinicID path string true "ID de la clínica"
// @Success 200 {object} ClinicResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "clinic not found"
// @Router /clinics/{clinicID} [get]
func getClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.RequireIdentity(w, r); !ok {
			return
		}

		c, err := svc.GetClinic(r.Context(), chi.URLParam(r, "clinicID"))
		if err != nil {
			http.Error(w, "clinic not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ToClinicResponse(c))
	}
}

// addVetHandler godoc
// @Summary Agregar veterinario al roster
// @Description Solo personal de la misma clínica (rol clinic).
// @Tags clinics
// @Accept json
// @Produce json
// @Param clinicID path string true "ID de la clínica"
// @Param payload body addVetRequest true "Datos del veterinario"
// @Success 201 {object} VetResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "clinic not found"
// @Router /clinics/{clinicID}/vets [post]
func addVetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, ok := middleware.RequireClinicStaff(w, r)
		if !ok {
			return
		}
		clinicID := chi.URLParam(r, "clinicID")
		if staff.ClinicID != clinicID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req addVetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		v, err := svc.AddVet(r.Context(), clinicID, AddVetInput(req))
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, ToVetResponse(v))
		case errors.Is(err, ErrNotFound):
			http.Error(w, "clinic not found", http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
}

// listVetsHandler godoc
// @Summary Roster de veterinarios de una clínica
// @Tags clinics
// @Produce json
// @Param clinic_id query string true "ID de la clínica"
// @Success 200 {array} VetResponse
// @Failure 400 {string} string "clinic_id required"
// @Failure 401 {string} string "unauthorized"
// @Router /vets [get]
func listVetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.RequireIdentity(w, r); !ok {
			return
		}

		clinicID := strings.TrimSpace(r.URL.Query().Get("clinic_id"))
		if clinicID == "" {
			http.Error(w, "clinic_id required", http.StatusBadRequest)
			return
		}

		items, err := svc.ListVets(r.Context(), clinicID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]VetResponse, 0, len(items))
		for _, v := range items {
			out = append(out, ToVetResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func ToClinicResponse(c Clinic) ClinicResponse {
	return ClinicResponse{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		Timezone:  c.Timezone,
		CreatedAt: c.CreatedAt,
	}
}

func ToVetResponse(v Vet) VetResponse {
	return VetResponse{
		ID:             v.ID,
		ClinicID:       v.ClinicID,
		FirstName:      v.FirstName,
		LastName:       v.LastName,
		Specialization: v.Specialization,
	}
}

// writeJSON duplicado por módulo a propósito (igual que en pets/appointments).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
