package pets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/middleware"
	"pet-appointment-scheduling/internal/ports/session"

	"github.com/go-chi/chi/v5"
)

// ClinicGetter resuelve la clínica para ?expand=clinic.
type ClinicGetter interface {
	GetClinic(ctx context.Context, id string) (clinics.Clinic, error)
}

func RegisterRoutes(r chi.Router, svc *Service, clinicsSvc ClinicGetter) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// owner o personal de la clínica registrada
		pr.Get("/{petID}", getPetHandler(svc, clinicsSvc))

		// aprobación / rechazo (personal de la clínica registrada)
		pr.Post("/{petID}/registration", setRegistrationHandler(svc))
	})
}

type createPetRequest struct {
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	ClinicID string `json:"clinic_id"`
	Notes    string `json:"notes"`
}

type setRegistrationRequest struct {
	Status RegistrationStatus `json:"status" enums:"approved,rejected"`
}

// PetResponse: registered_clinic es un string (ID) o un objeto clínica con ?expand=clinic.
type PetResponse struct {
	ID                 string             `json:"id"`
	OwnerUserID        string             `json:"owner_user_id"`
	Name               string             `json:"name"`
	Species            Species            `json:"species"`
	Breed              string             `json:"breed"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
	RegisteredClinic   any                `json:"registered_clinic,omitempty"`
	Notes              string             `json:"notes"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description Crea la mascota del usuario autenticado, registrada en clinic_id con estado pending.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} PetResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), id.UserID, CreateInput(req))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, ToPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mis mascotas
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {array} PetResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByOwner(r.Context(), id.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]PetResponse, 0, len(items))
		for _, p := range items {
			out = append(out, ToPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Detalle de mascota
// @Description Con expand=clinic la clínica registrada viene embebida; si no, solo su ID.
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param expand query string false "clinic"
// @Success 200 {object} PetResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service, clinicsSvc ClinicGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if !canRead(id, p) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if r.URL.Query().Get("expand") == "clinic" && clinicsSvc != nil && !p.RegisteredClinic.IsZero() {
			// si la clínica no se puede resolver devolvemos solo el ID
			if c, err := clinicsSvc.GetClinic(r.Context(), p.RegisteredClinic.ClinicID()); err == nil {
				p.RegisteredClinic = RefEmbedded(c)
			}
		}

		writeJSON(w, http.StatusOK, ToPetResponse(p))
	}
}

// setRegistrationHandler godoc
// @Summary Aprobar o rechazar registro
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-Role header string false "clinic"
// @Param X-Debug-Clinic-ID header string false "ID de la clínica del staff"
// @Param petID path string true "ID de la mascota"
// @Param payload body setRegistrationRequest true "Nuevo estado"
// @Success 200 {object} PetResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "invalid state"
// @Router /pets/{petID}/registration [post]
func setRegistrationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, ok := middleware.RequireClinicStaff(w, r)
		if !ok {
			return
		}

		var req setRegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.SetRegistration(r.Context(), chi.URLParam(r, "petID"), staff.ClinicID, req.Status)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, ToPetResponse(p))
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, ErrBadState):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrNotFound):
			http.Error(w, "pet not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// canRead: owner o personal de la clínica registrada.
func canRead(id session.Identity, p Pet) bool {
	if p.OwnerUserID == id.UserID {
		return true
	}
	return id.Role == session.RoleClinic && id.ClinicID != "" && id.ClinicID == p.RegisteredClinic.ClinicID()
}

func ToPetResponse(p Pet) PetResponse {
	out := PetResponse{
		ID:                 p.ID,
		OwnerUserID:        p.OwnerUserID,
		Name:               p.Name,
		Species:            p.Species,
		Breed:              p.Breed,
		RegistrationStatus: p.RegistrationStatus,
		Notes:              p.Notes,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	switch {
	case p.RegisteredClinic.Embedded():
		out.RegisteredClinic = clinics.ToClinicResponse(*p.RegisteredClinic.Clinic)
	case !p.RegisteredClinic.IsZero():
		out.RegisteredClinic = p.RegisteredClinic.ID
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
