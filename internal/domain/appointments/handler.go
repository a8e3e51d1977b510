package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", createAppointmentHandler(svc))
		ar.Get("/", listAppointmentsHandler(svc))
		ar.Get("/{appointmentID}", getAppointmentHandler(svc))
		ar.Patch("/{appointmentID}/status", setStatusHandler(svc))
	})
}

type createAppointmentRequest struct {
	PetID    string `json:"pet_id"`
	ClinicID string `json:"clinic_id"`
	VetID    string `json:"vet_id"`
	StartsAt string `json:"starts_at"` // RFC3339
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

type setStatusRequest struct {
	Action Action `json:"action" enums:"confirm,cancel,complete"`
}

// AppointmentResponse es la representación pública de una cita.
type AppointmentResponse struct {
	ID             string     `json:"id"`
	PetID          string     `json:"pet_id"`
	OwnerUserID    string     `json:"owner_user_id"`
	ClinicID       string     `json:"clinic_id"`
	VetID          string     `json:"vet_id"`
	StartsAt       time.Time  `json:"starts_at"`
	Reason         string     `json:"reason"`
	Notes          string     `json:"notes"`
	Status         Status     `json:"status"`
	AllowedActions []Action   `json:"allowed_actions"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CanceledAt     *time.Time `json:"canceled_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ErrorResponse se usa para rechazos que el cliente interpreta (422/409).
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// createAppointmentHandler godoc
// @Summary Reservar cita
// @Description El store re-chequea aprobación del registro, clínica, roster y que starts_at sea desde mañana.
// @Tags appointments
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body createAppointmentRequest true "Datos de la reserva; starts_at RFC3339"
// @Success 201 {object} AppointmentResponse
// @Failure 400 {string} string "invalid json / starts_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 422 {object} ErrorResponse
// @Router /appointments [post]
func createAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		var req createAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			http.Error(w, "starts_at must be RFC3339", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), actor, CreateInput{
			OwnerUserID: actor.UserID,
			PetID:       req.PetID,
			ClinicID:    req.ClinicID,
			VetID:       req.VetID,
			StartsAt:    startsAt,
			Reason:      req.Reason,
			Notes:       req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToAppointmentResponse(a))
	}
}

// listAppointmentsHandler godoc
// @Summary Listar citas
// @Description Owner: sus citas. Clínica: las de su clínica.
// @Tags appointments
// @Produce json
// @Param pet_id query string false "Filtrar por mascota"
// @Param vet_id query string false "Filtrar por veterinario"
// @Param status query string false "CSV de estados (booked,confirmed,canceled,completed)"
// @Param from query string false "starts_at mínimo (RFC3339)"
// @Param to query string false "starts_at máximo (RFC3339)"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} AppointmentResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /appointments [get]
func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.List(r.Context(), actor, filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, ToAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAppointmentHandler godoc
// @Summary Detalle de cita
// @Tags appointments
// @Produce json
// @Param appointmentID path string true "ID de la cita"
// @Success 200 {object} AppointmentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID} [get]
func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		a, err := svc.Get(r.Context(), actor, chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToAppointmentResponse(a))
	}
}

// setStatusHandler godoc
// @Summary Cambiar estado de la cita
// @Description confirm/complete: solo clínica. cancel: owner o clínica. Estados terminales no admiten acciones.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path string true "ID de la cita"
// @Param payload body setStatusRequest true "Acción"
// @Success 200 {object} AppointmentResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "appointment not found"
// @Failure 409 {object} ErrorResponse
// @Router /appointments/{appointmentID}/status [patch]
func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequireIdentity(w, r)
		if !ok {
			return
		}

		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.SetStatus(r.Context(), actor, chi.URLParam(r, "appointmentID"), req.Action)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToAppointmentResponse(a))
	}
}

func writeError(w http.ResponseWriter, err error) {
	var re *RuleError
	switch {
	case errors.As(err, &re):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_failed", Message: re.Message})
	case errors.Is(err, ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "invalid_transition", Message: err.Error()})
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrActionNotPermitted):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	filter := ListFilter{
		PetID: strings.TrimSpace(q.Get("pet_id")),
		VetID: strings.TrimSpace(q.Get("vet_id")),
		Limit: limit,
	}

	// status=booked,confirmed
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		for _, p := range strings.Split(v, ",") {
			s := Status(strings.TrimSpace(p))
			if s == "" {
				continue
			}
			if !s.Valid() {
				return ListFilter{}, errors.New("unknown status " + string(s))
			}
			filter.Statuses = append(filter.Statuses, s)
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	return filter, nil
}

func ToAppointmentResponse(a Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PetID:          a.PetID,
		OwnerUserID:    a.OwnerUserID,
		ClinicID:       a.ClinicID,
		VetID:          a.VetID,
		StartsAt:       a.StartsAt,
		Reason:         a.Reason,
		Notes:          a.Notes,
		Status:         a.Status,
		AllowedActions: AllowedActions(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		ConfirmedAt:    a.ConfirmedAt,
		CanceledAt:     a.CanceledAt,
		CompletedAt:    a.CompletedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
