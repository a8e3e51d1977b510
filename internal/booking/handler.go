package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/middleware"
	"pet-appointment-scheduling/internal/ports/vetapi"

	"github.com/go-chi/chi/v5"
)

// settleTimeout acota ?wait=true.
const settleTimeout = 10 * time.Second

func RegisterRoutes(r chi.Router, sessions *Sessions) {
	r.Route("/booking", func(br chi.Router) {
		br.Get("/", getBookingHandler(sessions))
		br.Post("/load", loadBookingHandler(sessions))
		br.Post("/select-pet", selectPetHandler(sessions))
		br.Post("/select-vet", selectVetHandler(sessions))
		br.Patch("/draft", patchDraftHandler(sessions))
		br.Post("/retry", retryHandler(sessions))
		br.Post("/submit", submitHandler(sessions))
		br.Post("/appointments/{appointmentID}/{action}", ownerTransitionHandler(sessions))
	})

	r.Route("/desk", func(dr chi.Router) {
		dr.Get("/appointments", deskListHandler(sessions))
		dr.Post("/appointments/{appointmentID}/{action}", deskTransitionHandler(sessions))
	})
}

type selectPetRequest struct {
	PetID string `json:"pet_id"`
}

type selectVetRequest struct {
	VetID string `json:"vet_id"`
}

type DraftResponse struct {
	PetID    string `json:"pet_id"`
	ClinicID string `json:"clinic_id"`
	VetID    string `json:"vet_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

type EligibilityResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type SubmitStateResponse struct {
	Status      SubmitStatus                      `json:"status"`
	Appointment *appointments.AppointmentResponse `json:"appointment,omitempty"`
	Error       string                            `json:"error,omitempty"`
	Retryable   bool                              `json:"retryable,omitempty"`
}

// ReadModelResponse es el read model tal como lo ve la UI.
type ReadModelResponse struct {
	Pets               []pets.PetResponse                 `json:"pets"`
	SelectedPet        *pets.PetResponse                  `json:"selected_pet,omitempty"`
	Clinic             *clinics.ClinicResponse            `json:"clinic,omitempty"`
	Vets               []clinics.VetResponse              `json:"vets"`
	Draft              DraftResponse                      `json:"draft"`
	Eligibility        EligibilityResponse                `json:"eligibility"`
	Submit             SubmitStateResponse                `json:"submit"`
	LoadingProfile     bool                               `json:"loading_profile"`
	LoadingRoster      bool                               `json:"loading_roster"`
	ProfileError       string                             `json:"profile_error,omitempty"`
	RosterError        string                             `json:"roster_error,omitempty"`
	PetsError          string                             `json:"pets_error,omitempty"`
	NoRegisteredClinic bool                               `json:"no_registered_clinic"`
	Appointments       []appointments.AppointmentResponse `json:"appointments"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// getBookingHandler godoc
// @Summary Estado de la reserva en curso
// @Description Read model del coordinador. Con wait=true espera a que termine la resolución pet -> clínica -> roster.
// @Tags booking
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param wait query bool false "Esperar a que no haya fetches en vuelo"
// @Success 200 {object} ReadModelResponse
// @Failure 401 {string} string "unauthorized"
// @Router /booking [get]
func getBookingHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()
		respondReadModel(w, r, coord)
	}
}

// loadBookingHandler godoc
// @Summary Cargar mascotas y citas del owner
// @Tags booking
// @Produce json
// @Success 200 {object} ReadModelResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {object} ErrorResponse
// @Router /booking/load [post]
func loadBookingHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()
		if err := coord.LoadPets(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		if err := coord.LoadAppointments(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		respondReadModel(w, r, coord)
	}
}

// selectPetHandler godoc
// @Summary Seleccionar mascota
// @Description Abre una generación nueva: limpia clínica, roster y vet, y resuelve en segundo plano.
// @Tags booking
// @Accept json
// @Produce json
// @Param payload body selectPetRequest true "Mascota"
// @Param wait query bool false "Esperar la resolución"
// @Success 200 {object} ReadModelResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Router /booking/select-pet [post]
func selectPetHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()

		var req selectPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := coord.SelectPet(r.Context(), req.PetID); err != nil {
			writeError(w, err)
			return
		}
		respondReadModel(w, r, coord)
	}
}

// selectVetHandler godoc
// @Summary Seleccionar veterinario
// @Tags booking
// @Accept json
// @Produce json
// @Param payload body selectVetRequest true "Veterinario del roster cargado"
// @Success 200 {object} ReadModelResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {string} string "unauthorized"
// @Router /booking/select-vet [post]
func selectVetHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()

		var req selectVetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := coord.SelectVet(r.Context(), req.VetID); err != nil {
			writeError(w, err)
			return
		}
		respondReadModel(w, r, coord)
	}
}

// patchDraftHandler godoc
// @Summary Editar campos del draft
// @Description Campos: date (YYYY-MM-DD), time (HH:MM), reason, notes. clinic_id/vet_id/pet_id no se pueden setear acá.
// @Tags booking
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Campos a modificar"
// @Success 200 {object} ReadModelResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {string} string "unauthorized"
// @Router /booking/draft [patch]
func patchDraftHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()

		var fields map[string]string
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err := coord.SetField(name, fields[name]); err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_field", Message: name + ": " + err.Error()})
				return
			}
		}
		respondReadModel(w, r, coord)
	}
}

// retryHandler godoc
// @Summary Reintentar la resolución fallida
// @Tags booking
// @Produce json
// @Success 200 {object} ReadModelResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {string} string "unauthorized"
// @Router /booking/retry [post]
func retryHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()
		if err := coord.Retry(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		respondReadModel(w, r, coord)
	}
}

// submitHandler godoc
// @Summary Confirmar la reserva
// @Description Falla con 422 si el draft no es elegible o si el store lo rechaza (mensaje tal cual). 502 es reintentable.
// @Tags booking
// @Produce json
// @Success 201 {object} appointments.AppointmentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /booking/submit [post]
func submitHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()

		a, err := coord.Submit(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, appointments.ToAppointmentResponse(a))
	}
}

// ownerTransitionHandler godoc
// @Summary Acción del owner sobre una cita
// @Description El owner solo puede cancelar; confirm/complete devuelven 403.
// @Tags booking
// @Produce json
// @Param appointmentID path string true "ID de la cita"
// @Param action path string true "confirm | cancel | complete"
// @Success 200 {object} appointments.AppointmentResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {object} ErrorResponse
// @Router /booking/appointments/{appointmentID}/{action} [post]
func ownerTransitionHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord, release, ok := ownerCoordinator(w, r, sessions)
		if !ok {
			return
		}
		defer release()

		id := chi.URLParam(r, "appointmentID")
		var (
			a   appointments.Appointment
			err error
		)
		switch appointments.Action(chi.URLParam(r, "action")) {
		case appointments.ActionConfirm:
			a, err = coord.Confirm(r.Context(), id)
		case appointments.ActionCancel:
			a, err = coord.Cancel(r.Context(), id)
		case appointments.ActionComplete:
			a, err = coord.Complete(r.Context(), id)
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointments.ToAppointmentResponse(a))
	}
}

// deskListHandler godoc
// @Summary Citas de la clínica
// @Tags desk
// @Produce json
// @Param X-Debug-Role header string false "clinic"
// @Param X-Debug-Clinic-ID header string false "ID de la clínica del staff"
// @Param status query string false "CSV de estados"
// @Success 200 {array} appointments.AppointmentResponse
// @Failure 403 {string} string "forbidden"
// @Failure 502 {object} ErrorResponse
// @Router /desk/appointments [get]
func deskListHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, ok := middleware.RequireClinicStaff(w, r)
		if !ok {
			return
		}
		desk := sessions.Desk(staff.UserID)

		var filter appointments.ListFilter
		if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
			for _, p := range strings.Split(v, ",") {
				s := appointments.Status(strings.TrimSpace(p))
				if !s.Valid() {
					http.Error(w, "unknown status "+string(s), http.StatusBadRequest)
					return
				}
				filter.Statuses = append(filter.Statuses, s)
			}
		}

		items, err := desk.Load(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(items))
	}
}

// deskTransitionHandler godoc
// @Summary Acción de la clínica sobre una cita
// @Tags desk
// @Produce json
// @Param appointmentID path string true "ID de la cita"
// @Param action path string true "confirm | cancel | complete"
// @Success 200 {object} appointments.AppointmentResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /desk/appointments/{appointmentID}/{action} [post]
func deskTransitionHandler(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, ok := middleware.RequireClinicStaff(w, r)
		if !ok {
			return
		}
		desk := sessions.Desk(staff.UserID)

		id := chi.URLParam(r, "appointmentID")
		var (
			a   appointments.Appointment
			err error
		)
		switch appointments.Action(chi.URLParam(r, "action")) {
		case appointments.ActionConfirm:
			a, err = desk.Confirm(r.Context(), id)
		case appointments.ActionCancel:
			a, err = desk.Cancel(r.Context(), id)
		case appointments.ActionComplete:
			a, err = desk.Complete(r.Context(), id)
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointments.ToAppointmentResponse(a))
	}
}

// ownerCoordinator reserva el Coordinator del usuario mientras dure el request.
func ownerCoordinator(w http.ResponseWriter, r *http.Request, sessions *Sessions) (*Coordinator, func(), bool) {
	id, ok := middleware.RequireIdentity(w, r)
	if !ok {
		return nil, nil, false
	}
	coord, release := sessions.Acquire(id.UserID)
	return coord, release, true
}

func respondReadModel(w http.ResponseWriter, r *http.Request, coord *Coordinator) {
	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
		defer cancel()
		// si vence devolvemos el estado parcial (loading_* en true)
		_ = coord.Settle(ctx)
	}
	writeJSON(w, http.StatusOK, ToReadModelResponse(coord.ReadModel()))
}

func writeError(w http.ResponseWriter, err error) {
	var (
		ve *vetapi.ValidationError
		te *vetapi.TransportError
	)
	switch {
	case errors.Is(err, ErrNoSession):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNotClinicStaff), errors.Is(err, appointments.ErrActionNotPermitted):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_failed", Message: ve.Message})
	case errors.Is(err, appointments.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "invalid_transition", Message: err.Error()})
	case errors.Is(err, ErrSubmitInProgress), errors.Is(err, ErrClosed):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()})
	case errors.Is(err, vetapi.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.As(err, &te):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "transport_error", Message: transportUserMessage, Retryable: true})
	case errors.Is(err, ErrVetNotInRoster),
		errors.Is(err, ErrNoPetSelected),
		errors.Is(err, ErrNoClinic),
		errors.Is(err, ErrFieldNotSettable),
		errors.Is(err, ErrUnknownField):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Message: err.Error()})
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func ToReadModelResponse(rm ReadModel) ReadModelResponse {
	out := ReadModelResponse{
		Pets:  make([]pets.PetResponse, 0, len(rm.Pets)),
		Vets:  make([]clinics.VetResponse, 0, len(rm.Vets)),
		Draft: DraftResponse(rm.Draft),
		Eligibility: EligibilityResponse{
			OK:     rm.Eligibility.OK,
			Reason: rm.Eligibility.Reason,
			Detail: rm.Eligibility.Detail,
		},
		Submit: SubmitStateResponse{
			Status:    rm.Submit.Status,
			Error:     rm.Submit.Error,
			Retryable: rm.Submit.Retryable,
		},
		LoadingProfile:     rm.LoadingProfile,
		LoadingRoster:      rm.LoadingRoster,
		ProfileError:       rm.ProfileError,
		RosterError:        rm.RosterError,
		PetsError:          rm.PetsError,
		NoRegisteredClinic: rm.NoRegisteredClinic,
		Appointments:       toAppointmentResponses(rm.Appointments),
	}

	for _, p := range rm.Pets {
		out.Pets = append(out.Pets, pets.ToPetResponse(p))
	}
	if rm.SelectedPet != nil {
		p := pets.ToPetResponse(*rm.SelectedPet)
		out.SelectedPet = &p
	}
	if rm.Clinic != nil {
		c := clinics.ToClinicResponse(*rm.Clinic)
		out.Clinic = &c
	}
	for _, v := range rm.Vets {
		out.Vets = append(out.Vets, clinics.ToVetResponse(v))
	}
	if rm.Submit.Appointment != nil {
		a := appointments.ToAppointmentResponse(*rm.Submit.Appointment)
		out.Submit.Appointment = &a
	}
	return out
}

func toAppointmentResponses(items []appointments.Appointment) []appointments.AppointmentResponse {
	out := make([]appointments.AppointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, appointments.ToAppointmentResponse(a))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
