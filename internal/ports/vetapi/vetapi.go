// Package vetapi define los colaboradores remotos del coordinador de reservas:
// el directorio (pets, clínicas, vets) y el store de appointments.
package vetapi

import (
	"context"
	"errors"
	"fmt"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
)

var ErrNotFound = errors.New("vetapi: not found")

type Directory interface {
	ListPets(ctx context.Context, ownerUserID string) ([]pets.Pet, error)
	FetchPet(ctx context.Context, petID string) (pets.Pet, error)
	FetchClinic(ctx context.Context, clinicID string) (clinics.Clinic, error)
	FetchVetsByClinic(ctx context.Context, clinicID string) ([]clinics.Vet, error)
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, in appointments.CreateInput) (appointments.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id string, action appointments.Action) (appointments.Appointment, error)
	GetAppointment(ctx context.Context, id string) (appointments.Appointment, error)
	ListAppointments(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error)
}

// ValidationError es un rechazo del store corregible por el usuario.
// Message se muestra tal cual.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TransportError es una falla de red o del servidor; se puede reintentar.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "vetapi: transport error"
	}
	return fmt.Sprintf("vetapi: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
