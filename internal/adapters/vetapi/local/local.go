// Package local expone los servicios de dominio como colaboradores vetapi,
// sin pasar por HTTP (modo dev / binario único).
package local

import (
	"context"
	"errors"
	"fmt"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/ports/session"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

type Adapter struct {
	pets         *pets.Service
	clinics      *clinics.Service
	appointments *appointments.Service
}

func New(petsSvc *pets.Service, clinicsSvc *clinics.Service, appointmentsSvc *appointments.Service) *Adapter {
	return &Adapter{pets: petsSvc, clinics: clinicsSvc, appointments: appointmentsSvc}
}

var (
	_ vetapi.Directory        = (*Adapter)(nil)
	_ vetapi.AppointmentStore = (*Adapter)(nil)
)

func (a *Adapter) ListPets(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	items, err := a.pets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// FetchPet devuelve la clínica solo por ID; el resolver hace el fetch extra.
func (a *Adapter) FetchPet(ctx context.Context, petID string) (pets.Pet, error) {
	p, err := a.pets.GetByID(ctx, petID)
	if err != nil {
		return pets.Pet{}, mapError(err)
	}
	if id, ok := session.FromContext(ctx); ok && id.Role == session.RoleOwner && p.OwnerUserID != id.UserID {
		return pets.Pet{}, vetapi.ErrNotFound
	}
	return p, nil
}

func (a *Adapter) FetchClinic(ctx context.Context, clinicID string) (clinics.Clinic, error) {
	c, err := a.clinics.GetClinic(ctx, clinicID)
	if err != nil {
		return clinics.Clinic{}, mapError(err)
	}
	return c, nil
}

func (a *Adapter) FetchVetsByClinic(ctx context.Context, clinicID string) ([]clinics.Vet, error) {
	roster, err := a.clinics.ListVets(ctx, clinicID)
	if err != nil {
		return nil, mapError(err)
	}
	return roster, nil
}

func (a *Adapter) CreateAppointment(ctx context.Context, in appointments.CreateInput) (appointments.Appointment, error) {
	actor, _ := session.FromContext(ctx)
	ap, err := a.appointments.Create(ctx, actor, in)
	if err != nil {
		return appointments.Appointment{}, mapError(err)
	}
	return ap, nil
}

func (a *Adapter) SetAppointmentStatus(ctx context.Context, id string, action appointments.Action) (appointments.Appointment, error) {
	actor, _ := session.FromContext(ctx)
	ap, err := a.appointments.SetStatus(ctx, actor, id, action)
	if err != nil {
		return appointments.Appointment{}, mapError(err)
	}
	return ap, nil
}

func (a *Adapter) GetAppointment(ctx context.Context, id string) (appointments.Appointment, error) {
	actor, _ := session.FromContext(ctx)
	ap, err := a.appointments.Get(ctx, actor, id)
	if err != nil {
		return appointments.Appointment{}, mapError(err)
	}
	return ap, nil
}

func (a *Adapter) ListAppointments(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	actor, _ := session.FromContext(ctx)
	items, err := a.appointments.List(ctx, actor, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// mapError usa la misma taxonomía que el adapter REST.
func mapError(err error) error {
	var re *appointments.RuleError
	switch {
	case errors.As(err, &re):
		return &vetapi.ValidationError{Message: re.Message}
	case errors.Is(err, appointments.ErrInvalidTransition):
		return err
	case errors.Is(err, pets.ErrNotFound), errors.Is(err, clinics.ErrNotFound), errors.Is(err, appointments.ErrNotFound):
		return fmt.Errorf("%w: %v", vetapi.ErrNotFound, err)
	case errors.Is(err, appointments.ErrInvalidInput),
		errors.Is(err, pets.ErrInvalidInput),
		errors.Is(err, clinics.ErrInvalidInput),
		errors.Is(err, appointments.ErrForbidden),
		errors.Is(err, appointments.ErrActionNotPermitted):
		return &vetapi.ValidationError{Message: err.Error()}
	default:
		return &vetapi.TransportError{Err: err}
	}
}
