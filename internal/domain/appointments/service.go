package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/audit"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/platform/timezone"
	"pet-appointment-scheduling/internal/ports/session"

	"github.com/google/uuid"
)

// PetLookup evita el ciclo de imports con el handler de pets.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type ClinicLookup interface {
	GetClinic(ctx context.Context, id string) (clinics.Clinic, error)
	GetVet(ctx context.Context, id string) (clinics.Vet, error)
}

type Auditor interface {
	Dispatch(ev audit.Event)
}

// Service es el lado store del ciclo de vida: re-chequea las reglas al crear
// y aplica transiciones condicionadas al status leído.
type Service struct {
	repo    Repository
	pets    PetLookup
	clinics ClinicLookup
	audit   Auditor
	now     func() time.Time

	defaultTZ string
}

func NewService(repo Repository, petsLookup PetLookup, clinicsLookup ClinicLookup, auditor Auditor, defaultTZ string) *Service {
	return &Service{
		repo:      repo,
		pets:      petsLookup,
		clinics:   clinicsLookup,
		audit:     auditor,
		now:       time.Now,
		defaultTZ: defaultTZ,
	}
}

// Create valida contra el estado actual del store (la aprobación pudo cambiar
// desde que el cliente evaluó eligibility) y persiste en booked.
func (s *Service) Create(ctx context.Context, actor session.Identity, in CreateInput) (Appointment, error) {
	if !actor.Valid() {
		return Appointment{}, ErrForbidden
	}

	in.PetID = strings.TrimSpace(in.PetID)
	in.VetID = strings.TrimSpace(in.VetID)
	in.Reason = strings.TrimSpace(in.Reason)
	if in.PetID == "" || in.VetID == "" || in.StartsAt.IsZero() || in.Reason == "" {
		return Appointment{}, Rule(ReasonMissingFields)
	}

	p, err := s.pets.GetByID(ctx, in.PetID)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return Appointment{}, Rule(ReasonPetNotFound)
		}
		return Appointment{}, err
	}
	if p.OwnerUserID != actor.UserID {
		return Appointment{}, ErrForbidden
	}
	if !p.Approved() {
		return Appointment{}, Rule(ReasonRegistrationNotApproved)
	}

	clinicID := p.RegisteredClinic.ClinicID()
	if clinicID == "" {
		return Appointment{}, Rule(ReasonNoRegisteredClinic)
	}
	if c := strings.TrimSpace(in.ClinicID); c != "" && c != clinicID {
		return Appointment{}, Rule(ReasonClinicMismatch)
	}

	vet, err := s.clinics.GetVet(ctx, in.VetID)
	if err != nil || vet.ClinicID != clinicID {
		return Appointment{}, Rule(ReasonVetNotAvailable)
	}

	now := s.now().In(s.location(ctx, clinicID))
	if in.StartsAt.Before(timezone.StartOfNextDay(now)) {
		return Appointment{}, Rule(ReasonDateNotInFuture)
	}

	a := Appointment{
		ID:          uuid.NewString(),
		PetID:       p.ID,
		OwnerUserID: p.OwnerUserID,
		ClinicID:    clinicID,
		VetID:       vet.ID,
		StartsAt:    in.StartsAt,
		Reason:      in.Reason,
		Notes:       strings.TrimSpace(in.Notes),
		Status:      InitialStatus(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}

	s.dispatch(actor, "appointment_booked", a)
	return a, nil
}

// SetStatus aplica action si el rol la permite y el estado actual la admite.
func (s *Service) SetStatus(ctx context.Context, actor session.Identity, id string, action Action) (Appointment, error) {
	if !action.Valid() {
		return Appointment{}, ErrInvalidInput
	}
	if err := Authorize(actor.Role, action); err != nil {
		return Appointment{}, err
	}

	// Cada vuelta relee; el grafo de estados tiene a lo sumo dos saltos.
	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		a, err := s.Get(ctx, actor, id)
		if err != nil {
			return Appointment{}, err
		}

		updated, err := Apply(a, action, s.now())
		if err != nil {
			return Appointment{}, err
		}
		err = s.repo.Update(ctx, updated, a.Status)
		if errors.Is(err, ErrStatusChanged) {
			continue
		}
		if err != nil {
			return Appointment{}, err
		}

		s.dispatch(actor, "appointment_"+string(updated.Status), updated)
		return updated, nil
	}
	return Appointment{}, fmt.Errorf("%w: %s", ErrInvalidTransition, ErrStatusChanged)
}

const maxStatusAttempts = 3

// Get aplica visibilidad: el owner ve las suyas, la clínica las de su clínica.
func (s *Service) Get(ctx context.Context, actor session.Identity, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !visibleTo(actor, a) {
		return Appointment{}, ErrForbidden
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, actor session.Identity, filter ListFilter) ([]Appointment, error) {
	switch {
	case !actor.Valid():
		return nil, ErrForbidden
	case actor.Role == session.RoleClinic:
		if actor.ClinicID == "" {
			return nil, ErrForbidden
		}
		filter.ClinicID = actor.ClinicID
	default:
		filter.OwnerUserID = actor.UserID
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) location(ctx context.Context, clinicID string) *time.Location {
	if c, err := s.clinics.GetClinic(ctx, clinicID); err == nil && timezone.IsValid(c.Timezone) {
		return timezone.Location(c.Timezone)
	}
	return timezone.Location(s.defaultTZ)
}

func (s *Service) dispatch(actor session.Identity, action string, a Appointment) {
	if s.audit == nil {
		return
	}
	s.audit.Dispatch(audit.Event{
		Action:   action,
		Entity:   "appointment",
		EntityID: a.ID,
		ActorID:  actor.UserID,
		Metadata: map[string]any{"status": string(a.Status), "clinic_id": a.ClinicID},
	})
}

func visibleTo(actor session.Identity, a Appointment) bool {
	switch actor.Role {
	case session.RoleClinic:
		return actor.ClinicID != "" && actor.ClinicID == a.ClinicID
	case session.RoleOwner:
		return actor.UserID != "" && actor.UserID == a.OwnerUserID
	}
	return false
}
