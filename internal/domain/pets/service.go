package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadState     = errors.New("invalid state")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name     string
	Species  string
	Breed    string
	ClinicID string
	Notes    string
}

// Create registra la mascota en la clínica indicada; arranca en pending.
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.ClinicID) == "" {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:                 uuid.NewString(),
		OwnerUserID:        ownerUserID,
		Name:               strings.TrimSpace(in.Name),
		Species:            ParseSpecies(in.Species),
		Breed:              strings.TrimSpace(in.Breed),
		RegistrationStatus: RegistrationPending,
		RegisteredClinic:   RefByID(in.ClinicID),
		Notes:              strings.TrimSpace(in.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerUserID))
}

// SetRegistration aprueba o rechaza el registro. Solo la clínica registrada puede
// hacerlo. approved -> rejected está permitido (revocación); nada vuelve a pending.
func (s *Service) SetRegistration(ctx context.Context, petID, clinicID string, status RegistrationStatus) (Pet, error) {
	if status != RegistrationApproved && status != RegistrationRejected {
		return Pet{}, ErrInvalidInput
	}

	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.RegisteredClinic.ClinicID() != strings.TrimSpace(clinicID) {
		return Pet{}, ErrForbidden
	}

	// Idempotente
	if p.RegistrationStatus == status {
		return p, nil
	}
	if p.RegistrationStatus == RegistrationRejected {
		return Pet{}, ErrBadState
	}

	p.RegistrationStatus = status
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}
