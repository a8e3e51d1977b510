package clinics

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

type CreateClinicInput struct {
	Name     string
	Address  string
	Phone    string
	Timezone string
}

func (s *Service) CreateClinic(ctx context.Context, in CreateClinicInput) (Clinic, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Clinic{}, ErrInvalidInput
	}

	c := Clinic{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		Phone:     strings.TrimSpace(in.Phone),
		Timezone:  strings.TrimSpace(in.Timezone),
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateClinic(ctx, c); err != nil {
		return Clinic{}, err
	}
	return c, nil
}

func (s *Service) GetClinic(ctx context.Context, id string) (Clinic, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Clinic{}, ErrInvalidInput
	}
	return s.repo.GetClinic(ctx, id)
}

type AddVetInput struct {
	FirstName      string
	LastName       string
	Specialization string
}

// AddVet suma un veterinario al roster de la clínica (la clínica debe existir).
func (s *Service) AddVet(ctx context.Context, clinicID string, in AddVetInput) (Vet, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" || strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return Vet{}, ErrInvalidInput
	}
	if _, err := s.repo.GetClinic(ctx, clinicID); err != nil {
		return Vet{}, err
	}

	v := Vet{
		ID:             uuid.NewString(),
		ClinicID:       clinicID,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Specialization: strings.TrimSpace(in.Specialization),
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateVet(ctx, v); err != nil {
		return Vet{}, err
	}
	return v, nil
}

func (s *Service) GetVet(ctx context.Context, id string) (Vet, error) {
	return s.repo.GetVet(ctx, strings.TrimSpace(id))
}

func (s *Service) ListVets(ctx context.Context, clinicID string) ([]Vet, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListVetsByClinic(ctx, clinicID)
}
