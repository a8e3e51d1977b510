package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-appointment-scheduling/internal/domain/clinics"
)

type clinicRepo struct {
	mu      sync.RWMutex
	clinics map[string]clinics.Clinic
	vets    map[string]clinics.Vet
}

func NewClinicRepo() clinics.Repository {
	return &clinicRepo{
		clinics: make(map[string]clinics.Clinic),
		vets:    make(map[string]clinics.Vet),
	}
}

func (r *clinicRepo) CreateClinic(ctx context.Context, c clinics.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("clinic id required")
	}
	if _, exists := r.clinics[c.ID]; exists {
		return ErrAlreadyExists
	}
	r.clinics[c.ID] = c
	return nil
}

func (r *clinicRepo) GetClinic(ctx context.Context, id string) (clinics.Clinic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clinics[id]
	if !ok {
		return clinics.Clinic{}, clinics.ErrNotFound
	}
	return c, nil
}

func (r *clinicRepo) CreateVet(ctx context.Context, v clinics.Vet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return errors.New("vet id required")
	}
	if _, ok := r.clinics[v.ClinicID]; !ok {
		return clinics.ErrNotFound
	}
	if _, exists := r.vets[v.ID]; exists {
		return ErrAlreadyExists
	}
	r.vets[v.ID] = v
	return nil
}

func (r *clinicRepo) GetVet(ctx context.Context, id string) (clinics.Vet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vets[id]
	if !ok {
		return clinics.Vet{}, clinics.ErrNotFound
	}
	return v, nil
}

func (r *clinicRepo) ListVetsByClinic(ctx context.Context, clinicID string) ([]clinics.Vet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clinics.Vet, 0)
	for _, v := range r.vets {
		if v.ClinicID == clinicID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
