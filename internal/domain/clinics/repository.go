package clinics

import "context"

type Repository interface {
	CreateClinic(ctx context.Context, c Clinic) error
	GetClinic(ctx context.Context, id string) (Clinic, error)

	CreateVet(ctx context.Context, v Vet) error
	GetVet(ctx context.Context, id string) (Vet, error)
	ListVetsByClinic(ctx context.Context, clinicID string) ([]Vet, error)
}
