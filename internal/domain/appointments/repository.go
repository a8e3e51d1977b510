package appointments

import "context"

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	// Update persiste a sólo si el status guardado sigue siendo prev;
	// si cambió devuelve ErrStatusChanged.
	Update(ctx context.Context, a Appointment, prev Status) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
}
