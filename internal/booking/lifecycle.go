package booking

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/platform/logger"
	"pet-appointment-scheduling/internal/ports/session"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

// Lifecycle es el lado coordinador de las transiciones: gatea localmente
// (rol + estado) antes de pedir nada y reconcilia con la respuesta del store.
type Lifecycle struct {
	store vetapi.AppointmentStore
	log   logger.Logger

	mu      sync.RWMutex
	records map[string]appointments.Appointment
}

func NewLifecycle(store vetapi.AppointmentStore, log logger.Logger) *Lifecycle {
	if log == nil {
		log = logger.Nop()
	}
	return &Lifecycle{
		store:   store,
		log:     log,
		records: make(map[string]appointments.Appointment),
	}
}

// Track registra (o pisa) citas por ID: last-write-wins.
func (l *Lifecycle) Track(items ...appointments.Appointment) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range items {
		if a.ID == "" {
			continue
		}
		l.records[a.ID] = a
	}
}

// Replace deja exactamente items como conjunto conocido.
func (l *Lifecycle) Replace(items []appointments.Appointment) {
	l.mu.Lock()
	l.records = make(map[string]appointments.Appointment, len(items))
	l.mu.Unlock()

	l.Track(items...)
}

func (l *Lifecycle) Get(id string) (appointments.Appointment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.records[id]
	return a, ok
}

// Records ordenados por starts_at.
func (l *Lifecycle) Records() []appointments.Appointment {
	l.mu.RLock()
	out := make([]appointments.Appointment, 0, len(l.records))
	for _, a := range l.records {
		out = append(out, a)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

// Apply pide action sobre la cita id. Si el rol o el estado conocido no la
// permiten, falla sin llamar al store.
func (l *Lifecycle) Apply(ctx context.Context, role session.Role, id string, action appointments.Action) (appointments.Appointment, error) {
	if err := appointments.Authorize(role, action); err != nil {
		return appointments.Appointment{}, err
	}

	current, ok := l.Get(id)
	if !ok {
		fetched, err := l.store.GetAppointment(ctx, id)
		if err != nil {
			return appointments.Appointment{}, err
		}
		l.Track(fetched)
		current = fetched
	}

	if _, err := appointments.Next(current.Status, action); err != nil {
		return appointments.Appointment{}, err
	}

	updated, err := l.store.SetAppointmentStatus(ctx, id, action)
	if err != nil {
		if errors.Is(err, appointments.ErrInvalidTransition) {
			// el gate local dejó pasar algo que el store rechazó: estado local desfasado
			l.log.Warn("store rejected transition allowed locally", logger.Fields{
				"appointment_id": id,
				"action":         string(action),
				"local_status":   string(current.Status),
				"err":            err,
			})
			if fresh, gerr := l.store.GetAppointment(ctx, id); gerr == nil {
				l.Track(fresh)
			}
		}
		return appointments.Appointment{}, err
	}

	l.Track(updated)
	return updated, nil
}
