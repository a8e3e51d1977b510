package appointments

import (
	"time"

	"pet-appointment-scheduling/internal/ports/session"
)

// transitions es la tabla completa del ciclo de vida:
//
//	booked    --confirm-->  confirmed
//	booked    --cancel--->  canceled
//	confirmed --cancel--->  canceled
//	confirmed --complete->  completed
//
// canceled y completed son terminales. booked -> completed directo NO está permitido.
var transitions = map[Status]map[Action]Status{
	StatusBooked: {
		ActionConfirm: StatusConfirmed,
		ActionCancel:  StatusCanceled,
	},
	StatusConfirmed: {
		ActionCancel:   StatusCanceled,
		ActionComplete: StatusCompleted,
	},
}

// InitialStatus es el estado de toda reserva recién creada.
func InitialStatus() Status {
	return StatusBooked
}

// Next devuelve el estado destino o *InvalidTransitionError.
func Next(from Status, action Action) (Status, error) {
	to, ok := transitions[from][action]
	if !ok {
		return "", &InvalidTransitionError{From: from, Action: action}
	}
	return to, nil
}

func CanApply(from Status, action Action) bool {
	_, err := Next(from, action)
	return err == nil
}

// AllowedActions en orden estable (confirm, cancel, complete).
func AllowedActions(s Status) []Action {
	out := make([]Action, 0, 2)
	for _, a := range Actions {
		if CanApply(s, a) {
			out = append(out, a)
		}
	}
	return out
}

// Authorize: confirm y complete son del lado clínica; cancel lo puede pedir cualquiera de las partes.
func Authorize(role session.Role, action Action) error {
	switch action {
	case ActionCancel:
		if role == session.RoleOwner || role == session.RoleClinic {
			return nil
		}
	case ActionConfirm, ActionComplete:
		if role == session.RoleClinic {
			return nil
		}
	}
	return ErrActionNotPermitted
}

// Apply devuelve una copia transicionada con su timestamp; ap no se modifica.
func Apply(ap Appointment, action Action, now time.Time) (Appointment, error) {
	to, err := Next(ap.Status, action)
	if err != nil {
		return Appointment{}, err
	}

	ap.Status = to
	ap.UpdatedAt = now
	switch to {
	case StatusConfirmed:
		ap.ConfirmedAt = &now
	case StatusCanceled:
		ap.CanceledAt = &now
	case StatusCompleted:
		ap.CompletedAt = &now
	}
	return ap, nil
}
