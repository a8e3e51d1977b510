package appointments

import "time"

type Status string

const (
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

// Statuses en orden del ciclo de vida.
var Statuses = []Status{StatusBooked, StatusConfirmed, StatusCanceled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusConfirmed, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal: canceled y completed no admiten más acciones.
func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

var Actions = []Action{ActionConfirm, ActionCancel, ActionComplete}

func (a Action) Valid() bool {
	switch a {
	case ActionConfirm, ActionCancel, ActionComplete:
		return true
	}
	return false
}

type Appointment struct {
	ID string

	PetID       string
	OwnerUserID string
	ClinicID    string
	VetID       string

	StartsAt time.Time

	Reason string
	Notes  string

	Status Status

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
	CanceledAt  *time.Time
	CompletedAt *time.Time
}

// CreateInput es lo que el coordinador envía al store al reservar.
type CreateInput struct {
	OwnerUserID string
	PetID       string
	ClinicID    string
	VetID       string
	StartsAt    time.Time
	Reason      string
	Notes       string
}

type ListFilter struct {
	PetID       string
	OwnerUserID string
	ClinicID    string
	VetID       string
	Statuses    []Status
	From        *time.Time
	To          *time.Time
	Limit       int
}

// Matches aplica el filtro en memoria (repo memory y caches).
func (f ListFilter) Matches(a Appointment) bool {
	if f.PetID != "" && a.PetID != f.PetID {
		return false
	}
	if f.OwnerUserID != "" && a.OwnerUserID != f.OwnerUserID {
		return false
	}
	if f.ClinicID != "" && a.ClinicID != f.ClinicID {
		return false
	}
	if f.VetID != "" && a.VetID != f.VetID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && a.StartsAt.Before(*f.From) {
		return false
	}
	if f.To != nil && a.StartsAt.After(*f.To) {
		return false
	}
	return true
}
