package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

// Submitter arma el request de creación y clasifica la falla.
type Submitter struct {
	store vetapi.AppointmentStore
}

func NewSubmitter(store vetapi.AppointmentStore) *Submitter {
	return &Submitter{store: store}
}

// StartsAt combina fecha y hora del draft en un instante de loc.
func StartsAt(d Draft, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, strings.TrimSpace(d.Date)+" "+strings.TrimSpace(d.Time), loc)
}

// Submit espera un draft que ya pasó CanSubmit. En éxito devuelve la cita en
// booked. Los rechazos del store vuelven como *vetapi.ValidationError con el
// mensaje tal cual; cualquier otra falla como *vetapi.TransportError.
func (s *Submitter) Submit(ctx context.Context, ownerUserID string, d Draft, loc *time.Location) (appointments.Appointment, error) {
	startsAt, err := StartsAt(d, loc)
	if err != nil {
		return appointments.Appointment{}, &vetapi.ValidationError{Message: appointments.ReasonMissingFields}
	}

	a, err := s.store.CreateAppointment(ctx, appointments.CreateInput{
		OwnerUserID: ownerUserID,
		PetID:       d.PetID,
		ClinicID:    d.ClinicID,
		VetID:       d.VetID,
		StartsAt:    startsAt,
		Reason:      strings.TrimSpace(d.Reason),
		Notes:       strings.TrimSpace(d.Notes),
	})
	if err != nil {
		var ve *vetapi.ValidationError
		if errors.As(err, &ve) {
			return appointments.Appointment{}, ve
		}
		var te *vetapi.TransportError
		if errors.As(err, &te) {
			return appointments.Appointment{}, te
		}
		return appointments.Appointment{}, &vetapi.TransportError{Err: err}
	}
	return a, nil
}
