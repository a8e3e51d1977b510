package booking

import (
	"strings"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/platform/timezone"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Draft es la reserva en armado; no se persiste hasta Submit.
// ClinicID se deriva del pet seleccionado, nunca se setea directo.
type Draft struct {
	PetID    string
	ClinicID string
	VetID    string
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
	Reason   string
	Notes    string
}

type Eligibility struct {
	OK     bool
	Reason string
	// Detail amplía Reason cuando ayuda (p.ej. el estado real del registro).
	Detail string
}

func eligible() Eligibility { return Eligibility{OK: true} }

func ineligible(reason, detail string) Eligibility {
	return Eligibility{Reason: reason, Detail: detail}
}

// CanSubmit evalúa las reglas en orden; gana el primer motivo que falla.
// Es pura: "hoy" sale de now, en su zona horaria.
func CanSubmit(d Draft, pet *pets.Pet, clinic *clinics.Clinic, roster []clinics.Vet, now time.Time) Eligibility {
	if pet == nil {
		return ineligible(appointments.ReasonRegistrationNotApproved, "no pet details")
	}
	if !pet.Approved() {
		return ineligible(appointments.ReasonRegistrationNotApproved, string(pet.RegistrationStatus))
	}

	if clinic == nil {
		return ineligible(appointments.ReasonNoRegisteredClinic, "")
	}

	if !clinics.RosterHas(roster, d.VetID) {
		return ineligible(appointments.ReasonVetNotAvailable, "")
	}

	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(d.Date), now.Location())
	if err != nil || day.Before(timezone.StartOfNextDay(now)) {
		return ineligible(appointments.ReasonDateNotInFuture, "")
	}

	if _, err := time.Parse(TimeLayout, strings.TrimSpace(d.Time)); err != nil || strings.TrimSpace(d.Reason) == "" {
		return ineligible(appointments.ReasonMissingFields, "")
	}

	return eligible()
}
