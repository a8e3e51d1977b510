package pets

import (
	"strings"
	"time"

	"pet-appointment-scheduling/internal/domain/clinics"
)

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func ParseSpecies(s string) Species {
	switch Species(strings.ToLower(strings.TrimSpace(s))) {
	case SpeciesDog:
		return SpeciesDog
	case SpeciesCat:
		return SpeciesCat
	default:
		return SpeciesOther
	}
}

// RegistrationStatus es el estado del registro de la mascota en su clínica.
// La aprobación la decide la clínica; solo "approved" habilita reservas.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}

// ClinicRef apunta a la clínica registrada: snapshot embebido o solo ID
// (en ese caso hace falta un fetch adicional).
type ClinicRef struct {
	ID     string
	Clinic *clinics.Clinic
}

func RefByID(id string) ClinicRef { return ClinicRef{ID: strings.TrimSpace(id)} }

func RefEmbedded(c clinics.Clinic) ClinicRef { return ClinicRef{ID: c.ID, Clinic: &c} }

func (r ClinicRef) IsZero() bool { return r.ClinicID() == "" }

func (r ClinicRef) Embedded() bool { return r.Clinic != nil }

// ClinicID prioriza el snapshot embebido.
func (r ClinicRef) ClinicID() string {
	if r.Clinic != nil && r.Clinic.ID != "" {
		return r.Clinic.ID
	}
	return r.ID
}

// Pet representa a una mascota de un owner, registrada en una clínica.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string

	RegistrationStatus RegistrationStatus
	RegisteredClinic   ClinicRef

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Pet) Approved() bool { return p.RegistrationStatus == RegistrationApproved }
