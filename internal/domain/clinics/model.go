package clinics

import (
	"strings"
	"time"
)

// Clinic es la clínica veterinaria donde está registrada una mascota.
type Clinic struct {
	ID      string
	Name    string
	Address string
	Phone   string

	// Timezone IANA; define qué es "mañana" para la regla de reservas.
	Timezone string

	CreatedAt time.Time
}

// Vet pertenece al plantel (roster) de una sola clínica.
type Vet struct {
	ID             string
	ClinicID       string
	FirstName      string
	LastName       string
	Specialization string

	CreatedAt time.Time
}

func (v Vet) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// RosterHas indica si vetID está en el roster.
func RosterHas(roster []Vet, vetID string) bool {
	if strings.TrimSpace(vetID) == "" {
		return false
	}
	for _, v := range roster {
		if v.ID == vetID {
			return true
		}
	}
	return false
}
