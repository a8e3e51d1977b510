package appointments

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("appointment not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrActionNotPermitted = errors.New("action not permitted for role")
	ErrStatusChanged      = errors.New("appointment status changed concurrently")
)

// InvalidTransitionError detalla qué acción se rechazó y desde qué estado.
// errors.Is(err, ErrInvalidTransition) == true.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s a %s appointment", e.Action, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// RuleError es un rechazo de regla de negocio del lado del store
// (p.ej. re-chequeo de aprobación o de fecha). El mensaje es apto para el usuario.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func Rule(msg string) error { return &RuleError{Message: msg} }

func IsRule(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

var ErrForbidden = errors.New("forbidden")

// Motivos de rechazo compartidos entre la validación del cliente (eligibility)
// y el re-chequeo del store.
const (
	ReasonRegistrationNotApproved = "registration not approved"
	ReasonNoRegisteredClinic      = "no registered clinic"
	ReasonVetNotAvailable         = "vet not available at this clinic"
	ReasonDateNotInFuture         = "date must be in the future"
	ReasonMissingFields           = "missing required fields"
	ReasonClinicMismatch          = "clinic does not match pet registration"
	ReasonPetNotFound             = "pet not found"
)
