package booking

import (
	"context"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/platform/logger"
	"pet-appointment-scheduling/internal/ports/session"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

// ClinicDesk es el adaptador del lado clínica sobre el mismo Lifecycle:
// lista las citas de la clínica y las confirma, cancela o completa.
type ClinicDesk struct {
	session   session.Provider
	store     vetapi.AppointmentStore
	lifecycle *Lifecycle
	log       logger.Logger
}

func NewClinicDesk(opts Options) *ClinicDesk {
	opts = opts.withDefaults()
	return &ClinicDesk{
		session:   opts.Session,
		store:     opts.Store,
		lifecycle: NewLifecycle(opts.Store, opts.Log.With(logger.Fields{"component": "desk"})),
		log:       opts.Log,
	}
}

func (d *ClinicDesk) staff(ctx context.Context) (session.Identity, context.Context, error) {
	id, ok := d.session.Current(ctx)
	if !ok || !id.Valid() {
		return session.Identity{}, ctx, ErrNoSession
	}
	if id.Role != session.RoleClinic || id.ClinicID == "" {
		return session.Identity{}, ctx, ErrNotClinicStaff
	}
	return id, session.WithIdentity(ctx, id), nil
}

// Load trae las citas de la clínica del staff; filter.ClinicID se ignora.
func (d *ClinicDesk) Load(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	id, ctx, err := d.staff(ctx)
	if err != nil {
		return nil, err
	}
	filter.ClinicID = id.ClinicID

	items, err := d.store.ListAppointments(ctx, filter)
	if err != nil {
		d.log.Warn("list clinic appointments failed", logger.Fields{"clinic_id": id.ClinicID, "err": err})
		return nil, err
	}
	d.lifecycle.Replace(items)
	return d.lifecycle.Records(), nil
}

func (d *ClinicDesk) Appointments() []appointments.Appointment {
	return d.lifecycle.Records()
}

func (d *ClinicDesk) Confirm(ctx context.Context, appointmentID string) (appointments.Appointment, error) {
	return d.transition(ctx, appointmentID, appointments.ActionConfirm)
}

func (d *ClinicDesk) Cancel(ctx context.Context, appointmentID string) (appointments.Appointment, error) {
	return d.transition(ctx, appointmentID, appointments.ActionCancel)
}

func (d *ClinicDesk) Complete(ctx context.Context, appointmentID string) (appointments.Appointment, error) {
	return d.transition(ctx, appointmentID, appointments.ActionComplete)
}

func (d *ClinicDesk) transition(ctx context.Context, appointmentID string, action appointments.Action) (appointments.Appointment, error) {
	id, ctx, err := d.staff(ctx)
	if err != nil {
		return appointments.Appointment{}, err
	}
	return d.lifecycle.Apply(ctx, id.Role, appointmentID, action)
}
