package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/platform/logger"
	"pet-appointment-scheduling/internal/platform/timezone"
	"pet-appointment-scheduling/internal/ports/session"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

var (
	ErrNoSession        = errors.New("no active session")
	ErrUnknownField     = errors.New("unknown draft field")
	ErrFieldNotSettable = errors.New("draft field is derived and cannot be set")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrNotClinicStaff   = errors.New("clinic staff identity required")
)

const transportUserMessage = "could not reach the appointment service, please retry"

type SubmitStatus string

const (
	SubmitIdle      SubmitStatus = "idle"
	SubmitInFlight  SubmitStatus = "submitting"
	SubmitSucceeded SubmitStatus = "succeeded"
	SubmitFailed    SubmitStatus = "failed"
)

type SubmitState struct {
	Status      SubmitStatus
	Appointment *appointments.Appointment
	Error       string
	Retryable   bool
}

// ReadModel es lo que consume la UI; se recalcula en cada lectura.
type ReadModel struct {
	Pets        []pets.Pet
	SelectedPet *pets.Pet
	Clinic      *clinics.Clinic
	Vets        []clinics.Vet
	Draft       Draft
	Eligibility Eligibility
	Submit      SubmitState

	LoadingProfile     bool
	LoadingRoster      bool
	ProfileError       string
	RosterError        string
	PetsError          string
	NoRegisteredClinic bool

	Appointments []appointments.Appointment
}

type Options struct {
	Session   session.Provider
	Directory vetapi.Directory
	Store     vetapi.AppointmentStore
	Log       logger.Logger
	Cache     *Cache

	FetchTimeout    time.Duration
	DefaultTimezone string
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Session == nil {
		o.Session = session.FromRequestContext
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.DefaultTimezone == "" {
		o.DefaultTimezone = timezone.DefaultTimezone
	}
	return o
}

// Coordinator es el adaptador del lado owner: reserva y cancelación propia.
type Coordinator struct {
	session   session.Provider
	dir       vetapi.Directory
	store     vetapi.AppointmentStore
	resolver  *Resolver
	submitter *Submitter
	lifecycle *Lifecycle
	log       logger.Logger
	now       func() time.Time
	defaultTZ string

	mu      sync.Mutex
	pets    []pets.Pet
	petsErr string
	date    string
	clock   string // HH:MM
	reason  string
	notes   string
	submit  SubmitState
}

func NewCoordinator(opts Options) *Coordinator {
	opts = opts.withDefaults()
	cache := opts.Cache
	if cache == nil {
		cache = NewCache()
	}
	return &Coordinator{
		session: opts.Session,
		dir:     opts.Directory,
		store:   opts.Store,
		resolver: NewResolver(opts.Directory, ResolverOptions{
			Cache:        cache,
			Log:          opts.Log.With(logger.Fields{"component": "resolver"}),
			FetchTimeout: opts.FetchTimeout,
		}),
		submitter: NewSubmitter(opts.Store),
		lifecycle: NewLifecycle(opts.Store, opts.Log.With(logger.Fields{"component": "lifecycle"})),
		log:       opts.Log,
		now:       opts.Now,
		defaultTZ: opts.DefaultTimezone,
		submit:    SubmitState{Status: SubmitIdle},
	}
}

// identity resuelve el usuario activo; sin usuario no se inicia ningún fetch.
// El ctx devuelto lleva la identidad para los adapters.
func (c *Coordinator) identity(ctx context.Context) (session.Identity, context.Context, error) {
	id, ok := c.session.Current(ctx)
	if !ok || !id.Valid() {
		return session.Identity{}, ctx, ErrNoSession
	}
	return id, session.WithIdentity(ctx, id), nil
}

// LoadPets trae las mascotas del owner. Una falla queda en ReadModel.PetsError.
func (c *Coordinator) LoadPets(ctx context.Context) error {
	id, ctx, err := c.identity(ctx)
	if err != nil {
		return err
	}

	items, err := c.dir.ListPets(ctx, id.UserID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.petsErr = err.Error()
		c.log.Warn("list pets failed", logger.Fields{"user_id": id.UserID, "err": err})
		return err
	}
	c.pets = items
	c.petsErr = ""
	return nil
}

// LoadAppointments trae las citas del owner para poder cancelarlas.
func (c *Coordinator) LoadAppointments(ctx context.Context) error {
	_, ctx, err := c.identity(ctx)
	if err != nil {
		return err
	}
	items, err := c.store.ListAppointments(ctx, appointments.ListFilter{})
	if err != nil {
		return err
	}
	c.lifecycle.Replace(items)
	return nil
}

func (c *Coordinator) SelectPet(ctx context.Context, petID string) error {
	_, ctx, err := c.identity(ctx)
	if err != nil {
		return err
	}
	if _, err := c.resolver.SelectPet(ctx, petID); err != nil {
		return err
	}
	c.resetSubmit()
	return nil
}

func (c *Coordinator) SelectVet(ctx context.Context, vetID string) error {
	if _, _, err := c.identity(ctx); err != nil {
		return err
	}
	if err := c.resolver.SelectVet(vetID); err != nil {
		return err
	}
	c.resetSubmit()
	return nil
}

// Retry reintenta el stage que haya fallado para el pet actual.
func (c *Coordinator) Retry(ctx context.Context) error {
	_, ctx, err := c.identity(ctx)
	if err != nil {
		return err
	}
	return c.resolver.Retry(ctx)
}

// SetField edita los campos libres del draft. pet/clinic/vet tienen sus
// propios entry points (clinic no se puede elegir).
func (c *Coordinator) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "date":
		c.date = strings.TrimSpace(value)
	case "time":
		c.clock = strings.TrimSpace(value)
	case "reason":
		c.reason = value
	case "notes":
		c.notes = value
	case "pet_id", "clinic_id", "vet_id":
		return ErrFieldNotSettable
	default:
		return ErrUnknownField
	}

	if c.submit.Status != SubmitInFlight {
		c.submit = SubmitState{Status: SubmitIdle}
	}
	return nil
}

// Submit re-evalúa eligibility y, si pasa, crea la cita.
// Un draft no elegible falla como *vetapi.ValidationError sin tocar la red.
func (c *Coordinator) Submit(ctx context.Context) (appointments.Appointment, error) {
	id, ctx, err := c.identity(ctx)
	if err != nil {
		return appointments.Appointment{}, err
	}

	c.mu.Lock()
	if c.submit.Status == SubmitInFlight {
		c.mu.Unlock()
		return appointments.Appointment{}, ErrSubmitInProgress
	}
	st := c.resolver.Snapshot()
	d := c.draftLocked(st)
	loc := c.location(st.Clinic)
	el := CanSubmit(d, st.Pet, st.Clinic, st.Vets, c.now().In(loc))
	if !el.OK {
		c.mu.Unlock()
		return appointments.Appointment{}, &vetapi.ValidationError{Message: el.Reason}
	}
	c.submit = SubmitState{Status: SubmitInFlight}
	c.mu.Unlock()

	a, err := c.submitter.Submit(ctx, id.UserID, d, loc)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		var ve *vetapi.ValidationError
		if errors.As(err, &ve) {
			c.submit = SubmitState{Status: SubmitFailed, Error: ve.Message}
		} else {
			c.submit = SubmitState{Status: SubmitFailed, Error: transportUserMessage, Retryable: true}
			c.log.Warn("create appointment failed", logger.Fields{"pet_id": d.PetID, "err": err})
		}
		return appointments.Appointment{}, err
	}

	c.submit = SubmitState{Status: SubmitSucceeded, Appointment: &a}
	c.lifecycle.Track(a)
	c.log.Info("appointment booked", logger.Fields{"appointment_id": a.ID, "pet_id": a.PetID, "clinic_id": a.ClinicID})
	return a, nil
}

func (c *Coordinator) Confirm(ctx context.Context, appointmentID string) (appointments.Appointment, error) {
	return c.transition(ctx, appointmentID, appointments.ActionConfirm)
}

func (c *Coordinator) Cancel(ctx context.Context, appointmentID string) (appointments.Appointment, error) {
	return c.transition(ctx, appointmentID, appointments.ActionCancel)
}

func (c *Coordinator) Complete(ctx context.Context, appointmentID string) (appointments.Appointment, error) {
	return c.transition(ctx, appointmentID, appointments.ActionComplete)
}

func (c *Coordinator) transition(ctx context.Context, appointmentID string, action appointments.Action) (appointments.Appointment, error) {
	id, ctx, err := c.identity(ctx)
	if err != nil {
		return appointments.Appointment{}, err
	}
	return c.lifecycle.Apply(ctx, id.Role, appointmentID, action)
}

func (c *Coordinator) ReadModel() ReadModel {
	st := c.resolver.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.draftLocked(st)
	rm := ReadModel{
		Pets:               append([]pets.Pet(nil), c.pets...),
		SelectedPet:        st.Pet,
		Clinic:             st.Clinic,
		Vets:               st.Vets,
		Draft:              d,
		Eligibility:        CanSubmit(d, st.Pet, st.Clinic, st.Vets, c.now().In(c.location(st.Clinic))),
		Submit:             c.submit,
		LoadingProfile:     st.LoadingProfile,
		LoadingRoster:      st.LoadingRoster,
		PetsError:          c.petsErr,
		NoRegisteredClinic: st.NoRegisteredClinic(),
		Appointments:       c.lifecycle.Records(),
	}
	if st.ProfileErr != nil {
		rm.ProfileError = st.ProfileErr.Error()
	}
	if st.RosterErr != nil {
		rm.RosterError = st.RosterErr.Error()
	}
	return rm
}

// Settle espera a que la cadena de resolución quede quieta.
func (c *Coordinator) Settle(ctx context.Context) error {
	return c.resolver.Settle(ctx)
}

func (c *Coordinator) Close() {
	c.resolver.Close()
}

func (c *Coordinator) draftLocked(st State) Draft {
	d := Draft{
		PetID:  st.PetID,
		VetID:  st.VetID,
		Date:   c.date,
		Time:   c.clock,
		Reason: c.reason,
		Notes:  c.notes,
	}
	if st.Clinic != nil {
		d.ClinicID = st.Clinic.ID
	}
	return d
}

func (c *Coordinator) location(clinic *clinics.Clinic) *time.Location {
	if clinic != nil && timezone.IsValid(clinic.Timezone) {
		return timezone.Location(clinic.Timezone)
	}
	return timezone.Location(c.defaultTZ)
}

func (c *Coordinator) resetSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submit.Status != SubmitInFlight {
		c.submit = SubmitState{Status: SubmitIdle}
	}
}
