package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

// -------------------------
// Directory fake
// -------------------------

// fakeDirectory permite demorar cada fetch por key ("pet:P1", "clinic:C1", "vets:C1").
// gates ignoran la cancelación (transporte que no aborta); hangs la respetan.
type fakeDirectory struct {
	mu       sync.Mutex
	pets     map[string]pets.Pet
	clinics  map[string]clinics.Clinic
	vets     map[string][]clinics.Vet
	gates    map[string]chan struct{}
	hangs    map[string]bool
	failures map[string]error
	calls    map[string]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		pets:     map[string]pets.Pet{},
		clinics:  map[string]clinics.Clinic{},
		vets:     map[string][]clinics.Vet{},
		gates:    map[string]chan struct{}{},
		hangs:    map[string]bool{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeDirectory) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeDirectory) ungate(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.gates, key)
}

func (f *fakeDirectory) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, key)
		return
	}
	f.failures[key] = err
}

func (f *fakeDirectory) setRoster(clinicID string, roster ...clinics.Vet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vets[clinicID] = roster
}

func (f *fakeDirectory) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeDirectory) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	f.calls[key]++
	g := f.gates[key]
	hang := f.hangs[key]
	f.mu.Unlock()

	if g != nil {
		<-g
	}
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[key]
}

func (f *fakeDirectory) ListPets(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	if err := f.enter(ctx, "list:"+ownerUserID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pets.Pet, 0)
	for _, p := range f.pets {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDirectory) FetchPet(ctx context.Context, petID string) (pets.Pet, error) {
	if err := f.enter(ctx, "pet:"+petID); err != nil {
		return pets.Pet{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pets[petID]
	if !ok {
		return pets.Pet{}, vetapi.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) FetchClinic(ctx context.Context, clinicID string) (clinics.Clinic, error) {
	if err := f.enter(ctx, "clinic:"+clinicID); err != nil {
		return clinics.Clinic{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clinics[clinicID]
	if !ok {
		return clinics.Clinic{}, vetapi.ErrNotFound
	}
	return c, nil
}

// FetchVetsByClinic toma el roster al momento del request, no al de la respuesta.
func (f *fakeDirectory) FetchVetsByClinic(ctx context.Context, clinicID string) ([]clinics.Vet, error) {
	f.mu.Lock()
	roster := append([]clinics.Vet(nil), f.vets[clinicID]...)
	f.mu.Unlock()

	if err := f.enter(ctx, "vets:"+clinicID); err != nil {
		return nil, err
	}
	return roster, nil
}

// -------------------------
// AppointmentStore fake
// -------------------------

type fakeStore struct {
	mu        sync.Mutex
	byID      map[string]appointments.Appointment
	seq       int
	createErr error
	// statusErr fuerza la respuesta de SetAppointmentStatus
	statusErr   error
	statusCalls int
	created     []appointments.CreateInput
	now         time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID: map[string]appointments.Appointment{},
		now:  time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) CreateAppointment(ctx context.Context, in appointments.CreateInput) (appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, in)
	if s.createErr != nil {
		return appointments.Appointment{}, s.createErr
	}
	s.seq++
	a := appointments.Appointment{
		ID:          fmt.Sprintf("a%d", s.seq),
		PetID:       in.PetID,
		OwnerUserID: in.OwnerUserID,
		ClinicID:    in.ClinicID,
		VetID:       in.VetID,
		StartsAt:    in.StartsAt,
		Reason:      in.Reason,
		Notes:       in.Notes,
		Status:      appointments.InitialStatus(),
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	s.byID[a.ID] = a
	return a, nil
}

func (s *fakeStore) SetAppointmentStatus(ctx context.Context, id string, action appointments.Action) (appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statusCalls++
	if s.statusErr != nil {
		return appointments.Appointment{}, s.statusErr
	}
	a, ok := s.byID[id]
	if !ok {
		return appointments.Appointment{}, vetapi.ErrNotFound
	}
	updated, err := appointments.Apply(a, action, s.now)
	if err != nil {
		return appointments.Appointment{}, err
	}
	s.byID[id] = updated
	return updated, nil
}

func (s *fakeStore) GetAppointment(ctx context.Context, id string) (appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return appointments.Appointment{}, vetapi.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) ListAppointments(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range s.byID {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) put(a appointments.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = a
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

// -------------------------
// helpers
// -------------------------

// seedScenario: P1 aprobado en C1 (V1, V2) con clínica solo por ID;
// P2 pendiente en C1; P3 aprobado en C2 (V3) con clínica embebida.
func seedScenario() *fakeDirectory {
	d := newFakeDirectory()
	c1 := clinics.Clinic{ID: "C1", Name: "Centro", Timezone: "UTC"}
	c2 := clinics.Clinic{ID: "C2", Name: "Norte", Timezone: "UTC"}
	d.clinics["C1"] = c1
	d.clinics["C2"] = c2

	d.vets["C1"] = []clinics.Vet{
		{ID: "V1", ClinicID: "C1", FirstName: "Ana"},
		{ID: "V2", ClinicID: "C1", FirstName: "Luis"},
	}
	d.vets["C2"] = []clinics.Vet{{ID: "V3", ClinicID: "C2", FirstName: "Sol"}}

	d.pets["P1"] = pets.Pet{ID: "P1", OwnerUserID: "owner-1", Name: "Firulais", RegistrationStatus: pets.RegistrationApproved, RegisteredClinic: pets.RefByID("C1")}
	d.pets["P2"] = pets.Pet{ID: "P2", OwnerUserID: "owner-1", Name: "Michi", RegistrationStatus: pets.RegistrationPending, RegisteredClinic: pets.RefByID("C1")}
	d.pets["P3"] = pets.Pet{ID: "P3", OwnerUserID: "owner-1", Name: "Rocky", RegistrationStatus: pets.RegistrationApproved, RegisteredClinic: pets.RefEmbedded(c2)}
	return d
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func settle(t *testing.T, r *Resolver) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Settle(ctx); err != nil {
		t.Fatalf("resolver did not settle: %v", err)
	}
}
