package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/platform/logger"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

var (
	ErrVetNotInRoster = errors.New("vet not in roster")
	ErrNoPetSelected  = errors.New("no pet selected")
	ErrNoClinic       = errors.New("no clinic resolved")
	ErrClosed         = errors.New("resolver closed")
)

// Stage identifica qué tramo de la cadena falló.
type Stage string

const (
	StageProfile Stage = "profile" // pet o clínica
	StageRoster  Stage = "roster"
)

// ResolutionError es recuperable: se limpia con el próximo fetch exitoso del mismo stage.
type ResolutionError struct {
	Stage Stage
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// State es una foto inmutable del resolver (ver Snapshot).
type State struct {
	// Gen cambia con cada selección de pet; ClinicGen con cada resolución de clínica.
	Gen       uint64
	ClinicGen uint64

	PetID  string
	Pet    *pets.Pet
	Clinic *clinics.Clinic
	Vets   []clinics.Vet
	VetID  string

	LoadingProfile bool
	LoadingRoster  bool

	ProfileErr *ResolutionError
	RosterErr  *ResolutionError
}

// NoRegisteredClinic: el perfil terminó (bien o con error) y no hay clínica.
func (s State) NoRegisteredClinic() bool {
	return s.PetID != "" && !s.LoadingProfile && s.Clinic == nil
}

// Resolver ejecuta la cadena pet -> clínica -> roster. Cada selección de pet
// abre una generación nueva; un resultado solo se commitea si su generación
// (y para el roster, también su generación de clínica) sigue vigente.
// El mutex protege el estado y nunca se mantiene durante un fetch.
type Resolver struct {
	dir          vetapi.Directory
	cache        *Cache
	log          logger.Logger
	fetchTimeout time.Duration

	mu     sync.Mutex
	st     State
	closed bool

	genCtx       context.Context
	genCancel    context.CancelFunc
	rosterCancel context.CancelFunc

	inflight int
	idle     chan struct{}
}

type ResolverOptions struct {
	Cache *Cache
	Log   logger.Logger

	// FetchTimeout > 0 corta cada fetch; vencer cuenta como falla del stage.
	FetchTimeout time.Duration
}

func NewResolver(dir vetapi.Directory, opts ResolverOptions) *Resolver {
	if opts.Cache == nil {
		opts.Cache = NewCache()
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Resolver{
		dir:          dir,
		cache:        opts.Cache,
		log:          opts.Log,
		fetchTimeout: opts.FetchTimeout,
		idle:         idle,
	}
}

// SelectPet abre una generación nueva y dispara la cadena para petID.
// El estado de clínica/roster/vet se limpia en el acto, antes del fetch.
// ctx aporta los valores (identidad); su cancelación no corta los fetches.
func (r *Resolver) SelectPet(ctx context.Context, petID string) (uint64, error) {
	petID = strings.TrimSpace(petID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}

	r.st.Gen++
	g := r.st.Gen

	// la generación anterior queda abandonada: abortamos su transporte
	if r.genCancel != nil {
		r.genCancel()
	}
	r.stopRosterLocked()
	r.genCtx, r.genCancel = context.WithCancel(context.WithoutCancel(ctx))

	r.st.PetID = petID
	r.st.Pet = nil
	r.st.Clinic = nil
	r.st.Vets = nil
	r.st.VetID = ""
	r.st.ProfileErr = nil
	r.st.RosterErr = nil
	r.st.LoadingRoster = false
	r.st.LoadingProfile = petID != ""

	r.cache.Invalidate(KindClinic)
	r.cache.Invalidate(KindVets)

	if petID == "" {
		return g, nil
	}

	gctx := r.genCtx
	r.goLocked(func() { r.resolvePet(gctx, g, petID) })
	return g, nil
}

// SelectVet solo acepta vets del roster cargado. "" limpia la selección.
func (r *Resolver) SelectVet(vetID string) error {
	vetID = strings.TrimSpace(vetID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if vetID != "" && !clinics.RosterHas(r.st.Vets, vetID) {
		return ErrVetNotInRoster
	}
	r.st.VetID = vetID
	return nil
}

// RefreshRoster vuelve a pedir el roster de la clínica actual con una
// generación de clínica nueva (p.ej. tras un error de roster).
func (r *Resolver) RefreshRoster() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.st.Clinic == nil {
		return ErrNoClinic
	}
	r.cache.Invalidate(KindVets)
	r.startRosterLocked(r.st.Gen, r.st.Clinic.ID)
	return nil
}

// Retry retoma la cadena desde el primer stage incompleto del pet actual.
func (r *Resolver) Retry(ctx context.Context) error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	petID := r.st.PetID
	switch {
	case petID == "":
		r.mu.Unlock()
		return ErrNoPetSelected

	case r.st.LoadingProfile || r.st.LoadingRoster:
		// ya hay un fetch en vuelo para esta generación
		r.mu.Unlock()
		return nil

	case r.st.Pet == nil:
		r.mu.Unlock()
		_, err := r.SelectPet(ctx, petID)
		return err

	case r.st.Clinic == nil:
		clinicID := r.st.Pet.RegisteredClinic.ClinicID()
		if clinicID == "" {
			// no hay nada que reintentar: la mascota no tiene clínica
			r.mu.Unlock()
			return nil
		}
		g, gctx := r.st.Gen, r.genCtx
		r.st.LoadingProfile = true
		r.goLocked(func() { r.resolveClinic(gctx, g, clinicID) })
		r.mu.Unlock()
		return nil

	default:
		r.mu.Unlock()
		return r.RefreshRoster()
	}
}

// Snapshot copia el estado; el caller puede retenerlo sin locks.
func (r *Resolver) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.st
	if s.Pet != nil {
		p := *s.Pet
		s.Pet = &p
	}
	if s.Clinic != nil {
		c := *s.Clinic
		s.Clinic = &c
	}
	s.Vets = append([]clinics.Vet(nil), s.Vets...)
	return s
}

// Wait bloquea hasta que no quede ningún fetch en vuelo.
func (r *Resolver) Wait() {
	_ = r.Settle(context.Background())
}

// Settle es Wait con corte por ctx.
func (r *Resolver) Settle(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.inflight == 0 {
			r.mu.Unlock()
			return nil
		}
		idle := r.idle
		r.mu.Unlock()

		select {
		case <-idle:
			// un commit pudo haber disparado el stage siguiente; re-chequeamos
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close aborta lo que esté en vuelo; el resolver no acepta más selecciones.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.st.Gen++
	if r.genCancel != nil {
		r.genCancel()
	}
	r.stopRosterLocked()
}

// -------------------------
// stages
// -------------------------

func (r *Resolver) resolvePet(ctx context.Context, g uint64, petID string) {
	p, err := r.fetchPet(ctx, petID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.st.Gen != g {
		r.log.Debug("discarding stale pet result", logger.Fields{"pet_id": petID, "gen": g, "current_gen": r.st.Gen})
		return
	}
	if err != nil {
		r.failProfileLocked(petID, err)
		return
	}

	r.st.Pet = &p
	r.cache.SetPet(p)

	ref := p.RegisteredClinic
	switch {
	case ref.Embedded():
		r.commitClinicLocked(g, *ref.Clinic)
	case ref.IsZero():
		// sin clínica registrada: el perfil termina acá
		r.st.LoadingProfile = false
	default:
		if c, ok := r.cache.Clinic(ref.ID); ok {
			r.commitClinicLocked(g, c)
			return
		}
		r.goLocked(func() { r.resolveClinic(ctx, g, ref.ID) })
	}
}

func (r *Resolver) resolveClinic(ctx context.Context, g uint64, clinicID string) {
	c, err := r.fetchClinic(ctx, clinicID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.st.Gen != g {
		r.log.Debug("discarding stale clinic result", logger.Fields{"clinic_id": clinicID, "gen": g})
		return
	}
	if err != nil {
		r.failProfileLocked(r.st.PetID, err)
		return
	}
	r.commitClinicLocked(g, c)
}

func (r *Resolver) resolveRoster(ctx context.Context, g, cg uint64, clinicID string) {
	roster, err := r.fetchVets(ctx, clinicID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.st.Gen != g || r.st.ClinicGen != cg {
		r.log.Debug("discarding stale roster result", logger.Fields{"clinic_id": clinicID, "gen": g, "clinic_gen": cg})
		return
	}
	if err != nil {
		r.st.LoadingRoster = false
		r.st.RosterErr = &ResolutionError{Stage: StageRoster, Err: err}
		r.log.Warn("roster resolution failed", logger.Fields{"clinic_id": clinicID, "err": err})
		return
	}
	r.commitRosterLocked(clinicID, roster)
}

func (r *Resolver) commitClinicLocked(g uint64, c clinics.Clinic) {
	r.st.Clinic = &c
	r.st.LoadingProfile = false
	r.st.ProfileErr = nil
	r.cache.SetClinic(c)

	r.startRosterLocked(g, c.ID)
}

// startRosterLocked abre una generación de clínica y pide su roster.
func (r *Resolver) startRosterLocked(g uint64, clinicID string) {
	r.st.ClinicGen++
	cg := r.st.ClinicGen

	r.stopRosterLocked()

	if roster, ok := r.cache.Vets(clinicID); ok {
		r.commitRosterLocked(clinicID, roster)
		return
	}

	ctx, cancel := context.WithCancel(r.genCtx)
	r.rosterCancel = cancel
	r.st.LoadingRoster = true
	r.goLocked(func() { r.resolveRoster(ctx, g, cg, clinicID) })
}

// commitRosterLocked reemplaza el roster y descarta un vet que ya no pertenece a él.
func (r *Resolver) commitRosterLocked(clinicID string, roster []clinics.Vet) {
	r.st.Vets = roster
	r.st.LoadingRoster = false
	r.st.RosterErr = nil
	r.cache.SetVets(clinicID, roster)

	if r.st.VetID != "" && !clinics.RosterHas(roster, r.st.VetID) {
		r.log.Debug("clearing vet not in new roster", logger.Fields{"vet_id": r.st.VetID, "clinic_id": clinicID})
		r.st.VetID = ""
	}
}

func (r *Resolver) failProfileLocked(petID string, err error) {
	r.st.LoadingProfile = false
	r.st.ProfileErr = &ResolutionError{Stage: StageProfile, Err: err}
	r.log.Warn("profile resolution failed", logger.Fields{"pet_id": petID, "err": err})
}

func (r *Resolver) stopRosterLocked() {
	if r.rosterCancel != nil {
		r.rosterCancel()
		r.rosterCancel = nil
	}
}

// goLocked lanza fn contándola como fetch en vuelo. Requiere r.mu tomado.
func (r *Resolver) goLocked(fn func()) {
	if r.inflight == 0 {
		r.idle = make(chan struct{})
	}
	r.inflight++

	go func() {
		defer r.done()
		fn()
	}()
}

func (r *Resolver) done() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inflight--
	if r.inflight == 0 {
		close(r.idle)
	}
}

// -------------------------
// fetch
// -------------------------

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.fetchTimeout > 0 {
		return context.WithTimeout(ctx, r.fetchTimeout)
	}
	return context.WithCancel(ctx)
}

func (r *Resolver) fetchPet(ctx context.Context, id string) (pets.Pet, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.dir.FetchPet(ctx, id)
}

func (r *Resolver) fetchClinic(ctx context.Context, id string) (clinics.Clinic, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.dir.FetchClinic(ctx, id)
}

func (r *Resolver) fetchVets(ctx context.Context, clinicID string) ([]clinics.Vet, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.dir.FetchVetsByClinic(ctx, clinicID)
}
