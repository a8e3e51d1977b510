package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-appointment-scheduling/internal/domain/clinics"
)

func newTestResolver(d *fakeDirectory) *Resolver {
	return NewResolver(d, ResolverOptions{})
}

func vetIDs(roster []clinics.Vet) []string {
	out := make([]string, 0, len(roster))
	for _, v := range roster {
		out = append(out, v.ID)
	}
	return out
}

func assertSettledOn(t *testing.T, st State, petID, clinicID string, vets ...string) {
	t.Helper()
	if st.PetID != petID || st.Pet == nil || st.Pet.ID != petID {
		t.Fatalf("expected pet %s, got petID=%q pet=%v", petID, st.PetID, st.Pet)
	}
	if st.Clinic == nil || st.Clinic.ID != clinicID {
		t.Fatalf("expected clinic %s, got %v", clinicID, st.Clinic)
	}
	got := vetIDs(st.Vets)
	if len(got) != len(vets) {
		t.Fatalf("expected vets %v, got %v", vets, got)
	}
	for i := range vets {
		if got[i] != vets[i] {
			t.Fatalf("expected vets %v, got %v", vets, got)
		}
	}
	if st.LoadingProfile || st.LoadingRoster {
		t.Fatalf("expected settled state, got %#v", st)
	}
}

func TestResolver_RapidPetChanges_SettleOnLastPet(t *testing.T) {
	orders := map[string][]string{
		"early fetches finish last":  {"P2", "P1"},
		"early fetches finish first": {"P1", "P2"},
	}

	for name, releaseOrder := range orders {
		t.Run(name, func(t *testing.T) {
			d := seedScenario()
			gates := map[string]chan struct{}{
				"P1": d.gate("pet:P1"),
				"P2": d.gate("pet:P2"),
			}
			r := newTestResolver(d)
			ctx := context.Background()

			for _, id := range []string{"P1", "P2", "P3"} {
				if _, err := r.SelectPet(ctx, id); err != nil {
					t.Fatalf("SelectPet(%s): %v", id, err)
				}
			}

			// P3 (el último) resuelve sin demora
			eventually(t, func() bool { st := r.Snapshot(); return !st.LoadingRoster && len(st.Vets) == 1 })

			for _, id := range releaseOrder {
				close(gates[id])
			}
			settle(t, r)

			st := r.Snapshot()
			assertSettledOn(t, st, "P3", "C2", "V3")
			if st.Gen != 3 {
				t.Fatalf("expected generation 3, got %d", st.Gen)
			}
			if d.callCount("clinic:C1") != 0 || d.callCount("vets:C1") != 0 {
				t.Fatalf("stale pets must not trigger downstream fetches")
			}
		})
	}
}

func TestResolver_LastPetSlowest_StillWins(t *testing.T) {
	d := seedScenario()
	slow := d.gate("pet:P3")
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	_, _ = r.SelectPet(ctx, "P3")

	// P1 ya respondió (o responde ahora) pero su generación quedó vieja
	eventually(t, func() bool { return d.callCount("pet:P1") == 1 })
	time.Sleep(5 * time.Millisecond)

	st := r.Snapshot()
	if st.Pet != nil || st.Clinic != nil || len(st.Vets) != 0 {
		t.Fatalf("stale P1 result leaked into state: %#v", st)
	}

	close(slow)
	settle(t, r)
	assertSettledOn(t, r.Snapshot(), "P3", "C2", "V3")
}

func TestResolver_StaleClinicResultDiscarded(t *testing.T) {
	d := seedScenario()
	clinicGate := d.gate("clinic:C1")
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	eventually(t, func() bool { return d.callCount("clinic:C1") == 1 })

	_, _ = r.SelectPet(ctx, "P3")
	eventually(t, func() bool { return len(r.Snapshot().Vets) == 1 })

	close(clinicGate)
	settle(t, r)

	assertSettledOn(t, r.Snapshot(), "P3", "C2", "V3")
	if d.callCount("vets:C1") != 0 {
		t.Fatalf("stale clinic must not fetch its roster")
	}
}

func TestResolver_StaleRosterDiscardedAcrossPets(t *testing.T) {
	d := seedScenario()
	rosterGate := d.gate("vets:C1")
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	eventually(t, func() bool { return d.callCount("vets:C1") == 1 })

	_, _ = r.SelectPet(ctx, "P3")
	close(rosterGate)
	settle(t, r)

	assertSettledOn(t, r.Snapshot(), "P3", "C2", "V3")
}

func TestResolver_StaleRosterDiscardedWithinClinic(t *testing.T) {
	d := seedScenario()
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	settle(t, r)

	// primer refresh: roster viejo y lento
	d.setRoster("C1", clinics.Vet{ID: "V2", ClinicID: "C1"})
	slow := d.gate("vets:C1")
	if err := r.RefreshRoster(); err != nil {
		t.Fatalf("RefreshRoster: %v", err)
	}
	eventually(t, func() bool { return d.callCount("vets:C1") == 2 })

	// segundo refresh: roster nuevo y rápido
	d.ungate("vets:C1")
	d.setRoster("C1", clinics.Vet{ID: "V1", ClinicID: "C1"})
	if err := r.RefreshRoster(); err != nil {
		t.Fatalf("RefreshRoster: %v", err)
	}
	eventually(t, func() bool { st := r.Snapshot(); return !st.LoadingRoster })

	close(slow)
	settle(t, r)

	assertSettledOn(t, r.Snapshot(), "P1", "C1", "V1")
}

func TestResolver_PetChangeClearsVetImmediately(t *testing.T) {
	d := seedScenario()
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	settle(t, r)
	if err := r.SelectVet("V2"); err != nil {
		t.Fatalf("SelectVet: %v", err)
	}

	gate := d.gate("pet:P3")
	_, _ = r.SelectPet(ctx, "P3")

	st := r.Snapshot()
	if st.VetID != "" || st.Clinic != nil || len(st.Vets) != 0 || !st.LoadingProfile {
		t.Fatalf("expected optimistic reset, got %#v", st)
	}

	close(gate)
	settle(t, r)
	if st := r.Snapshot(); st.VetID != "" {
		t.Fatalf("vet from previous clinic must not survive, got %q", st.VetID)
	}
}

func TestResolver_RosterChangeClearsMissingVetOnly(t *testing.T) {
	d := seedScenario()
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	settle(t, r)
	_ = r.SelectVet("V1")

	// V1 sigue en el roster: se conserva
	d.setRoster("C1", clinics.Vet{ID: "V1", ClinicID: "C1"}, clinics.Vet{ID: "V9", ClinicID: "C1"})
	_ = r.RefreshRoster()
	settle(t, r)
	if st := r.Snapshot(); st.VetID != "V1" {
		t.Fatalf("vet still in roster must be kept, got %q", st.VetID)
	}

	// V1 ya no está: se limpia
	d.setRoster("C1", clinics.Vet{ID: "V9", ClinicID: "C1"})
	_ = r.RefreshRoster()
	settle(t, r)
	if st := r.Snapshot(); st.VetID != "" {
		t.Fatalf("dangling vet must be cleared, got %q", st.VetID)
	}
}

func TestResolver_SelectVetRequiresRoster(t *testing.T) {
	d := seedScenario()
	r := newTestResolver(d)

	if err := r.SelectVet("V1"); !errors.Is(err, ErrVetNotInRoster) {
		t.Fatalf("expected ErrVetNotInRoster before roster loads, got %v", err)
	}

	_, _ = r.SelectPet(context.Background(), "P1")
	settle(t, r)

	if err := r.SelectVet("V3"); !errors.Is(err, ErrVetNotInRoster) {
		t.Fatalf("vet from another clinic must be rejected, got %v", err)
	}
	if err := r.SelectVet("V2"); err != nil {
		t.Fatalf("SelectVet(V2): %v", err)
	}
}

func TestResolver_EmbeddedClinicSkipsClinicFetch(t *testing.T) {
	d := seedScenario()
	r := newTestResolver(d)

	_, _ = r.SelectPet(context.Background(), "P3")
	settle(t, r)

	assertSettledOn(t, r.Snapshot(), "P3", "C2", "V3")
	if d.callCount("clinic:C2") != 0 {
		t.Fatalf("embedded clinic must not be fetched")
	}
}

func TestResolver_ClinicErrorIsProfileScopedAndRecoverable(t *testing.T) {
	d := seedScenario()
	d.fail("clinic:C1", errors.New("503"))
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	settle(t, r)

	st := r.Snapshot()
	if st.ProfileErr == nil || st.ProfileErr.Stage != StageProfile {
		t.Fatalf("expected profile resolution error, got %#v", st.ProfileErr)
	}
	if st.RosterErr != nil || st.Pet == nil {
		t.Fatalf("pet should be loaded and roster untouched: %#v", st)
	}
	if !st.NoRegisteredClinic() {
		t.Fatalf("clinic error must read as no registered clinic")
	}

	d.fail("clinic:C1", nil)
	if err := r.Retry(ctx); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	settle(t, r)

	st = r.Snapshot()
	if st.ProfileErr != nil {
		t.Fatalf("profile error must clear after a successful fetch")
	}
	assertSettledOn(t, st, "P1", "C1", "V1", "V2")
	if d.callCount("pet:P1") != 1 {
		t.Fatalf("retry must resume at the clinic stage, pet fetched %d times", d.callCount("pet:P1"))
	}
}

func TestResolver_RosterErrorIsScoped(t *testing.T) {
	d := seedScenario()
	d.fail("vets:C1", errors.New("timeout"))
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	settle(t, r)

	st := r.Snapshot()
	if st.RosterErr == nil || st.RosterErr.Stage != StageRoster || st.ProfileErr != nil {
		t.Fatalf("expected roster-only error, got profile=%v roster=%v", st.ProfileErr, st.RosterErr)
	}
	if st.Clinic == nil || st.NoRegisteredClinic() {
		t.Fatalf("clinic must stay visible on roster error")
	}

	d.fail("vets:C1", nil)
	if err := r.Retry(ctx); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	settle(t, r)
	st = r.Snapshot()
	if st.RosterErr != nil || len(st.Vets) != 2 {
		t.Fatalf("roster error must clear after successful refresh: %#v", st)
	}
}

func TestResolver_FetchTimeoutActsAsFailure(t *testing.T) {
	d := seedScenario()
	d.hangs["pet:P1"] = true
	r := NewResolver(d, ResolverOptions{FetchTimeout: 20 * time.Millisecond})

	_, _ = r.SelectPet(context.Background(), "P1")
	settle(t, r)

	st := r.Snapshot()
	if st.ProfileErr == nil || !errors.Is(st.ProfileErr, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded profile error, got %v", st.ProfileErr)
	}
}

func TestResolver_SupersededFetchIsCanceled(t *testing.T) {
	d := seedScenario()
	d.hangs["pet:P1"] = true
	r := newTestResolver(d)
	ctx := context.Background()

	_, _ = r.SelectPet(ctx, "P1")
	_, _ = r.SelectPet(ctx, "P3")

	// sin timeout: solo termina porque la generación vieja se cancela
	settle(t, r)
	assertSettledOn(t, r.Snapshot(), "P3", "C2", "V3")
}

func TestResolver_CloseRejectsSelections(t *testing.T) {
	r := newTestResolver(seedScenario())
	r.Close()
	if _, err := r.SelectPet(context.Background(), "P1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
