package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/ports/session"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

func bookedAppointment(id string) appointments.Appointment {
	return appointments.Appointment{
		ID:       id,
		PetID:    "P1",
		ClinicID: "C1",
		VetID:    "V1",
		StartsAt: time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC),
		Status:   appointments.StatusBooked,
	}
}

func TestLifecycle_FullPathThroughStore(t *testing.T) {
	store := newFakeStore()
	store.put(bookedAppointment("a1"))
	l := NewLifecycle(store, nil)
	ctx := context.Background()

	a, err := l.Apply(ctx, session.RoleClinic, "a1", appointments.ActionConfirm)
	if err != nil || a.Status != appointments.StatusConfirmed {
		t.Fatalf("confirm: %v %#v", err, a)
	}
	a, err = l.Apply(ctx, session.RoleClinic, "a1", appointments.ActionComplete)
	if err != nil || a.Status != appointments.StatusCompleted {
		t.Fatalf("complete: %v %#v", err, a)
	}
	if got, _ := l.Get("a1"); got.Status != appointments.StatusCompleted {
		t.Fatalf("tracked record not updated: %s", got.Status)
	}
}

func TestLifecycle_LocalGateSkipsStore(t *testing.T) {
	store := newFakeStore()
	l := NewLifecycle(store, nil)
	canceled := bookedAppointment("a1")
	canceled.Status = appointments.StatusCanceled
	l.Track(canceled)

	for _, action := range []appointments.Action{appointments.ActionCancel, appointments.ActionComplete, appointments.ActionConfirm} {
		_, err := l.Apply(context.Background(), session.RoleClinic, "a1", action)
		if !errors.Is(err, appointments.ErrInvalidTransition) {
			t.Fatalf("%s on canceled: expected invalid transition, got %v", action, err)
		}
	}
	if store.calls() != 0 {
		t.Fatalf("store must not be called, got %d calls", store.calls())
	}
}

func TestLifecycle_BookedCannotCompleteDirectly(t *testing.T) {
	store := newFakeStore()
	l := NewLifecycle(store, nil)
	l.Track(bookedAppointment("a1"))

	_, err := l.Apply(context.Background(), session.RoleClinic, "a1", appointments.ActionComplete)
	if !errors.Is(err, appointments.ErrInvalidTransition) || store.calls() != 0 {
		t.Fatalf("expected local rejection, got %v (calls=%d)", err, store.calls())
	}
}

func TestLifecycle_OwnerCannotConfirm(t *testing.T) {
	store := newFakeStore()
	store.put(bookedAppointment("a1"))
	l := NewLifecycle(store, nil)
	l.Track(bookedAppointment("a1"))

	_, err := l.Apply(context.Background(), session.RoleOwner, "a1", appointments.ActionConfirm)
	if !errors.Is(err, appointments.ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted, got %v", err)
	}

	if store.calls() != 0 {
		t.Fatalf("owner confirm must not reach the store, calls=%d", store.calls())
	}

	a, err := l.Apply(context.Background(), session.RoleOwner, "a1", appointments.ActionCancel)
	if err != nil || a.Status != appointments.StatusCanceled {
		t.Fatalf("owner cancel: %v %#v", err, a)
	}
	if got, _ := store.GetAppointment(context.Background(), "a1"); got.Status != appointments.StatusCanceled {
		t.Fatalf("expected store to hold canceled, got %s", got.Status)
	}
}

func TestLifecycle_StoreRejectionReconcilesLocalState(t *testing.T) {
	store := newFakeStore()
	// el store ya la canceló; localmente la seguimos viendo booked
	remote := bookedAppointment("a1")
	remote.Status = appointments.StatusCanceled
	store.put(remote)

	l := NewLifecycle(store, nil)
	l.Track(bookedAppointment("a1"))

	_, err := l.Apply(context.Background(), session.RoleClinic, "a1", appointments.ActionConfirm)
	if !errors.Is(err, appointments.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from store, got %v", err)
	}
	if store.calls() != 1 {
		t.Fatalf("expected one store call, got %d", store.calls())
	}
	if got, _ := l.Get("a1"); got.Status != appointments.StatusCanceled {
		t.Fatalf("expected local record reconciled to canceled, got %s", got.Status)
	}
}

func TestLifecycle_UnknownRecordIsFetched(t *testing.T) {
	store := newFakeStore()
	store.put(bookedAppointment("a1"))
	l := NewLifecycle(store, nil)

	if _, err := l.Apply(context.Background(), session.RoleOwner, "a1", appointments.ActionCancel); err != nil {
		t.Fatalf("cancel unknown record: %v", err)
	}

	_, err := l.Apply(context.Background(), session.RoleOwner, "missing", appointments.ActionCancel)
	if !errors.Is(err, vetapi.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLifecycle_TransportErrorLeavesRecord(t *testing.T) {
	store := newFakeStore()
	store.statusErr = &vetapi.TransportError{Err: errors.New("connection reset")}
	l := NewLifecycle(store, nil)
	l.Track(bookedAppointment("a1"))

	_, err := l.Apply(context.Background(), session.RoleClinic, "a1", appointments.ActionConfirm)
	if !vetapi.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got, _ := l.Get("a1"); got.Status != appointments.StatusBooked {
		t.Fatalf("record must stay booked, got %s", got.Status)
	}
}

func TestLifecycle_RecordsSortedByStart(t *testing.T) {
	l := NewLifecycle(newFakeStore(), nil)
	late := bookedAppointment("b")
	late.StartsAt = late.StartsAt.Add(time.Hour)
	l.Track(late, bookedAppointment("a"))

	recs := l.Records()
	if len(recs) != 2 || recs[0].ID != "a" || recs[1].ID != "b" {
		t.Fatalf("unexpected order: %#v", recs)
	}
}
