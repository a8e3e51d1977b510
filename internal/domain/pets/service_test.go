package pets

import (
	"context"
	"errors"
	"testing"
)

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Pet{}} }

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestService_CreateStartsPending(t *testing.T) {
	svc := NewService(newTestRepo())

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{Name: " Milo ", Species: "dog", ClinicID: "C1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.RegistrationStatus != RegistrationPending || p.Approved() {
		t.Fatalf("expected pending, got %s", p.RegistrationStatus)
	}
	if p.Name != "Milo" || p.RegisteredClinic.ClinicID() != "C1" || p.RegisteredClinic.Embedded() {
		t.Fatalf("unexpected pet: %#v", p)
	}

	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{Name: "Sin clínica"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without clinic, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "", CreateInput{Name: "Milo", ClinicID: "C1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without owner, got %v", err)
	}
}

func TestService_SetRegistration(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo())
	p, _ := svc.Create(ctx, "owner-1", CreateInput{Name: "Milo", ClinicID: "C1"})

	if _, err := svc.SetRegistration(ctx, p.ID, "C2", RegistrationApproved); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other clinic must not approve, got %v", err)
	}
	if _, err := svc.SetRegistration(ctx, p.ID, "C1", RegistrationPending); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("back to pending must be invalid, got %v", err)
	}

	approved, err := svc.SetRegistration(ctx, p.ID, "C1", RegistrationApproved)
	if err != nil || !approved.Approved() {
		t.Fatalf("approve: %v %s", err, approved.RegistrationStatus)
	}
	if again, err := svc.SetRegistration(ctx, p.ID, "C1", RegistrationApproved); err != nil || !again.Approved() {
		t.Fatalf("approve must be idempotent: %v", err)
	}

	rejected, err := svc.SetRegistration(ctx, p.ID, "C1", RegistrationRejected)
	if err != nil || rejected.RegistrationStatus != RegistrationRejected {
		t.Fatalf("revoke: %v %s", err, rejected.RegistrationStatus)
	}
	if _, err := svc.SetRegistration(ctx, p.ID, "C1", RegistrationApproved); !errors.Is(err, ErrBadState) {
		t.Fatalf("rejected is final, got %v", err)
	}
}

func TestClinicRef_Forms(t *testing.T) {
	if !RefByID("  ").IsZero() {
		t.Fatalf("blank id must be zero")
	}
	ref := RefByID("C1")
	if ref.Embedded() || ref.ClinicID() != "C1" {
		t.Fatalf("unexpected by-id ref: %#v", ref)
	}
}
