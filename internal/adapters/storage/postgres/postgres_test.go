package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"

	"github.com/DATA-DOG/go-sqlmock"
)

var petCols = []string{
	"id", "owner_user_id", "name", "species", "breed",
	"registration_status", "clinic_id", "notes", "created_at", "updated_at",
}

var appointmentCols = []string{
	"id", "pet_id", "owner_user_id", "clinic_id", "vet_id",
	"starts_at", "reason", "notes", "status",
	"created_at", "updated_at", "confirmed_at", "canceled_at", "completed_at",
}

func TestPetsRepo_GetByID_MapsRegistration(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM pets WHERE id = \\$1").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(petCols).
			AddRow("p1", "owner-1", "Firulais", "dog", "", "approved", "c1", "", now, now))

	p, err := NewPetsRepo(db).GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !p.Approved() || p.RegisteredClinic.ClinicID() != "c1" || p.RegisteredClinic.Embedded() {
		t.Fatalf("unexpected pet %#v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPetsRepo_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM pets").WithArgs("nope").WillReturnRows(sqlmock.NewRows(petCols))
	mock.ExpectExec("UPDATE pets").WillReturnResult(sqlmock.NewResult(0, 0))

	r := NewPetsRepo(db)
	if _, err := r.GetByID(context.Background(), "nope"); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("expected pets.ErrNotFound, got %v", err)
	}
	if err := r.Update(context.Background(), pets.Pet{ID: "nope"}); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("expected pets.ErrNotFound on update, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClinicsRepo_ListVetsByClinic(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "clinic_id", "first_name", "last_name", "specialization", "created_at"}
	mock.ExpectQuery("FROM vets\\s+WHERE clinic_id = \\$1").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("v1", "c1", "Ana", "Paz", "", now).
			AddRow("v2", "c1", "Luis", "Gil", "surgery", now))

	roster, err := NewClinicsRepo(db).ListVetsByClinic(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListVetsByClinic: %v", err)
	}
	if len(roster) != 2 || !clinics.RosterHas(roster, "v2") {
		t.Fatalf("unexpected roster %#v", roster)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentsRepo_ListBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	confirmed := start.Add(-time.Hour)

	mock.ExpectQuery("FROM appointments WHERE 1=1 AND clinic_id = \\$1 AND status IN \\(\\$2,\\$3\\) ORDER BY starts_at ASC, id ASC LIMIT \\$4").
		WithArgs("c1", "booked", "confirmed", 50).
		WillReturnRows(sqlmock.NewRows(appointmentCols).
			AddRow("a1", "p1", "owner-1", "c1", "v1", start, "checkup", "", "confirmed", start, start, confirmed, nil, nil))

	items, err := NewAppointmentsRepo(db).List(context.Background(), appointments.ListFilter{
		ClinicID: "c1",
		Statuses: []appointments.Status{appointments.StatusBooked, appointments.StatusConfirmed},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	a := items[0]
	if a.Status != appointments.StatusConfirmed || a.ConfirmedAt == nil || a.CanceledAt != nil {
		t.Fatalf("unexpected appointment %#v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentsRepo_UpdateMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE appointments").
		WithArgs("a9", "canceled", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "booked").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM appointments").
		WithArgs("a9").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err = NewAppointmentsRepo(db).Update(context.Background(), appointments.Appointment{ID: "a9", Status: appointments.StatusCanceled}, appointments.StatusBooked)
	if !errors.Is(err, appointments.ErrNotFound) {
		t.Fatalf("expected appointments.ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentsRepo_UpdateIsConditionalOnPreviousStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// otro request ya la canceló: el UPDATE con status = 'confirmed' no toca filas
	mock.ExpectExec(`(?s)UPDATE appointments .* WHERE id = \$1 AND status = \$8`).
		WithArgs("a1", "completed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM appointments").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("canceled"))

	r := NewAppointmentsRepo(db)
	err = r.Update(context.Background(), appointments.Appointment{ID: "a1", Status: appointments.StatusCompleted}, appointments.StatusConfirmed)
	if !errors.Is(err, appointments.ErrStatusChanged) {
		t.Fatalf("expected appointments.ErrStatusChanged, got %v", err)
	}

	mock.ExpectExec("UPDATE appointments").
		WithArgs("a2", "confirmed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "booked").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.Update(context.Background(), appointments.Appointment{ID: "a2", Status: appointments.StatusConfirmed}, appointments.StatusBooked); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrate_ExecutesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS clinics").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
