// Package rest implementa vetapi.Directory y vetapi.AppointmentStore contra la API HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/platform/httpclient"
	"pet-appointment-scheduling/internal/ports/session"
	"pet-appointment-scheduling/internal/ports/vetapi"
)

type Client struct {
	http *httpclient.Client
}

// New crea el cliente. La identidad de la sesión (ctx) se propaga en cada request.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if hc.BaseURL == "" {
		return nil, errors.New("vetapi rest: base url required")
	}
	hc.Headers = identityHeaders
	return &Client{http: hc}, nil
}

// NewWithHTTP permite inyectar un httpclient ya armado (tests).
func NewWithHTTP(hc *httpclient.Client) *Client {
	if hc.Headers == nil {
		hc.Headers = identityHeaders
	}
	return &Client{http: hc}
}

func identityHeaders(ctx context.Context) map[string]string {
	id, ok := session.FromContext(ctx)
	if !ok {
		return nil
	}
	if id.Token != "" {
		return map[string]string{"Authorization": "Bearer " + id.Token}
	}
	h := map[string]string{
		"X-Debug-User-ID": id.UserID,
		"X-Debug-Role":    string(id.Role),
	}
	if id.ClinicID != "" {
		h["X-Debug-Clinic-ID"] = id.ClinicID
	}
	return h
}

// -------------------------
// Directory
// -------------------------

func (c *Client) ListPets(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	var out []petDTO
	if err := c.http.Get(ctx, "/pets", &out); err != nil {
		return nil, mapError(err)
	}

	items := make([]pets.Pet, 0, len(out))
	for _, d := range out {
		p, err := d.toPet()
		if err != nil {
			return nil, &vetapi.TransportError{Err: err}
		}
		if ownerUserID != "" && p.OwnerUserID != "" && p.OwnerUserID != ownerUserID {
			continue
		}
		items = append(items, p)
	}
	return items, nil
}

func (c *Client) FetchPet(ctx context.Context, petID string) (pets.Pet, error) {
	var out petDTO
	if err := c.http.Get(ctx, "/pets/"+url.PathEscape(petID)+"?expand=clinic", &out); err != nil {
		return pets.Pet{}, mapError(err)
	}
	p, err := out.toPet()
	if err != nil {
		return pets.Pet{}, &vetapi.TransportError{Err: err}
	}
	return p, nil
}

func (c *Client) FetchClinic(ctx context.Context, clinicID string) (clinics.Clinic, error) {
	var out clinicDTO
	if err := c.http.Get(ctx, "/clinics/"+url.PathEscape(clinicID), &out); err != nil {
		return clinics.Clinic{}, mapError(err)
	}
	return out.toClinic(), nil
}

func (c *Client) FetchVetsByClinic(ctx context.Context, clinicID string) ([]clinics.Vet, error) {
	var out []vetDTO
	if err := c.http.Get(ctx, "/vets?clinic_id="+url.QueryEscape(clinicID), &out); err != nil {
		return nil, mapError(err)
	}
	roster := make([]clinics.Vet, 0, len(out))
	for _, v := range out {
		roster = append(roster, v.toVet())
	}
	return roster, nil
}

// -------------------------
// AppointmentStore
// -------------------------

func (c *Client) CreateAppointment(ctx context.Context, in appointments.CreateInput) (appointments.Appointment, error) {
	req := createAppointmentDTO{
		PetID:    in.PetID,
		ClinicID: in.ClinicID,
		VetID:    in.VetID,
		StartsAt: in.StartsAt.Format(time.RFC3339),
		Reason:   in.Reason,
		Notes:    in.Notes,
	}

	var out appointmentDTO
	if err := c.http.Post(ctx, "/appointments", req, &out); err != nil {
		return appointments.Appointment{}, mapError(err)
	}
	return out.toAppointment(), nil
}

func (c *Client) SetAppointmentStatus(ctx context.Context, id string, action appointments.Action) (appointments.Appointment, error) {
	var out appointmentDTO
	path := "/appointments/" + url.PathEscape(id) + "/status"
	if err := c.http.Patch(ctx, path, map[string]string{"action": string(action)}, &out); err != nil {
		return appointments.Appointment{}, mapError(err)
	}
	return out.toAppointment(), nil
}

func (c *Client) GetAppointment(ctx context.Context, id string) (appointments.Appointment, error) {
	var out appointmentDTO
	if err := c.http.Get(ctx, "/appointments/"+url.PathEscape(id), &out); err != nil {
		return appointments.Appointment{}, mapError(err)
	}
	return out.toAppointment(), nil
}

func (c *Client) ListAppointments(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	q := url.Values{}
	if f.PetID != "" {
		q.Set("pet_id", f.PetID)
	}
	if f.VetID != "" {
		q.Set("vet_id", f.VetID)
	}
	if len(f.Statuses) > 0 {
		parts := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			parts = append(parts, string(s))
		}
		q.Set("status", strings.Join(parts, ","))
	}
	if f.From != nil {
		q.Set("from", f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		q.Set("to", f.To.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	path := "/appointments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []appointmentDTO
	if err := c.http.Get(ctx, path, &out); err != nil {
		return nil, mapError(err)
	}
	items := make([]appointments.Appointment, 0, len(out))
	for _, d := range out {
		items = append(items, d.toAppointment())
	}
	return items, nil
}

// mapError traduce respuestas HTTP a la taxonomía de vetapi.
func mapError(err error) error {
	var he *httpclient.HTTPError
	if !errors.As(err, &he) {
		// red, timeout o contexto cancelado
		return &vetapi.TransportError{Err: err}
	}

	switch he.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusForbidden:
		return &vetapi.ValidationError{Message: he.Message()}
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", appointments.ErrInvalidTransition, he.Message())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", vetapi.ErrNotFound, he.Message())
	default:
		return &vetapi.TransportError{Err: err}
	}
}

// -------------------------
// DTOs
// -------------------------

type clinicDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Timezone string `json:"timezone"`
}

func (d clinicDTO) toClinic() clinics.Clinic {
	return clinics.Clinic{ID: d.ID, Name: d.Name, Address: d.Address, Phone: d.Phone, Timezone: d.Timezone}
}

type vetDTO struct {
	ID             string `json:"id"`
	ClinicID       string `json:"clinic_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
}

func (d vetDTO) toVet() clinics.Vet {
	return clinics.Vet{ID: d.ID, ClinicID: d.ClinicID, FirstName: d.FirstName, LastName: d.LastName, Specialization: d.Specialization}
}

type petDTO struct {
	ID                 string          `json:"id"`
	OwnerUserID        string          `json:"owner_user_id"`
	Name               string          `json:"name"`
	Species            string          `json:"species"`
	Breed              string          `json:"breed"`
	RegistrationStatus string          `json:"registration_status"`
	RegisteredClinic   json.RawMessage `json:"registered_clinic"`
	Notes              string          `json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// toPet acepta registered_clinic como objeto embebido o como string con el ID.
func (d petDTO) toPet() (pets.Pet, error) {
	p := pets.Pet{
		ID:                 d.ID,
		OwnerUserID:        d.OwnerUserID,
		Name:               d.Name,
		Species:            pets.ParseSpecies(d.Species),
		Breed:              d.Breed,
		RegistrationStatus: pets.RegistrationStatus(d.RegistrationStatus),
		Notes:              d.Notes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}

	raw := strings.TrimSpace(string(d.RegisteredClinic))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, "\""):
		var id string
		if err := json.Unmarshal(d.RegisteredClinic, &id); err != nil {
			return pets.Pet{}, fmt.Errorf("registered_clinic: %w", err)
		}
		p.RegisteredClinic = pets.RefByID(id)
	default:
		var c clinicDTO
		if err := json.Unmarshal(d.RegisteredClinic, &c); err != nil {
			return pets.Pet{}, fmt.Errorf("registered_clinic: %w", err)
		}
		p.RegisteredClinic = pets.RefEmbedded(c.toClinic())
	}
	return p, nil
}

type createAppointmentDTO struct {
	PetID    string `json:"pet_id"`
	ClinicID string `json:"clinic_id"`
	VetID    string `json:"vet_id"`
	StartsAt string `json:"starts_at"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

type appointmentDTO struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	OwnerUserID string     `json:"owner_user_id"`
	ClinicID    string     `json:"clinic_id"`
	VetID       string     `json:"vet_id"`
	StartsAt    time.Time  `json:"starts_at"`
	Reason      string     `json:"reason"`
	Notes       string     `json:"notes"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CanceledAt  *time.Time `json:"canceled_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (d appointmentDTO) toAppointment() appointments.Appointment {
	return appointments.Appointment{
		ID:          d.ID,
		PetID:       d.PetID,
		OwnerUserID: d.OwnerUserID,
		ClinicID:    d.ClinicID,
		VetID:       d.VetID,
		StartsAt:    d.StartsAt,
		Reason:      d.Reason,
		Notes:       d.Notes,
		Status:      appointments.Status(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		ConfirmedAt: d.ConfirmedAt,
		CanceledAt:  d.CanceledAt,
		CompletedAt: d.CompletedAt,
	}
}
