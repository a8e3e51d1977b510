package router

import (
	"database/sql"
	"net/http"
	"time"

	"pet-appointment-scheduling/internal/adapters/storage/memory"
	pg "pet-appointment-scheduling/internal/adapters/storage/postgres"
	"pet-appointment-scheduling/internal/adapters/vetapi/local"
	"pet-appointment-scheduling/internal/adapters/vetapi/rest"
	"pet-appointment-scheduling/internal/booking"
	"pet-appointment-scheduling/internal/config"
	"pet-appointment-scheduling/internal/domain/appointments"
	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
	"pet-appointment-scheduling/internal/middleware"
	"pet-appointment-scheduling/internal/platform/logger"
	"pet-appointment-scheduling/internal/ports/auth"
	"pet-appointment-scheduling/internal/ports/vetapi"

	_ "pet-appointment-scheduling/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config *config.Config
	Log    logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Auditor appointments.Auditor

	// Now solo se inyecta en tests.
	Now func() time.Time
}

// Router agrupa el handler HTTP y las sesiones de booking (main las barre y cierra).
type Router struct {
	Handler  http.Handler
	Sessions *booking.Sessions
}

func NewRouter(opts Options) (*Router, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{ClinicTimezone: "UTC", CORSAllowedOrigins: []string{"*"}}
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			middleware.HeaderDebugUserID,
			middleware.HeaderDebugRole,
			middleware.HeaderDebugClinicID,
		},
	}).Handler)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		petRepo         pets.Repository
		clinicRepo      clinics.Repository
		appointmentRepo appointments.Repository
	)
	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		clinicRepo = pg.NewClinicsRepo(opts.DB)
		appointmentRepo = pg.NewAppointmentsRepo(opts.DB)
	} else {
		petRepo = memory.NewPetRepo()
		clinicRepo = memory.NewClinicRepo()
		appointmentRepo = memory.NewAppointmentRepo()
	}

	// Services por módulo
	clinicsSvc := clinics.NewService(clinicRepo)
	petsSvc := pets.NewService(petRepo)
	appointmentsSvc := appointments.NewService(appointmentRepo, petsSvc, clinicsSvc, opts.Auditor, cfg.ClinicTimezone)

	clinics.RegisterRoutes(r, clinicsSvc)
	pets.RegisterRoutes(r, petsSvc, clinicsSvc)
	appointments.RegisterRoutes(r, appointmentsSvc)

	// El coordinador habla con la API remota si hay base URL; si no, in-process.
	var (
		dir   vetapi.Directory
		store vetapi.AppointmentStore
	)
	if cfg.VetAPIBaseURL != "" {
		client, err := rest.New(cfg.VetAPIBaseURL, cfg.VetAPITimeout)
		if err != nil {
			return nil, err
		}
		dir, store = client, client
		log.Info("booking uses remote vet api", logger.Fields{"base_url": cfg.VetAPIBaseURL})
	} else {
		adapter := local.New(petsSvc, clinicsSvc, appointmentsSvc)
		dir, store = adapter, adapter
	}

	sessions := booking.NewSessions(booking.Options{
		Directory:       dir,
		Store:           store,
		Log:             log.With(logger.Fields{"component": "booking"}),
		FetchTimeout:    cfg.FetchTimeout,
		DefaultTimezone: cfg.ClinicTimezone,
		Now:             opts.Now,
	}, cfg.SessionIdleTTL)
	booking.RegisterRoutes(r, sessions)

	return &Router{Handler: r, Sessions: sessions}, nil
}
