package booking

import (
	"context"
	"sync"
	"time"

	"pet-appointment-scheduling/internal/platform/logger"
)

type sessionEntry struct {
	coordinator *Coordinator
	desk        *ClinicDesk
	lastSeen    time.Time
	// inUse cuenta los requests que tienen el Coordinator tomado; Sweep no los toca.
	inUse int
}

// Sessions mantiene un Coordinator / ClinicDesk por usuario para el BFF y
// descarta los que quedan inactivos más de IdleTTL.
type Sessions struct {
	opts    Options
	idleTTL time.Duration
	now     func() time.Time
	log     logger.Logger

	mu     sync.Mutex
	byUser map[string]*sessionEntry
}

func NewSessions(opts Options, idleTTL time.Duration) *Sessions {
	opts = opts.withDefaults()
	return &Sessions{
		opts:    opts,
		idleTTL: idleTTL,
		now:     opts.Now,
		log:     opts.Log,
		byUser:  make(map[string]*sessionEntry),
	}
}

func (s *Sessions) entry(userID string) *sessionEntry {
	e, ok := s.byUser[userID]
	if !ok {
		e = &sessionEntry{}
		s.byUser[userID] = e
	}
	e.lastSeen = s.now()
	return e
}

func (s *Sessions) Coordinator(userID string) *Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(userID)
	if e.coordinator == nil {
		e.coordinator = NewCoordinator(s.opts)
	}
	return e.coordinator
}

// Acquire devuelve el Coordinator del usuario y lo marca en uso hasta que se
// llame release. Una sesión en uso no se barre aunque supere IdleTTL.
func (s *Sessions) Acquire(userID string) (*Coordinator, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(userID)
	if e.coordinator == nil {
		e.coordinator = NewCoordinator(s.opts)
	}
	e.inUse++

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			e.inUse--
			e.lastSeen = s.now()
		})
	}
	return e.coordinator, release
}

func (s *Sessions) Desk(userID string) *ClinicDesk {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(userID)
	if e.desk == nil {
		e.desk = NewClinicDesk(s.opts)
	}
	return e.desk
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}

// Sweep cierra y elimina las sesiones inactivas. Devuelve cuántas quitó.
func (s *Sessions) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	n := 0
	for userID, e := range s.byUser {
		if e.inUse > 0 || e.lastSeen.After(cutoff) {
			continue
		}
		if e.coordinator != nil {
			e.coordinator.Close()
		}
		delete(s.byUser, userID)
		n++
	}
	if n > 0 {
		s.log.Debug("evicted idle booking sessions", logger.Fields{"count": n})
	}
	return n
}

// Run barre periódicamente hasta que ctx se cancele.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Close cierra todas las sesiones.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, e := range s.byUser {
		if e.coordinator != nil {
			e.coordinator.Close()
		}
		delete(s.byUser, userID)
	}
}
