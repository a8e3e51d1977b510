package audit

import (
	"sync"

	"pet-appointment-scheduling/internal/platform/logger"
)

type Event struct {
	Action   string
	Entity   string
	EntityID string
	ActorID  string
	Metadata map[string]any
}

// Dispatcher registra eventos de auditoría en background.
// Nunca bloquea al caller: con la cola llena el evento se descarta.
type Dispatcher struct {
	log   logger.Logger
	queue chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(log logger.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 100
	}
	d := &Dispatcher{
		log:   log.With(logger.Fields{"component": "audit"}),
		queue: make(chan Event, buffer),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		fields := logger.Fields{
			"action":    ev.Action,
			"entity":    ev.Entity,
			"entity_id": ev.EntityID,
			"actor_id":  ev.ActorID,
		}
		for k, v := range ev.Metadata {
			fields[k] = v
		}
		d.log.Info("audit", fields)
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event", logger.Fields{"action": ev.Action, "entity_id": ev.EntityID})
	}
}

// Close drena la cola y espera al worker. No se puede Dispatch después de Close.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() { close(d.queue) })
	<-d.done
}
