package system

import (
	"time"

	"github.com/embervale/server/internal/core/event"
)

// EventDispatch rotates the bus buffers and delivers last tick's
// events to subscribers. Registered first so handlers see a stable
// world before anything else runs this tick.
type EventDispatch struct {
	bus *event.Bus
}

func NewEventDispatch(bus *event.Bus) *EventDispatch {
	return &EventDispatch{bus: bus}
}

func (s *EventDispatch) Phase() Phase { return PhasePreUpdate }

func (s *EventDispatch) Update(dt time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
