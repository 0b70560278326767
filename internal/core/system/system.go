package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: dispatch last tick's events
	PhaseUpdate                  // 1: game logic
	PhasePostUpdate              // 2: visibility sweep, expiry
	PhaseOutput                  // 3: push notices to clients
	PhasePersist                 // 4: credit replay + batch save
)

// System is the interface every ticked system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
