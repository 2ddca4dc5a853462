package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session packet queues
	PhasePreUpdate               // 1: deliver last tick's events and async results
	PhaseUpdate                  // 2: target evaluation, prompt state machines
	PhasePostUpdate              // 3: cache maintenance
	PhaseOutput                  // 4: build + send packets
	PhasePersist                 // 5: batch save dirty placements
	PhaseCleanup                 // 6: flush destroyed instances
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
