package target

import "fmt"

// PromptState tracks where one observer sits in the interaction flow.
type PromptState int

const (
	StateIdle          PromptState = iota // no target held
	StateTargeted                         // target held, prompt not sent yet
	StatePromptShown                      // prompt delivered, awaiting input
	StateActionPending                    // action dispatched, awaiting verdict
	StateApplied                          // last action succeeded
	StateRejected                         // last action was refused
)

func (s PromptState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTargeted:
		return "targeted"
	case StatePromptShown:
		return "prompt_shown"
	case StateActionPending:
		return "action_pending"
	case StateApplied:
		return "applied"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Prompt is the per-observer interaction state machine. The prompt for a
// target fires exactly once per acquisition; losing and re-acquiring the
// same object arms it again. Game loop only.
type Prompt struct {
	state     PromptState
	targetKey string
}

func (p *Prompt) State() PromptState { return p.state }
func (p *Prompt) TargetKey() string  { return p.targetKey }

// OnAcquired arms the prompt for a freshly acquired target. Any in-flight
// action for a previous target keeps running; its verdict is still
// delivered, it just no longer belongs to the shown prompt.
func (p *Prompt) OnAcquired(key string) {
	p.state = StateTargeted
	p.targetKey = key
}

// OnLost returns the machine to idle.
func (p *Prompt) OnLost() {
	p.state = StateIdle
	p.targetKey = ""
}

// NeedsPrompt reports whether the prompt packet is due.
func (p *Prompt) NeedsPrompt() bool {
	return p.state == StateTargeted
}

// MarkShown records that the prompt packet was sent.
func (p *Prompt) MarkShown() {
	if p.state == StateTargeted {
		p.state = StatePromptShown
	}
}

// OnActionSent records an action dispatch. A second dispatch while one is
// pending is refused; the server-side guard would reject it anyway, this
// just keeps the machine honest.
func (p *Prompt) OnActionSent() error {
	switch p.state {
	case StatePromptShown, StateApplied, StateRejected:
		p.state = StateActionPending
		return nil
	case StateActionPending:
		return fmt.Errorf("action already pending for %s", p.targetKey)
	default:
		return fmt.Errorf("no prompt shown (state %s)", p.state)
	}
}

// OnResult records the verdict of a pending action. Results for actions
// dispatched before a target change are ignored here.
func (p *Prompt) OnResult(applied bool) {
	if p.state != StateActionPending {
		return
	}
	if applied {
		p.state = StateApplied
	} else {
		p.state = StateRejected
	}
}
