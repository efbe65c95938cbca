package transaction

import (
	"slices"
	"sync"
)

// Phase is the step an orchestrator is in.
type Phase int

// Orchestrator phases.
const (
	PhaseIdle Phase = iota
	PhaseEncrypting
	PhaseSubmitting
	PhaseConfirming
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseEncrypting:
		return "encrypting"
	case PhaseSubmitting:
		return "submitting"
	case PhaseConfirming:
		return "confirming"
	default:
		return "idle"
	}
}

// State is the observable state of one orchestrator. A failed action is
// idle with Err set.
type State struct {
	Phase Phase
	Err   error
}

// IsEncrypting reports whether the amount is being encrypted.
func (s State) IsEncrypting() bool { return s.Phase == PhaseEncrypting }

// IsSubmitting reports whether the transaction is being sent.
func (s State) IsSubmitting() bool { return s.Phase == PhaseSubmitting }

// IsConfirming reports whether the orchestrator waits for a receipt.
func (s State) IsConfirming() bool { return s.Phase == PhaseConfirming }

// IsBusy reports whether an action is in flight.
func (s State) IsBusy() bool { return s.Phase != PhaseIdle }

// Failed reports whether the last action ended in an error.
func (s State) Failed() bool { return s.Phase == PhaseIdle && s.Err != nil }

// Listener receives every state change, in order, on the goroutine that
// made it.
type Listener func(State)

// Tracker holds the state of one orchestrator and notifies listeners.
type Tracker struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	order     []int
	nextID    int
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{listeners: make(map[int]Listener)}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers l and returns a function that removes it.
func (t *Tracker) Subscribe(l Listener) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = l
	t.order = append(t.order, id)
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
		if i := slices.Index(t.order, id); i >= 0 {
			t.order = slices.Delete(t.order, i, i+1)
		}
	}
}

// enter moves to phase, clearing any previous error.
func (t *Tracker) enter(phase Phase) {
	t.publish(State{Phase: phase})
}

// finish returns to idle, recording err.
func (t *Tracker) finish(err error) {
	t.publish(State{Phase: PhaseIdle, Err: err})
}

func (t *Tracker) publish(s State) {
	t.mu.Lock()
	t.state = s
	ls := make([]Listener, 0, len(t.listeners))
	for _, id := range t.order {
		if l, ok := t.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	t.mu.Unlock()

	for _, l := range ls {
		l(s)
	}
}
