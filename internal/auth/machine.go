// Package auth tracks per-service authentication progress as an explicit
// state machine. Exactly one machine exists per service; the view
// container owns them and serializes access.
package auth

import (
	"errors"
	"fmt"
	"slices"
)

// Step enumerates the authentication steps.
type Step string

const (
	StepIdle          Step = "idle"
	StepQR            Step = "qr"
	StepPhonePending  Step = "phone_pending"
	StepCodePending   Step = "code_pending"
	StepAuthenticated Step = "authenticated"
)

// State is the tagged auth variant: Step discriminates which of the
// payload fields is meaningful.
type State struct {
	Step      Step
	QRCode    string // set when Step == StepQR
	PhoneHint string // set when Step == StepCodePending
	User      string // set when Step == StepAuthenticated
}

// Idle returns the initial state.
func Idle() State { return State{Step: StepIdle} }

// QR returns the state showing a scannable code. A fresh code replaces a
// stale one through the re-entrant qr -> qr edge; expiry is signaled by
// the bridge with a new auth.qr event, never by a local timer.
func QR(code string) State { return State{Step: StepQR, QRCode: code} }

// PhonePending returns the state waiting for the user's phone number.
func PhonePending() State { return State{Step: StepPhonePending} }

// CodePending returns the state waiting for the verification code sent to
// the hinted phone.
func CodePending(phoneHint string) State {
	return State{Step: StepCodePending, PhoneHint: phoneHint}
}

// Authenticated returns the terminal state. It is exited only through
// Reset, never through another auth event.
func Authenticated(user string) State {
	return State{Step: StepAuthenticated, User: user}
}

// ErrInvalidTransition is returned when an auth event arrives in a step
// that has no edge for it. The caller drops the event; state is unchanged.
var ErrInvalidTransition = errors.New("invalid auth transition")

// validTransitions defines the allowed step edges. The reset edge
// (any -> idle) is separate: it is driven by a status event, not by auth
// progress, and goes through Reset.
var validTransitions = map[Step][]Step{
	StepIdle:          {StepQR, StepPhonePending},
	StepQR:            {StepQR, StepAuthenticated},
	StepPhonePending:  {StepCodePending},
	StepCodePending:   {StepCodePending, StepAuthenticated},
	StepAuthenticated: {},
}

// Machine tracks and enforces one service's auth progress. Not safe for
// concurrent use on its own.
type Machine struct {
	current State
}

// NewMachine creates a machine starting at idle.
func NewMachine() *Machine {
	return &Machine{current: Idle()}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// Apply attempts to move to the next state. Returns ErrInvalidTransition
// (wrapped) and leaves the state unchanged if no edge allows it.
func (m *Machine) Apply(next State) error {
	allowed := validTransitions[m.current.Step]
	if !slices.Contains(allowed, next.Step) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current.Step, next.Step)
	}
	m.current = next
	return nil
}

// Reset moves back to idle from any step. Triggered when a status event
// reports auth_needed for a previously authenticated service (session
// invalidated, re-authentication required).
func (m *Machine) Reset() {
	m.current = Idle()
}
