// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import (
	"time"

	"github.com/rs/zerolog/log"
)

// State is a paywall gate state.
type State int

const (
	StateChecking State = iota
	StateValid
	StateBlocked
	StateActivating
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateValid:
		return "valid"
	case StateBlocked:
		return "blocked"
	case StateActivating:
		return "activating"
	case StateExiting:
		return "exiting"
	}
	return "unknown"
}

// Event drives gate transitions.
type Event int

const (
	EventLicenseValid Event = iota
	EventLicenseInvalid
	EventActivateClicked
	EventExitClicked
	EventPromptCancelled
	EventActivationSucceeded
	EventActivationFailed
)

// Next is the gate's pure transition function. Unrecognized state/event
// pairs stay put.
func Next(s State, e Event) State {
	switch s {
	case StateChecking:
		if e == EventLicenseValid {
			return StateValid
		}
		if e == EventLicenseInvalid {
			return StateBlocked
		}
	case StateBlocked:
		if e == EventActivateClicked {
			return StateActivating
		}
		if e == EventExitClicked {
			return StateExiting
		}
	case StateActivating:
		if e == EventActivationSucceeded {
			return StateValid
		}
		if e == EventActivationFailed || e == EventPromptCancelled {
			return StateBlocked
		}
	}
	return s
}

// Prompter is the blocking decision surface the gate presents while the
// application is locked. Implementations own the actual UI; the gate only
// sequences them.
type Prompter interface {
	// Decide blocks until the user picks an action; it must return
	// EventActivateClicked or EventExitClicked.
	Decide() Event

	// AskEmail prompts for the activation email. ok is false when the
	// prompt was cancelled or left empty.
	AskEmail() (email string, ok bool)

	// NotifyActivated tells the user activation succeeded and the
	// process will restart.
	NotifyActivated()

	// NotifyFailed tells the user activation failed.
	NotifyFailed()
}

// ActivateFunc runs one activation attempt. Hosts wire in their full
// activation path here (audit trail included), not the bare Activator.
type ActivateFunc func(email string) bool

// ProcessController abstracts the two terminal actions so tests never kill
// their own process.
type ProcessController interface {
	// Restart relaunches the application; the fresh process picks up the
	// now-valid license. Does not return.
	Restart()

	// Exit terminates the process. Does not return.
	Exit()
}

const (
	// InitialCheckDelay runs the first validation slightly after startup
	// so the host application finishes initializing first.
	InitialCheckDelay = 2 * time.Second

	// RetryDelay is the pause before re-blocking after a failed or
	// cancelled activation attempt.
	RetryDelay = 500 * time.Millisecond
)

// Gate is the paywall state machine. When validation fails it loops between
// the blocked decision surface and the activation flow until the user either
// activates (process restarts) or exits.
type Gate struct {
	validator *Validator
	activate  ActivateFunc
	prompter  Prompter
	proc      ProcessController
	sleep     func(time.Duration)
	state     State
}

func NewGate(validator *Validator, activate ActivateFunc, prompter Prompter, proc ProcessController) *Gate {
	return &Gate{
		validator: validator,
		activate:  activate,
		prompter:  prompter,
		proc:      proc,
		sleep:     time.Sleep,
		state:     StateChecking,
	}
}

// Run drives the gate to a terminal state. It returns only when the license
// is valid; every other outcome goes through the ProcessController and does
// not come back.
func (g *Gate) Run() {
	g.sleep(InitialCheckDelay)

	if g.validator.Valid() {
		g.apply(EventLicenseValid)
		log.Debug().Msg("paywall gate: license valid, proceeding")
		return
	}
	g.apply(EventLicenseInvalid)

	for {
		switch g.state {
		case StateBlocked:
			g.apply(g.prompter.Decide())

		case StateActivating:
			g.apply(g.runActivation())

		case StateExiting:
			log.Info().Msg("paywall gate: user chose exit")
			g.proc.Exit()
			return

		case StateValid:
			// Reached via a successful activation: the design relies
			// on a restart to pick up the new state rather than
			// re-validating in place.
			g.prompter.NotifyActivated()
			g.proc.Restart()
			return
		}
	}
}

func (g *Gate) runActivation() Event {
	email, ok := g.prompter.AskEmail()
	if !ok {
		g.sleep(RetryDelay)
		return EventPromptCancelled
	}

	if g.activate(email) {
		return EventActivationSucceeded
	}

	g.prompter.NotifyFailed()
	g.sleep(RetryDelay)
	return EventActivationFailed
}

func (g *Gate) apply(e Event) {
	next := Next(g.state, e)
	if next != g.state {
		log.Debug().
			Stringer("from", g.state).
			Stringer("to", next).
			Msg("paywall gate transition")
	}
	g.state = next
}

// CurrentState exposes the gate state for tests and status reporting.
func (g *Gate) CurrentState() State { return g.state }
