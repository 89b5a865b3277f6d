package types

import (
	"time"

	"github.com/brightpath/learning-core/internal/lcerr"
)

// Status transition graphs. Each entity with a status enforces a directed,
// no-cycle graph (Task allows the one documented completed->active retry
// edge; Track allows active<->paused). Anything not listed fails with
// invalid_transition and leaves the entity untouched.

var programTransitions = map[ProgramStatus][]ProgramStatus{
	ProgramDraft:      {ProgramInProgress, ProgramAbandoned},
	ProgramInProgress: {ProgramCompleted, ProgramAbandoned},
	ProgramCompleted:  {},
	ProgramAbandoned:  {},
}

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending: {TaskActive},
	TaskActive:  {TaskCompleted},
	// Re-activating a completed Task (retry) is permitted; prior
	// Evaluations are kept, history is additive.
	TaskCompleted: {TaskActive},
}

var trackTransitions = map[TrackStatus][]TrackStatus{
	TrackActive:    {TrackPaused, TrackCompleted, TrackAbandoned},
	TrackPaused:    {TrackActive, TrackCompleted, TrackAbandoned},
	TrackCompleted: {},
	TrackAbandoned: {},
}

func transitionAllowed[S comparable](graph map[S][]S, from, to S) bool {
	for _, next := range graph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanProgramTransition reports whether from -> to is a legal Program move.
func CanProgramTransition(from, to ProgramStatus) bool {
	return transitionAllowed(programTransitions, from, to)
}

func CanTaskTransition(from, to TaskStatus) bool {
	return transitionAllowed(taskTransitions, from, to)
}

func CanTrackTransition(from, to TrackStatus) bool {
	return transitionAllowed(trackTransitions, from, to)
}

// TransitionTo moves the Program to the given status, stamping UpdatedAt,
// LastActivityAt and CompletedAt as a single in-memory mutation. The caller
// persists the whole entity afterwards, so concurrent readers never see a
// partially applied transition.
func (p *Program) TransitionTo(status ProgramStatus, now time.Time) error {
	if !CanProgramTransition(p.Status, status) {
		return lcerr.Newf(lcerr.CodeInvalidTransition, "program.transition",
			"cannot transition program from %q to %q", p.Status, status)
	}
	p.Status = status
	p.UpdatedAt = now
	p.LastActivityAt = now
	if status == ProgramCompleted {
		completed := now
		p.CompletedAt = &completed
	}
	return nil
}

func (t *Task) TransitionTo(status TaskStatus, now time.Time) error {
	if !CanTaskTransition(t.Status, status) {
		return lcerr.Newf(lcerr.CodeInvalidTransition, "task.transition",
			"cannot transition task from %q to %q", t.Status, status)
	}
	t.Status = status
	t.UpdatedAt = now
	return nil
}

func (t *Track) TransitionTo(status TrackStatus, now time.Time) error {
	if !CanTrackTransition(t.Status, status) {
		return lcerr.Newf(lcerr.CodeInvalidTransition, "track.transition",
			"cannot transition track from %q to %q", t.Status, status)
	}
	t.Status = status
	t.UpdatedAt = now
	t.LastActivityAt = now
	return nil
}
