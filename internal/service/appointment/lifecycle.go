package appointment

import (
	"errors"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown appointment status")
)

// TransitionError names the rejected status pair. It unwraps to
// ErrInvalidTransition.
type TransitionError struct {
	From model.AppointmentStatus
	To   model.AppointmentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change appointment status from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// transitions is the lifecycle table. Statuses missing from the map are terminal.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusCompleted,
	},
	model.AppointmentStatusInProgress: {
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	},
}

// ParseStatus converts raw input into a known status.
func ParseStatus(s string) (model.AppointmentStatus, error) {
	status := model.AppointmentStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.AppointmentStatus) bool {
	return len(transitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s in table order.
func AllowedTransitions(s model.AppointmentStatus) []model.AppointmentStatus {
	next := transitions[s]
	out := make([]model.AppointmentStatus, len(next))
	copy(out, next)
	return out
}

// Transition validates current -> target and returns target on success.
func Transition(current, target model.AppointmentStatus) (model.AppointmentStatus, error) {
	if !current.Valid() {
		return current, fmt.Errorf("%w: %q", ErrUnknownStatus, current)
	}
	if !target.Valid() {
		return current, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	for _, next := range transitions[current] {
		if next == target {
			return target, nil
		}
	}
	return current, &TransitionError{From: current, To: target}
}

// Apply moves apt to target. apt is untouched when the transition fails.
func Apply(apt *model.Appointment, target model.AppointmentStatus) error {
	next, err := Transition(apt.Status, target)
	if err != nil {
		return err
	}
	apt.Status = next
	return nil
}

// ApplyCancel cancels apt and attaches reason, which the lifecycle does not inspect.
func ApplyCancel(apt *model.Appointment, reason string) error {
	if err := Apply(apt, model.AppointmentStatusCancelled); err != nil {
		return err
	}
	apt.CancelReason = &reason
	return nil
}
