package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidGrant       = errors.New("invalid grant")
	ErrPartialConsistency = errors.New("partial consistency")
)

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ForbiddenError reports a failed capability check. It is always raised
// before anything is written.
type ForbiddenError struct {
	Action string
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "not allowed to " + e.Action
	}
	return fmt.Sprintf("not allowed to %s: %s", e.Action, e.Reason)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

type InvalidGrantError struct {
	Reason string
}

func (e *InvalidGrantError) Error() string {
	return "invalid share: " + e.Reason
}

func (e *InvalidGrantError) Is(target error) bool {
	return target == ErrInvalidGrant
}

// PartialConsistencyWarning accompanies a result when a multi-record write
// succeeded only in part. Failures lists the steps that did not go through;
// the reconcile sweep repairs what they left behind.
type PartialConsistencyWarning struct {
	Operation string
	Failures  []error
}

func (w *PartialConsistencyWarning) Error() string {
	msgs := make([]string, 0, len(w.Failures))
	for _, f := range w.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s partially applied: %s", w.Operation, strings.Join(msgs, "; "))
}

func (w *PartialConsistencyWarning) Is(target error) bool {
	return target == ErrPartialConsistency
}

func (w *PartialConsistencyWarning) Unwrap() []error {
	return w.Failures
}

// IsWarning reports whether err only signals a partially applied write, in
// which case the accompanying result is still valid.
func IsWarning(err error) bool {
	var w *PartialConsistencyWarning
	return errors.As(err, &w)
}

func notFound(kind string, id fmt.Stringer) error {
	return &NotFoundError{Kind: kind, ID: id.String()}
}

func forbidden(action, reason string) error {
	return &ForbiddenError{Action: action, Reason: reason}
}
