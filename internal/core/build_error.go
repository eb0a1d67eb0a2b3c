package core

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindValidation    ErrorKind = "validation"
	ErrKindPoisonPill    ErrorKind = "poison-pill"
	ErrKindTransaction   ErrorKind = "vcs-transaction"
	ErrKindMissingBranch ErrorKind = "missing-branch"
	ErrKindNativeGuard   ErrorKind = "native-guard"
	ErrKindOverride      ErrorKind = "override"
	ErrKindPackaging     ErrorKind = "packaging"
)

// BuildError is the construction failure of one project. Skippable is
// set when the caller asked for this kind of failure to drop the
// project instead of aborting.
type BuildError struct {
	Kind      ErrorKind
	Name      string
	Component string
	Skippable bool
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Kind, e.Component, e.Name, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// AsBuildError extracts a BuildError from err.
func AsBuildError(err error) (*BuildError, bool) {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr, true
	}
	return nil, false
}
