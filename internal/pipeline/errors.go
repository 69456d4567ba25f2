package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAnimation   = errors.New("invalid animation")
	ErrRootMotionDisabled = errors.New("root motion is disabled")
	ErrInvalidSkeleton    = errors.New("invalid skeleton")
	ErrBoneNotFound       = errors.New("bone not found")
	ErrInvalidSettings    = errors.New("invalid settings")
)

// PreconditionError reports why a clip cannot be baked. Err is one of the
// sentinels above.
type PreconditionError struct {
	Asset  string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Asset == "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Asset, e.Err, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(asset string, err error, format string, args ...any) *PreconditionError {
	return &PreconditionError{
		Asset:  asset,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}
