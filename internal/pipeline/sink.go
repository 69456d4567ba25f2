package pipeline

import (
	"errors"

	"github.com/strrl/distcurve/internal/signals"
)

// MultiSink fans every call out to its sinks in order.
type MultiSink []signals.CurveSink

func (m MultiSink) BeginEdit(label string) {
	for _, s := range m {
		s.BeginEdit(label)
	}
}

// EnsureCurve reports true only when every sink can take the curve.
func (m MultiSink) EnsureCurve(name string) (bool, error) {
	ok := true
	for _, s := range m {
		created, err := s.EnsureCurve(name)
		if err != nil {
			return false, err
		}
		ok = ok && created
	}
	return ok, nil
}

// ReplaceCurveKeys writes to every sink even if some fail, so one broken
// sink does not leave the others on different keys.
func (m MultiSink) ReplaceCurveKeys(name string, keys []signals.CurveKey) error {
	var errs []error
	for _, s := range m {
		if err := s.ReplaceCurveKeys(name, keys); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EndEdit closes every sink even if some fail.
func (m MultiSink) EndEdit() error {
	var errs []error
	for _, s := range m {
		if err := s.EndEdit(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
