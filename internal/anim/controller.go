package anim

import (
	"fmt"
	"strings"

	"github.com/strrl/distcurve/internal/signals"
)

// Controller edits a clip's float curves in place. It satisfies
// signals.CurveSink and signals.CurveRemover.
type Controller struct {
	clip   *Clip
	depth  int
	label  string
	edited []string
}

func (c *Clip) Controller() *Controller {
	return &Controller{clip: c}
}

func (ctl *Controller) BeginEdit(label string) {
	if ctl.depth == 0 {
		ctl.label = label
		ctl.edited = nil
	}
	ctl.depth++
}

func (ctl *Controller) EnsureCurve(name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("curve name is empty")
	}
	if _, ok := ctl.clip.Curve(name); ok {
		return true, nil
	}
	ctl.clip.Curves = append(ctl.clip.Curves, FloatCurve{Name: name})
	return true, nil
}

func (ctl *Controller) ReplaceCurveKeys(name string, keys []signals.CurveKey) error {
	if ctl.depth == 0 {
		return fmt.Errorf("replace keys of %q outside of an edit", name)
	}
	curve, ok := ctl.clip.Curve(name)
	if !ok {
		return fmt.Errorf("curve %q does not exist on %s", name, ctl.clip.Name)
	}
	curve.Keys = append([]signals.CurveKey(nil), keys...)
	ctl.edited = append(ctl.edited, curve.Name)
	return nil
}

func (ctl *Controller) EndEdit() error {
	if ctl.depth == 0 {
		return fmt.Errorf("end edit without a matching begin")
	}
	ctl.depth--
	return nil
}

// RemoveCurve drops the curve if present; removing a missing curve is not an error.
func (ctl *Controller) RemoveCurve(name string) error {
	curves := ctl.clip.Curves[:0]
	for _, curve := range ctl.clip.Curves {
		if !strings.EqualFold(curve.Name, name) {
			curves = append(curves, curve)
		}
	}
	ctl.clip.Curves = curves
	return nil
}

// Label is the label of the outermost edit in progress or last completed.
func (ctl *Controller) Label() string {
	return ctl.label
}

// Edited lists curves whose keys changed during the current or last edit.
func (ctl *Controller) Edited() []string {
	return ctl.edited
}
