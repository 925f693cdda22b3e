package checks

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// IDTimeUnit is the id of the scene frame rate check.
const IDTimeUnit = "time_unit"

var timeUnitOptions = []string{"fps"}

var namedUnits = []struct {
	name string
	fps  float64
}{
	{"game", 15},
	{"film", 24},
	{"pal", 25},
	{"ntsc", 30},
	{"show", 48},
	{"palf", 50},
	{"ntscf", 60},
}

// UnitFPS returns the frame rate of a time unit name such as "film" or "12fps".
func UnitFPS(unit string) (float64, bool) {
	for _, u := range namedUnits {
		if u.name == unit {
			return u.fps, true
		}
	}
	num, ok := strings.CutSuffix(unit, "fps")
	if !ok {
		return 0, false
	}
	fps, err := strconv.ParseFloat(num, 64)
	if err != nil || fps <= 0 || math.IsInf(fps, 0) || math.IsNaN(fps) {
		return 0, false
	}
	return fps, true
}

// UnitFor returns the canonical time unit name for fps.
func UnitFor(fps float64) string {
	for _, u := range namedUnits {
		if u.fps == fps {
			return u.name
		}
	}
	return formatFloat(fps) + "fps"
}

// TimeUnit flags a scene whose frame rate differs from the target.
type TimeUnit struct {
	base
}

// NewTimeUnit builds the frame rate check.
func NewTimeUnit(opts check.Options) *TimeUnit {
	return &TimeUnit{base{
		id:          IDTimeUnit,
		label:       "Scene: frame rate",
		description: "Detects a scene time unit that differs from the project frame rate.",
		opts:        opts,
	}}
}

func (c *TimeUnit) SupportsFix() bool { return true }

func (c *TimeUnit) targetFPS() (float64, error) {
	if err := check.RequireKnown(c.id, c.opts, timeUnitOptions...); err != nil {
		return 0, err
	}
	fps, err := c.opts.Float("fps")
	if err != nil {
		return 0, c.fail("%v", err)
	}
	if fps <= 0 || math.IsInf(fps, 0) || math.IsNaN(fps) {
		return 0, c.fail("fps %s must be a positive number", formatFloat(fps))
	}
	return fps, nil
}

func (c *TimeUnit) sceneFPS(sc scene.Accessor) (string, float64, error) {
	unit, err := sc.TimeUnit()
	if err != nil {
		return "", 0, c.fail("read time unit: %v", err)
	}
	fps, ok := UnitFPS(unit)
	if !ok {
		return unit, 0, c.fail("unrecognized scene time unit %q", unit)
	}
	return unit, fps, nil
}

func (c *TimeUnit) Detect(sc scene.Accessor) ([]diag.Issue, error) {
	target, err := c.targetFPS()
	if err != nil {
		return nil, err
	}
	unit, fps, err := c.sceneFPS(sc)
	if err != nil {
		return nil, err
	}
	if fps == target {
		return nil, nil
	}

	want := UnitFor(target)
	bag := diag.NewBag(0)
	b := diag.ReportError(bag, c.id, fmt.Sprintf("scene runs at %s fps (%s), expected %s fps", formatFloat(fps), unit, formatFloat(target))).
		WithFix(fmt.Sprintf("Set time unit to %s", want), want)
	curves, err := keyedCurves(sc)
	if err != nil {
		return nil, c.fail("%v", err)
	}
	if len(curves) > 0 {
		b.WithNote("", keyShiftWarning(len(curves)))
	}
	b.Emit()
	return bag.Items(), nil
}

func (c *TimeUnit) Fix(sc scene.Accessor, is diag.Issue) (check.FixResult, error) {
	if err := check.EnsureFixable(c, is); err != nil {
		return check.FixResult{}, err
	}
	target, err := c.targetFPS()
	if err != nil {
		return check.FixResult{}, err
	}
	unit, fps, err := c.sceneFPS(sc)
	if err != nil {
		return check.FixResult{}, err
	}
	if fps == target {
		return check.FixResult{Stale: true, Message: fmt.Sprintf("time unit is already %s", unit)}, nil
	}

	want := UnitFor(target)
	var warnings []string
	curves, err := keyedCurves(sc)
	if err != nil {
		return check.FixResult{}, err
	}
	if len(curves) > 0 {
		warnings = append(warnings, keyShiftWarning(len(curves)))
	}
	if err := sc.SetTimeUnit(want); err != nil {
		return check.FixResult{}, fmt.Errorf("set time unit %s: %w", want, err)
	}
	return check.FixResult{
		Changed:  true,
		Message:  fmt.Sprintf("time unit %s -> %s", unit, want),
		Warnings: warnings,
	}, nil
}

func keyShiftWarning(curves int) string {
	return fmt.Sprintf("%d animation curve(s) have keys; changing the time unit shifts their timing", curves)
}

// keyedCurves lists animation curves carrying at least one key.
func keyedCurves(sc scene.Accessor) ([]scene.Ref, error) {
	refs, err := sc.Nodes(scene.Filter{Types: []string{animCurveTypes}})
	if err != nil {
		return nil, fmt.Errorf("list animation curves: %w", err)
	}
	var out []scene.Ref
	for _, ref := range refs {
		keys, err := scene.Floats(sc, ref, attrKeyTimes)
		if errors.Is(err, scene.ErrNoAttr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			out = append(out, ref)
		}
	}
	return out, nil
}
