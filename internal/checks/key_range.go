package checks

import (
	"errors"
	"fmt"
	"math"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// IDKeyRange is the id of the out-of-range keyframe check.
const IDKeyRange = "key_range"

const (
	animCurveTypes = "animCurve*"
	attrKeyTimes   = "keyTimes"
	attrOutput     = "output"
	maxListedKeys  = 5
)

var keyRangeOptions = []string{"handle_frames"}

// KeyRange flags animation curves with keys outside the playback range.
// Moving keys changes the animation, so it is detect-only.
type KeyRange struct {
	base
}

// NewKeyRange builds the keyframe range check.
func NewKeyRange(opts check.Options) *KeyRange {
	return &KeyRange{base{
		id:          IDKeyRange,
		label:       "Animation: keys outside playback range",
		description: "Detects animation keys that fall outside the playback range plus handle frames.",
		opts:        opts,
	}}
}

func (c *KeyRange) SupportsFix() bool { return false }

func (c *KeyRange) handles() (float64, error) {
	if err := check.RequireKnown(c.id, c.opts, keyRangeOptions...); err != nil {
		return 0, err
	}
	h, err := c.opts.Float("handle_frames")
	if err != nil {
		return 0, c.fail("%v", err)
	}
	if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, c.fail("handle_frames %s must be a non-negative number", formatFloat(h))
	}
	return h, nil
}

func (c *KeyRange) Detect(sc scene.Accessor) ([]diag.Issue, error) {
	handles, err := c.handles()
	if err != nil {
		return nil, err
	}
	rng, err := sc.PlaybackRange()
	if err != nil {
		return nil, c.fail("read playback range: %v", err)
	}
	curves, err := sc.Nodes(scene.Filter{Types: []string{animCurveTypes}})
	if err != nil {
		return nil, c.fail("list animation curves: %v", err)
	}

	bag := diag.NewBag(0)
	for _, curve := range curves {
		keys, err := scene.Floats(sc, curve, attrKeyTimes)
		if errors.Is(err, scene.ErrNoAttr) {
			continue
		}
		if err != nil {
			return nil, c.fail("%v", err)
		}
		var outside []float64
		for _, k := range keys {
			if !rng.Contains(k, handles) {
				outside = append(outside, k)
			}
		}
		if len(outside) == 0 {
			continue
		}
		info, err := sc.Node(curve)
		if err != nil {
			return nil, c.fail("resolve %s: %v", curve, err)
		}
		targets, err := drivenBy(sc, curve)
		if err != nil {
			return nil, c.fail("%s: %v", info.Name, err)
		}
		msg := fmt.Sprintf("curve %q has %d key(s) outside [%s, %s]: %s",
			info.Name, len(outside),
			formatFloat(rng.Min-handles), formatFloat(rng.Max+handles),
			formatFrames(outside, maxListedKeys))
		diag.ReportWarning(bag, c.id, msg, targets...).
			ManualFix("Move or delete the keys, or widen the playback range").
			Emit()
	}
	return bag.Items(), nil
}

func (c *KeyRange) Fix(_ scene.Accessor, is diag.Issue) (check.FixResult, error) {
	if err := check.EnsureFixable(c, is); err != nil {
		return check.FixResult{}, err
	}
	return check.FixResult{}, fmt.Errorf("%w: check %q is detect-only", check.ErrUnfixable, c.id)
}

// drivenBy returns curve followed by the nodes its output drives.
func drivenBy(sc scene.Accessor, curve scene.Ref) ([]scene.Ref, error) {
	conns, err := sc.Connections(curve)
	if err != nil {
		return nil, err
	}
	out := []scene.Ref{curve}
	seen := map[scene.Ref]bool{curve: true}
	for _, conn := range conns {
		if conn.Src.Node != curve || conn.Src.Attr != attrOutput || seen[conn.Dst.Node] {
			continue
		}
		seen[conn.Dst.Node] = true
		out = append(out, conn.Dst.Node)
	}
	return out, nil
}
