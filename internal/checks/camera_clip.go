package checks

import (
	"fmt"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// IDCameraClip is the id of the camera near-clip check.
const IDCameraClip = "camera_clip"

const (
	attrNearClip = "nearClipPlane"
	attrFarClip  = "farClipPlane"
)

var cameraClipOptions = []string{"min_near_clip", "max_near_clip", "safe_near_clip"}

type clipLimits struct {
	min  float64
	max  float64
	safe float64
}

// CameraClip flags cameras whose near clip plane is below the minimum, at or
// beyond the far plane (errors) or above the maximum (warning).
type CameraClip struct {
	base
}

// NewCameraClip builds the camera near-clip check.
func NewCameraClip(opts check.Options) *CameraClip {
	return &CameraClip{base{
		id:          IDCameraClip,
		label:       "Camera: near clip range",
		description: "Detects cameras whose near clip plane is too small, too large or beyond the far plane.",
		opts:        opts,
	}}
}

func (c *CameraClip) SupportsFix() bool { return true }

func (c *CameraClip) limits() (clipLimits, error) {
	var l clipLimits
	if err := check.RequireKnown(c.id, c.opts, cameraClipOptions...); err != nil {
		return l, err
	}
	var err error
	if l.min, err = c.opts.Float("min_near_clip"); err != nil {
		return l, c.fail("%v", err)
	}
	if l.max, err = c.opts.Float("max_near_clip"); err != nil {
		return l, c.fail("%v", err)
	}
	if l.safe, err = c.opts.Float("safe_near_clip"); err != nil {
		return l, c.fail("%v", err)
	}
	if l.min <= 0 || l.max < l.min {
		return l, c.fail("near clip limits [%s, %s] are invalid", formatFloat(l.min), formatFloat(l.max))
	}
	if l.safe < l.min || l.safe > l.max {
		return l, c.fail("safe_near_clip %s must lie within [%s, %s]", formatFloat(l.safe), formatFloat(l.min), formatFloat(l.max))
	}
	return l, nil
}

type clipReading struct {
	near float64
	far  float64
}

func readClip(sc scene.Accessor, ref scene.Ref) (clipReading, error) {
	near, err := scene.Float(sc, ref, attrNearClip)
	if err != nil {
		return clipReading{}, err
	}
	far, err := scene.Float(sc, ref, attrFarClip)
	if err != nil {
		return clipReading{}, err
	}
	return clipReading{near: near, far: far}, nil
}

// violation describes what is wrong with r, or returns ok=false.
func (l clipLimits) violation(r clipReading) (msg string, sev diag.Severity, ok bool) {
	switch {
	case r.near >= r.far:
		return fmt.Sprintf("near clip %s is not below far clip %s", formatFloat(r.near), formatFloat(r.far)), diag.SevError, true
	case r.near < l.min:
		return fmt.Sprintf("near clip %s is below the minimum %s", formatFloat(r.near), formatFloat(l.min)), diag.SevError, true
	case r.near > l.max:
		return fmt.Sprintf("near clip %s exceeds %s and will clip nearby geometry", formatFloat(r.near), formatFloat(l.max)), diag.SevWarning, true
	}
	return "", 0, false
}

func (c *CameraClip) Detect(sc scene.Accessor) ([]diag.Issue, error) {
	limits, err := c.limits()
	if err != nil {
		return nil, err
	}
	cams, err := sc.Nodes(scene.Filter{Types: []string{"camera"}})
	if err != nil {
		return nil, c.fail("list cameras: %v", err)
	}
	if len(cams) == 0 {
		return nil, c.fail("no camera in scene")
	}

	bag := diag.NewBag(0)
	for _, cam := range cams {
		info, err := sc.Node(cam)
		if err != nil {
			return nil, c.fail("resolve %s: %v", cam, err)
		}
		reading, err := readClip(sc, cam)
		if err != nil {
			return nil, c.fail("%s: %v", info.Name, err)
		}
		msg, sev, bad := limits.violation(reading)
		if !bad {
			continue
		}
		b := diag.NewIssue(bag, sev, c.id, fmt.Sprintf("%s: %s", info.Name, msg), withParent(sc, cam)...)
		if limits.safe < reading.far {
			b.WithFix(fmt.Sprintf("Set near clip to %s", formatFloat(limits.safe)), formatFloat(limits.safe))
		} else {
			b.ManualFix(fmt.Sprintf("Raise the far clip above %s by hand", formatFloat(limits.safe)))
		}
		b.Emit()
	}
	return bag.Items(), nil
}

func (c *CameraClip) Fix(sc scene.Accessor, is diag.Issue) (check.FixResult, error) {
	if err := check.EnsureFixable(c, is); err != nil {
		return check.FixResult{}, err
	}
	limits, err := c.limits()
	if err != nil {
		return check.FixResult{}, err
	}
	if len(is.Targets) == 0 || !sc.Exists(is.Targets[0]) {
		return check.FixResult{Stale: true, Message: "camera no longer exists"}, nil
	}
	cam := is.Targets[0]
	reading, err := readClip(sc, cam)
	if err != nil {
		return check.FixResult{}, err
	}
	if _, _, bad := limits.violation(reading); !bad {
		return check.FixResult{Stale: true, Message: "near clip is already within range"}, nil
	}
	if limits.safe >= reading.far {
		return check.FixResult{}, fmt.Errorf("safe near clip %s is not below far clip %s", formatFloat(limits.safe), formatFloat(reading.far))
	}
	if err := sc.SetAttr(cam, attrNearClip, limits.safe); err != nil {
		return check.FixResult{}, err
	}
	return check.FixResult{
		Changed: true,
		Message: fmt.Sprintf("near clip %s -> %s", formatFloat(reading.near), formatFloat(limits.safe)),
	}, nil
}
