package checks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// IDImagePlane is the id of the image plane connection check.
const IDImagePlane = "image_plane"

const attrMessage = "message"

var imagePlaneOptions = []string{"camera", "attribute"}

// ImagePlane flags image planes that do not feed exactly one element of the
// expected camera attribute, and rewires them.
type ImagePlane struct {
	base
}

// NewImagePlane builds the image plane connection check.
func NewImagePlane(opts check.Options) *ImagePlane {
	return &ImagePlane{base{
		id:          IDImagePlane,
		label:       "Camera: image plane connections",
		description: "Detects image planes that are unconnected, wired to the wrong camera, or connected more than once.",
		opts:        opts,
	}}
}

func (c *ImagePlane) SupportsFix() bool { return true }

type planeTarget struct {
	camera scene.Ref
	name   string
	attr   string
}

func (t planeTarget) String() string {
	return t.name + "." + t.attr
}

func (c *ImagePlane) target(sc scene.Accessor) (planeTarget, error) {
	if err := check.RequireKnown(c.id, c.opts, imagePlaneOptions...); err != nil {
		return planeTarget{}, err
	}
	pattern, err := c.opts.String("camera")
	if err != nil {
		return planeTarget{}, c.fail("%v", err)
	}
	attr, err := c.opts.String("attribute")
	if err != nil {
		return planeTarget{}, c.fail("%v", err)
	}
	if pattern == "" || attr == "" {
		return planeTarget{}, c.fail("options %q and %q must not be empty", "camera", "attribute")
	}
	cams, err := sc.Nodes(scene.Filter{Types: []string{"camera"}, Name: pattern})
	if err != nil {
		return planeTarget{}, c.fail("list cameras: %v", err)
	}
	switch len(cams) {
	case 0:
		return planeTarget{}, c.fail("no camera matches %q", pattern)
	case 1:
	default:
		names := make([]string, 0, len(cams))
		for _, cam := range cams {
			if info, err := sc.Node(cam); err == nil {
				names = append(names, info.Name)
			}
		}
		return planeTarget{}, c.fail("camera pattern %q is ambiguous: %s", pattern, strings.Join(names, ", "))
	}
	info, err := sc.Node(cams[0])
	if err != nil {
		return planeTarget{}, c.fail("resolve %s: %v", cams[0], err)
	}
	return planeTarget{camera: cams[0], name: info.Name, attr: attr}, nil
}

type planeWiring struct {
	correct []scene.Connection
	wrong   []scene.Connection
}

func (t planeTarget) wiring(sc scene.Accessor, plane scene.Ref) (planeWiring, error) {
	var w planeWiring
	conns, err := sc.Connections(plane)
	if err != nil {
		return w, err
	}
	for _, conn := range conns {
		if conn.Src.Node != plane || conn.Src.Attr != attrMessage {
			continue
		}
		if conn.Dst.Node == t.camera && scene.BaseAttr(conn.Dst.Attr) == t.attr {
			w.correct = append(w.correct, conn)
		} else {
			w.wrong = append(w.wrong, conn)
		}
	}
	return w, nil
}

func (w planeWiring) ok() bool {
	return len(w.correct) == 1 && len(w.wrong) == 0
}

func (c *ImagePlane) Detect(sc scene.Accessor) ([]diag.Issue, error) {
	target, err := c.target(sc)
	if err != nil {
		return nil, err
	}
	planes, err := sc.Nodes(scene.Filter{Types: []string{"imagePlane"}})
	if err != nil {
		return nil, c.fail("list image planes: %v", err)
	}

	bag := diag.NewBag(0)
	for _, plane := range planes {
		info, err := sc.Node(plane)
		if err != nil {
			return nil, c.fail("resolve %s: %v", plane, err)
		}
		w, err := target.wiring(sc, plane)
		if err != nil {
			return nil, c.fail("%s: %v", info.Name, err)
		}
		if w.ok() {
			continue
		}
		var msg string
		switch {
		case len(w.wrong) > 0:
			msg = fmt.Sprintf("image plane %q feeds %s instead of %s", info.Name, describePlugs(sc, w.wrong), target)
		case len(w.correct) == 0:
			msg = fmt.Sprintf("image plane %q is not connected to %s", info.Name, target)
		default:
			msg = fmt.Sprintf("image plane %q is connected to %s %d times", info.Name, target, len(w.correct))
		}
		diag.ReportError(bag, c.id, msg, plane, target.camera).
			WithFix(fmt.Sprintf("Reconnect to %s", target), target.String()).
			Emit()
	}
	return bag.Items(), nil
}

func (c *ImagePlane) Fix(sc scene.Accessor, is diag.Issue) (check.FixResult, error) {
	if err := check.EnsureFixable(c, is); err != nil {
		return check.FixResult{}, err
	}
	if len(is.Targets) == 0 || !sc.Exists(is.Targets[0]) {
		return check.FixResult{Stale: true, Message: "image plane no longer exists"}, nil
	}
	plane := is.Targets[0]
	target, err := c.target(sc)
	if err != nil {
		return check.FixResult{}, err
	}
	w, err := target.wiring(sc, plane)
	if err != nil {
		return check.FixResult{}, err
	}
	if w.ok() {
		return check.FixResult{Stale: true, Message: "image plane is already connected"}, nil
	}

	for _, conn := range w.wrong {
		if err := sc.Disconnect(conn.Src, conn.Dst); err != nil {
			return check.FixResult{}, err
		}
	}
	if len(w.correct) > 1 {
		for _, conn := range w.correct[1:] {
			if err := sc.Disconnect(conn.Src, conn.Dst); err != nil {
				return check.FixResult{}, err
			}
		}
	}
	msg := fmt.Sprintf("removed %d stray connection(s)", len(w.wrong)+max(len(w.correct)-1, 0))
	if len(w.correct) == 0 {
		idx, err := freeIndex(sc, target)
		if err != nil {
			return check.FixResult{}, err
		}
		dst := scene.Plug{Node: target.camera, Attr: scene.IndexedAttr(target.attr, idx)}
		if err := sc.Connect(scene.Plug{Node: plane, Attr: attrMessage}, dst); err != nil {
			return check.FixResult{}, err
		}
		msg = fmt.Sprintf("%s; connected to %s[%d]", msg, target, idx)
	}
	return check.FixResult{Changed: true, Message: msg}, nil
}

// freeIndex returns the first unused element index of the camera attribute.
func freeIndex(sc scene.Accessor, t planeTarget) (int, error) {
	conns, err := sc.Connections(t.camera)
	if err != nil {
		return 0, err
	}
	used := make(map[int]bool)
	for _, conn := range conns {
		if conn.Dst.Node != t.camera || scene.BaseAttr(conn.Dst.Attr) != t.attr {
			continue
		}
		if idx, ok := attrIndex(conn.Dst.Attr); ok {
			used[idx] = true
		}
	}
	for i := 0; ; i++ {
		if !used[i] {
			return i, nil
		}
	}
}

func attrIndex(attr string) (int, bool) {
	open := strings.IndexByte(attr, '[')
	if open < 0 || !strings.HasSuffix(attr, "]") {
		return 0, false
	}
	idx, err := strconv.Atoi(attr[open+1 : len(attr)-1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

func describePlugs(sc scene.Accessor, conns []scene.Connection) string {
	parts := make([]string, 0, len(conns))
	for _, conn := range conns {
		name := string(conn.Dst.Node)
		if info, err := sc.Node(conn.Dst.Node); err == nil {
			name = info.Name
		}
		parts = append(parts, name+"."+conn.Dst.Attr)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
