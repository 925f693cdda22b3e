package scene

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a reference no longer resolves to a node.
var ErrNotFound = errors.New("scene: node not found")

// ErrNoAttr is returned when a node has no attribute with the requested name.
var ErrNoAttr = errors.New("scene: no such attribute")

// Ref is an opaque handle to a scene node. It is only meaningful to the
// Accessor that produced it and stays stable across renames.
type Ref string

// Plug addresses one attribute on a node, e.g. "camShape.imagePlane[0]".
type Plug struct {
	Node Ref
	Attr string
}

func (p Plug) String() string {
	return fmt.Sprintf("%s.%s", p.Node, p.Attr)
}

// Connection is a directed attribute edge Src -> Dst.
type Connection struct {
	Src Plug
	Dst Plug
}

// Filter narrows node enumeration. Empty fields match everything.
// Name is a path.Match style glob applied to the short name.
type Filter struct {
	Types []string
	Name  string
}

// NodeInfo describes a node at the time it was resolved.
type NodeInfo struct {
	Ref    Ref
	Name   string
	Path   string
	Type   string
	Parent Ref
}

// Range is an inclusive frame range.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether frame lies within r extended by pad on both sides.
func (r Range) Contains(frame, pad float64) bool {
	return frame >= r.Min-pad && frame <= r.Max+pad
}

// Accessor is the only channel through which checks read and mutate a scene.
//
// Implementations wrap a host application (or an in-memory document) and must
// return ErrNotFound (possibly wrapped) for references that no longer exist.
type Accessor interface {
	// Nodes enumerates node references in a stable order.
	Nodes(f Filter) ([]Ref, error)
	Exists(ref Ref) bool
	Node(ref Ref) (NodeInfo, error)

	Attr(ref Ref, name string) (any, error)
	SetAttr(ref Ref, name string, value any) error
	Rename(ref Ref, name string) error

	// Connections lists every edge touching ref, on either side.
	Connections(ref Ref) ([]Connection, error)
	Connect(src, dst Plug) error
	Disconnect(src, dst Plug) error

	TimeUnit() (string, error)
	SetTimeUnit(unit string) error
	PlaybackRange() (Range, error)

	// Select replaces the host selection with refs.
	Select(refs []Ref) error
}

// BaseAttr strips a multi-attribute index: "imagePlane[2]" -> "imagePlane".
func BaseAttr(attr string) string {
	if i := strings.IndexByte(attr, '['); i >= 0 {
		return attr[:i]
	}
	return attr
}

// IndexedAttr formats a multi-attribute element name.
func IndexedAttr(attr string, idx int) string {
	return fmt.Sprintf("%s[%d]", attr, idx)
}
