// Package memscene is an in-memory scene graph implementing scene.Accessor.
//
// It backs the command line host (scenes are loaded from and saved to YAML,
// JSON or msgpack documents) and serves as the fixture scene in tests.
package memscene

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"scenecheck/internal/scene"
)

// Attrs is a convenience alias for node attribute literals.
type Attrs map[string]any

type node struct {
	id     scene.Ref
	name   string
	typ    string
	parent scene.Ref
	attrs  map[string]any
}

// Scene is a mutable scene graph. It is safe for concurrent use.
type Scene struct {
	mu        sync.RWMutex
	nodes     map[scene.Ref]*node
	order     []scene.Ref
	conns     []scene.Connection
	timeUnit  string
	playback  scene.Range
	selection []scene.Ref
}

var _ scene.Accessor = (*Scene)(nil)

// New returns an empty scene at 24 fps with a 1-100 playback range.
func New() *Scene {
	return &Scene{
		nodes:    make(map[scene.Ref]*node),
		timeUnit: "film",
		playback: scene.Range{Min: 1, Max: 100},
	}
}

// AddNode creates a node and returns its reference. The reference equals the
// name unless that is already taken, in which case a "#n" suffix is appended.
func (s *Scene) AddNode(name, typ string, parent scene.Ref, attrs Attrs) scene.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := scene.Ref(name)
	for n := 2; ; n++ {
		if _, taken := s.nodes[id]; !taken && id != "" {
			break
		}
		id = scene.Ref(fmt.Sprintf("%s#%d", name, n))
	}
	s.insertLocked(id, name, typ, parent, attrs)
	return id
}

func (s *Scene) insertLocked(id scene.Ref, name, typ string, parent scene.Ref, attrs Attrs) {
	n := &node{id: id, name: name, typ: typ, parent: parent, attrs: make(map[string]any, len(attrs))}
	for k, v := range attrs {
		n.attrs[k] = v
	}
	s.nodes[id] = n
	s.order = append(s.order, id)
}

// Delete removes a node, its descendants and every connection touching them.
func (s *Scene) Delete(ref scene.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[ref]; !ok {
		return fmt.Errorf("delete %s: %w", ref, scene.ErrNotFound)
	}
	doomed := map[scene.Ref]bool{ref: true}
	for changed := true; changed; {
		changed = false
		for id, n := range s.nodes {
			if !doomed[id] && doomed[n.parent] {
				doomed[id] = true
				changed = true
			}
		}
	}
	order := s.order[:0]
	for _, id := range s.order {
		if doomed[id] {
			delete(s.nodes, id)
			continue
		}
		order = append(order, id)
	}
	s.order = order

	conns := s.conns[:0]
	for _, c := range s.conns {
		if doomed[c.Src.Node] || doomed[c.Dst.Node] {
			continue
		}
		conns = append(conns, c)
	}
	s.conns = conns

	sel := s.selection[:0]
	for _, id := range s.selection {
		if !doomed[id] {
			sel = append(sel, id)
		}
	}
	s.selection = sel
	return nil
}

// SetPlaybackRange sets the scene playback range.
func (s *Scene) SetPlaybackRange(minFrame, maxFrame float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback = scene.Range{Min: minFrame, Max: maxFrame}
}

// Selection returns the current selection.
func (s *Scene) Selection() []scene.Ref {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]scene.Ref(nil), s.selection...)
}

// Lookup finds the first node with the given short name.
func (s *Scene) Lookup(name string) (scene.Ref, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if s.nodes[id].name == name {
			return id, true
		}
	}
	return "", false
}

func (s *Scene) Nodes(f scene.Filter) ([]scene.Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scene.Ref, 0, len(s.order))
	for _, id := range s.order {
		n := s.nodes[id]
		ok, err := matches(f, n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func matches(f scene.Filter, n *node) (bool, error) {
	if f.Name != "" {
		ok, err := path.Match(f.Name, n.name)
		if err != nil {
			return false, fmt.Errorf("name filter %q: %w", f.Name, err)
		}
		if !ok {
			return false, nil
		}
	}
	if len(f.Types) == 0 {
		return true, nil
	}
	for _, pattern := range f.Types {
		ok, err := path.Match(pattern, n.typ)
		if err != nil {
			return false, fmt.Errorf("type filter %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scene) Exists(ref scene.Ref) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[ref]
	return ok
}

func (s *Scene) Node(ref scene.Ref) (scene.NodeInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[ref]
	if !ok {
		return scene.NodeInfo{}, fmt.Errorf("%s: %w", ref, scene.ErrNotFound)
	}
	return scene.NodeInfo{
		Ref:    n.id,
		Name:   n.name,
		Path:   s.pathLocked(n),
		Type:   n.typ,
		Parent: n.parent,
	}, nil
}

func (s *Scene) pathLocked(n *node) string {
	parts := []string{n.name}
	seen := map[scene.Ref]bool{n.id: true}
	for p := n.parent; p != ""; {
		pn, ok := s.nodes[p]
		if !ok || seen[p] {
			break
		}
		seen[p] = true
		parts = append(parts, pn.name)
		p = pn.parent
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('|')
		b.WriteString(parts[i])
	}
	return b.String()
}

func (s *Scene) Attr(ref scene.Ref, name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, scene.ErrNotFound)
	}
	v, ok := n.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", n.name, name, scene.ErrNoAttr)
	}
	if floats, ok := v.([]float64); ok {
		return append([]float64(nil), floats...), nil
	}
	return v, nil
}

func (s *Scene) SetAttr(ref scene.Ref, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[ref]
	if !ok {
		return fmt.Errorf("%s: %w", ref, scene.ErrNotFound)
	}
	n.attrs[name] = value
	return nil
}

func (s *Scene) Rename(ref scene.Ref, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[ref]
	if !ok {
		return fmt.Errorf("%s: %w", ref, scene.ErrNotFound)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("rename %s: empty name", n.name)
	}
	for _, id := range s.order {
		other := s.nodes[id]
		if id != ref && other.parent == n.parent && other.name == name {
			return fmt.Errorf("rename %s: sibling %q already exists", n.name, name)
		}
	}
	n.name = name
	return nil
}

func (s *Scene) Connections(ref scene.Ref) ([]scene.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[ref]; !ok {
		return nil, fmt.Errorf("%s: %w", ref, scene.ErrNotFound)
	}
	var out []scene.Connection
	for _, c := range s.conns {
		if c.Src.Node == ref || c.Dst.Node == ref {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Scene) Connect(src, dst scene.Plug) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []scene.Plug{src, dst} {
		if _, ok := s.nodes[p.Node]; !ok {
			return fmt.Errorf("connect %s: %w", p, scene.ErrNotFound)
		}
	}
	for _, c := range s.conns {
		if c.Dst != dst {
			continue
		}
		if c.Src == src {
			return nil
		}
		return fmt.Errorf("connect %s -> %s: destination already driven by %s", src, dst, c.Src)
	}
	s.conns = append(s.conns, scene.Connection{Src: src, Dst: dst})
	return nil
}

func (s *Scene) Disconnect(src, dst scene.Plug) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.conns {
		if c.Src == src && c.Dst == dst {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("disconnect %s -> %s: %w", src, dst, scene.ErrNotFound)
}

func (s *Scene) TimeUnit() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeUnit, nil
}

func (s *Scene) SetTimeUnit(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return fmt.Errorf("set time unit: empty unit")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeUnit = unit
	return nil
}

func (s *Scene) PlaybackRange() (scene.Range, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback, nil
}

func (s *Scene) Select(refs []scene.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ref := range refs {
		if _, ok := s.nodes[ref]; !ok {
			return fmt.Errorf("select %s: %w", ref, scene.ErrNotFound)
		}
	}
	s.selection = append(s.selection[:0], refs...)
	return nil
}
