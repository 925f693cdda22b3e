package memscene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"scenecheck/internal/scene"
)

// Format selects the on-disk encoding of a scene document.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks a Format from a file extension.
func FormatFromPath(p string) (Format, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%s: unsupported scene format (expected .yaml|.json|.msgpack)", p)
	}
}

// Document is the serialised form of a Scene.
type Document struct {
	TimeUnit    string          `yaml:"time_unit" json:"time_unit" msgpack:"time_unit"`
	Playback    RangeDoc        `yaml:"playback" json:"playback" msgpack:"playback"`
	Nodes       []NodeDoc       `yaml:"nodes" json:"nodes" msgpack:"nodes"`
	Connections []ConnectionDoc `yaml:"connections,omitempty" json:"connections,omitempty" msgpack:"connections,omitempty"`
	Selection   []string        `yaml:"selection,omitempty" json:"selection,omitempty" msgpack:"selection,omitempty"`
}

// RangeDoc is a playback range.
type RangeDoc struct {
	Min float64 `yaml:"min" json:"min" msgpack:"min"`
	Max float64 `yaml:"max" json:"max" msgpack:"max"`
}

// NodeDoc is one node. ID defaults to Name when empty.
type NodeDoc struct {
	ID     string         `yaml:"id,omitempty" json:"id,omitempty" msgpack:"id,omitempty"`
	Name   string         `yaml:"name" json:"name" msgpack:"name"`
	Type   string         `yaml:"type" json:"type" msgpack:"type"`
	Parent string         `yaml:"parent,omitempty" json:"parent,omitempty" msgpack:"parent,omitempty"`
	Attrs  map[string]any `yaml:"attrs,omitempty" json:"attrs,omitempty" msgpack:"attrs,omitempty"`
}

// ConnectionDoc is an edge written as "<node id>.<attr>" plugs.
type ConnectionDoc struct {
	Src string `yaml:"src" json:"src" msgpack:"src"`
	Dst string `yaml:"dst" json:"dst" msgpack:"dst"`
}

// FromDocument builds a Scene, validating ids, parents and plugs.
func FromDocument(doc *Document) (*Scene, error) {
	if doc == nil {
		return nil, errors.New("memscene: nil document")
	}
	s := New()
	if doc.TimeUnit != "" {
		s.timeUnit = doc.TimeUnit
	}
	if doc.Playback != (RangeDoc{}) {
		if doc.Playback.Max < doc.Playback.Min {
			return nil, fmt.Errorf("playback range [%g, %g] is inverted", doc.Playback.Min, doc.Playback.Max)
		}
		s.playback = scene.Range{Min: doc.Playback.Min, Max: doc.Playback.Max}
	}
	for i, nd := range doc.Nodes {
		id := nd.ID
		if id == "" {
			id = nd.Name
		}
		if id == "" {
			return nil, fmt.Errorf("nodes[%d]: missing name", i)
		}
		if strings.ContainsRune(id, '.') {
			return nil, fmt.Errorf("nodes[%d]: id %q must not contain '.'", i, id)
		}
		if _, dup := s.nodes[scene.Ref(id)]; dup {
			return nil, fmt.Errorf("nodes[%d]: duplicate id %q", i, id)
		}
		s.insertLocked(scene.Ref(id), nd.Name, nd.Type, scene.Ref(nd.Parent), nd.Attrs)
	}
	for i, nd := range doc.Nodes {
		if nd.Parent == "" {
			continue
		}
		if _, ok := s.nodes[scene.Ref(nd.Parent)]; !ok {
			return nil, fmt.Errorf("nodes[%d]: unknown parent %q", i, nd.Parent)
		}
	}
	for i, cd := range doc.Connections {
		src, err := parsePlug(cd.Src)
		if err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
		dst, err := parsePlug(cd.Dst)
		if err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
		if err := s.Connect(src, dst); err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
	}
	for _, id := range doc.Selection {
		if _, ok := s.nodes[scene.Ref(id)]; ok {
			s.selection = append(s.selection, scene.Ref(id))
		}
	}
	return s, nil
}

// Document captures the current scene state.
func (s *Scene) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &Document{
		TimeUnit: s.timeUnit,
		Playback: RangeDoc{Min: s.playback.Min, Max: s.playback.Max},
		Nodes:    make([]NodeDoc, 0, len(s.order)),
	}
	for _, id := range s.order {
		n := s.nodes[id]
		nd := NodeDoc{Name: n.name, Type: n.typ, Parent: string(n.parent)}
		if string(id) != n.name {
			nd.ID = string(id)
		}
		if len(n.attrs) > 0 {
			nd.Attrs = make(map[string]any, len(n.attrs))
			for k, v := range n.attrs {
				nd.Attrs[k] = v
			}
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, c := range s.conns {
		doc.Connections = append(doc.Connections, ConnectionDoc{Src: c.Src.String(), Dst: c.Dst.String()})
	}
	for _, id := range s.selection {
		doc.Selection = append(doc.Selection, string(id))
	}
	return doc
}

func parsePlug(raw string) (scene.Plug, error) {
	i := strings.IndexByte(raw, '.')
	if i <= 0 || i == len(raw)-1 {
		return scene.Plug{}, fmt.Errorf("malformed plug %q (expected node.attr)", raw)
	}
	return scene.Plug{Node: scene.Ref(raw[:i]), Attr: raw[i+1:]}, nil
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (*Scene, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("unsupported scene format %q", format)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s scene: %w", format, err)
	}
	return FromDocument(&doc)
}

// Encode writes the scene in the given format.
func Encode(w io.Writer, s *Scene, format Format) error {
	doc := s.Document()
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("unsupported scene format %q", format)
	}
}

// Load reads a scene file, choosing the decoder from its extension.
func Load(p string) (*Scene, error) {
	format, err := FormatFromPath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	s, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return s, nil
}

// Save writes the scene atomically next to p and renames it into place.
func Save(p string, s *Scene) error {
	format, err := FormatFromPath(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	f, err := os.CreateTemp(dir, ".scene-*")
	if err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	tmp := f.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp)
	}()

	if err := Encode(f, s, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("save scene: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		mode = info.Mode()
	}
	if err := os.Chmod(tmp, mode); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return os.Rename(tmp, p)
}
