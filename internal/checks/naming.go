package checks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// IDNaming is the id of the naming check.
const IDNaming = "naming"

const fallbackName = "RENAMED_NODE"

var namingOptions = []string{
	"allowed_chars", "replacement", "required_prefixes", "required_suffixes", "node_types", "unique_names",
}

type namingRules struct {
	illegal     *regexp.Regexp
	replacement string
	prefixes    []string
	suffixes    []string
	nodeTypes   []string
	unique      bool
}

// Naming flags node names with illegal characters, missing prefixes or
// suffixes, and (optionally) duplicated short names. Only illegal characters
// are fixed automatically.
type Naming struct {
	base
}

// NewNaming builds the naming check.
func NewNaming(opts check.Options) *Naming {
	return &Naming{base{
		id:          IDNaming,
		label:       "Naming: illegal characters",
		description: "Detects node names outside the allowed character set or naming convention.",
		opts:        opts,
	}}
}

func (c *Naming) SupportsFix() bool { return true }

func (c *Naming) rules() (namingRules, error) {
	var r namingRules
	if err := check.RequireKnown(c.id, c.opts, namingOptions...); err != nil {
		return r, err
	}
	allowed, err := c.opts.String("allowed_chars")
	if err != nil {
		return r, c.fail("%v", err)
	}
	if allowed == "" {
		return r, c.fail("option %q must not be empty", "allowed_chars")
	}
	r.illegal, err = regexp.Compile("[^" + allowed + "]+")
	if err != nil {
		return r, c.fail("option %q is not a valid character class: %v", "allowed_chars", err)
	}
	if r.replacement, err = c.opts.String("replacement"); err != nil {
		return r, c.fail("%v", err)
	}
	if r.illegal.MatchString(r.replacement) {
		return r, c.fail("replacement %q contains disallowed characters", r.replacement)
	}
	if r.prefixes, err = c.opts.Strings("required_prefixes"); err != nil {
		return r, c.fail("%v", err)
	}
	if r.suffixes, err = c.opts.Strings("required_suffixes"); err != nil {
		return r, c.fail("%v", err)
	}
	if r.nodeTypes, err = c.opts.Strings("node_types"); err != nil {
		return r, c.fail("%v", err)
	}
	if r.unique, err = c.opts.Bool("unique_names"); err != nil {
		return r, c.fail("%v", err)
	}
	return r, nil
}

func (c *Naming) Detect(sc scene.Accessor) ([]diag.Issue, error) {
	rules, err := c.rules()
	if err != nil {
		return nil, err
	}
	refs, err := sc.Nodes(scene.Filter{Types: rules.nodeTypes})
	if err != nil {
		return nil, c.fail("list nodes: %v", err)
	}
	taken, err := sceneNames(sc)
	if err != nil {
		return nil, c.fail("%v", err)
	}

	bag := diag.NewBag(0)
	byName := make(map[string][]scene.Ref)
	var names []string
	for _, ref := range refs {
		info, err := sc.Node(ref)
		if err != nil {
			return nil, c.fail("resolve %s: %v", ref, err)
		}
		name := info.Name
		if _, seen := byName[name]; !seen {
			names = append(names, name)
		}
		byName[name] = append(byName[name], ref)

		if rules.illegal.MatchString(name) {
			b := diag.ReportError(bag, c.id, fmt.Sprintf("name %q contains illegal characters", name), ref).
				WithNote(ref, info.Path)
			if proposed, ok := proposeName(name, rules, func(n string) bool { return taken[n] > 0 }); ok {
				taken[proposed]++
				b.WithFix(fmt.Sprintf("Rename to %q", proposed), proposed)
			} else {
				b.ManualFix("Rename by hand: no legal name can be derived from the allowed characters")
			}
			b.Emit()
		}
		if len(rules.prefixes) > 0 && !hasAnyPrefix(name, rules.prefixes) {
			diag.ReportError(bag, c.id, fmt.Sprintf("name %q lacks a required prefix (%s)", name, strings.Join(rules.prefixes, ", ")), ref).
				ManualFix("Rename by hand with a required prefix").
				Emit()
		}
		if len(rules.suffixes) > 0 && !hasAnySuffix(name, rules.suffixes) {
			diag.ReportError(bag, c.id, fmt.Sprintf("name %q lacks a required suffix (%s)", name, strings.Join(rules.suffixes, ", ")), ref).
				ManualFix("Rename by hand with a required suffix").
				Emit()
		}
	}

	if rules.unique {
		for _, name := range names {
			group := byName[name]
			if len(group) < 2 {
				continue
			}
			diag.ReportWarning(bag, c.id, fmt.Sprintf("name %q is shared by %d nodes", name, len(group)), group...).
				ManualFix("Give each node a distinct name by hand").
				Emit()
		}
	}
	return bag.Items(), nil
}

func (c *Naming) Fix(sc scene.Accessor, is diag.Issue) (check.FixResult, error) {
	if err := check.EnsureFixable(c, is); err != nil {
		return check.FixResult{}, err
	}
	rules, err := c.rules()
	if err != nil {
		return check.FixResult{}, err
	}
	if len(is.Targets) == 0 || !sc.Exists(is.Targets[0]) {
		return check.FixResult{Stale: true, Message: "node no longer exists"}, nil
	}
	ref := is.Targets[0]
	info, err := sc.Node(ref)
	if err != nil {
		return check.FixResult{}, err
	}
	if !rules.illegal.MatchString(info.Name) {
		return check.FixResult{Stale: true, Message: fmt.Sprintf("name %q is already valid", info.Name)}, nil
	}

	taken, err := sceneNames(sc)
	if err != nil {
		return check.FixResult{}, err
	}
	taken[info.Name]--
	newName, ok := proposeName(info.Name, rules, func(n string) bool { return taken[n] > 0 })
	if !ok {
		return check.FixResult{}, fmt.Errorf("%w: no legal name for %q", check.ErrUnfixable, info.Name)
	}
	if err := sc.Rename(ref, newName); err != nil {
		return check.FixResult{}, fmt.Errorf("rename %q: %w", info.Name, err)
	}
	return check.FixResult{Changed: true, Message: fmt.Sprintf("renamed %q to %q", info.Name, newName)}, nil
}

func sceneNames(sc scene.Accessor) (map[string]int, error) {
	all, err := sc.Nodes(scene.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	taken := make(map[string]int, len(all))
	for _, ref := range all {
		info, err := sc.Node(ref)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", ref, err)
		}
		taken[info.Name]++
	}
	return taken, nil
}

// proposeName returns a legal, unused name derived from name. ok is false
// when the allowed characters cannot express one.
func proposeName(name string, rules namingRules, taken func(string) bool) (string, bool) {
	base := sanitizeName(name, rules)
	if base == "" {
		base = sanitizeName(fallbackName, rules)
	}
	if base == "" || rules.illegal.MatchString(base) {
		return "", false
	}
	return uniqueName(base, rules, taken)
}

// sanitizeName strips accents, replaces runs of disallowed characters with
// the replacement, collapses repeats and trims it from both ends. The result
// may be empty.
func sanitizeName(name string, rules namingRules) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		stripped = name
	}
	out := rules.illegal.ReplaceAllString(stripped, rules.replacement)
	if r := rules.replacement; r != "" {
		for strings.Contains(out, r+r) {
			out = strings.ReplaceAll(out, r+r, r)
		}
		out = strings.TrimSuffix(strings.TrimPrefix(out, r), r)
	}
	return out
}

// uniqueName returns base, or base+replacement+2, base+replacement+3, ...
// when taken. Every candidate stays inside the allowed characters.
func uniqueName(base string, rules namingRules, taken func(string) bool) (string, bool) {
	if !taken(base) {
		return base, true
	}
	for i := 2; ; i++ {
		n := strconv.Itoa(i)
		if rules.illegal.MatchString(n) {
			return "", false
		}
		if candidate := base + rules.replacement + n; !taken(candidate) {
			return candidate, true
		}
	}
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
