package checks

import (
	"fmt"
	"sort"
	"strings"

	"scenecheck/internal/check"
	"scenecheck/internal/config"
)

type factory func(check.Options) check.Check

// registry order is the order checks run and are shown in.
var factories = []struct {
	id  string
	new factory
}{
	{IDNaming, func(o check.Options) check.Check { return NewNaming(o) }},
	{IDCameraClip, func(o check.Options) check.Check { return NewCameraClip(o) }},
	{IDImagePlane, func(o check.Options) check.Check { return NewImagePlane(o) }},
	{IDTimeUnit, func(o check.Options) check.Check { return NewTimeUnit(o) }},
	{IDKeyRange, func(o check.Options) check.Check { return NewKeyRange(o) }},
}

// IDs returns the stock check ids in registry order.
func IDs() []string {
	out := make([]string, len(factories))
	for i, f := range factories {
		out[i] = f.id
	}
	return out
}

// New builds the stock check id with opts.
func New(id string, opts check.Options) (check.Check, error) {
	for _, f := range factories {
		if f.id == id {
			return f.new(opts.Clone()), nil
		}
	}
	return nil, &check.ConfigError{CheckID: id, Reason: "unknown check"}
}

// Build constructs the registry for cfg. Checks without a configuration
// table are built with empty options and will report FAILED.
func Build(cfg *config.Config) (*check.Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	known := make(map[string]bool, len(factories))
	for _, f := range factories {
		known[f.id] = true
	}
	var unknown []string
	for id := range cfg.Checks {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &check.ConfigError{
			CheckID: unknown[0],
			Reason:  fmt.Sprintf("unknown check table(s): %s (known: %s)", strings.Join(unknown, ", "), strings.Join(IDs(), ", ")),
		}
	}

	list := make([]check.Check, 0, len(factories))
	var disabled []string
	for _, f := range factories {
		cc, ok := cfg.Check(f.id)
		if !ok {
			cc = config.CheckConfig{Enabled: true, Options: check.Options{}}
		}
		list = append(list, f.new(cc.Options))
		if !cc.Enabled {
			disabled = append(disabled, f.id)
		}
	}
	reg, err := check.NewRegistry(list...)
	if err != nil {
		return nil, err
	}
	for _, id := range disabled {
		if err := reg.Disable(id); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
