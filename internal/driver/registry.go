package driver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/karstenatgit/wmbusmeters/internal/frame"
)

// Wildcard matches any device type or version in a Detection rule.
const Wildcard int16 = -1

// Detection is one structured match rule for selecting a driver.
type Detection struct {
	Manufacturer uint16
	DeviceType   int16
	Version      int16
}

// Matches reports whether the telegram satisfies this rule.
func (d Detection) Matches(t *frame.Telegram) bool {
	if d.Manufacturer != t.Manufacturer {
		return false
	}
	if d.DeviceType != Wildcard && byte(d.DeviceType) != t.DeviceType {
		return false
	}
	if d.Version != Wildcard && byte(d.Version) != t.Version {
		return false
	}
	return true
}

// Driver processes telegrams once selected.
type Driver interface {
	Name() string
	Process(context.Context, *frame.Telegram) (map[string]any, error)
}

// PartialReporter can supply minimal fields when payload decoding fails.
type PartialReporter interface {
	PartialFields(*frame.Telegram) map[string]any
}

// Config carries per-meter construction parameters to a Factory.
type Config struct {
	// Key is the optional confidentiality key; empty means the driver's
	// default key set.
	Key []byte
}

// Factory builds a driver instance for one meter.
type Factory func(Config) (Driver, error)

type registration struct {
	rules   []Detection
	factory Factory
}

// Registry maps detection rules to driver factories. It has no global
// instance; hosts construct and populate one explicitly.
type Registry struct {
	entries []registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a rule set with its factory. Rules are evaluated in
// registration order.
func (r *Registry) Register(rules []Detection, factory Factory) {
	r.entries = append(r.entries, registration{rules: rules, factory: factory})
}

// Lookup returns the factory of the first rule matching the telegram.
func (r *Registry) Lookup(t *frame.Telegram) (Factory, error) {
	for _, entry := range r.entries {
		for _, rule := range entry.rules {
			if rule.Matches(t) {
				return entry.factory, nil
			}
		}
	}
	return nil, errors.Errorf("driver not found for manufacturer 0x%04X type 0x%02X version 0x%02X",
		t.Manufacturer, t.DeviceType, t.Version)
}
