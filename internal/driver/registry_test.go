package driver

import (
	"context"
	"testing"

	"github.com/karstenatgit/wmbusmeters/internal/frame"
)

type fakeDriver struct{ name string }

func (d fakeDriver) Name() string { return d.name }
func (d fakeDriver) Process(context.Context, *frame.Telegram) (map[string]any, error) {
	return nil, nil
}

func TestLookupWildcard(t *testing.T) {
	reg := NewRegistry()
	reg.Register([]Detection{
		{Manufacturer: frame.ManufacturerHYD, DeviceType: 0x07, Version: 0x85},
		{Manufacturer: frame.ManufacturerSAP, DeviceType: Wildcard, Version: Wildcard},
	}, func(Config) (Driver, error) { return fakeDriver{name: "izar"}, nil })

	tg := &frame.Telegram{Manufacturer: frame.ManufacturerSAP, DeviceType: 0x24, Version: 0x72}
	factory, err := reg.Lookup(tg)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	drv, err := factory(Config{})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if drv.Name() != "izar" {
		t.Fatalf("unexpected driver %s", drv.Name())
	}
}

func TestLookupExactVersion(t *testing.T) {
	reg := NewRegistry()
	reg.Register([]Detection{
		{Manufacturer: frame.ManufacturerHYD, DeviceType: 0x07, Version: 0x85},
	}, func(Config) (Driver, error) { return fakeDriver{name: "izar"}, nil })

	if _, err := reg.Lookup(&frame.Telegram{Manufacturer: frame.ManufacturerHYD, DeviceType: 0x07, Version: 0x85}); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if _, err := reg.Lookup(&frame.Telegram{Manufacturer: frame.ManufacturerHYD, DeviceType: 0x07, Version: 0x99}); err == nil {
		t.Fatal("expected version mismatch")
	}
	if _, err := reg.Lookup(&frame.Telegram{Manufacturer: 0x0442, DeviceType: 0x07, Version: 0x85}); err == nil {
		t.Fatal("expected manufacturer mismatch")
	}
}
