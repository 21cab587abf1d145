// Package wmbusmeters decodes IZAR/PRIOS water-meter telegrams into
// structured readings. Telegrams can be analyzed one-shot with AnalyzeHex
// or fed to a long-lived Meter that caches the latest successfully decoded
// state across telegrams.
package wmbusmeters

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"

	"github.com/karstenatgit/wmbusmeters/internal/driver"
	"github.com/karstenatgit/wmbusmeters/internal/driver/izar"
	"github.com/karstenatgit/wmbusmeters/internal/frame"
	"github.com/karstenatgit/wmbusmeters/internal/options"
)

var (
	registryOnce sync.Once
	registry     *driver.Registry
)

// defaultRegistry builds the driver registry once. Drivers are registered
// explicitly here rather than through package init side effects.
func defaultRegistry() *driver.Registry {
	registryOnce.Do(func() {
		registry = driver.NewRegistry()
		izar.Register(registry)
	})
	return registry
}

// Result captures the outcome of AnalyzeHex.
type Result struct {
	Driver    string
	RawHex    string
	ByteCount int
	Telegram  *frame.Telegram
	Fields    map[string]any
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"driver":     r.Driver,
		"byte_count": r.ByteCount,
		"raw_hex":    r.RawHex,
	}
	if r.Telegram != nil {
		summary["meter_id"] = r.Telegram.MeterIDString()
		summary["manufacturer"] = frame.ManufacturerString(r.Telegram.Manufacturer)
		summary["ci"] = fmt.Sprintf("0x%02X", r.Telegram.CI)
		summary["variant"] = r.Telegram.Variant.String()
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.Fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("driver: %s bytes:%d raw:%s (marshal error: %v)", r.Driver, r.ByteCount, r.RawHex, err)
	}
	return string(data)
}

// AnalyzeHex parses the telegram, selects a driver, and returns decoded data.
func AnalyzeHex(ctx context.Context, raw string) (Result, error) {
	return AnalyzeHexWithOptions(ctx, raw, AnalyzeOptions{})
}

// AnalyzeHexWithOptions parses the telegram with custom options. Decode
// failures (exhausted keys, malformed frames) degrade to a partial result
// carrying identification fields and an error entry; only unusable input
// returns a hard error.
func AnalyzeHexWithOptions(ctx context.Context, raw string, opts AnalyzeOptions) (Result, error) {
	ctx, key, err := opts.toInternal(ctx)
	if err != nil {
		return Result{}, err
	}
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	telegram, err := frame.Parse(data)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Driver:    "unknown",
		RawHex:    strings.ToUpper(stripSeparators(raw)),
		ByteCount: len(data),
		Telegram:  &telegram,
	}

	factory, err := defaultRegistry().Lookup(&telegram)
	if err != nil {
		return result, nil
	}
	drv, err := factory(driver.Config{Key: key})
	if err != nil {
		return result, err
	}
	result.Driver = drv.Name()

	fields, err := drv.Process(ctx, &telegram)
	if err != nil {
		if reporter, ok := drv.(driver.PartialReporter); ok {
			partial := reporter.PartialFields(&telegram)
			partial["error"] = err.Error()
			result.Fields = partial
			return result, nil
		}
		return result, err
	}
	result.Fields = fields
	return result, nil
}

// Meter owns one driver instance and its latest known-good reading. Failed
// telegrams leave the cached state untouched.
type Meter struct {
	drv     *izar.Meter
	passive bool
}

// NewMeter builds a long-lived IZAR meter instance.
func NewMeter(opts MeterOptions) (*Meter, error) {
	key, err := options.ParseKeyHex(opts.KeyHex)
	if err != nil {
		return nil, err
	}
	drv, err := izar.NewMeter(key)
	if err != nil {
		return nil, err
	}
	return &Meter{drv: drv, passive: opts.Passive}, nil
}

// DecodeHex feeds one hex-encoded telegram to the meter.
func (m *Meter) DecodeHex(ctx context.Context, raw string) error {
	data, err := decodeHex(raw)
	if err != nil {
		return err
	}
	return m.Decode(ctx, data, nil)
}

// Decode feeds one telegram to the meter. origin optionally carries the
// cipher-context bytes when they differ from the frame as received.
func (m *Meter) Decode(ctx context.Context, raw, origin []byte) error {
	telegram, err := frame.ParseWithOrigin(raw, origin)
	if err != nil {
		return err
	}
	if m.passive {
		ctx = options.WithPassiveMode(ctx)
	}
	_, err = m.drv.Process(ctx, &telegram)
	return err
}

// HasReading reports whether any telegram has ever decoded successfully.
func (m *Meter) HasReading() bool { return m.drv.HasReading() }

// Reading returns the latest known-good decoded state.
func (m *Meter) Reading() izar.Reading { return m.drv.Reading() }

func decodeHex(input string) ([]byte, error) {
	clean := stripSeparators(input)
	if strings.HasPrefix(strings.ToUpper(clean), "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, errors.Errorf("hex telegram must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, errors.Wrap(err, "decode hex")
	}
	return decoded, nil
}

func stripSeparators(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
