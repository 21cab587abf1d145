package wmbusmeters

import (
	"context"

	internalopts "github.com/karstenatgit/wmbusmeters/internal/options"
)

// AnalyzeOptions configures one-shot analysis.
type AnalyzeOptions struct {
	// KeyHex is an optional 16-hex-digit Diehl confidentiality key. When
	// empty the factory default key set is tried.
	KeyHex string
	// Passive suppresses decode-failure diagnostics, for bulk scans where
	// most telegrams are expected to fail.
	Passive bool
}

// MeterOptions configures a long-lived meter instance.
type MeterOptions struct {
	KeyHex  string
	Passive bool
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) (context.Context, []byte, error) {
	key, err := internalopts.ParseKeyHex(opts.KeyHex)
	if err != nil {
		return ctx, nil, err
	}
	if opts.Passive {
		ctx = internalopts.WithPassiveMode(ctx)
	}
	return ctx, key, nil
}
