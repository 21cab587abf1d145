package options

import (
	"context"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

type passiveKey struct{}

// WithPassiveMode marks the context as bulk-analysis mode, suppressing
// per-telegram decode diagnostics.
func WithPassiveMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, passiveKey{}, true)
}

// PassiveMode reports whether the context is in bulk-analysis mode.
func PassiveMode(ctx context.Context) bool {
	v, _ := ctx.Value(passiveKey{}).(bool)
	return v
}

// ParseKeyHex validates and decodes a 16-hex-digit Diehl confidentiality
// key string. An empty string means no key is configured.
func ParseKeyHex(input string) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	clean := stripWhitespace(input)
	if len(clean) != 16 {
		return nil, errors.Errorf("confidentiality key must be 16 hex digits (8 bytes), got %d", len(clean))
	}
	dst := make([]byte, 8)
	if _, err := hex.Decode(dst, []byte(clean)); err != nil {
		return nil, errors.Wrap(err, "invalid confidentiality key hex")
	}
	return dst, nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
