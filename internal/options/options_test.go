package options

import (
	"context"
	"testing"
)

func TestParseKeyHex(t *testing.T) {
	key, err := ParseKeyHex("39BC 8A10 E66D 83F8")
	if err != nil {
		t.Fatalf("ParseKeyHex: %v", err)
	}
	if len(key) != 8 || key[0] != 0x39 || key[7] != 0xF8 {
		t.Fatalf("unexpected key %X", key)
	}
	if key, err := ParseKeyHex("  "); err != nil || key != nil {
		t.Fatalf("blank input should yield no key, got %X err %v", key, err)
	}
	if _, err := ParseKeyHex("39BC8A10"); err == nil {
		t.Fatal("expected length error")
	}
	if _, err := ParseKeyHex("39BC8A10E66D83FZ"); err == nil {
		t.Fatal("expected hex error")
	}
}

func TestPassiveMode(t *testing.T) {
	ctx := context.Background()
	if PassiveMode(ctx) {
		t.Fatal("background context should not be passive")
	}
	if !PassiveMode(WithPassiveMode(ctx)) {
		t.Fatal("expected passive mode to be set")
	}
}
