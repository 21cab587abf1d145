package testutil

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LoadJSON loads a JSON fixture from the repository testdata directory.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadHex returns a trimmed hex string from a testdata file.
func LoadHex(t *testing.T, rel string) string {
	t.Helper()
	return strings.TrimSpace(string(readTestdata(t, rel)))
}

// LoadBytes decodes a testdata hex file to raw bytes, ignoring whitespace
// and the | separators used in captured telegrams.
func LoadBytes(t *testing.T, rel string) []byte {
	t.Helper()
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '|', '_':
			return -1
		}
		return r
	}, string(readTestdata(t, rel)))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("decode hex %s: %v", rel, err)
	}
	return raw
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	for _, up := range []string{".", "..", filepath.Join("..", ".."), filepath.Join("..", "..", "..")} {
		path := filepath.Join(up, "testdata", rel)
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
