// Package prios implements the Diehl LFSR stream cipher used by IZAR/PRIOS
// water meters. The primitive validates its own output: the first decoded
// byte must equal the 0x4B header sentinel, and any mismatch yields an empty
// result so callers can advance to the next candidate key.
package prios

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
)

// Factory keys tried when no per-meter confidentiality key is configured.
const (
	defaultKeyHex1 = "39BC8A10E66D83F8"
	defaultKeyHex2 = "51728910E66D83F8"
)

const (
	// KeyLen is the length of a raw Diehl confidentiality key.
	KeyLen = 8

	// payloadOffset is where the encrypted content starts: the 11-byte
	// link-layer header plus the four cleartext battery/alarm/period bytes.
	payloadOffset = 15

	sentinel = 0x4B
)

// ConvertKey folds an 8-byte confidentiality key into the 32-bit LFSR seed.
func ConvertKey(key []byte) (uint32, error) {
	if len(key) != KeyLen {
		return 0, errors.Errorf("confidentiality key must be %d bytes, got %d", KeyLen, len(key))
	}
	return binary.BigEndian.Uint32(key[:4]) ^ binary.BigEndian.Uint32(key[4:8]), nil
}

// DefaultKeys returns the factory default seeds in trial order.
func DefaultKeys() []uint32 {
	return []uint32{mustConvertHex(defaultKeyHex1), mustConvertHex(defaultKeyHex2)}
}

func mustConvertHex(s string) uint32 {
	raw, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	seed, err := ConvertKey(raw)
	if err != nil {
		panic(err)
	}
	return seed
}

// Decode decrypts the payload of frame with the given key seed. The seed is
// whitened with header words from the cipher-context bytes (origin) and the
// frame, then advanced eight LFSR steps per payload byte. An empty result
// means the key did not validate; a valid payload is never empty.
func Decode(origin, frame []byte, key uint32) []byte {
	if len(origin) < 10 || len(frame) <= payloadOffset {
		return nil
	}
	seed := key
	seed ^= binary.BigEndian.Uint32(origin[2:6])  // manufacturer + address[0-1]
	seed ^= binary.BigEndian.Uint32(origin[6:10]) // address[2-3] + version + type
	seed ^= binary.BigEndian.Uint32(frame[10:14]) // CI + cleartext content

	decoded := make([]byte, 0, len(frame)-payloadOffset)
	for i := payloadOffset; i < len(frame); i++ {
		for j := 0; j < 8; j++ {
			// x^32 LFSR, taps at bits 1, 2, 11 and 31.
			bit := (seed>>1 ^ seed>>2 ^ seed>>11 ^ seed>>31) & 1
			seed = seed<<1 | bit
		}
		decoded = append(decoded, frame[i]^byte(seed))
		if decoded[0] != sentinel {
			return nil
		}
	}
	return decoded
}
