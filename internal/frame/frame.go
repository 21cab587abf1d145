package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Manufacturer ids (EN 13757 three-letter codes) of the Diehl group brands
// that transmit PRIOS telegrams.
const (
	ManufacturerSAP uint16 = 0x4C30 // Sappel
	ManufacturerHYD uint16 = 0x2324 // Hydrometer / Diehl Metering
	ManufacturerDME uint16 = 0x11A5 // Diehl Metering Germany
)

// Variant selects the PRIOS encapsulation layout of a frame. Sappel devices
// rearrange the link-layer address and pack the serial number, manufacture
// year and type letters into it; all other Diehl brands use the default
// arrangement with version and device type ahead of the address.
type Variant int

const (
	VariantDefault Variant = iota
	VariantSappelPrios
)

func (v Variant) String() string {
	if v == VariantSappelPrios {
		return "sappel_prios"
	}
	return "default"
}

// Telegram represents one PRIOS frame stripped from transport details. Raw
// is the frame as received; Origin optionally carries the bytes used as
// cipher context when the transport rewrote the address before delivery.
type Telegram struct {
	Raw          []byte
	Origin       []byte
	Length       byte
	Control      byte
	Manufacturer uint16
	MeterID      [4]byte
	Version      byte
	DeviceType   byte
	CI           byte
	Variant      Variant
}

const headerLen = 11

// Parse extracts the link-layer header from a raw frame.
func Parse(raw []byte) (Telegram, error) {
	return ParseWithOrigin(raw, nil)
}

// ParseWithOrigin parses raw and records origin as the cipher-context bytes.
func ParseWithOrigin(raw, origin []byte) (Telegram, error) {
	if len(raw) < headerLen {
		return Telegram{}, errors.Errorf("telegram too short: %d bytes", len(raw))
	}
	length := raw[0]
	if int(length)+1 != len(raw) {
		return Telegram{}, errors.Errorf("declared length %d does not match actual length %d", length, len(raw))
	}
	t := Telegram{
		Raw:          raw,
		Origin:       origin,
		Length:       length,
		Control:      raw[1],
		Manufacturer: binary.LittleEndian.Uint16(raw[2:4]),
		CI:           raw[10],
	}
	t.Variant = DetectVariant(raw)
	if t.Variant == VariantSappelPrios {
		copy(t.MeterID[:], raw[4:8])
		t.Version = raw[8]
		t.DeviceType = raw[9]
	} else {
		t.Version = raw[4]
		t.DeviceType = raw[5]
		copy(t.MeterID[:], raw[6:10])
	}
	return t, nil
}

// DetectVariant classifies the encapsulation layout from the cleartext
// header. Sappel frames with a manufacturer-specific CI carry the extended
// serial/year/prefix encoding in the address field.
func DetectVariant(raw []byte) Variant {
	if len(raw) < headerLen {
		return VariantDefault
	}
	manufacturer := binary.LittleEndian.Uint16(raw[2:4])
	ci := raw[10]
	if manufacturer == ManufacturerSAP && ci >= 0xA0 && ci <= 0xA7 {
		return VariantSappelPrios
	}
	return VariantDefault
}

// OriginBytes returns the cipher-context bytes, falling back to the frame
// itself when the transport supplied none.
func (t Telegram) OriginBytes() []byte {
	if len(t.Origin) > 0 {
		return t.Origin
	}
	return t.Raw
}

// MeterIDString returns the EN 13757 display format (MSB first).
func (t Telegram) MeterIDString() string {
	return fmt.Sprintf("%02X%02X%02X%02X", t.MeterID[3], t.MeterID[2], t.MeterID[1], t.MeterID[0])
}

// ManufacturerString decodes the packed 3-letter manufacturer code.
func ManufacturerString(m uint16) string {
	letters := []byte{
		byte((m>>10)&0x1F) + '@',
		byte((m>>5)&0x1F) + '@',
		byte(m&0x1F) + '@',
	}
	for _, l := range letters {
		if l < 'A' || l > 'Z' {
			return fmt.Sprintf("0x%04X", m)
		}
	}
	return string(letters)
}
