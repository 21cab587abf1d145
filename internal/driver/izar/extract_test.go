package izar

import "testing"

func TestExtractPayload(t *testing.T) {
	decoded := decodeHex(t, "4BA00D00009E0D00007E29")
	p := extractPayload(decoded)
	if p.TotalL != 3488 || p.LastMonthTotalL != 3486 {
		t.Fatalf("consumption mismatch: %v / %v", p.TotalL, p.LastMonthTotalL)
	}
	if p.Year != 2019 || p.Month != 9 || p.Day != 30 {
		t.Fatalf("date mismatch: %d-%d-%d", p.Year, p.Month, p.Day)
	}
}

func TestHistoricalDateCenturyPivot(t *testing.T) {
	payload := func(dateLow, dateHigh byte) []byte {
		decoded := make([]byte, minPayloadLen)
		decoded[0] = 0x4B
		decoded[payloadDateLowOffset] = dateLow
		decoded[payloadDateHighOffset] = dateHigh
		return decoded
	}
	// Raw year 80 packs as high nibble 0xA0 with zero low bits.
	if p := extractPayload(payload(0x0F, 0xA5)); p.Year != 2080 {
		t.Fatalf("raw year 80 should map to 2080, got %d", p.Year)
	}
	// Raw year 81 adds one low bit in byte 9.
	if p := extractPayload(payload(0x2F, 0xA5)); p.Year != 1981 {
		t.Fatalf("raw year 81 should map to 1981, got %d", p.Year)
	}
}

func TestExtractSappelIdentity(t *testing.T) {
	// Cipher-context bytes of the C19UA golden telegram.
	origin := decodeHex(t, "1944304C72242421D401A2")
	id := extractSappelIdentity(origin)
	if id.Prefix != "C19UA" {
		t.Fatalf("prefix mismatch: %s", id.Prefix)
	}
	if id.SerialNumber != 145842 {
		t.Fatalf("serial mismatch: %d", id.SerialNumber)
	}
	if id.ManufactureYear != 2019 {
		t.Fatalf("manufacture year mismatch: %d", id.ManufactureYear)
	}
}

func TestManufactureYearCenturyPivot(t *testing.T) {
	origin := func(value uint32) []byte {
		o := make([]byte, 10)
		o[4] = byte(value)
		o[5] = byte(value >> 8)
		o[6] = byte(value >> 16)
		o[7] = byte(value>>24) & sappelDigitsMask
		return o
	}
	// Digits 7012345: two-digit year 70 stays in this century.
	id := extractSappelIdentity(origin(7012345))
	if id.ManufactureYear != 2070 {
		t.Fatalf("year 70 should map to 2070, got %d", id.ManufactureYear)
	}
	if id.SerialNumber != 12345 {
		t.Fatalf("serial mismatch: %d", id.SerialNumber)
	}
	if got := (Reading{SerialNumber: id.SerialNumber}).SerialNumberString(); got != "012345" {
		t.Fatalf("serial must render zero padded: %s", got)
	}
	// Digits 7112345: year 71 crosses the pivot into the last century.
	if id := extractSappelIdentity(origin(7112345)); id.ManufactureYear != 1971 {
		t.Fatalf("year 71 should map to 1971, got %d", id.ManufactureYear)
	}
}

func TestDateClampAgainstMalformedPacking(t *testing.T) {
	r := Reading{H0Year: 2021, H0Month: 15, H0Day: 31}
	if got := r.LastMonthMeasureDate(); got != "2021-15-31" {
		t.Fatalf("date mismatch: %s", got)
	}
	r = Reading{H0Year: 2021, H0Month: 99, H0Day: 99}
	if got := r.LastMonthMeasureDate(); got != "2021-00-00" {
		t.Fatalf("clamped date mismatch: %s", got)
	}
}
