package izar

import (
	"encoding/binary"
	"strconv"
)

// Decrypted payload layout, identical for every frame variant. All integers
// are unsigned little-endian; the date is bit-packed across two bytes.
const (
	payloadTotalOffset     = 1  // u32, liters
	payloadLastMonthOffset = 5  // u32, liters
	payloadDateLowOffset   = 9  // day in bits 0-4, year low bits in 5-7
	payloadDateHighOffset  = 10 // month in bits 0-3, year high bits in 4-7

	minPayloadLen = 11
)

// Cleartext frame layout, independent of which key decrypted the payload.
const (
	framePeriodOffset  = 11 // transmit period exponent bits 0-3, general alarm bit 7
	frameBatteryOffset = 12 // battery half-years bits 0-4, alarm bits 5-7
	frameAlarmOffset   = 13 // remaining alarm bits

	priosHeaderLen = 15
	minTelegramLen = priosHeaderLen + minPayloadLen
)

// Sappel encapsulation layout: a 26-bit decimal field in cipher-context
// bytes 4..7 holds the 2-digit manufacture year followed by the serial
// number, and the three prefix letters straddle bytes 7..9 as offsets from
// the character base '@'.
const (
	sappelDigitsMask = 0x03 // byte 7 contribution to the 26-bit value, bits 24-25

	// Century thresholds. The manufacture-year split (70) intentionally
	// differs from the historical-date split (80); both are device
	// behavior and must not be unified.
	manufactureYearPivot = 70
	historicalDatePivot  = 80

	letterBase = '@'
)

type payloadFields struct {
	TotalL          float64
	LastMonthTotalL float64
	Year            int
	Month           int
	Day             int
}

// extractPayload pulls the consumption totals and the historical billing
// date out of a validated decrypted payload of at least minPayloadLen bytes.
func extractPayload(decoded []byte) payloadFields {
	lo := decoded[payloadDateLowOffset]
	hi := decoded[payloadDateHighOffset]
	year := int((hi&0xF0)>>1) + int((lo&0xE0)>>5)
	if year > historicalDatePivot {
		year += 1900
	} else {
		year += 2000
	}
	return payloadFields{
		TotalL:          float64(binary.LittleEndian.Uint32(decoded[payloadTotalOffset:])),
		LastMonthTotalL: float64(binary.LittleEndian.Uint32(decoded[payloadLastMonthOffset:])),
		Year:            year,
		Month:           int(hi & 0x0F),
		Day:             int(lo & 0x1F),
	}
}

type sappelIdentity struct {
	Prefix          string
	SerialNumber    uint32
	ManufactureYear uint16
}

// extractSappelIdentity decodes the embedded serial number, manufacture year
// and prefix letters from the cipher-context bytes of a Sappel frame. The
// caller guarantees at least 10 bytes.
func extractSappelIdentity(origin []byte) sappelIdentity {
	value := uint32(origin[7]&sappelDigitsMask)<<24 |
		uint32(origin[6])<<16 |
		uint32(origin[5])<<8 |
		uint32(origin[4])
	digits := strconv.FormatUint(uint64(value), 10)

	var id sappelIdentity
	yy := 0
	if len(digits) >= 2 {
		yy, _ = strconv.Atoi(digits[:2])
	} else {
		yy, _ = strconv.Atoi(digits)
	}
	if yy > manufactureYearPivot {
		id.ManufactureYear = uint16(1900 + yy)
	} else {
		id.ManufactureYear = uint16(2000 + yy)
	}
	if len(digits) > 2 {
		serial, _ := strconv.Atoi(digits[2:])
		id.SerialNumber = uint32(serial)
	}

	supplier := letterBase + ((origin[9]&0x0F)<<1 | origin[8]>>7)
	meterType := letterBase + (origin[8]&0x7C)>>2
	diameter := letterBase + ((origin[8]&0x03)<<3 | origin[7]>>5)
	id.Prefix = string([]byte{supplier}) + twoDigits(yy) + string([]byte{meterType, diameter})
	return id
}

func twoDigits(v int) string {
	s := strconv.Itoa(v % 100)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// decodeAlarms reads the 12 alarm bits from their fixed cleartext positions.
// The caller guarantees at least minTelegramLen bytes.
func decodeAlarms(frm []byte) Alarms {
	return Alarms{
		GeneralAlarm:              frm[framePeriodOffset]&0x80 != 0,
		LeakageCurrently:          frm[frameBatteryOffset]&0x80 != 0,
		LeakagePreviously:         frm[frameBatteryOffset]&0x40 != 0,
		MeterBlocked:              frm[frameBatteryOffset]&0x20 != 0,
		BackFlow:                  frm[frameAlarmOffset]&0x80 != 0,
		Underflow:                 frm[frameAlarmOffset]&0x40 != 0,
		Overflow:                  frm[frameAlarmOffset]&0x20 != 0,
		Submarine:                 frm[frameAlarmOffset]&0x10 != 0,
		SensorFraudCurrently:      frm[frameAlarmOffset]&0x08 != 0,
		SensorFraudPreviously:     frm[frameAlarmOffset]&0x04 != 0,
		MechanicalFraudCurrently:  frm[frameAlarmOffset]&0x02 != 0,
		MechanicalFraudPreviously: frm[frameAlarmOffset]&0x01 != 0,
	}
}

// remainingBatteryYears converts the packed half-year counter.
func remainingBatteryYears(frm []byte) float64 {
	return float64(frm[frameBatteryOffset]&0x1F) / 2.0
}

// transmitPeriodSeconds decodes the power-of-two transmission interval.
func transmitPeriodSeconds(frm []byte) uint32 {
	return 1 << ((frm[framePeriodOffset] & 0x0F) + 2)
}
