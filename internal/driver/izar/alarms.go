package izar

import "strings"

// Alarms is the 12-bit alarm vector carried in the cleartext frame. Eight
// flags describe the current state, three the previous billing period, and
// the general alarm overrides the current-state text entirely.
type Alarms struct {
	GeneralAlarm              bool
	LeakageCurrently          bool
	LeakagePreviously         bool
	MeterBlocked              bool
	BackFlow                  bool
	Underflow                 bool
	Overflow                  bool
	Submarine                 bool
	SensorFraudCurrently      bool
	SensorFraudPreviously     bool
	MechanicalFraudCurrently  bool
	MechanicalFraudPreviously bool
}

const (
	noAlarmText      = "no_alarm"
	generalAlarmText = "general_alarm"
)

// CurrentText renders the current alarms as a comma-joined list in fixed
// order. A set general alarm always yields exactly "general_alarm".
func (a Alarms) CurrentText() string {
	if a.GeneralAlarm {
		return generalAlarmText
	}
	flags := []struct {
		set  bool
		name string
	}{
		{a.LeakageCurrently, "leakage"},
		{a.MeterBlocked, "meter_blocked"},
		{a.BackFlow, "back_flow"},
		{a.Underflow, "underflow"},
		{a.Overflow, "overflow"},
		{a.Submarine, "submarine"},
		{a.SensorFraudCurrently, "sensor_fraud"},
		{a.MechanicalFraudCurrently, "mechanical_fraud"},
	}
	return joinActive(flags)
}

// PreviousText renders the previous-period alarms, with no general-alarm
// override.
func (a Alarms) PreviousText() string {
	flags := []struct {
		set  bool
		name string
	}{
		{a.LeakagePreviously, "leakage"},
		{a.SensorFraudPreviously, "sensor_fraud"},
		{a.MechanicalFraudPreviously, "mechanical_fraud"},
	}
	return joinActive(flags)
}

func joinActive(flags []struct {
	set  bool
	name string
}) string {
	active := make([]string, 0, len(flags))
	for _, f := range flags {
		if f.set {
			active = append(active, f.name)
		}
	}
	if len(active) == 0 {
		return noAlarmText
	}
	return strings.Join(active, ",")
}
