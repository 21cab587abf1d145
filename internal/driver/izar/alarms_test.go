package izar

import "testing"

func TestCurrentAlarmText(t *testing.T) {
	cases := []struct {
		name   string
		alarms Alarms
		want   string
	}{
		{"none", Alarms{}, "no_alarm"},
		{"single", Alarms{Underflow: true}, "underflow"},
		{
			"fixed_order",
			Alarms{MechanicalFraudCurrently: true, LeakageCurrently: true, MeterBlocked: true},
			"leakage,meter_blocked,mechanical_fraud",
		},
		{
			"all",
			Alarms{
				LeakageCurrently: true, MeterBlocked: true, BackFlow: true,
				Underflow: true, Overflow: true, Submarine: true,
				SensorFraudCurrently: true, MechanicalFraudCurrently: true,
			},
			"leakage,meter_blocked,back_flow,underflow,overflow,submarine,sensor_fraud,mechanical_fraud",
		},
		{"general_overrides", Alarms{GeneralAlarm: true, BackFlow: true, Overflow: true}, "general_alarm"},
		{"general_alone", Alarms{GeneralAlarm: true}, "general_alarm"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.alarms.CurrentText(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestPreviousAlarmText(t *testing.T) {
	cases := []struct {
		name   string
		alarms Alarms
		want   string
	}{
		{"none", Alarms{}, "no_alarm"},
		{"single", Alarms{SensorFraudPreviously: true}, "sensor_fraud"},
		{
			"fixed_order",
			Alarms{MechanicalFraudPreviously: true, LeakagePreviously: true},
			"leakage,mechanical_fraud",
		},
		{
			"no_general_override",
			Alarms{GeneralAlarm: true, LeakagePreviously: true},
			"leakage",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.alarms.PreviousText(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeAlarmBits(t *testing.T) {
	frm := make([]byte, minTelegramLen)
	frm[framePeriodOffset] = 0x80
	frm[frameBatteryOffset] = 0xE0
	frm[frameAlarmOffset] = 0xFF
	a := decodeAlarms(frm)
	want := Alarms{
		GeneralAlarm: true, LeakageCurrently: true, LeakagePreviously: true,
		MeterBlocked: true, BackFlow: true, Underflow: true, Overflow: true,
		Submarine: true, SensorFraudCurrently: true, SensorFraudPreviously: true,
		MechanicalFraudCurrently: true, MechanicalFraudPreviously: true,
	}
	if a != want {
		t.Fatalf("alarm bits mismatch: %+v", a)
	}
	if a = decodeAlarms(make([]byte, minTelegramLen)); a != (Alarms{}) {
		t.Fatalf("zero frame must decode to no alarms: %+v", a)
	}
}
