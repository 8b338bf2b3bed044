package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/units"
)

func TestSetpointPayloadRoundTrip(t *testing.T) {
	sp := msgs.Setpoint{
		Heart: &msgs.HeartControllerSetpoint{
			Rate:         units.FrequencyFromHertz(1.2),
			Pressure:     units.PressureFromMillibar(180),
			SystoleRatio: msgs.DefaultSystoleRatio,
		},
	}

	raw, err := Marshal(NewSetpointPayload(sp))
	require.NoError(t, err)

	var p SetpointPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.True(t, sp.Equal(p.Setpoint()))
}

// A subsystem commanded off travels as JSON null and comes back nil,
// never as a zero-valued body.
func TestSetpointPayloadKeepsAbsence(t *testing.T) {
	raw, err := Marshal(NewSetpointPayload(msgs.DefaultSetpoint()))
	require.NoError(t, err)
	require.JSONEq(t, `{"mockloop":null,"heart":null}`, string(raw))

	var p SetpointPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.Nil(t, p.Setpoint().Mockloop)
	require.Nil(t, p.Setpoint().Heart)
}

func TestTelemetryPayloadRoundTrip(t *testing.T) {
	rep := msgs.Report{
		Setpoint: msgs.Setpoint{Mockloop: &msgs.MockloopSetpoint{
			SystemicResistance:  20,
			PulmonaryResistance: 3,
		}},
		State: msgs.Running,
		Measurements: msgs.Measurements{
			Timestamp:               4200,
			RegulatorActualPressure: units.PressureFromPascals(21000),
			SystemicFlow:            units.VolumeRateFromLitersPerMinute(4.5),
		},
	}
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	raw, err := Marshal(NewTelemetryPayload("rig-a", rep, at))
	require.NoError(t, err)

	var p TelemetryPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.Equal(t, "rig-a", p.RigID)
	require.Equal(t, "2026-03-14T09:26:53Z", p.ReceivedAt)

	got, err := p.Report()
	require.NoError(t, err)
	require.Equal(t, rep, got)
}

func TestTelemetryPayloadRejectsUnknownState(t *testing.T) {
	p := TelemetryPayload{State: "Sprinting"}
	_, err := p.Report()
	require.Error(t, err)
}

func TestMatchTopic(t *testing.T) {
	for _, tc := range []struct {
		topic, filter string
		want          bool
	}{
		{"telemetry", "telemetry", true},
		{"telemetry", "event", false},
		{"rig1/telemetry", "+/telemetry", true},
		{"rig1/telemetry", "+/event", false},
		{"rig1/telemetry", "#", true},
		{"rig1/a/b", "rig1/#", true},
		{"rig1", "rig1/telemetry", false},
		{"rig1/telemetry", "rig1", false},
	} {
		require.Equal(t, tc.want, MatchTopic(tc.topic, tc.filter),
			"topic %q filter %q", tc.topic, tc.filter)
	}
}
