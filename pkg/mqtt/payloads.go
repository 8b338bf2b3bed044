package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/units"
)

// Prefix-relative topics published by the gateway. Meta is retained;
// everything else is fire-and-forget.
const (
	TopicTelemetry = "telemetry"
	TopicSetpoint  = "setpoint"
	TopicMeta      = "meta"
	TopicEvent     = "event"
)

// Lifecycle events carried on TopicEvent.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventStateChange = "STATE_CHANGE"
	EventLinkStale   = "LINK_STALE"
)

// MockloopPayload mirrors msgs.MockloopSetpoint. Resistances and
// compliances travel in the loop's native parameter units.
type MockloopPayload struct {
	SystemicResistance           float32 `json:"systemic_resistance"`
	PulmonaryResistance          float32 `json:"pulmonary_resistance"`
	SystemicAfterloadCompliance  float32 `json:"systemic_afterload_compliance"`
	PulmonaryAfterloadCompliance float32 `json:"pulmonary_afterload_compliance"`
}

// HeartPayload mirrors msgs.HeartControllerSetpoint in canonical
// units made explicit by the field names.
type HeartPayload struct {
	RateHz       float32 `json:"rate_hz"`
	PressurePa   float32 `json:"pressure_pa"`
	SystoleRatio float32 `json:"systole_ratio"`
}

// SetpointPayload mirrors msgs.Setpoint; a null subsystem is one
// commanded off.
type SetpointPayload struct {
	Mockloop *MockloopPayload `json:"mockloop"`
	Heart    *HeartPayload    `json:"heart"`
}

// MeasurementsPayload mirrors msgs.Measurements in canonical units.
type MeasurementsPayload struct {
	TimestampMs                  uint64  `json:"timestamp_ms"`
	RegulatorActualPressurePa    float32 `json:"regulator_actual_pressure_pa"`
	SystemicFlowM3s              float32 `json:"systemic_flow_m3s"`
	PulmonaryFlowM3s             float32 `json:"pulmonary_flow_m3s"`
	SystemicPreloadPressurePa    float32 `json:"systemic_preload_pressure_pa"`
	SystemicAfterloadPressurePa  float32 `json:"systemic_afterload_pressure_pa"`
	PulmonaryPreloadPressurePa   float32 `json:"pulmonary_preload_pressure_pa"`
	PulmonaryAfterloadPressurePa float32 `json:"pulmonary_afterload_pressure_pa"`
}

// TelemetryPayload is one mirrored report.
type TelemetryPayload struct {
	RigID        string              `json:"rig_id"`
	ReceivedAt   string              `json:"received_at"`
	State        string              `json:"state"`
	Setpoint     SetpointPayload     `json:"setpoint"`
	Measurements MeasurementsPayload `json:"measurements"`
}

// MetaPayload is the retained identity record a gateway publishes on
// attach. Peers check ProtocolRevision before trusting anything else.
type MetaPayload struct {
	RigID            string `json:"rig_id"`
	GatewayID        string `json:"gateway_id"`
	ProtocolRevision int    `json:"protocol_revision"`
	Transport        string `json:"transport"`
	StartedAt        string `json:"started_at"`
}

// EventPayload is a lifecycle or state-transition notice.
type EventPayload struct {
	RigID     string `json:"rig_id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	State     string `json:"state,omitempty"`
}

// NewSetpointPayload converts a schema setpoint for publication.
func NewSetpointPayload(sp msgs.Setpoint) SetpointPayload {
	var p SetpointPayload
	if sp.Mockloop != nil {
		p.Mockloop = &MockloopPayload{
			SystemicResistance:           sp.Mockloop.SystemicResistance,
			PulmonaryResistance:          sp.Mockloop.PulmonaryResistance,
			SystemicAfterloadCompliance:  sp.Mockloop.SystemicAfterloadCompliance,
			PulmonaryAfterloadCompliance: sp.Mockloop.PulmonaryAfterloadCompliance,
		}
	}
	if sp.Heart != nil {
		p.Heart = &HeartPayload{
			RateHz:       sp.Heart.Rate.Hertz(),
			PressurePa:   sp.Heart.Pressure.Pascals(),
			SystoleRatio: sp.Heart.SystoleRatio,
		}
	}
	return p
}

// Setpoint converts back to the schema type.
func (p SetpointPayload) Setpoint() msgs.Setpoint {
	var sp msgs.Setpoint
	if p.Mockloop != nil {
		sp.Mockloop = &msgs.MockloopSetpoint{
			SystemicResistance:           p.Mockloop.SystemicResistance,
			PulmonaryResistance:          p.Mockloop.PulmonaryResistance,
			SystemicAfterloadCompliance:  p.Mockloop.SystemicAfterloadCompliance,
			PulmonaryAfterloadCompliance: p.Mockloop.PulmonaryAfterloadCompliance,
		}
	}
	if p.Heart != nil {
		sp.Heart = &msgs.HeartControllerSetpoint{
			Rate:         units.FrequencyFromHertz(p.Heart.RateHz),
			Pressure:     units.PressureFromPascals(p.Heart.PressurePa),
			SystoleRatio: p.Heart.SystoleRatio,
		}
	}
	return sp
}

// NewTelemetryPayload converts a decoded report for publication.
func NewTelemetryPayload(rigID string, rep msgs.Report, receivedAt time.Time) TelemetryPayload {
	m := rep.Measurements
	return TelemetryPayload{
		RigID:      rigID,
		ReceivedAt: receivedAt.UTC().Format(time.RFC3339Nano),
		State:      rep.State.String(),
		Setpoint:   NewSetpointPayload(rep.Setpoint),
		Measurements: MeasurementsPayload{
			TimestampMs:                  m.Timestamp,
			RegulatorActualPressurePa:    m.RegulatorActualPressure.Pascals(),
			SystemicFlowM3s:              m.SystemicFlow.CubicMetersPerSecond(),
			PulmonaryFlowM3s:             m.PulmonaryFlow.CubicMetersPerSecond(),
			SystemicPreloadPressurePa:    m.SystemicPreloadPressure.Pascals(),
			SystemicAfterloadPressurePa:  m.SystemicAfterloadPressure.Pascals(),
			PulmonaryPreloadPressurePa:   m.PulmonaryPreloadPressure.Pascals(),
			PulmonaryAfterloadPressurePa: m.PulmonaryAfterloadPressure.Pascals(),
		},
	}
}

// Report reconstructs the schema report, for tools that want the
// diagnostic formatters instead of raw JSON.
func (p TelemetryPayload) Report() (msgs.Report, error) {
	var state msgs.AppState
	switch p.State {
	case msgs.StandBy.String():
		state = msgs.StandBy
	case msgs.Running.String():
		state = msgs.Running
	case msgs.Fault.String():
		state = msgs.Fault
	default:
		return msgs.Report{}, fmt.Errorf("telemetry payload: unknown state %q", p.State)
	}
	m := p.Measurements
	return msgs.Report{
		Setpoint: p.Setpoint.Setpoint(),
		State:    state,
		Measurements: msgs.Measurements{
			Timestamp:                  m.TimestampMs,
			RegulatorActualPressure:    units.PressureFromPascals(m.RegulatorActualPressurePa),
			SystemicFlow:               units.VolumeRateFromCubicMetersPerSecond(m.SystemicFlowM3s),
			PulmonaryFlow:              units.VolumeRateFromCubicMetersPerSecond(m.PulmonaryFlowM3s),
			SystemicPreloadPressure:    units.PressureFromPascals(m.SystemicPreloadPressurePa),
			SystemicAfterloadPressure:  units.PressureFromPascals(m.SystemicAfterloadPressurePa),
			PulmonaryPreloadPressure:   units.PressureFromPascals(m.PulmonaryPreloadPressurePa),
			PulmonaryAfterloadPressure: units.PressureFromPascals(m.PulmonaryAfterloadPressurePa),
		},
	}, nil
}

// Marshal renders a payload for publication. It can fail: JSON has
// no encoding for NaN or infinite floats, and nothing stops a rig
// from reporting one.
func Marshal(v interface{}) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("payload marshal: %w", err)
	}
	return out, nil
}
