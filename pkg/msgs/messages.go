// Package msgs defines the message schema shared between the bench
// host and the mockloop rig firmware: setpoints going up, reports
// coming down, and the application state the rig cycles through.
//
// The schema is protocol revision 2: each controllable subsystem is
// independently optional inside Setpoint (nil means commanded off).
// Revision 1 carried a single global enable flag and is retired;
// peers exchange the revision out-of-band before attaching.
package msgs

import (
	"math"

	"github.com/hemobench/mockloop.go/pkg/units"
)

// MockloopSetpoint commands the loop hardware: vascular resistances
// and afterload compliances for the systemic and pulmonary circuits.
type MockloopSetpoint struct {
	SystemicResistance           float32
	PulmonaryResistance          float32
	SystemicAfterloadCompliance  float32
	PulmonaryAfterloadCompliance float32
}

// DefaultMockloopSetpoint creates the inert loop setpoint: fully
// blocking resistances and rigid afterloads.
func DefaultMockloopSetpoint() MockloopSetpoint {
	return MockloopSetpoint{
		SystemicResistance:  math.MaxFloat32,
		PulmonaryResistance: math.MaxFloat32,
	}
}

// DefaultSystoleRatio is the bench preset fraction of each cardiac
// cycle spent in systole.
const DefaultSystoleRatio = float32(3.0 / 7.0)

// HeartControllerSetpoint commands the pneumatic heart driver.
type HeartControllerSetpoint struct {
	Rate         units.Frequency
	Pressure     units.Pressure
	SystoleRatio float32
}

// DefaultHeartControllerSetpoint creates the inert heart setpoint:
// zero rate, zero drive pressure, preset systole ratio.
func DefaultHeartControllerSetpoint() HeartControllerSetpoint {
	return HeartControllerSetpoint{SystoleRatio: DefaultSystoleRatio}
}

// Setpoint is the uplink command: each subsystem carries a body or is
// commanded off with nil.
type Setpoint struct {
	Mockloop *MockloopSetpoint
	Heart    *HeartControllerSetpoint
}

// DefaultSetpoint creates a setpoint with both subsystems off.
func DefaultSetpoint() Setpoint {
	return Setpoint{}
}

// Enabled reports whether any subsystem is commanded on.
func (s Setpoint) Enabled() bool {
	return s.Mockloop != nil || s.Heart != nil
}

// Equal compares two setpoints including subsystem presence.
func (s Setpoint) Equal(o Setpoint) bool {
	if (s.Mockloop == nil) != (o.Mockloop == nil) {
		return false
	}
	if (s.Heart == nil) != (o.Heart == nil) {
		return false
	}
	if s.Mockloop != nil && *s.Mockloop != *o.Mockloop {
		return false
	}
	if s.Heart != nil && *s.Heart != *o.Heart {
		return false
	}
	return true
}

// Clone returns a deep copy safe to retain.
func (s Setpoint) Clone() Setpoint {
	var c Setpoint
	if s.Mockloop != nil {
		m := *s.Mockloop
		c.Mockloop = &m
	}
	if s.Heart != nil {
		h := *s.Heart
		c.Heart = &h
	}
	return c
}

// Measurements is one sample of the sensed loop state.
type Measurements struct {
	// Timestamp is milliseconds since rig boot, monotonically
	// non-decreasing within a session.
	Timestamp                  uint64
	RegulatorActualPressure    units.Pressure
	SystemicFlow               units.VolumeRate
	PulmonaryFlow              units.VolumeRate
	SystemicPreloadPressure    units.Pressure
	SystemicAfterloadPressure  units.Pressure
	PulmonaryPreloadPressure   units.Pressure
	PulmonaryAfterloadPressure units.Pressure
}

// Report is the periodic downlink snapshot: the setpoint in force,
// the application state, and the latest measurements. A report is
// built fresh each control cycle and treated as immutable after.
type Report struct {
	Setpoint     Setpoint
	State        AppState
	Measurements Measurements
}
