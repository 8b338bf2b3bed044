// Package sim models the mock circulatory loop well enough to
// exercise the whole protocol stack without bench hardware: a
// pneumatic drive with a lagging pressure regulator feeding two
// lumped-parameter (windkessel) circuits. The model is pure and
// deterministic — no clocks, no I/O; the rig engine owns time.
//
// Loop parameters follow the bench's clinical conventions:
// resistances in mmHg·min/L, compliances in mL/mmHg.
package sim

import (
	"math"

	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/units"
)

// Conversion from the clinical loop-parameter units to SI.
var (
	rScale = float64(units.PressureFromMmHg(1).Pascals()) /
		float64(units.VolumeRateFromLitersPerMinute(1).CubicMetersPerSecond())
	cScale = 1e-6 / float64(units.PressureFromMmHg(1).Pascals())
)

const (
	// regulatorTau is the pressure regulator's first-order lag.
	regulatorTau = 0.2
	// valveResistance feeds the circuits during systole (clinical units).
	valveResistance = 0.2
	// venousResistance raises preload slightly with flow.
	venousResistance = 0.1
	// minCompliance keeps rigid afterloads integrable.
	minCompliance = 0.05
)

// Loop is the simulated bench. Internal state is float64 SI; samples
// convert to the schema's float32 quantities at the edge.
type Loop struct {
	sp    msgs.Setpoint
	phase float64
	preg  float64

	sys circuit
	pul circuit
}

// NewLoop creates a quiescent loop with both subsystems off.
func NewLoop() *Loop {
	l := &Loop{
		sys: newCircuit(float64(units.PressureFromMmHg(5).Pascals())),
		pul: newCircuit(float64(units.PressureFromMmHg(3).Pascals())),
	}
	l.Apply(msgs.DefaultSetpoint())
	return l
}

// Apply installs a new setpoint. Absent subsystems take the inert
// defaults: no drive, blocking resistances.
func (l *Loop) Apply(sp msgs.Setpoint) {
	l.sp = sp.Clone()
	loop := msgs.DefaultMockloopSetpoint()
	if sp.Mockloop != nil {
		loop = *sp.Mockloop
	}
	l.sys.configure(float64(loop.SystemicResistance), float64(loop.SystemicAfterloadCompliance))
	l.pul.configure(float64(loop.PulmonaryResistance), float64(loop.PulmonaryAfterloadCompliance))
}

// Step advances the model by dt seconds.
func (l *Loop) Step(dt float64) {
	if dt <= 0 {
		return
	}
	cmd, rate, systole := 0.0, 0.0, 0.0
	if h := l.sp.Heart; h != nil {
		cmd = float64(h.Pressure.Pascals())
		rate = float64(h.Rate.Hertz())
		systole = float64(h.SystoleRatio)
	}
	l.preg += (cmd - l.preg) * math.Min(1, dt/regulatorTau)

	l.phase += rate * dt
	l.phase -= math.Floor(l.phase)
	drive := 0.0
	if rate > 0 && l.phase < systole {
		drive = l.preg
	}
	l.sys.step(dt, drive)
	l.pul.step(dt, drive)
}

// Sample reads the sensed state. The caller stamps the timestamp.
func (l *Loop) Sample() msgs.Measurements {
	return msgs.Measurements{
		RegulatorActualPressure:    units.PressureFromPascals(float32(l.preg)),
		SystemicFlow:               units.VolumeRateFromCubicMetersPerSecond(float32(l.sys.flow)),
		PulmonaryFlow:              units.VolumeRateFromCubicMetersPerSecond(float32(l.pul.flow)),
		SystemicPreloadPressure:    units.PressureFromPascals(float32(l.sys.venous)),
		SystemicAfterloadPressure:  units.PressureFromPascals(float32(l.sys.arterial)),
		PulmonaryPreloadPressure:   units.PressureFromPascals(float32(l.pul.venous)),
		PulmonaryAfterloadPressure: units.PressureFromPascals(float32(l.pul.arterial)),
	}
}

// circuit is a two-element windkessel fed through an inflow valve.
type circuit struct {
	arterial  float64
	venous    float64
	flow      float64
	reservoir float64

	resistance float64 // Pa·s/m³
	compliance float64 // m³/Pa
	valve      float64 // Pa·s/m³
}

func newCircuit(reservoir float64) circuit {
	return circuit{
		arterial:  reservoir,
		venous:    reservoir,
		reservoir: reservoir,
		valve:     valveResistance * rScale,
	}
}

func (c *circuit) configure(rClinical, cClinical float64) {
	c.resistance = rClinical * rScale
	if cClinical < minCompliance {
		cClinical = minCompliance
	}
	c.compliance = cClinical * cScale
}

// step integrates one interval with a backward-Euler update, which
// stays stable for any tick length and any compliance.
func (c *circuit) step(dt, drive float64) {
	open := 0.0
	if drive > c.arterial {
		open = 1
	}
	k := dt / c.compliance
	num := c.arterial + k*(open*drive/c.valve+c.venous/c.resistance)
	den := 1 + k*(open/c.valve+1/c.resistance)
	c.arterial = num / den

	c.flow = (c.arterial - c.venous) / c.resistance
	if c.flow < 0 {
		c.flow = 0
	}
	c.venous = c.reservoir + c.flow*venousResistance*rScale
}
