package msgs

import "fmt"

// Disabled is the token rendered for a subsystem commanded off.
const Disabled = "DISABLED"

// String implements fmt.Stringer. Pressures render in mmHg and flows
// in litres per minute; values are converted at format time only.
func (m Measurements) String() string {
	return fmt.Sprintf("meas t=%dms reg=%.1fmmHg sf=%.2flpm pf=%.2flpm spp=%.1fmmHg sap=%.1fmmHg ppp=%.1fmmHg pap=%.1fmmHg",
		m.Timestamp,
		m.RegulatorActualPressure.MmHg(),
		m.SystemicFlow.LitersPerMinute(),
		m.PulmonaryFlow.LitersPerMinute(),
		m.SystemicPreloadPressure.MmHg(),
		m.SystemicAfterloadPressure.MmHg(),
		m.PulmonaryPreloadPressure.MmHg(),
		m.PulmonaryAfterloadPressure.MmHg())
}

// String implements fmt.Stringer.
func (s MockloopSetpoint) String() string {
	return fmt.Sprintf("Rs=%g Rp=%g Cs=%g Cp=%g",
		s.SystemicResistance,
		s.PulmonaryResistance,
		s.SystemicAfterloadCompliance,
		s.PulmonaryAfterloadCompliance)
}

// String implements fmt.Stringer. The drive pressure renders in
// millibar, the bench convention for regulator settings.
func (s HeartControllerSetpoint) String() string {
	return fmt.Sprintf("rate=%.2fHz press=%.1fmbar systole=%.2f",
		s.Rate.Hertz(),
		s.Pressure.Millibar(),
		s.SystoleRatio)
}

// String implements fmt.Stringer. Subsystems commanded off render the
// Disabled token.
func (s Setpoint) String() string {
	heart, loop := Disabled, Disabled
	if s.Heart != nil {
		heart = s.Heart.String()
	}
	if s.Mockloop != nil {
		loop = s.Mockloop.String()
	}
	return fmt.Sprintf("setpoint heart[%s] loop[%s]", heart, loop)
}

// String implements fmt.Stringer.
func (r Report) String() string {
	return fmt.Sprintf("report state=%s %s %s", r.State, r.Setpoint, r.Measurements)
}
