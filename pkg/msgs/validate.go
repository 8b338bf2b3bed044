package msgs

import (
	"fmt"
	"math"
)

// Validate checks all loop parameters are usable by the rig.
func (s MockloopSetpoint) Validate() error {
	for _, p := range []struct {
		name string
		v    float32
	}{
		{"systemic resistance", s.SystemicResistance},
		{"pulmonary resistance", s.PulmonaryResistance},
	} {
		if !(p.v > 0) || math.IsInf(float64(p.v), 1) {
			return fmt.Errorf("mockloop setpoint: %s must be positive and finite, got %v", p.name, p.v)
		}
	}
	for _, p := range []struct {
		name string
		v    float32
	}{
		{"systemic afterload compliance", s.SystemicAfterloadCompliance},
		{"pulmonary afterload compliance", s.PulmonaryAfterloadCompliance},
	} {
		if !(p.v >= 0) || math.IsInf(float64(p.v), 1) {
			return fmt.Errorf("mockloop setpoint: %s must be non-negative and finite, got %v", p.name, p.v)
		}
	}
	return nil
}

// Validate checks the heart drive parameters are usable by the rig.
func (s HeartControllerSetpoint) Validate() error {
	if hz := s.Rate.Hertz(); !(hz >= 0) || math.IsInf(float64(hz), 1) {
		return fmt.Errorf("heart setpoint: rate must be non-negative and finite, got %vHz", hz)
	}
	if pa := s.Pressure.Pascals(); !(pa >= 0) || math.IsInf(float64(pa), 1) {
		return fmt.Errorf("heart setpoint: pressure must be non-negative and finite, got %vPa", pa)
	}
	if !(s.SystoleRatio > 0 && s.SystoleRatio < 1) {
		return fmt.Errorf("heart setpoint: systole ratio must be in (0, 1), got %v", s.SystoleRatio)
	}
	return nil
}

// Validate checks the bodies of all present subsystems.
func (s Setpoint) Validate() error {
	if s.Mockloop != nil {
		if err := s.Mockloop.Validate(); err != nil {
			return err
		}
	}
	if s.Heart != nil {
		if err := s.Heart.Validate(); err != nil {
			return err
		}
	}
	return nil
}
