package msgs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemobench/mockloop.go/pkg/units"
)

func validLoop() *MockloopSetpoint {
	return &MockloopSetpoint{
		SystemicResistance:           1200,
		PulmonaryResistance:          300,
		SystemicAfterloadCompliance:  1.1,
		PulmonaryAfterloadCompliance: 2.2,
	}
}

func validHeart() *HeartControllerSetpoint {
	return &HeartControllerSetpoint{
		Rate:         units.FrequencyFromHertz(1.2),
		Pressure:     units.PressureFromMillibar(180),
		SystoleRatio: 0.43,
	}
}

func TestDefaultsInertAndValid(t *testing.T) {
	loop := DefaultMockloopSetpoint()
	require.Equal(t, float32(math.MaxFloat32), loop.SystemicResistance)
	require.Equal(t, float32(math.MaxFloat32), loop.PulmonaryResistance)
	require.Zero(t, loop.SystemicAfterloadCompliance)
	require.Zero(t, loop.PulmonaryAfterloadCompliance)
	require.NoError(t, loop.Validate())

	heart := DefaultHeartControllerSetpoint()
	require.Zero(t, heart.Rate.Hertz())
	require.Zero(t, heart.Pressure.Pascals())
	require.InDelta(t, 3.0/7.0, float64(heart.SystoleRatio), 1e-6)
	require.NoError(t, heart.Validate())

	sp := DefaultSetpoint()
	require.False(t, sp.Enabled())
	require.NoError(t, sp.Validate())
}

func TestSetpointValidate(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, test := range []struct {
		name string
		mod  func(*Setpoint)
		ok   bool
	}{
		{"both off", func(s *Setpoint) { s.Mockloop, s.Heart = nil, nil }, true},
		{"both on valid", func(s *Setpoint) {}, true},
		{"zero resistance", func(s *Setpoint) { s.Mockloop.SystemicResistance = 0 }, false},
		{"nan resistance", func(s *Setpoint) { s.Mockloop.PulmonaryResistance = nan }, false},
		{"inf resistance", func(s *Setpoint) { s.Mockloop.SystemicResistance = inf }, false},
		{"negative compliance", func(s *Setpoint) { s.Mockloop.PulmonaryAfterloadCompliance = -1 }, false},
		{"zero compliance ok", func(s *Setpoint) { s.Mockloop.SystemicAfterloadCompliance = 0 }, true},
		{"systole zero", func(s *Setpoint) { s.Heart.SystoleRatio = 0 }, false},
		{"systole one", func(s *Setpoint) { s.Heart.SystoleRatio = 1 }, false},
		{"negative rate", func(s *Setpoint) { s.Heart.Rate = units.FrequencyFromHertz(-1) }, false},
		{"nan pressure", func(s *Setpoint) { s.Heart.Pressure = units.PressureFromPascals(nan) }, false},
	} {
		sp := Setpoint{Mockloop: validLoop(), Heart: validHeart()}
		test.mod(&sp)
		err := sp.Validate()
		if test.ok {
			require.NoError(t, err, test.name)
		} else {
			require.Error(t, err, test.name)
		}
	}
}

func TestSetpointEqualAndClone(t *testing.T) {
	a := Setpoint{Mockloop: validLoop(), Heart: validHeart()}
	b := a.Clone()
	require.True(t, a.Equal(b))
	b.Heart.SystoleRatio = 0.5
	require.False(t, a.Equal(b))
	require.InDelta(t, 0.43, float64(a.Heart.SystoleRatio), 1e-6)
	require.False(t, a.Equal(Setpoint{Mockloop: validLoop()}))
	require.False(t, Setpoint{Heart: validHeart()}.Equal(Setpoint{Mockloop: validLoop()}))
	require.True(t, DefaultSetpoint().Equal(Setpoint{}))
}
