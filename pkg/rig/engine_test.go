package rig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/units"
)

// fakeModel records what the engine does to the plant.
type fakeModel struct {
	applied []msgs.Setpoint
	stepped float64
	sample  msgs.Measurements
}

func (m *fakeModel) Apply(sp msgs.Setpoint) { m.applied = append(m.applied, sp.Clone()) }

func (m *fakeModel) Step(dt float64) { m.stepped += dt }

func (m *fakeModel) Sample() msgs.Measurements { return m.sample }

func (m *fakeModel) lastApplied() msgs.Setpoint { return m.applied[len(m.applied)-1] }

type fakeSink struct {
	reports []msgs.Report
	err     error
}

func (s *fakeSink) SendReport(rep msgs.Report) error {
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, rep)
	return nil
}

// fakeClock steps a fixed amount per reading.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) read() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func newTestEngine() (*Engine, *fakeModel, *fakeSink, *fakeClock) {
	model := &fakeModel{}
	sink := &fakeSink{}
	clock := &fakeClock{now: time.Unix(1000, 0), step: 100 * time.Millisecond}
	e := NewEngine(model, sink)
	e.Clock = clock.read
	return e, model, sink, clock
}

func enabledSetpoint() msgs.Setpoint {
	return msgs.Setpoint{Heart: &msgs.HeartControllerSetpoint{
		Rate:         units.FrequencyFromHertz(1),
		Pressure:     units.PressureFromMillibar(200),
		SystoleRatio: msgs.DefaultSystoleRatio,
	}}
}

func TestEngineStartsInStandBy(t *testing.T) {
	e, _, _, _ := newTestEngine()
	require.Equal(t, msgs.StandBy, e.State())
	require.False(t, e.Setpoint().Enabled())
}

func TestEngineAutoArmsOnEnabledSetpoint(t *testing.T) {
	e, model, _, _ := newTestEngine()

	require.NoError(t, e.Apply(enabledSetpoint()))
	require.Equal(t, msgs.Running, e.State())
	require.True(t, model.lastApplied().Equal(enabledSetpoint()))
}

func TestEngineAllOffSetpointDoesNotArm(t *testing.T) {
	e, model, _, _ := newTestEngine()

	require.NoError(t, e.Apply(msgs.DefaultSetpoint()))
	require.Equal(t, msgs.StandBy, e.State())
	require.False(t, model.lastApplied().Enabled())
}

func TestEngineRejectsInvalidSetpointKeepsLast(t *testing.T) {
	e, model, _, _ := newTestEngine()
	require.NoError(t, e.Apply(enabledSetpoint()))

	bad := enabledSetpoint()
	bad.Heart.SystoleRatio = 1.5
	require.Error(t, e.Apply(bad))
	require.True(t, e.Setpoint().Equal(enabledSetpoint()))
	require.True(t, model.lastApplied().Equal(enabledSetpoint()))
}

func TestEngineTripAndClearFollowTheCycle(t *testing.T) {
	e, model, _, _ := newTestEngine()

	require.Error(t, e.Trip("not running yet"))
	require.NoError(t, e.Arm())
	require.Equal(t, msgs.Running, e.State())

	require.NoError(t, e.Trip("regulator overpressure"))
	require.Equal(t, msgs.Fault, e.State())
	// A faulted rig never drives actuators.
	require.False(t, model.lastApplied().Enabled())

	require.Error(t, e.Arm())
	require.NoError(t, e.Clear())
	require.Equal(t, msgs.StandBy, e.State())
}

func TestEngineAllOffSetpointClearsFault(t *testing.T) {
	e, _, _, _ := newTestEngine()
	require.NoError(t, e.Apply(enabledSetpoint()))
	require.NoError(t, e.Trip("test"))

	require.NoError(t, e.Apply(msgs.DefaultSetpoint()))
	require.Equal(t, msgs.StandBy, e.State())
}

func TestEngineEnabledSetpointDoesNotClearFault(t *testing.T) {
	e, model, _, _ := newTestEngine()
	require.NoError(t, e.Apply(enabledSetpoint()))
	require.NoError(t, e.Trip("test"))

	require.NoError(t, e.Apply(enabledSetpoint()))
	require.Equal(t, msgs.Fault, e.State())
	require.False(t, model.lastApplied().Enabled())
}

func TestEngineTickEmitsMonotonicTimestamps(t *testing.T) {
	e, model, sink, _ := newTestEngine()
	model.sample = msgs.Measurements{
		RegulatorActualPressure: units.PressureFromPascals(1234),
	}
	require.NoError(t, e.Apply(enabledSetpoint()))

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Tick())
	}
	require.Len(t, sink.reports, 3)
	var last uint64
	for _, rep := range sink.reports {
		require.Equal(t, msgs.Running, rep.State)
		require.True(t, rep.Setpoint.Equal(enabledSetpoint()))
		require.EqualValues(t, 1234, rep.Measurements.RegulatorActualPressure.Pascals())
		require.GreaterOrEqual(t, rep.Measurements.Timestamp, last)
		last = rep.Measurements.Timestamp
	}
	// The first tick anchors the session clock; the rest advance the
	// model by the elapsed wall time.
	require.InDelta(t, 0.2, model.stepped, 1e-9)
}

func TestEngineReportsEchoSnapshot(t *testing.T) {
	e, _, sink, _ := newTestEngine()
	require.NoError(t, e.Apply(enabledSetpoint()))
	require.NoError(t, e.Tick())

	// Mutating the echo must not reach the engine's copy.
	sink.reports[0].Setpoint.Heart.SystoleRatio = 0.9
	require.True(t, e.Setpoint().Equal(enabledSetpoint()))
}

func TestEngineRunTripsOnSinkFailure(t *testing.T) {
	e, _, sink, _ := newTestEngine()
	e.Period = time.Millisecond
	require.NoError(t, e.Apply(enabledSetpoint()))
	sink.err = errors.New("serial gone")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := e.Run(ctx)
	require.ErrorContains(t, err, "serial gone")
	require.Equal(t, msgs.Fault, e.State())
}

// A rig survives its host: after Run returns on a sink failure, a new
// Run against a fresh link keeps reporting the fault on the original
// boot clock rather than presenting a fresh rig.
func TestEngineRunRestartKeepsStateAndClock(t *testing.T) {
	e, _, sink, _ := newTestEngine()
	e.Period = time.Millisecond
	require.NoError(t, e.Apply(enabledSetpoint()))

	sink.err = errors.New("host gone")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.ErrorContains(t, e.Run(ctx), "host gone")
	require.Equal(t, msgs.Fault, e.State())

	sink.err = nil
	ctx, cancel = context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, e.Run(ctx), context.DeadlineExceeded)

	require.Equal(t, msgs.Fault, e.State())
	require.NotEmpty(t, sink.reports)
	var last uint64
	for _, rep := range sink.reports {
		require.Equal(t, msgs.Fault, rep.State)
		require.Greater(t, rep.Measurements.Timestamp, last)
		last = rep.Measurements.Timestamp
	}
}
