// Package rig runs the controller side of the bench protocol: it
// owns the application state, applies validated setpoints to the loop
// model, and emits a report every control tick. Policy lives here;
// the state cycle itself is msgs.AppState.Next and nothing advances
// it any other way.
package rig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/hemobench/mockloop.go/pkg/msgs"
)

// DefaultPeriod is the control tick, matching the firmware's report
// rate.
const DefaultPeriod = 100 * time.Millisecond

// Model is the controlled plant: the bench simulator, or a fake in
// tests.
type Model interface {
	Apply(msgs.Setpoint)
	Step(dt float64)
	Sample() msgs.Measurements
}

// ReportSink consumes the report emitted each tick. link.Rig is the
// production sink.
type ReportSink interface {
	SendReport(msgs.Report) error
}

// Engine drives one rig. Configure the exported fields before Run.
type Engine struct {
	Model  Model
	Sink   ReportSink
	Period time.Duration

	// Clock is the time source; nil means time.Now. Tests inject a
	// fake to pin timestamps.
	Clock func() time.Time

	mu       sync.Mutex
	state    msgs.AppState
	setpoint msgs.Setpoint
	started  time.Time
	lastTick time.Time
}

// NewEngine creates an Engine in StandBy with both subsystems off.
func NewEngine(model Model, sink ReportSink) *Engine {
	return &Engine{
		Model:  model,
		Sink:   sink,
		Period: DefaultPeriod,
	}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// State gets the current application state.
func (e *Engine) State() msgs.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Setpoint gets the last applied setpoint.
func (e *Engine) Setpoint() msgs.Setpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setpoint.Clone()
}

// Apply validates and installs a setpoint. An invalid setpoint is
// rejected and the last applied one stays in force. The first enabled
// setpoint while StandBy arms the rig; an all-off setpoint while
// Fault clears it — that is the host's wire path out of a fault.
func (e *Engine) Apply(sp msgs.Setpoint) error {
	if err := sp.Validate(); err != nil {
		return fmt.Errorf("setpoint rejected: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setpoint = sp.Clone()
	if e.state == msgs.StandBy && sp.Enabled() {
		e.advanceLocked("setpoint armed")
	} else if e.state == msgs.Fault && !sp.Enabled() {
		e.advanceLocked("fault cleared")
	}
	e.configureModelLocked()
	return nil
}

// Arm advances StandBy to Running.
func (e *Engine) Arm() error {
	return e.requestLocked(msgs.StandBy, "armed")
}

// Trip advances Running to Fault, recording the reason.
func (e *Engine) Trip(reason string) error {
	return e.requestLocked(msgs.Running, "tripped: "+reason)
}

// Clear advances Fault back to StandBy.
func (e *Engine) Clear() error {
	return e.requestLocked(msgs.Fault, "cleared")
}

func (e *Engine) requestLocked(from msgs.AppState, what string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != from {
		return fmt.Errorf("rig is %s, not %s", e.state, from)
	}
	e.advanceLocked(what)
	e.configureModelLocked()
	return nil
}

func (e *Engine) advanceLocked(what string) {
	next := e.state.Next()
	glog.Infof("rig %s: %s -> %s", what, e.state, next)
	e.state = next
}

// configureModelLocked hands the model the setpoint in force: the
// applied one while Running, the inert default otherwise, so a rig
// in StandBy or Fault never drives actuators.
func (e *Engine) configureModelLocked() {
	if e.state == msgs.Running {
		e.Model.Apply(e.setpoint)
		return
	}
	e.Model.Apply(msgs.DefaultSetpoint())
}

// HandleSetpoint implements link.SetpointHandler: inbound setpoints
// feed Apply, and a rejected one only logs — the link must keep
// running on the last good command.
func (e *Engine) HandleSetpoint(_ context.Context, sp msgs.Setpoint) {
	if err := e.Apply(sp); err != nil {
		glog.Warning(err)
	}
}

// Run ticks the model and emits reports until ctx is canceled or the
// sink fails. A sink failure trips the rig before Run returns. Run
// may be called again after returning: state and the boot clock
// survive, so a host reattaching to a tripped rig sees the fault, not
// a fresh rig.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	now := e.now()
	if e.started.IsZero() {
		e.started = now
	}
	e.lastTick = now
	e.configureModelLocked()
	e.mu.Unlock()

	ticker := time.NewTicker(e.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(); err != nil {
				e.mu.Lock()
				if e.state == msgs.Running {
					e.advanceLocked("tripped: " + err.Error())
					e.configureModelLocked()
				}
				e.mu.Unlock()
				return err
			}
		}
	}
}

// Tick advances the model by the wall time elapsed since the last
// tick and emits one report.
func (e *Engine) Tick() error {
	e.mu.Lock()
	now := e.now()
	if e.started.IsZero() {
		e.started = now
		e.lastTick = now
	}
	dt := now.Sub(e.lastTick).Seconds()
	e.lastTick = now
	e.Model.Step(dt)

	m := e.Model.Sample()
	m.Timestamp = uint64(now.Sub(e.started) / time.Millisecond)
	rep := msgs.Report{
		Setpoint:     e.setpoint.Clone(),
		State:        e.state,
		Measurements: m,
	}
	e.mu.Unlock()

	if err := e.Sink.SendReport(rep); err != nil {
		return fmt.Errorf("report sink: %w", err)
	}
	return nil
}
