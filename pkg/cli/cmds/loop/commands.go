// Package loop provides the bench commands for the operator console:
// inspecting reports, editing the draft setpoint, and driving the rig
// through its operating cycle.
package loop

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/hemobench/mockloop.go/pkg/cli/sh"
	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/units"
)

// watchTimeout bounds one watch iteration, comfortably above any
// sane report period.
const watchTimeout = 5 * time.Second

func parseF32(arg, name string) (float32, error) {
	val, err := strconv.ParseFloat(arg, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return float32(val), nil
}

var (
	// StateCmd prints the rig's operating state.
	StateCmd = ishell.Cmd{
		Name: "state",
		Help: "",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			rep, ok := s.Session.Last()
			if !ok {
				c.Err(fmt.Errorf("no report received yet"))
				return
			}
			s.Print(c, rep.State)
		}),
	}

	// ReportCmd prints the latest report.
	ReportCmd = ishell.Cmd{
		Name:    "report",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			rep, ok := s.Session.Last()
			if !ok {
				c.Err(fmt.Errorf("no report received yet"))
				return
			}
			s.Print(c, rep)
		}),
	}

	// WatchCmd streams reports as they arrive.
	WatchCmd = ishell.Cmd{
		Name: "watch",
		Help: "[COUNT] (default 10)",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			count := 10
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("invalid COUNT %q", c.Args[0]))
					return
				}
				count = val
			}
			for i := 0; i < count; i++ {
				ctx, cancel := context.WithTimeout(context.Background(), watchTimeout)
				rep, err := s.Session.Next(ctx)
				cancel()
				if err != nil {
					c.Err(fmt.Errorf("no report within %s", watchTimeout))
					return
				}
				s.Print(c, rep)
			}
		}),
	}

	// StatsCmd prints link health counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			stats, ok := s.Session.Stats()
			if !ok {
				c.Err(fmt.Errorf("no link counters on an mqtt session"))
				return
			}
			c.Printf("messages=%d frame-drops=%d decode-drops=%d\n",
				stats.Messages, stats.FrameDrops, stats.DecodeDrops)
		}),
	}

	// ShowCmd prints the draft setpoint.
	ShowCmd = ishell.Cmd{
		Name:    "sp.show",
		Aliases: []string{"show"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			s.Print(c, s.Draft)
		},
	}

	// HeartCmd edits the draft's heart drive.
	HeartCmd = ishell.Cmd{
		Name: "sp.heart",
		Help: "RATE(bpm) PRESSURE(mbar) [SYSTOLE_RATIO] | off",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if len(c.Args) == 1 && c.Args[0] == "off" {
				s.Draft.Heart = nil
				return
			}
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("RATE and PRESSURE required"))
				return
			}
			bpm, err := parseF32(c.Args[0], "RATE")
			if err != nil {
				c.Err(err)
				return
			}
			mbar, err := parseF32(c.Args[1], "PRESSURE")
			if err != nil {
				c.Err(err)
				return
			}
			ratio := msgs.DefaultSystoleRatio
			if len(c.Args) > 2 {
				if ratio, err = parseF32(c.Args[2], "SYSTOLE_RATIO"); err != nil {
					c.Err(err)
					return
				}
			}
			heart := msgs.HeartControllerSetpoint{
				Rate:         units.FrequencyFromPerMinute(bpm),
				Pressure:     units.PressureFromMillibar(mbar),
				SystoleRatio: ratio,
			}
			if err := heart.Validate(); err != nil {
				c.Err(err)
				return
			}
			s.Draft.Heart = &heart
		},
	}

	// LoopCmd edits the draft's mockloop parameters.
	LoopCmd = ishell.Cmd{
		Name: "sp.loop",
		Help: "RS RP CS CP (resistances mmHg·min/L, compliances mL/mmHg) | off",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if len(c.Args) == 1 && c.Args[0] == "off" {
				s.Draft.Mockloop = nil
				return
			}
			if len(c.Args) < 4 {
				c.Err(fmt.Errorf("RS RP CS CP required"))
				return
			}
			var vals [4]float32
			for i, name := range []string{"RS", "RP", "CS", "CP"} {
				val, err := parseF32(c.Args[i], name)
				if err != nil {
					c.Err(err)
					return
				}
				vals[i] = val
			}
			loop := msgs.MockloopSetpoint{
				SystemicResistance:           vals[0],
				PulmonaryResistance:          vals[1],
				SystemicAfterloadCompliance:  vals[2],
				PulmonaryAfterloadCompliance: vals[3],
			}
			if err := loop.Validate(); err != nil {
				c.Err(err)
				return
			}
			s.Draft.Mockloop = &loop
		},
	}

	// SendCmd ships the draft setpoint.
	SendCmd = ishell.Cmd{
		Name:    "sp.send",
		Aliases: []string{"send"},
		Help:    "",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if err := s.Draft.Validate(); err != nil {
				c.Err(err)
				return
			}
			if err := s.Session.Send(s.Draft); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// ArmCmd sends the draft, which must enable a subsystem; a rig in
	// StandBy arms on it.
	ArmCmd = ishell.Cmd{
		Name: "arm",
		Help: "send the draft setpoint (must enable a subsystem)",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if !s.Draft.Enabled() {
				c.Err(fmt.Errorf("draft has both subsystems off; set sp.heart or sp.loop first"))
				return
			}
			if err := s.Draft.Validate(); err != nil {
				c.Err(err)
				return
			}
			if err := s.Session.Send(s.Draft); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// StopCmd sends the all-off setpoint: a running rig idles its
	// actuators, a faulted rig clears to StandBy.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"clear"},
		Help:    "command both subsystems off",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if err := s.Session.Send(msgs.DefaultSetpoint()); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}
)

func init() {
	sh.AddCmds(
		&StateCmd,
		&ReportCmd,
		&WatchCmd,
		&StatsCmd,
		&ShowCmd,
		&HeartCmd,
		&LoopCmd,
		&SendCmd,
		&ArmCmd,
		&StopCmd,
	)
}
