// Package sh is the interactive operator console for the bench. It
// attaches to a rig directly over a transport URL or through a
// gateway's MQTT mirror, and carries a draft setpoint the domain
// commands edit and send.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/hemobench/mockloop.go/pkg/msgs"
)

// Shell provides the ishell backed interactive console.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Session Session
	// Draft is the setpoint under construction; send ships it.
	Draft msgs.Setpoint
}

const (
	shellKey       = "$shell"
	detachedPrompt = "[detached] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	attachURL  string

	// commands
	commands = []*ishell.Cmd{
		&AttachCmd,
		&DetachCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&attachURL, "attach", attachURL, "Attach this rig URL on startup (serial:, tcp:, ws:, mqtt:).")
}

// AddCmds is used by command providers during their init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Draft: msgs.DefaultSetpoint(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(detachedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeAttached wraps a command func that requires a session.
func MustBeAttached(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not attached"))
			return
		}
		fn(c)
	}
}

// Print renders v the way the shell is configured: its String form,
// or JSON with -json.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Printf("%s\n", v)
}

// Attach opens a session, replacing any current one.
func (s *Shell) Attach(rawurl string) error {
	session, err := Attach(rawurl)
	if err != nil {
		return err
	}
	s.Detach()
	s.Session = session
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", rawurl))
	return nil
}

// Detach closes the current session.
func (s *Shell) Detach() {
	if s.Session != nil {
		if err := s.Session.Close(); err != nil {
			log.Printf("detach: %v", err)
		}
		s.Session = nil
		s.Shell.SetPrompt(detachedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if attachURL != "" {
		if s.Interactive {
			s.Shell.Printf("Attaching %s ...\n", attachURL)
		}
		if err := s.Attach(attachURL); err != nil {
			log.Fatalf("attach %q failed: %v", attachURL, err)
		}
	}
	defer s.Detach()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// AttachCmd attaches a rig.
	AttachCmd = ishell.Cmd{
		Name:    "attach",
		Aliases: []string{"a"},
		Help:    "URL (serial:/dev/ttyUSB0, tcp://host:port, ws://..., mqtt://broker/prefix/)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := ShellFrom(c).Attach(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DetachCmd detaches the current rig.
	DetachCmd = ishell.Cmd{
		Name:    "detach",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Detach()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
