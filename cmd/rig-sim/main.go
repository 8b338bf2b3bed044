package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"github.com/golang/glog"

	"github.com/hemobench/mockloop.go/pkg/link"
	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/rig"
	"github.com/hemobench/mockloop.go/pkg/sim"
	"github.com/hemobench/mockloop.go/pkg/transport"
)

var (
	listenURL = "tcp://:7104"
	tick      = rig.DefaultPeriod
	tripAfter time.Duration
)

func init() {
	flag.StringVar(&listenURL, "listen", listenURL, "TCP URL to serve the rig on.")
	flag.DurationVar(&tick, "tick", tick, "Control tick period.")
	flag.DurationVar(&tripAfter, "trip-after", tripAfter, "Inject a fault this long after the rig arms, 0 disables.")
}

func main() {
	flag.Parse()

	ln, err := transport.Listen(listenURL)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("rig-sim serving on %s, tick %s", listenURL, tick)

	// The engine outlives connections, like the firmware outlives
	// serial sessions: state and the boot clock survive a host
	// reattach.
	engine := rig.NewEngine(sim.NewLoop(), nil)
	engine.Period = tick
	if tripAfter > 0 {
		go injectFault(context.Background(), engine)
	}

	// One host at a time, like a serial port.
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatalln(err)
		}
		serve(conn, engine)
	}
}

func serve(conn net.Conn, engine *rig.Engine) {
	defer conn.Close()
	glog.Infof("host attached from %s", conn.RemoteAddr())

	end := link.NewRig(conn)
	end.Handler = engine
	engine.Sink = end

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		if err := end.Run(ctx); err != nil && ctx.Err() == nil {
			glog.Warningf("link: %v", err)
		}
	}()
	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		glog.Warningf("engine: %v", err)
	}
	glog.Infof("host detached from %s", conn.RemoteAddr())
}

// injectFault trips the rig a fixed delay after it first arms.
func injectFault(ctx context.Context, engine *rig.Engine) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for engine.State() != msgs.Running {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(tripAfter):
	}
	if err := engine.Trip("injected fault"); err != nil {
		glog.Warningf("fault injection: %v", err)
	}
}
