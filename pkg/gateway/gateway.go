// Package gateway bridges a rig link onto MQTT: reports are mirrored
// as telemetry, state changes and lifecycle become events, a retained
// meta record carries the identities and protocol revision, and
// setpoint requests from the broker go down the wire.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/hemobench/mockloop.go/pkg/link"
	"github.com/hemobench/mockloop.go/pkg/mqtt"
	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/transport"
	"github.com/hemobench/mockloop.go/pkg/wire"
)

// Gateway is one running daemon instance.
type Gateway struct {
	conf Config

	// publish and send are installed by Run; tests inject fakes.
	publish func(topic string, payload []byte, retain bool)
	send    func(msgs.Setpoint) error
	now     func() time.Time

	mu         sync.Mutex
	reports    uint64
	lastMirror time.Time
	lastState  msgs.AppState
	haveState  bool
	watchdog   *time.Timer
}

// New creates a Gateway from a validated config.
func New(conf *Config) *Gateway {
	return &Gateway{conf: *conf, now: time.Now}
}

// Run attaches to the rig and the broker and pumps until ctx is
// canceled or the rig stream fails. The MQTT session rides out broker
// outages on its own; the rig stream does not, so its failure ends
// Run and the supervisor decides about retrying.
func (g *Gateway) Run(ctx context.Context) error {
	stream, err := transport.Open(g.conf.Transport)
	if err != nil {
		return err
	}
	defer stream.Close()

	queue, err := mqtt.NewQueueFromURL(g.conf.MQTT.URL)
	if err != nil {
		return err
	}
	if token := queue.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer queue.Close()

	host := link.NewHost(stream)
	host.Handler = g
	host.Notifier = link.LinkErrorFunc(func(_ context.Context, err error) {
		glog.Warningf("link: dropped frame: %v", err)
	})
	// The port may open mid-frame; start clean at the next delimiter.
	host.Resync()

	g.publish = func(topic string, payload []byte, retain bool) {
		queue.PubWith(topic, payload, 0, retain)
	}
	g.send = host.SendSetpoint

	g.publishMeta()
	g.publishEvent(mqtt.EventStartup, "", "")
	defer g.publishEvent(mqtt.EventShutdown, "", "")

	sub := queue.Sub(mqtt.TopicSetpoint, g.handleSetpointRequest)
	defer sub.Close()

	if g.conf.TickTimeout() > 0 {
		g.mu.Lock()
		g.watchdog = time.AfterFunc(g.conf.TickTimeout(), g.linkStale)
		g.mu.Unlock()
		defer g.watchdog.Stop()
	}

	glog.Infof("gateway %s: rig %s on %s, mirroring to %s",
		g.conf.ID, g.conf.RigID, g.conf.Transport, g.conf.MQTT.URL)
	return host.Run(ctx)
}

// HandleReport implements link.ReportHandler.
func (g *Gateway) HandleReport(_ context.Context, rep msgs.Report) {
	now := g.now()

	g.mu.Lock()
	g.reports++
	logIt := g.conf.LogEvery > 0 && (g.reports-1)%uint64(g.conf.LogEvery) == 0
	stateChanged := !g.haveState || rep.State != g.lastState
	g.lastState, g.haveState = rep.State, true
	mirror := g.conf.MirrorMinInterval() <= 0 || now.Sub(g.lastMirror) >= g.conf.MirrorMinInterval()
	if mirror {
		g.lastMirror = now
	}
	if g.watchdog != nil {
		g.watchdog.Reset(g.conf.TickTimeout())
	}
	g.mu.Unlock()

	if logIt {
		glog.Info(rep)
	}
	if stateChanged {
		g.publishEvent(mqtt.EventStateChange, "", rep.State.String())
	}
	if mirror {
		raw, err := mqtt.Marshal(mqtt.NewTelemetryPayload(g.conf.RigID, rep, now))
		if err != nil {
			glog.Warningf("telemetry: %v", err)
			return
		}
		g.publish(mqtt.TopicTelemetry, raw, false)
	}
}

// handleSetpointRequest takes a setpoint payload off the broker,
// validates it and sends it down the wire. A bad request is logged
// and dropped; it never unseats the rig's current setpoint.
func (g *Gateway) handleSetpointRequest(_ string, payload []byte) {
	var p mqtt.SetpointPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		glog.Warningf("setpoint request: bad payload: %v", err)
		return
	}
	sp := p.Setpoint()
	if err := sp.Validate(); err != nil {
		glog.Warningf("setpoint request: %v", err)
		return
	}
	if err := g.send(sp); err != nil {
		glog.Errorf("setpoint request: %v", err)
		return
	}
	glog.Infof("setpoint sent: %s", sp)
}

func (g *Gateway) publishMeta() {
	raw, err := mqtt.Marshal(mqtt.MetaPayload{
		RigID:            g.conf.RigID,
		GatewayID:        g.conf.ID,
		ProtocolRevision: wire.Revision,
		Transport:        g.conf.Transport,
		StartedAt:        g.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		glog.Errorf("meta: %v", err)
		return
	}
	g.publish(mqtt.TopicMeta, raw, true)
}

func (g *Gateway) publishEvent(event, reason, state string) {
	raw, err := mqtt.Marshal(mqtt.EventPayload{
		RigID:     g.conf.RigID,
		Timestamp: g.now().UTC().Format(time.RFC3339Nano),
		Event:     event,
		Reason:    reason,
		State:     state,
	})
	if err != nil {
		glog.Errorf("event %s: %v", event, err)
		return
	}
	g.publish(mqtt.TopicEvent, raw, false)
}

func (g *Gateway) linkStale() {
	glog.Warningf("rig %s quiet for %s", g.conf.RigID, g.conf.TickTimeout())
	g.publishEvent(mqtt.EventLinkStale, g.conf.TickTimeout().String(), "")
	g.mu.Lock()
	if g.watchdog != nil {
		g.watchdog.Reset(g.conf.TickTimeout())
	}
	g.mu.Unlock()
}
