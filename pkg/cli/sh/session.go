package sh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hemobench/mockloop.go/pkg/link"
	"github.com/hemobench/mockloop.go/pkg/mqtt"
	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/transport"
)

// Session is an attached rig: reports flow in, setpoints go out.
// Direct sessions ride the byte-stream transport; mqtt sessions ride
// a gateway's mirror.
type Session interface {
	Name() string
	Send(msgs.Setpoint) error
	// Last gets the most recent report, if any arrived yet.
	Last() (msgs.Report, bool)
	// Next blocks for the next report.
	Next(ctx context.Context) (msgs.Report, error)
	// Stats reports link counters; ok is false where none exist
	// (mqtt sessions).
	Stats() (link.Stats, bool)
	Close() error
}

// Attach opens a session for a URL: mqtt:// attaches through a
// gateway, anything else is a direct transport.
func Attach(rawurl string) (Session, error) {
	if strings.HasPrefix(rawurl, "mqtt://") || strings.HasPrefix(rawurl, "mqtts://") {
		return attachMQTT(rawurl)
	}
	return attachDirect(rawurl)
}

// reportBox is the shared inbound side of both session kinds.
type reportBox struct {
	mu   sync.Mutex
	last msgs.Report
	have bool
	next chan msgs.Report
}

func newReportBox() *reportBox {
	return &reportBox{next: make(chan msgs.Report, 16)}
}

func (b *reportBox) put(rep msgs.Report) {
	b.mu.Lock()
	b.last, b.have = rep, true
	b.mu.Unlock()
	select {
	case b.next <- rep:
	default: // a slow watcher loses reports, never blocks the link
	}
}

func (b *reportBox) Last() (msgs.Report, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.have
}

func (b *reportBox) Next(ctx context.Context) (msgs.Report, error) {
	select {
	case rep := <-b.next:
		return rep, nil
	case <-ctx.Done():
		return msgs.Report{}, ctx.Err()
	}
}

type directSession struct {
	*reportBox
	name   string
	host   *link.Host
	cancel func()
	done   chan error
	stream interface{ Close() error }
}

func attachDirect(rawurl string) (Session, error) {
	stream, err := transport.Open(rawurl)
	if err != nil {
		return nil, err
	}
	s := &directSession{
		reportBox: newReportBox(),
		name:      rawurl,
		stream:    stream,
		done:      make(chan error, 1),
	}
	s.host = link.NewHost(stream)
	s.host.Handler = link.HandleReportFunc(func(_ context.Context, rep msgs.Report) {
		s.put(rep)
	})
	s.host.Resync()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { s.done <- s.host.Run(ctx) }()
	return s, nil
}

func (s *directSession) Name() string { return s.name }

func (s *directSession) Send(sp msgs.Setpoint) error {
	return s.host.SendSetpoint(sp)
}

func (s *directSession) Stats() (link.Stats, bool) {
	return s.host.Stats(), true
}

func (s *directSession) Close() error {
	s.cancel()
	err := s.stream.Close()
	<-s.done
	return err
}

type mqttSession struct {
	*reportBox
	name  string
	queue *mqtt.Queue
	sub   *mqtt.Subscription
}

func attachMQTT(rawurl string) (Session, error) {
	queue, err := mqtt.NewQueueFromURL(rawurl)
	if err != nil {
		return nil, err
	}
	if token := queue.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	s := &mqttSession{
		reportBox: newReportBox(),
		name:      rawurl,
		queue:     queue,
	}
	s.sub = queue.Sub(mqtt.TopicTelemetry, func(_ string, payload []byte) {
		var p mqtt.TelemetryPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return
		}
		rep, err := p.Report()
		if err != nil {
			return
		}
		s.put(rep)
	})
	return s, nil
}

func (s *mqttSession) Name() string { return s.name }

func (s *mqttSession) Send(sp msgs.Setpoint) error {
	raw, err := mqtt.Marshal(mqtt.NewSetpointPayload(sp))
	if err != nil {
		return err
	}
	token := s.queue.Pub(mqtt.TopicSetpoint, raw)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("setpoint publish: %w", token.Error())
	}
	return nil
}

func (s *mqttSession) Stats() (link.Stats, bool) {
	return link.Stats{}, false
}

func (s *mqttSession) Close() error {
	s.sub.Close()
	return s.queue.Close()
}
