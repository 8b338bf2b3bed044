package link

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/hemobench/mockloop.go/pkg/frame"
	"github.com/hemobench/mockloop.go/pkg/msgs"
	"github.com/hemobench/mockloop.go/pkg/wire"
)

// Host is the supervising end of a link: reports in, setpoints out.
// Set Handler and Notifier before calling Run.
type Host struct {
	Handler  ReportHandler
	Notifier ErrorNotifier

	conn
}

// NewHost creates a Host over a byte stream.
func NewHost(rw io.ReadWriter) *Host {
	h := &Host{}
	h.init(rw, wire.ReportBytes, wire.SetpointBytes)
	return h
}

// Run pumps inbound reports until ctx is canceled or the stream
// fails.
func (h *Host) Run(ctx context.Context) error {
	return h.run(ctx, h.handlePayload, h.notify)
}

// SendSetpoint frames and writes one setpoint.
func (h *Host) SendSetpoint(sp msgs.Setpoint) error {
	err := h.send(func(dst []byte) (int, error) {
		return wire.EncodeSetpoint(dst, sp)
	})
	if err != nil {
		return fmt.Errorf("send setpoint: %w", err)
	}
	return nil
}

func (h *Host) handlePayload(ctx context.Context, payload []byte) error {
	rep, n, err := wire.DecodeReport(payload)
	if err != nil {
		return fmt.Errorf("report decode: %w", err)
	}
	if n != len(payload) {
		return fmt.Errorf("report frame carries %d stray bytes: %w", len(payload)-n, frame.ErrFrameCorrupt)
	}
	if h.Handler != nil {
		h.Handler.HandleReport(ctx, rep)
	}
	return nil
}

func (h *Host) notify(ctx context.Context, err error) {
	if h.Notifier != nil {
		h.Notifier.LinkError(ctx, err)
		return
	}
	glog.V(2).Infof("host link: dropped frame: %v", err)
}
