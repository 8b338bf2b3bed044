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

// Rig is the controller end of a link: setpoints in, reports out.
// Set Handler and Notifier before calling Run.
type Rig struct {
	Handler  SetpointHandler
	Notifier ErrorNotifier

	conn
}

// NewRig creates a Rig over a byte stream.
func NewRig(rw io.ReadWriter) *Rig {
	r := &Rig{}
	r.init(rw, wire.SetpointBytes, wire.ReportBytes)
	return r
}

// Run pumps inbound setpoints until ctx is canceled or the stream
// fails.
func (r *Rig) Run(ctx context.Context) error {
	return r.run(ctx, r.handlePayload, r.notify)
}

// SendReport frames and writes one report.
func (r *Rig) SendReport(rep msgs.Report) error {
	err := r.send(func(dst []byte) (int, error) {
		return wire.EncodeReport(dst, rep)
	})
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

func (r *Rig) handlePayload(ctx context.Context, payload []byte) error {
	sp, n, err := wire.DecodeSetpoint(payload)
	if err != nil {
		return fmt.Errorf("setpoint decode: %w", err)
	}
	if n != len(payload) {
		return fmt.Errorf("setpoint frame carries %d stray bytes: %w", len(payload)-n, frame.ErrFrameCorrupt)
	}
	if r.Handler != nil {
		r.Handler.HandleSetpoint(ctx, sp)
	}
	return nil
}

func (r *Rig) notify(ctx context.Context, err error) {
	if r.Notifier != nil {
		r.Notifier.LinkError(ctx, err)
		return
	}
	glog.V(2).Infof("rig link: dropped frame: %v", err)
}
