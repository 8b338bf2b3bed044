package link

import (
	"context"

	"github.com/hemobench/mockloop.go/pkg/msgs"
)

// ReportHandler is called for each report decoded off the link.
type ReportHandler interface {
	HandleReport(context.Context, msgs.Report)
}

// HandleReportFunc is func form of ReportHandler.
type HandleReportFunc func(context.Context, msgs.Report)

// HandleReport implements ReportHandler.
func (f HandleReportFunc) HandleReport(ctx context.Context, r msgs.Report) {
	f(ctx, r)
}

// SetpointHandler is called for each setpoint decoded off the link.
type SetpointHandler interface {
	HandleSetpoint(context.Context, msgs.Setpoint)
}

// HandleSetpointFunc is func form of SetpointHandler.
type HandleSetpointFunc func(context.Context, msgs.Setpoint)

// HandleSetpoint implements SetpointHandler.
func (f HandleSetpointFunc) HandleSetpoint(ctx context.Context, sp msgs.Setpoint) {
	f(ctx, sp)
}

// ErrorNotifier is called for frame or decode failures the link
// recovered from by dropping the offending frame. The link keeps
// running; the notification is observability only.
type ErrorNotifier interface {
	LinkError(context.Context, error)
}

// LinkErrorFunc is func form of ErrorNotifier.
type LinkErrorFunc func(context.Context, error)

// LinkError implements ErrorNotifier.
func (f LinkErrorFunc) LinkError(ctx context.Context, err error) {
	f(ctx, err)
}

// Stats is a snapshot of link health counters.
type Stats struct {
	// Messages counts frames decoded and dispatched successfully.
	Messages uint64
	// FrameDrops counts frames lost to stuffing corruption or
	// receive-buffer overflow.
	FrameDrops uint64
	// DecodeDrops counts well-framed payloads rejected by the wire
	// codec or carrying stray bytes.
	DecodeDrops uint64
}
