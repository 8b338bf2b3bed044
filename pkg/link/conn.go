// Package link drives wire messages over a delimited byte stream:
// the host end sends setpoints and receives reports, the rig end the
// reverse. Frame and decode failures are absorbed at the frame
// boundary — the offending frame is dropped, counted, reported to the
// optional notifier, and the stream carries on.
package link

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hemobench/mockloop.go/pkg/frame"
)

// conn is the plumbing shared by both link ends: a framing scanner on
// the inbound side, serialized framed writes on the outbound side.
type conn struct {
	rw      io.ReadWriter
	scanner *frame.Scanner

	writeLock sync.Mutex
	wireBuf   []byte
	frameBuf  []byte

	messages    atomic.Uint64
	frameDrops  atomic.Uint64
	decodeDrops atomic.Uint64
}

func (c *conn) init(rw io.ReadWriter, recvMax, sendMax int) {
	c.rw = rw
	c.scanner = frame.NewScanner(recvMax)
	c.wireBuf = make([]byte, sendMax)
	c.frameBuf = make([]byte, frame.EncodedBound(sendMax))
}

// Resync drops inbound bytes through the next delimiter. Use after
// attaching to a stream at an unknown position, e.g. opening a serial
// port while the rig is mid-frame.
func (c *conn) Resync() {
	c.scanner.Resync()
}

// Stats gets a snapshot of the link counters.
func (c *conn) Stats() Stats {
	return Stats{
		Messages:    c.messages.Load(),
		FrameDrops:  c.frameDrops.Load(),
		DecodeDrops: c.decodeDrops.Load(),
	}
}

// run pumps the inbound stream until ctx is canceled or the stream
// fails. dispatch decodes one delimited payload; an error from it
// counts as a dropped frame, not a dead link.
func (c *conn) run(ctx context.Context, dispatch func(context.Context, []byte) error, notify func(context.Context, error)) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			payload, err := c.scanner.Feed(b)
			if err != nil {
				c.frameDrops.Add(1)
				notify(ctx, err)
				continue
			}
			if payload == nil {
				continue
			}
			if err := dispatch(ctx, payload); err != nil {
				c.decodeDrops.Add(1)
				notify(ctx, err)
				continue
			}
			c.messages.Add(1)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *conn) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := c.rw.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			if n == 0 {
				continue
			}
			select {
			case byteCh <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}
}

// send encodes one message into the scratch buffers and writes the
// framed bytes in a single Write call.
func (c *conn) send(encode func([]byte) (int, error)) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	n, err := encode(c.wireBuf)
	if err != nil {
		return err
	}
	fn, err := frame.Encode(c.frameBuf, c.wireBuf[:n])
	if err != nil {
		return err
	}
	if _, err := c.rw.Write(c.frameBuf[:fn]); err != nil {
		return fmt.Errorf("link write: %w", err)
	}
	return nil
}
