// Package transport opens the byte stream between host and rig. The
// endpoint is named by URL so daemons and tools share one flag syntax:
//
//	serial:/dev/ttyUSB0?baud=115200
//	tcp://bench-pc:7104
//	ws://bridge:8080/rig   (wss:// for TLS)
package transport

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"

	"github.com/goburrow/serial"
	"golang.org/x/net/websocket"
)

// DefaultBaud is the rig firmware's serial line rate.
const DefaultBaud = 115200

// Open dials the byte stream named by rawurl.
func Open(rawurl string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("transport url %q: %w", rawurl, err)
	}
	switch u.Scheme {
	case "serial":
		return openSerial(u)
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("tcp dial %s: %w", u.Host, err)
		}
		return conn, nil
	case "ws", "wss":
		return openWebsocket(u)
	case "":
		return nil, fmt.Errorf("transport url %q: missing scheme", rawurl)
	default:
		return nil, fmt.Errorf("transport url %q: unsupported scheme %q", rawurl, u.Scheme)
	}
}

// Listen binds the listening side of a tcp: URL, for bench simulators
// that accept the host's dial.
func Listen(rawurl string) (net.Listener, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("transport url %q: %w", rawurl, err)
	}
	if u.Scheme != "tcp" {
		return nil, fmt.Errorf("transport url %q: only tcp supports listening", rawurl)
	}
	return net.Listen("tcp", u.Host)
}

func openSerial(u *url.URL) (io.ReadWriteCloser, error) {
	cfg, err := serialConfig(u)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(&cfg)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", cfg.Address, err)
	}
	return port, nil
}

func serialConfig(u *url.URL) (serial.Config, error) {
	device := u.Path
	if device == "" {
		device = u.Opaque
	}
	cfg := serial.Config{
		Address:  device,
		BaudRate: DefaultBaud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	}
	if device == "" {
		return cfg, fmt.Errorf("serial transport: missing device in %q", u.String())
	}
	if v := u.Query().Get("baud"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil || baud <= 0 {
			return cfg, fmt.Errorf("serial transport: bad baud %q", v)
		}
		cfg.BaudRate = baud
	}
	return cfg, nil
}

func openWebsocket(u *url.URL) (io.ReadWriteCloser, error) {
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conn, err := websocket.Dial(u.String(), "", origin.String())
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", u, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}
