package transport

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestOpenRejectsBadURLs(t *testing.T) {
	for _, rawurl := range []string{
		"",
		"/dev/ttyUSB0",
		"ftp://host/file",
		"serial:?baud=9600",
		"serial:/dev/ttyUSB0?baud=fast",
		"serial:/dev/ttyUSB0?baud=-1",
	} {
		_, err := Open(rawurl)
		require.Error(t, err, rawurl)
	}
}

func TestSerialConfig(t *testing.T) {
	u, err := url.Parse("serial:/dev/ttyUSB0")
	require.NoError(t, err)
	cfg, err := serialConfig(u)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", cfg.Address)
	require.Equal(t, DefaultBaud, cfg.BaudRate)
	require.Equal(t, 8, cfg.DataBits)
	require.Equal(t, 1, cfg.StopBits)
	require.Equal(t, "N", cfg.Parity)

	u, err = url.Parse("serial:COM3?baud=57600")
	require.NoError(t, err)
	cfg, err = serialConfig(u)
	require.NoError(t, err)
	require.Equal(t, "COM3", cfg.Address)
	require.Equal(t, 57600, cfg.BaudRate)
}

func TestOpenTCP(t *testing.T) {
	ln, err := Listen("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	echoDone := make(chan struct{})
	go func() {
		defer close(echoDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()

	conn, err := Open("tcp://" + ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0x01, 0x02, 0x00})
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x00}, buf)
}

func TestListenRejectsNonTCP(t *testing.T) {
	_, err := Listen("serial:/dev/ttyUSB0")
	require.Error(t, err)
}

func TestOpenWebsocket(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		io.Copy(ws, ws)
	}))
	defer srv.Close()

	conn, err := Open("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), buf)
}
