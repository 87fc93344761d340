package live

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/websocket"
)

// CloseNormal is the WebSocket close code sent on Disconnect.
const CloseNormal = 1000

// Dialer opens a transport to an endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is a message-oriented duplex transport. Read blocks until a frame
// arrives or the transport closes. Close ends the transport with a normal
// closure.
type Conn interface {
	Read() ([]byte, error)
	Write(frame []byte) error
	Close() error
}

// WebsocketDialer dials with golang.org/x/net/websocket.
type WebsocketDialer struct {
	// Origin is sent in the handshake. Defaults to http://localhost/.
	Origin string
	// Header is added to the handshake request.
	Header http.Header
	// WriteTimeout bounds each frame write. Zero disables the deadline.
	WriteTimeout time.Duration
}

// Dial opens a WebSocket connection to url.
func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	origin := d.Origin
	if origin == "" {
		origin = "http://localhost/"
	}
	cfg, err := websocket.NewConfig(url, origin)
	if err != nil {
		return nil, err
	}
	if cfg.Header == nil {
		cfg.Header = make(http.Header)
	}
	for k, vs := range d.Header {
		for _, v := range vs {
			cfg.Header.Add(k, v)
		}
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws, writeTimeout: d.WriteTimeout}, nil
}

type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) Read() ([]byte, error) {
	var frame []byte
	if err := websocket.Message.Receive(c.ws, &frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (c *wsConn) Write(frame []byte) error {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return websocket.Message.Send(c.ws, string(frame))
}

// Close sends a close frame with status 1000 and closes the socket.
func (c *wsConn) Close() error {
	return c.ws.Close()
}
