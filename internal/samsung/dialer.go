package samsung

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the part of *websocket.Conn a session relies on
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens connections to a TV
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// BuildURL returns the remote control channel URL. The app name is base64 of its raw bytes.
func BuildURL(host string, port int, appName string) string {
	u := url.URL{
		Scheme:   "ws",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     ChannelPath,
		RawQuery: "name=" + base64.StdEncoding.EncodeToString([]byte(appName)),
	}
	return u.String()
}

type websocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a Dialer backed by gorilla/websocket
func NewWebsocketDialer(handshakeTimeout time.Duration) Dialer {
	return &websocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *websocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

// SimulatedDialer stands in for a TV in test mode. Every connection is accepted
// with the configured readiness event and outbound text frames are recorded.
type SimulatedDialer struct {
	// Event is sent as the first inbound frame, ms.channel.connect when empty
	Event string

	mu     sync.Mutex
	urls   []string
	frames [][]byte
	onSend func(frame []byte)
}

// NewSimulatedDialer returns a dialer whose TV always accepts the connection
func NewSimulatedDialer() *SimulatedDialer {
	return &SimulatedDialer{Event: EventChannelConnect}
}

// OnSend registers a hook called with every recorded frame
func (d *SimulatedDialer) OnSend(fn func(frame []byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSend = fn
}

func (d *SimulatedDialer) Dial(ctx context.Context, url string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.urls = append(d.urls, url)
	event := d.Event
	d.mu.Unlock()

	if event == "" {
		event = EventChannelConnect
	}

	return &simulatedConn{
		dialer: d,
		hello:  []byte(fmt.Sprintf(`{"event":%q,"data":{}}`, event)),
		closed: make(chan struct{}),
	}, nil
}

// URLs returns every URL dialed so far
func (d *SimulatedDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Frames returns every text frame written so far
func (d *SimulatedDialer) Frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	frames := make([][]byte, len(d.frames))
	copy(frames, d.frames)
	return frames
}

func (d *SimulatedDialer) record(frame []byte) {
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	hook := d.onSend
	d.mu.Unlock()

	if hook != nil {
		hook(frame)
	}
}

type simulatedConn struct {
	dialer    *SimulatedDialer
	hello     []byte
	helloSent bool
	closeOnce sync.Once
	closed    chan struct{}
}

func (c *simulatedConn) ReadMessage() (int, []byte, error) {
	if !c.helloSent {
		c.helloSent = true
		return websocket.TextMessage, c.hello, nil
	}
	<-c.closed
	return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (c *simulatedConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("simulated connection closed")
	default:
	}

	if messageType == websocket.TextMessage {
		c.dialer.record(append([]byte(nil), data...))
	}
	return nil
}

func (c *simulatedConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}
