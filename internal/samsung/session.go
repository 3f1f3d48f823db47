package samsung

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// SessionState is the lifecycle state of a Session
type SessionState int

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Timeline is what the scheduler needs from a ready session
type Timeline interface {
	// At registers action to run offset after the readiness event
	At(offset time.Duration, action func() error)
	Send(frame []byte) error
	Close() error
}

type timedAction struct {
	offset time.Duration
	seq    int
	action func() error
}

type inboundFrame struct {
	data []byte
	err  error
}

// Session owns one connection to a TV. All inbound frames, timed actions and
// cancellation are processed by the goroutine calling Run, which is also the
// only writer on the connection.
type Session struct {
	url          string
	conn         Conn
	logger       zerolog.Logger
	readyTimeout time.Duration

	mu      sync.Mutex
	state   SessionState
	ready   bool
	pending []timedAction
	seq     int

	frames    chan inboundFrame
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// OpenSession dials url and starts reading frames. A dial failure wraps ErrConnection.
func OpenSession(ctx context.Context, dialer Dialer, url string, log zerolog.Logger) (*Session, error) {
	s := &Session{
		url:    url,
		logger: log,
		state:  StateConnecting,
		frames: make(chan inboundFrame),
		done:   make(chan struct{}),
	}

	s.logger.Debug().Str("url", url).Msg("Connecting")

	conn, err := dialer.Dial(ctx, url)
	if err != nil {
		s.setState(StateFailed)
		s.logger.Error().Err(err).Str("url", url).Msg("Could not connect")
		return nil, fmt.Errorf("%w: could not connect to %s: %w", ErrConnection, url, err)
	}

	s.conn = conn
	s.setState(StateOpen)
	go s.readLoop()

	return s, nil
}

// SetReadyTimeout bounds the wait for the readiness event; zero waits for ctx only
func (s *Session) SetReadyTimeout(d time.Duration) {
	s.readyTimeout = d
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether the readiness event has been received
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		select {
		case s.frames <- inboundFrame{data: data, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Run drives the session until the scheduled close fires, the session fails or
// ctx is cancelled. onReady is called once, on ms.channel.connect, and
// registers the timed actions.
func (s *Session) Run(ctx context.Context, onReady func(Timeline) error) error {
	var (
		anchor time.Time
		timer  *time.Timer
		timerC <-chan time.Time
		readyC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	if s.readyTimeout > 0 {
		readyTimer := time.NewTimer(s.readyTimeout)
		defer readyTimer.Stop()
		readyC = readyTimer.C
	}

	arm := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		next, ok := s.nextOffset()
		if !ok {
			return
		}
		timer = time.NewTimer(time.Until(anchor.Add(next)))
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return s.fail(ctx.Err())

		case <-readyC:
			return s.fail(fmt.Errorf("%w: no %s event within %s", ErrProtocol, EventChannelConnect, s.readyTimeout))

		case in := <-s.frames:
			if in.err != nil {
				if websocket.IsCloseError(in.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Warn().Err(in.err).Msg("TV closed the connection")
				}
				return s.fail(fmt.Errorf("%w: connection lost: %w", ErrConnection, in.err))
			}

			if s.Ready() {
				s.logger.Debug().Str("message", truncate(in.data)).Msg("Ignoring message")
				continue
			}

			event, err := DecodeEvent(in.data)
			if err != nil {
				s.logger.Error().Err(err).Msg("Unknown message")
				return s.fail(err)
			}
			if event.Event != EventChannelConnect {
				s.logger.Error().Str("event", event.Event).Str("message", truncate(in.data)).Msg("Unknown message")
				return s.fail(fmt.Errorf("%w: unexpected event %q", ErrProtocol, event.Event))
			}

			s.mu.Lock()
			s.ready = true
			s.mu.Unlock()
			readyC = nil
			anchor = time.Now()
			s.logger.Debug().Msg("Connected")

			if err := onReady(s); err != nil {
				if s.State() == StateClosed {
					return err
				}
				return s.fail(err)
			}
			arm()

		case <-timerC:
			timer, timerC = nil, nil
			for {
				action, ok := s.popDue(time.Since(anchor))
				if !ok {
					break
				}
				if err := action(); err != nil {
					return s.fail(err)
				}
				if s.State() == StateClosed {
					return nil
				}
			}
			arm()
		}
	}
}

// At registers action offset after the readiness event. Actions sharing an
// offset run in registration order.
func (s *Session) At(offset time.Duration, action func() error) {
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || s.state == StateFailed {
		return
	}

	s.pending = append(s.pending, timedAction{offset: offset, seq: s.seq, action: action})
	s.seq++
	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].offset == s.pending[j].offset {
			return s.pending[i].seq < s.pending[j].seq
		}
		return s.pending[i].offset < s.pending[j].offset
	})
}

func (s *Session) nextOffset() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return 0, false
	}
	return s.pending[0].offset, true
}

func (s *Session) popDue(elapsed time.Duration) (func() error, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || len(s.pending) == 0 || s.pending[0].offset > elapsed {
		return nil, false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	return next.action, true
}

// Send writes one text frame. Only valid once the session is ready.
func (s *Session) Send(frame []byte) error {
	s.mu.Lock()
	state, ready := s.state, s.ready
	s.mu.Unlock()

	switch {
	case state == StateClosed || state == StateFailed:
		return ErrSessionClosed
	case !ready:
		return ErrSessionNotReady
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: failed to send message: %w", ErrConnection, err)
	}
	return nil
}

// Close ends the session and releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	graceful := s.state == StateOpen
	if s.state != StateFailed {
		s.state = StateClosed
	}
	s.pending = nil
	s.mu.Unlock()

	s.release(graceful)
	return s.closeErr
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateFailed
	}
	s.pending = nil
	s.mu.Unlock()

	s.release(false)
	return err
}

func (s *Session) release(graceful bool) {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn == nil {
			return
		}
		if graceful {
			s.logger.Debug().Msg("Closing websocket")
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := s.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to send close frame")
			}
		}
		s.closeErr = s.conn.Close()
	})
}
