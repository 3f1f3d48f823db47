package samsung

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler lays a keypress sequence out on a session timeline
type Scheduler struct {
	logger zerolog.Logger
}

// NewScheduler creates a scheduler logging to log
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{logger: log}
}

// Schedule registers one send per keypress, in the order given, followed by a
// close once the last delay has elapsed. It only registers actions; the
// session's event loop fires them. An empty sequence closes t right away and
// returns ErrEmptyQueue.
func (sc *Scheduler) Schedule(t Timeline, presses []Keypress) error {
	if len(presses) == 0 {
		sc.logger.Warn().Msg("No keys to send")
		if err := t.Close(); err != nil {
			sc.logger.Debug().Err(err).Msg("Failed to close websocket")
		}
		return ErrEmptyQueue
	}

	var offset time.Duration
	for i, press := range presses {
		press := press
		t.At(offset, func() error {
			return sc.send(t, press)
		})

		sc.logger.Debug().
			Int("index", i).
			Str("key", press.Key.Code()).
			Dur("offset", offset).
			Msg("Key scheduled")

		if press.Delay > 0 {
			offset += press.Delay
		}
	}

	t.At(offset, func() error {
		sc.logger.Debug().Dur("offset", offset).Msg("All keys sent, closing websocket")
		if err := t.Close(); err != nil {
			sc.logger.Warn().Err(err).Msg("Failed to close websocket")
		}
		return nil
	})

	return nil
}

func (sc *Scheduler) send(t Timeline, press Keypress) error {
	frame, err := EncodeKeypress(press.Key.Code())
	if err != nil {
		return err
	}

	sc.logger.Debug().Str("key", press.Key.Code()).Msg("Sending key")

	if err := t.Send(frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", press.Key.Code(), err)
	}
	return nil
}
