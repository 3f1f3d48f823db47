// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package samsung

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"samtv/internal"
	"samtv/internal/logger"
)

// ErrHostRequired is returned when a send is attempted without a host
var ErrHostRequired = errors.New("host is required")

// Remote sends key presses to a Samsung TV over the remote control websocket channel
type Remote struct {
	mu      sync.RWMutex
	config  RemoteConfig
	dialer  Dialer
	options internal.FnModeOptions
	logger  zerolog.Logger
}

// NewRemote creates a remote for config. Zero fields in config take their defaults.
// In test mode the network is replaced by a SimulatedDialer.
func NewRemote(config RemoteConfig, options internal.FnModeOptions, log zerolog.Logger) *Remote {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.AppName == "" {
		config.AppName = DefaultAppName
	}
	if config.KeyDelay == 0 {
		config.KeyDelay = DefaultKeyDelay
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}

	var dialer Dialer
	if options.Test {
		dialer = NewSimulatedDialer()
	} else {
		dialer = NewWebsocketDialer(config.ConnectTimeout)
	}

	if options.Debug {
		logger.SetLevel(logger.LOG_DEBUG)
	}

	return &Remote{
		config:  config,
		dialer:  dialer,
		options: options,
		logger:  log,
	}
}

// SetHost sets the TV address. Prefer an IP address.
func (r *Remote) SetHost(host string) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Host = host
	return r
}

// SetPort sets the channel port, 8001 by default
func (r *Remote) SetPort(port int) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Port = port
	return r
}

// SetAppName sets the name this remote identifies itself with. The TV may ask
// for the name to be allowed on first use.
func (r *Remote) SetAppName(appName string) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.AppName = appName
	return r
}

// SetKeyDelay sets the pause after each key sent by SendKeys
func (r *Remote) SetKeyDelay(delay time.Duration) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.KeyDelay = delay
	return r
}

// SetDialer replaces the transport
func (r *Remote) SetDialer(dialer Dialer) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialer = dialer
	return r
}

// Config returns a copy of the current configuration
func (r *Remote) Config() RemoteConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Options returns the mode options the remote was created with
func (r *Remote) Options() internal.FnModeOptions {
	return r.options
}

// URL returns the websocket URL for the current configuration
func (r *Remote) URL() string {
	config := r.Config()
	return BuildURL(config.Host, config.Port, config.AppName)
}

// SendKey sends a single key and closes the connection right after it
func (r *Remote) SendKey(ctx context.Context, key string) error {
	parsed, err := ParseKey(key)
	if err != nil {
		return err
	}
	return r.send(ctx, []Keypress{{Key: parsed}})
}

// SendKeys sends keys in order, waiting the configured key delay after each one
func (r *Remote) SendKeys(ctx context.Context, keys []string) error {
	parsed, err := ParseKeys(keys)
	if err != nil {
		return err
	}

	delay := r.Config().KeyDelay
	presses := make([]Keypress, len(parsed))
	for i, key := range parsed {
		presses[i] = Keypress{Key: key, Delay: delay}
	}
	return r.send(ctx, presses)
}

// SendKeypresses sends presses in order, each followed by its own delay
func (r *Remote) SendKeypresses(ctx context.Context, presses []Keypress) error {
	normalized := make([]Keypress, len(presses))
	for i, press := range presses {
		key, err := ParseKey(string(press.Key))
		if err != nil {
			return err
		}
		normalized[i] = Keypress{Key: key, Delay: press.Delay}
	}
	return r.send(ctx, normalized)
}

// send expects validated keys. It blocks until the close action fires or the session fails.
func (r *Remote) send(ctx context.Context, presses []Keypress) error {
	if len(presses) == 0 {
		r.logger.Warn().Msg("No keys to send")
		return ErrEmptyQueue
	}

	r.mu.RLock()
	config, dialer := r.config, r.dialer
	r.mu.RUnlock()

	if config.Host == "" {
		return ErrHostRequired
	}

	url := BuildURL(config.Host, config.Port, config.AppName)

	dialCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	session, err := OpenSession(dialCtx, dialer, url, r.logger)
	if err != nil {
		return err
	}
	defer session.Close()
	session.SetReadyTimeout(config.ConnectTimeout)

	scheduler := NewScheduler(r.logger)
	if err := session.Run(ctx, func(t Timeline) error {
		return scheduler.Schedule(t, presses)
	}); err != nil {
		return fmt.Errorf("failed to send keys to %s: %w", config.Host, err)
	}

	r.logger.Debug().
		Str("host", config.Host).
		Int("keys", len(presses)).
		Msg("Keys sent")

	return nil
}
