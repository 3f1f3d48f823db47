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
	"encoding/json"
	"time"
)

const (
	DefaultPort           = 8001
	DefaultAppName        = "PHP Remote"
	DefaultKeyDelay       = time.Second
	DefaultConnectTimeout = 10 * time.Second

	ChannelPath = "/api/v2/channels/samsung.remote.control"
)

// Protocol constants for the samsung.remote.control channel
const (
	EventChannelConnect = "ms.channel.connect"
	EventChannelError   = "ms.channel.error"

	MethodRemoteControl = "ms.remote.control"
	CmdClick            = "Click"
	TypeSendRemoteKey   = "SendRemoteKey"
)

// Key is a bare catalog key name such as VOLUP
type Key string

// Code returns the wire form of the key, e.g. KEY_VOLUP
func (k Key) Code() string {
	return KeyPrefix + string(k)
}

// Keypress is a key together with the pause observed before the next key is sent
type Keypress struct {
	Key   Key           `json:"key"`
	Delay time.Duration `json:"delay"`
}

// RemoteConfig holds the connection settings for one TV
type RemoteConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	AppName        string        `json:"app_name"`
	KeyDelay       time.Duration `json:"key_delay"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// NewRemoteConfig returns a config for host with every other field defaulted
func NewRemoteConfig(host string) RemoteConfig {
	return RemoteConfig{
		Host:           host,
		Port:           DefaultPort,
		AppName:        DefaultAppName,
		KeyDelay:       DefaultKeyDelay,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// KeypressMessage is the envelope sent for a single key press
type KeypressMessage struct {
	Method string         `json:"method"`
	Params KeypressParams `json:"params"`
}

// KeypressParams carries the remote control command
type KeypressParams struct {
	Cmd          string `json:"Cmd"`
	DataOfCmd    string `json:"DataOfCmd"`
	Option       bool   `json:"Option"`
	TypeOfRemote string `json:"TypeOfRemote"`
}

// Event is an inbound channel event. Only the event name is interpreted.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
