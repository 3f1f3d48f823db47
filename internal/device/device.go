package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidAction marks malformed or unsupported action requests
var ErrInvalidAction = errors.New("invalid action")

// Device represents a generic device that can process commands
type Device interface {
	// Process handles a JSON-encoded action and executes the corresponding operation.
	// A failed action is reported in the response; the error carries the cause.
	Process(ctx context.Context, actionJSON []byte) (*ActionResponse, error)

	// GetDeviceInfo returns basic information about the device
	GetDeviceInfo() DeviceInfo
}

// DeviceInfo contains basic information about a device
type DeviceInfo struct {
	ID           string   `json:"id,omitempty"`
	Type         string   `json:"type"`
	Model        string   `json:"model"`
	Address      string   `json:"address"`
	Capabilities []string `json:"capabilities"`
}

// ActionType represents the type of action to perform
type ActionType string

const (
	ActionTypeRemote  ActionType = "remote"
	ActionTypeControl ActionType = "control"
)

// ActionRequest represents a JSON action request
type ActionRequest struct {
	Type       ActionType             `json:"type"`       // "remote" or "control"
	Action     string                 `json:"action"`     // specific action name
	Parameters map[string]interface{} `json:"parameters"` // optional parameters
}

// ActionResponse represents the response from processing an action
type ActionResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RemoteAction represents available remote control actions.
// Any catalog key name is also accepted as a remote action.
type RemoteAction string

const (
	RemoteActionKey  RemoteAction = "key"
	RemoteActionKeys RemoteAction = "keys"
)

// ControlAction represents available control actions
type ControlAction string

const (
	ControlActionKeyList ControlAction = "key_list"
	ControlActionInfo    ControlAction = "info"
)

// ParseActionRequest parses JSON input into ActionRequest
func ParseActionRequest(actionJSON []byte) (*ActionRequest, error) {
	var request ActionRequest
	if err := json.Unmarshal(actionJSON, &request); err != nil {
		return nil, fmt.Errorf("%w: failed to parse action request: %w", ErrInvalidAction, err)
	}

	if request.Type == "" {
		return nil, fmt.Errorf("%w: action type is required", ErrInvalidAction)
	}

	if request.Action == "" {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidAction)
	}

	return &request, nil
}

// CreateActionJSON builds the JSON for an action request
func CreateActionJSON(actionType ActionType, action string, parameters map[string]interface{}) ([]byte, error) {
	return json.Marshal(ActionRequest{
		Type:       actionType,
		Action:     action,
		Parameters: parameters,
	})
}
