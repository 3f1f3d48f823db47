package samsung

import (
	"context"
	"fmt"
	"time"

	"samtv/internal/device"
)

// RemoteDevice implements device.Device for a Samsung TV
type RemoteDevice struct {
	remote *Remote
	info   device.DeviceInfo
}

// NewRemoteDevice wraps remote as a device identified by id
func NewRemoteDevice(id string, remote *Remote) *RemoteDevice {
	return &RemoteDevice{
		remote: remote,
		info: device.DeviceInfo{
			ID:      id,
			Type:    "samsung_tv",
			Model:   "Samsung Smart TV",
			Address: remote.Config().Host,
			Capabilities: []string{
				"remote_control",
			},
		},
	}
}

// GetDeviceInfo returns information about this TV
func (d *RemoteDevice) GetDeviceInfo() device.DeviceInfo {
	return d.info
}

// Remote returns the underlying remote
func (d *RemoteDevice) Remote() *Remote {
	return d.remote
}

// Process handles JSON action requests and routes them to the remote
func (d *RemoteDevice) Process(ctx context.Context, actionJSON []byte) (*device.ActionResponse, error) {
	request, err := device.ParseActionRequest(actionJSON)
	if err != nil {
		return failure(err), err
	}

	switch request.Type {
	case device.ActionTypeRemote:
		return d.processRemoteAction(ctx, request)
	case device.ActionTypeControl:
		return d.processControlAction(request)
	default:
		err := fmt.Errorf("%w: unsupported action type: %s", device.ErrInvalidAction, request.Type)
		return failure(err), err
	}
}

func (d *RemoteDevice) processRemoteAction(ctx context.Context, request *device.ActionRequest) (*device.ActionResponse, error) {
	switch device.RemoteAction(request.Action) {
	case device.RemoteActionKey:
		key, ok := request.Parameters["key"].(string)
		if !ok {
			err := fmt.Errorf("%w: key parameter is required for key action", device.ErrInvalidAction)
			return failure(err), err
		}
		return d.sendKeys(ctx, []Keypress{{Key: Key(key)}})

	case device.RemoteActionKeys:
		presses, err := keypressesFromParameters(request.Parameters, d.remote.Config().KeyDelay)
		if err != nil {
			return failure(err), err
		}
		return d.sendKeys(ctx, presses)

	default:
		// the action itself names a key, e.g. "MUTE" or "KEY_MUTE"
		if !IsValid(request.Action) {
			err := fmt.Errorf("%w: unsupported remote action %q", ErrInvalidKey, request.Action)
			return failure(err), err
		}
		return d.sendKeys(ctx, []Keypress{{Key: Key(request.Action)}})
	}
}

func (d *RemoteDevice) processControlAction(request *device.ActionRequest) (*device.ActionResponse, error) {
	switch device.ControlAction(request.Action) {
	case device.ControlActionKeyList:
		keys := Keys()
		codes := make([]string, len(keys))
		for i, key := range keys {
			codes[i] = key.Code()
		}
		return &device.ActionResponse{Success: true, Data: codes}, nil

	case device.ControlActionInfo:
		return &device.ActionResponse{
			Success: true,
			Data: map[string]interface{}{
				"device": d.info,
				"url":    d.remote.URL(),
			},
		}, nil

	default:
		err := fmt.Errorf("%w: unsupported control action: %s", device.ErrInvalidAction, request.Action)
		return failure(err), err
	}
}

func (d *RemoteDevice) sendKeys(ctx context.Context, presses []Keypress) (*device.ActionResponse, error) {
	if err := d.remote.SendKeypresses(ctx, presses); err != nil {
		return failure(err), err
	}

	sent := make([]string, len(presses))
	for i, press := range presses {
		key, _ := ParseKey(string(press.Key))
		sent[i] = key.Code()
	}

	data := map[string]interface{}{"sent": sent}
	if d.remote.Options().Test {
		data["simulated"] = true
	}
	return &device.ActionResponse{Success: true, Data: data}, nil
}

// keypressesFromParameters reads "keys" and an optional "delay_ms" from action parameters
func keypressesFromParameters(params map[string]interface{}, defaultDelay time.Duration) ([]Keypress, error) {
	raw, ok := params["keys"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: keys parameter is required for keys action", device.ErrInvalidAction)
	}

	delay := defaultDelay
	if value, exists := params["delay_ms"]; exists {
		switch v := value.(type) {
		case float64:
			delay = time.Duration(v * float64(time.Millisecond))
		case int:
			delay = time.Duration(v) * time.Millisecond
		default:
			return nil, fmt.Errorf("%w: invalid delay_ms parameter type", device.ErrInvalidAction)
		}
		if delay < 0 {
			return nil, fmt.Errorf("%w: delay_ms must not be negative", device.ErrInvalidAction)
		}
	}

	presses := make([]Keypress, 0, len(raw))
	for _, item := range raw {
		key, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: invalid key parameter: %v", device.ErrInvalidAction, item)
		}
		presses = append(presses, Keypress{Key: Key(key), Delay: delay})
	}
	return presses, nil
}

func failure(err error) *device.ActionResponse {
	return &device.ActionResponse{
		Success: false,
		Error:   err.Error(),
	}
}
