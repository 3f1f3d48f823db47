package samsung

import (
	"encoding/json"
	"fmt"
)

// EncodeKeypress builds the indented JSON frame for one key press.
// DataOfCmd carries code exactly as given.
func EncodeKeypress(code string) ([]byte, error) {
	msg := KeypressMessage{
		Method: MethodRemoteControl,
		Params: KeypressParams{
			Cmd:          CmdClick,
			DataOfCmd:    code,
			Option:       false,
			TypeOfRemote: TypeSendRemoteKey,
		},
	}

	data, err := json.MarshalIndent(msg, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keypress message: %w", err)
	}
	return data, nil
}

// DecodeEvent parses an inbound frame. Frames without an event field are rejected.
func DecodeEvent(frame []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(frame, &event); err != nil {
		return Event{}, fmt.Errorf("%w: unparseable message %q: %w", ErrProtocol, truncate(frame), err)
	}
	if event.Event == "" {
		return Event{}, fmt.Errorf("%w: message without event field: %q", ErrProtocol, truncate(frame))
	}
	return event, nil
}

func truncate(frame []byte) string {
	const limit = 256
	if len(frame) > limit {
		return string(frame[:limit]) + "..."
	}
	return string(frame)
}
