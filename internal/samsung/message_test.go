package samsung

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeypress(t *testing.T) {
	t.Run("wire format", func(t *testing.T) {
		frame, err := EncodeKeypress("KEY_VOLUP")
		require.NoError(t, err)

		expected := `{
    "method": "ms.remote.control",
    "params": {
        "Cmd": "Click",
        "DataOfCmd": "KEY_VOLUP",
        "Option": false,
        "TypeOfRemote": "SendRemoteKey"
    }
}`
		assert.Equal(t, expected, string(frame))
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := EncodeKeypress("KEY_MUTE")
		require.NoError(t, err)
		second, err := EncodeKeypress("KEY_MUTE")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("round trip", func(t *testing.T) {
		for _, key := range Keys() {
			for _, code := range []string{string(key), key.Code()} {
				frame, err := EncodeKeypress(code)
				require.NoError(t, err)

				var msg KeypressMessage
				require.NoError(t, json.Unmarshal(frame, &msg))
				assert.Equal(t, code, msg.Params.DataOfCmd)
				assert.Equal(t, MethodRemoteControl, msg.Method)
			}
		}
	})
}

func TestDecodeEvent(t *testing.T) {
	t.Run("connect", func(t *testing.T) {
		event, err := DecodeEvent([]byte(`{"event":"ms.channel.connect","data":{"clients":[]}}`))
		require.NoError(t, err)
		assert.Equal(t, EventChannelConnect, event.Event)
		assert.JSONEq(t, `{"clients":[]}`, string(event.Data))
	})

	t.Run("error event decodes", func(t *testing.T) {
		event, err := DecodeEvent([]byte(`{"event":"ms.channel.error"}`))
		require.NoError(t, err)
		assert.Equal(t, EventChannelError, event.Event)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodeEvent([]byte("hello"))
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"data":{}}`))
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("long frames are truncated in errors", func(t *testing.T) {
		frame := make([]byte, 1000)
		for i := range frame {
			frame[i] = 'x'
		}
		_, err := DecodeEvent(frame)
		require.Error(t, err)
		assert.Less(t, len(err.Error()), 400)
	})
}
