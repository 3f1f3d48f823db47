package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"remote key", `{"type":"remote","action":"key","parameters":{"key":"MUTE"}}`, false},
		{"control without parameters", `{"type":"control","action":"key_list"}`, false},
		{"missing type", `{"action":"key"}`, true},
		{"missing action", `{"type":"remote"}`, true},
		{"not json", `key`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request, err := ParseActionRequest([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAction)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, request.Type)
			assert.NotEmpty(t, request.Action)
		})
	}
}

func TestCreateActionJSON(t *testing.T) {
	actionJSON, err := CreateActionJSON(ActionTypeRemote, string(RemoteActionKeys), map[string]interface{}{
		"keys":     []string{"HOME", "RETURN"},
		"delay_ms": 250,
	})
	require.NoError(t, err)

	request, err := ParseActionRequest(actionJSON)
	require.NoError(t, err)
	assert.Equal(t, ActionTypeRemote, request.Type)
	assert.Equal(t, "keys", request.Action)
	assert.Equal(t, []interface{}{"HOME", "RETURN"}, request.Parameters["keys"])
	assert.Equal(t, float64(250), request.Parameters["delay_ms"])
}
