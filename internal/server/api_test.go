package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"samtv/internal"
	"samtv/internal/config"
	"samtv/internal/samsung"
)

func newTestAPI(t *testing.T) (*APIServer, map[string]*samsung.SimulatedDialer) {
	t.Helper()
	return newTestAPIWith(t, func(*config.Config) {})
}

func newTestAPIWith(t *testing.T, modify func(*config.Config)) (*APIServer, map[string]*samsung.SimulatedDialer) {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Remote.KeyDelay = time.Millisecond
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.TVs = []config.TVConfig{
		{ID: "living-room", Host: "10.0.0.5", Default: true},
		{ID: "bedroom", Host: "10.0.0.6", AppName: "Bedroom"},
	}
	modify(cfg)
	require.NoError(t, cfg.Validate())

	api, err := NewAPIServer(cfg, internal.NewModeOptions(internal.WithTest(true)))
	require.NoError(t, err)
	t.Cleanup(func() { api.Shutdown(context.Background()) })

	dialers := make(map[string]*samsung.SimulatedDialer)
	for _, tv := range cfg.TVs {
		dev, ok := api.Device(tv.ID)
		require.True(t, ok)
		dialer := samsung.NewSimulatedDialer()
		dev.Remote().SetDialer(dialer)
		dialers[tv.ID] = dialer
	}
	return api, dialers
}

func do(t *testing.T, handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func sentCodes(t *testing.T, dialer *samsung.SimulatedDialer) []string {
	t.Helper()

	codes := []string{}
	for _, frame := range dialer.Frames() {
		var msg samsung.KeypressMessage
		require.NoError(t, json.Unmarshal(frame, &msg))
		codes = append(codes, msg.Params.DataOfCmd)
	}
	return codes
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestReadOnlyRoutes(t *testing.T) {
	api, _ := newTestAPI(t)
	router := api.Router()

	t.Run("health", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, float64(2), body["tvs"])
	})

	t.Run("keys", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/keys", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(len(samsung.Keys())), body["count"])
		assert.Contains(t, body["keys"], "KEY_VOLUP")
	})

	t.Run("tvs", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/tvs", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(2), body["count"])

		tvs := body["tvs"].([]interface{})
		bedroom := tvs[1].(map[string]interface{})
		assert.Equal(t, "bedroom", bedroom["id"])
		assert.Equal(t, samsung.BuildURL("10.0.0.6", samsung.DefaultPort, "Bedroom"), bedroom["url"])
	})
}

func TestRequestID(t *testing.T) {
	api, _ := newTestAPI(t)
	router := api.Router()

	rec := do(t, router, http.MethodGet, "/api/v1/health", "", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	rec = do(t, router, http.MethodGet, "/api/v1/health", "", map[string]string{RequestIDHeader: "abc"})
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestSimpleKey(t *testing.T) {
	api, dialers := newTestAPI(t)
	router := api.Router()

	rec := do(t, router, http.MethodPost, "/samsung/remote/key/mute", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sent KEY_MUTE\n", rec.Body.String())
	assert.Equal(t, []string{"KEY_MUTE"}, sentCodes(t, dialers["living-room"]))
	assert.Empty(t, dialers["bedroom"].Frames())

	rec = do(t, router, http.MethodPost, "/samsung/remote/key/bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, dialers["living-room"].Frames(), 1)
}

func TestSendKeys(t *testing.T) {
	t.Run("sends in order", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		rec := do(t, api.Router(), http.MethodPost, "/api/v1/tvs/bedroom/keys",
			`{"keys":["HOME","KEY_RIGHT","enter"],"delay_ms":1}`, nil)

		// lower case names are not catalog keys
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, dialers["bedroom"].URLs())

		rec = do(t, api.Router(), http.MethodPost, "/api/v1/tvs/bedroom/keys",
			`{"keys":["HOME","KEY_RIGHT","RETURN"],"delay_ms":1}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(3), body["sent"])
		assert.Equal(t, []string{"KEY_HOME", "KEY_RIGHT", "KEY_RETURN"}, sentCodes(t, dialers["bedroom"]))
	})

	t.Run("bad requests", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		router := api.Router()

		assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/tvs/garage/keys", `{"keys":["HOME"]}`, nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":`, nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":[]}`, nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"],"delay_ms":-1}`, nil).Code)
		assert.Empty(t, dialers["bedroom"].URLs())
	})

	t.Run("protocol error", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		dialers["bedroom"].Event = samsung.EventChannelError

		rec := do(t, api.Router(), http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"]}`, nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, true, decode(t, rec)["error"])
		assert.Empty(t, dialers["bedroom"].Frames())
	})

	t.Run("nonce replay", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		router := api.Router()
		headers := map[string]string{NonceHeader: "retry-1"}

		first := do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["VOLUP"]}`, headers)
		require.Equal(t, http.StatusOK, first.Code)
		assert.Empty(t, first.Header().Get(ReplayedHeader))

		second := do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["VOLUP"]}`, headers)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
		assert.JSONEq(t, first.Body.String(), second.Body.String())

		assert.Len(t, dialers["bedroom"].Frames(), 1)
		assert.Equal(t, 1, api.nonces.Len("bedroom"))
	})

	t.Run("concurrent retries with one nonce send once", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		router := api.Router()
		headers := map[string]string{NonceHeader: "retry-2"}

		recs := make([]*httptest.ResponseRecorder, 2)
		var wg sync.WaitGroup
		for i := range recs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				recs[i] = do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["VOLUP"],"delay_ms":50}`, headers)
			}(i)
		}
		wg.Wait()

		replayed := 0
		for _, rec := range recs {
			assert.Equal(t, http.StatusOK, rec.Code)
			if rec.Header().Get(ReplayedHeader) == "true" {
				replayed++
			}
		}
		assert.Equal(t, 1, replayed)
		assert.Len(t, dialers["bedroom"].URLs(), 1)
		assert.Len(t, dialers["bedroom"].Frames(), 1)
	})

	t.Run("server errors are retried", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		router := api.Router()
		headers := map[string]string{NonceHeader: "retry-3"}

		dialers["bedroom"].Event = samsung.EventChannelError
		first := do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["VOLUP"]}`, headers)
		require.Equal(t, http.StatusBadGateway, first.Code)
		assert.Equal(t, 0, api.nonces.Len("bedroom"))

		dialers["bedroom"].Event = samsung.EventChannelConnect
		second := do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["VOLUP"]}`, headers)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Empty(t, second.Header().Get(ReplayedHeader))
		assert.Len(t, dialers["bedroom"].Frames(), 1)
		assert.Equal(t, 1, api.nonces.Len("bedroom"))
	})

	t.Run("requests to one tv do not interleave", func(t *testing.T) {
		api, dialers := newTestAPI(t)
		router := api.Router()

		var wg sync.WaitGroup
		for _, keys := range []string{`["1","2","3"]`, `["7","8","9"]`} {
			wg.Add(1)
			go func(keys string) {
				defer wg.Done()
				rec := do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":`+keys+`,"delay_ms":20}`, nil)
				assert.Equal(t, http.StatusOK, rec.Code)
			}(keys)
		}
		wg.Wait()

		sent := strings.Join(sentCodes(t, dialers["bedroom"]), ",")
		assert.Contains(t, []string{
			"KEY_1,KEY_2,KEY_3,KEY_7,KEY_8,KEY_9",
			"KEY_7,KEY_8,KEY_9,KEY_1,KEY_2,KEY_3",
		}, sent)
	})

	t.Run("busy tv times out", func(t *testing.T) {
		api, _ := newTestAPI(t)
		api.config.Server.RequestTimeout = 50 * time.Millisecond
		api.locks["bedroom"] <- struct{}{}
		defer func() { <-api.locks["bedroom"] }()

		rec := do(t, api.Router(), http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"]}`, nil)
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})
}

func TestAction(t *testing.T) {
	api, dialers := newTestAPI(t)
	router := api.Router()

	t.Run("key", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action",
			`{"type":"remote","action":"key","parameters":{"key":"KEY_SOURCE"}}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, []string{"KEY_SOURCE"}, sentCodes(t, dialers["living-room"]))
	})

	t.Run("key list", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action", `{"type":"control","action":"key_list"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["data"], len(samsung.Keys()))
	})

	t.Run("invalid", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action", `{"type":"lights","action":"on"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, decode(t, rec)["success"])

		rec = do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action", `not json`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action", `{"type":"remote","action":"NOPE"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown tv", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/tvs/garage/action", `{"type":"control","action":"info"}`, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuth(t *testing.T) {
	const secret = "0123456789abcdef0123"

	api, dialers := newTestAPIWith(t, func(cfg *config.Config) {
		cfg.Server.Auth = config.AuthConfig{JWTSecret: secret}
	})
	router := api.Router()
	tokens := NewTokenService(secret, "", time.Hour)

	bearer := func(token string) map[string]string {
		return map[string]string{"Authorization": "Bearer " + token}
	}

	t.Run("public routes stay open", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/health", "", nil).Code)
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/keys", "", nil).Code)
	})

	t.Run("missing or bad token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/samsung/remote/key/mute", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"]}`,
			map[string]string{"Authorization": "Basic abc"}).Code)

		forged, err := NewTokenService("another-secret-0000000", "", time.Hour).GenerateToken("mallory", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"]}`, bearer(forged)).Code)

		assert.Empty(t, dialers["bedroom"].URLs())
		assert.Empty(t, dialers["living-room"].URLs())
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tokens.GenerateToken("automation", nil)
		require.NoError(t, err)

		rec := do(t, router, http.MethodPost, "/samsung/remote/key/mute", "", bearer(token))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"KEY_MUTE"}, sentCodes(t, dialers["living-room"]))
	})

	t.Run("token limited to one tv", func(t *testing.T) {
		token, err := tokens.GenerateToken("kids", []string{"bedroom"})
		require.NoError(t, err)

		rec := do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"]}`, bearer(token))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action", `{"type":"remote","action":"POWER"}`, bearer(token))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(t, router, http.MethodPost, "/samsung/remote/key/power", "", bearer(token))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		api, _ := newTestAPI(t)
		rec := do(t, api.Router(), http.MethodGet, "/api/v1/tvs/bedroom/history", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("records sends", func(t *testing.T) {
		api, dialers := newTestAPIWith(t, func(cfg *config.Config) {
			cfg.Server.HistoryDB = ":memory:"
		})
		router := api.Router()
		dialers["bedroom"].Event = samsung.EventChannelError

		do(t, router, http.MethodPost, "/api/v1/tvs/living-room/keys", `{"keys":["VOLUP","VOLDOWN"]}`,
			map[string]string{RequestIDHeader: "req-1"})
		do(t, router, http.MethodPost, "/api/v1/tvs/living-room/action", `{"type":"remote","action":"key","parameters":{"key":"MUTE"}}`, nil)
		do(t, router, http.MethodPost, "/api/v1/tvs/bedroom/keys", `{"keys":["HOME"]}`, nil)

		rec := do(t, router, http.MethodGet, "/api/v1/tvs/living-room/history", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(2), body["count"])

		entries := body["entries"].([]interface{})
		latest := entries[0].(map[string]interface{})
		assert.Equal(t, []interface{}{"KEY_MUTE"}, latest["keys"])
		oldest := entries[1].(map[string]interface{})
		assert.Equal(t, "req-1", oldest["request_id"])
		assert.Equal(t, []interface{}{"VOLUP", "VOLDOWN"}, oldest["keys"])

		rec = do(t, router, http.MethodGet, "/api/v1/tvs/bedroom/history?limit=5", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		failed := decode(t, rec)["entries"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, float64(http.StatusBadGateway), failed["status"])
		assert.NotEmpty(t, failed["error"])

		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/v1/tvs/bedroom/history?limit=x", "", nil).Code)
		assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/tvs/garage/history", "", nil).Code)
	})
}
