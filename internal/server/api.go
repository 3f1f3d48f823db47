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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"samtv/internal"
	"samtv/internal/config"
	"samtv/internal/device"
	"samtv/internal/history"
	"samtv/internal/logger"
	"samtv/internal/samsung"
)

const (
	RequestIDHeader = "X-Request-ID"
	NonceHeader     = "X-Request-Nonce"
	ReplayedHeader  = "X-Nonce-Replayed"
)

type requestIDKey struct{}

// APIServer is a REST bridge in front of the configured TVs, so home
// automation systems can press keys without speaking websocket
type APIServer struct {
	config  *config.Config
	devices map[string]*samsung.RemoteDevice
	locks   map[string]chan struct{}
	nonces  *NonceCache
	tokens  *TokenService
	history *history.Store
	logger  zerolog.Logger
	server  *http.Server
	started time.Time
}

// sendKeysRequest is the body of POST /api/v1/tvs/{tv_id}/keys
type sendKeysRequest struct {
	Keys    []string `json:"keys"`
	DelayMS *int     `json:"delay_ms,omitempty"`
}

// NewAPIServer creates a server with one remote per configured TV
func NewAPIServer(cfg *config.Config, options internal.FnModeOptions) (*APIServer, error) {
	api := &APIServer{
		config:  cfg,
		devices: make(map[string]*samsung.RemoteDevice, len(cfg.TVs)),
		locks:   make(map[string]chan struct{}, len(cfg.TVs)),
		nonces:  NewNonceCache(cfg.Server.NonceCacheSize, cfg.Server.NonceTTL),
		logger:  logger.Component("api"),
		started: time.Now(),
	}

	for _, tv := range cfg.TVs {
		remoteLog := logger.Component("samsung").With().Str("tv", tv.ID).Logger()
		remote := samsung.NewRemote(cfg.RemoteConfigFor(tv), options, remoteLog)
		api.devices[tv.ID] = samsung.NewRemoteDevice(tv.ID, remote)
		api.locks[tv.ID] = make(chan struct{}, 1)
	}

	if auth := cfg.Server.Auth; auth.Enabled() {
		api.tokens = NewTokenService(auth.JWTSecret, auth.Issuer, auth.TokenExpiry)
	}

	if cfg.Server.HistoryDB != "" {
		store, err := history.Open(cfg.Server.HistoryDB)
		if err != nil {
			api.nonces.Shutdown()
			return nil, fmt.Errorf("failed to open history %s: %w", cfg.Server.HistoryDB, err)
		}
		api.history = store
	}

	return api, nil
}

// Device returns the device for a TV ID
func (api *APIServer) Device(tvID string) (*samsung.RemoteDevice, bool) {
	dev, ok := api.devices[tvID]
	return dev, ok
}

// Router builds the HTTP routes
func (api *APIServer) Router() http.Handler {
	router := mux.NewRouter()

	router.Use(api.requestIDMiddleware)
	router.Use(api.loggingMiddleware)

	// Public routes
	public := router.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/health", api.handleHealth).Methods("GET")
	public.HandleFunc("/keys", api.handleListKeys).Methods("GET")
	public.HandleFunc("/tvs", api.handleListTVs).Methods("GET")

	// Routes that touch a TV need a token when auth is enabled
	protected := router.NewRoute().Subrouter()
	if api.tokens != nil {
		protected.Use(api.tokens.RequireToken)
	}
	// Compatible with the simple API: POST /samsung/remote/key/mute
	protected.HandleFunc("/samsung/remote/key/{key}", api.handleSimpleKey).Methods("POST")
	protected.HandleFunc("/api/v1/tvs/{tv_id}/keys", api.handleSendKeys).Methods("POST")
	protected.HandleFunc("/api/v1/tvs/{tv_id}/action", api.handleAction).Methods("POST")
	protected.HandleFunc("/api/v1/tvs/{tv_id}/history", api.handleHistory).Methods("GET")

	return router
}

// Start starts the HTTP server and blocks until it stops
func (api *APIServer) Start(address string) error {
	api.server = &http.Server{
		Addr:         address,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: api.requestTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	api.logger.Info().
		Str("address", address).
		Int("tvs", len(api.devices)).
		Msg("Starting API server")

	if err := api.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight sends and releases the caches
func (api *APIServer) Shutdown(ctx context.Context) error {
	var err error
	if api.server != nil {
		err = api.server.Shutdown(ctx)
	}

	api.nonces.Shutdown()
	if api.history != nil {
		if closeErr := api.history.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close history: %w", closeErr)
		}
	}
	return err
}

func (api *APIServer) requestTimeout() time.Duration {
	if api.config.Server.RequestTimeout > 0 {
		return api.config.Server.RequestTimeout
	}
	return time.Minute
}

// Middleware
func (api *APIServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID)))
	})
}

func (api *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		api.logger.Info().
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// Response helpers
func (api *APIServer) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (api *APIServer) sendError(w http.ResponseWriter, status int, message string) {
	api.sendJSON(w, status, errorBody(message))
}

func errorBody(message string) map[string]interface{} {
	return map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// statusForError maps remote errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, samsung.ErrInvalidKey), errors.Is(err, samsung.ErrEmptyQueue), errors.Is(err, device.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, samsung.ErrConnection), errors.Is(err, samsung.ErrProtocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// withTV runs fn while holding the TV's lock so concurrent requests never
// interleave their key presses
func (api *APIServer) withTV(ctx context.Context, tvID string, fn func(ctx context.Context) error) error {
	lock := api.locks[tvID]

	ctx, cancel := context.WithTimeout(ctx, api.requestTimeout())
	defer cancel()

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for tv %s: %w", tvID, ctx.Err())
	}
	defer func() { <-lock }()

	return fn(ctx)
}

func (api *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(api.started).Round(time.Second).String(),
		"tvs":       len(api.devices),
		"nonces":    api.nonces.Stats(),
		"auth":      api.tokens != nil,
		"history":   api.history != nil,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *APIServer) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys := samsung.Keys()
	codes := make([]string, len(keys))
	for i, key := range keys {
		codes[i] = key.Code()
	}
	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"keys":  codes,
		"count": len(codes),
	})
}

func (api *APIServer) handleListTVs(w http.ResponseWriter, r *http.Request) {
	tvs := make([]map[string]interface{}, 0, len(api.config.TVs))
	for _, tv := range api.config.TVs {
		dev := api.devices[tv.ID]
		tvs = append(tvs, map[string]interface{}{
			"id":      tv.ID,
			"name":    tv.Name,
			"default": tv.Default,
			"device":  dev.GetDeviceInfo(),
			"url":     dev.Remote().URL(),
		})
	}
	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"tvs":   tvs,
		"count": len(tvs),
	})
}

// handleSimpleKey sends one key to the default TV and answers in plain text
func (api *APIServer) handleSimpleKey(w http.ResponseWriter, r *http.Request) {
	key := samsung.KeyPrefix + strings.ToUpper(mux.Vars(r)["key"])

	tv, err := api.config.DefaultTV()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok && !claims.Allows(tv.ID) {
		http.Error(w, fmt.Sprintf("Token does not allow tv '%s'", tv.ID), http.StatusForbidden)
		return
	}
	dev := api.devices[tv.ID]

	started := time.Now()
	err = api.withTV(r.Context(), tv.ID, func(ctx context.Context) error {
		return dev.Remote().SendKey(ctx, key)
	})
	api.record(r, tv.ID, []string{key}, err, started)
	if err != nil {
		api.logger.Error().
			Err(err).
			Str("request_id", requestID(r)).
			Str("key", key).
			Msg("Failed to send key")
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Sent %s\n", key)
}

func (api *APIServer) handleSendKeys(w http.ResponseWriter, r *http.Request) {
	tvID := mux.Vars(r)["tv_id"]
	dev, ok := api.devices[tvID]
	if !ok {
		api.sendError(w, http.StatusNotFound, fmt.Sprintf("tv '%s' not found", tvID))
		return
	}

	nonce := r.Header.Get(NonceHeader)
	if api.replay(w, tvID, nonce) {
		return
	}

	var req sendKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.sendError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	delay := dev.Remote().Config().KeyDelay
	if req.DelayMS != nil {
		if *req.DelayMS < 0 {
			api.sendError(w, http.StatusBadRequest, "delay_ms must not be negative")
			return
		}
		delay = time.Duration(*req.DelayMS) * time.Millisecond
	}

	presses := make([]samsung.Keypress, len(req.Keys))
	for i, key := range req.Keys {
		presses[i] = samsung.Keypress{Key: samsung.Key(key), Delay: delay}
	}

	var (
		replayed *CachedResponse
		status   int
		body     interface{}
	)
	started := time.Now()
	err := api.withTV(r.Context(), tvID, func(ctx context.Context) error {
		// a retry may have completed while this request waited for the lock
		if cached, found := api.nonces.Lookup(tvID, nonce); found {
			replayed = cached
			return nil
		}

		err := dev.Remote().SendKeypresses(ctx, presses)
		status, body = sendKeysReply(tvID, len(presses), err)
		api.nonces.Store(tvID, nonce, status, body)
		return err
	})
	if replayed != nil {
		api.sendCached(w, replayed)
		return
	}
	api.record(r, tvID, req.Keys, err, started)

	if err != nil {
		if body == nil {
			status, body = sendKeysReply(tvID, len(presses), err)
		}
		api.logger.Error().
			Err(err).
			Str("request_id", requestID(r)).
			Str("tv", tvID).
			Msg("Failed to send keys")
	}
	api.sendJSON(w, status, body)
}

func sendKeysReply(tvID string, sent int, err error) (int, interface{}) {
	if err != nil {
		return statusForError(err), errorBody(err.Error())
	}
	return http.StatusOK, map[string]interface{}{
		"success":   true,
		"tv":        tvID,
		"sent":      sent,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// replay answers from the nonce cache and reports whether it did
func (api *APIServer) replay(w http.ResponseWriter, tvID, nonce string) bool {
	cached, found := api.nonces.Lookup(tvID, nonce)
	if !found {
		return false
	}
	api.sendCached(w, cached)
	return true
}

func (api *APIServer) sendCached(w http.ResponseWriter, cached *CachedResponse) {
	w.Header().Set(ReplayedHeader, "true")
	api.sendJSON(w, cached.Status, cached.Body)
}

func (api *APIServer) handleAction(w http.ResponseWriter, r *http.Request) {
	tvID := mux.Vars(r)["tv_id"]
	dev, ok := api.devices[tvID]
	if !ok {
		api.sendError(w, http.StatusNotFound, fmt.Sprintf("tv '%s' not found", tvID))
		return
	}

	nonce := r.Header.Get(NonceHeader)
	if api.replay(w, tvID, nonce) {
		return
	}

	actionJSON, err := io.ReadAll(r.Body)
	if err != nil {
		api.sendError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var (
		replayed *CachedResponse
		response *device.ActionResponse
		status   int
		body     interface{}
	)
	started := time.Now()
	err = api.withTV(r.Context(), tvID, func(ctx context.Context) error {
		if cached, found := api.nonces.Lookup(tvID, nonce); found {
			replayed = cached
			return nil
		}

		resp, err := dev.Process(ctx, actionJSON)
		response = resp
		status, body = actionReply(resp, err)
		api.nonces.Store(tvID, nonce, status, body)
		return err
	})
	if replayed != nil {
		api.sendCached(w, replayed)
		return
	}
	if keys := sentKeys(response); len(keys) > 0 || err != nil {
		api.record(r, tvID, keys, err, started)
	}

	if body == nil {
		status, body = actionReply(response, err)
	}
	api.sendJSON(w, status, body)
}

func actionReply(response *device.ActionResponse, err error) (int, interface{}) {
	if err == nil {
		return http.StatusOK, response
	}
	if response == nil {
		return statusForError(err), errorBody(err.Error())
	}
	return statusForError(err), response
}

func (api *APIServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	tvID := mux.Vars(r)["tv_id"]
	if _, ok := api.devices[tvID]; !ok {
		api.sendError(w, http.StatusNotFound, fmt.Sprintf("tv '%s' not found", tvID))
		return
	}
	if api.history == nil {
		api.sendError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	limit := history.DefaultLimit
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			api.sendError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = parsed
	}

	entries, err := api.history.Recent(r.Context(), tvID, limit)
	if err != nil {
		api.logger.Error().Err(err).Str("tv", tvID).Msg("Failed to read history")
		api.sendError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	api.sendJSON(w, http.StatusOK, map[string]interface{}{
		"tv":      tvID,
		"entries": entries,
		"count":   len(entries),
	})
}

// record adds a send to the history, when enabled
func (api *APIServer) record(r *http.Request, tvID string, keys []string, sendErr error, started time.Time) {
	if api.history == nil {
		return
	}

	entry := &history.Entry{
		RequestID: requestID(r),
		TVID:      tvID,
		Keys:      keys,
		Status:    http.StatusOK,
		Duration:  time.Since(started),
	}
	if entry.Keys == nil {
		entry.Keys = []string{}
	}
	if sendErr != nil {
		entry.Status = statusForError(sendErr)
		entry.Error = sendErr.Error()
	}

	if err := api.history.Record(context.WithoutCancel(r.Context()), entry); err != nil {
		api.logger.Warn().Err(err).Str("tv", tvID).Msg("Failed to record send")
	}
}

// sentKeys returns the key codes a remote action reported as sent
func sentKeys(response *device.ActionResponse) []string {
	if response == nil {
		return nil
	}
	data, ok := response.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	keys, _ := data["sent"].([]string)
	return keys
}
