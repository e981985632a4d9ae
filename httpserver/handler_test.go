package httpserver

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/operator-account-registry/api"
	"github.com/ruteri/operator-account-registry/identity"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/registry"
	"github.com/ruteri/operator-account-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	router      http.Handler
	operatorKey *ecdsa.PrivateKey
	attackerKey *ecdsa.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	operatorKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	attackerKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	log := discardLogger()
	reg := registry.NewRegistry(crypto.PubkeyToAddress(operatorKey.PublicKey), storage.NewMemoryStore(interfaces.DefaultNamespace), log)

	router := chi.NewRouter()
	NewHandler(reg, identity.NewVerifier(log), nil, log).RegisterRoutes(router)

	return &testEnv{router: router, operatorKey: operatorKey, attackerKey: attackerKey}
}

func (e *testEnv) do(t *testing.T, key *ecdsa.PrivateKey, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if key != nil {
		require.NoError(t, identity.Sign(req, key))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeAccount(t *testing.T, rec *httptest.ResponseRecorder) api.AccountResponse {
	t.Helper()
	var resp api.AccountResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestHandler_AliceScenario(t *testing.T) {
	env := newTestEnv(t)

	// operator binds alice
	rec := env.do(t, env.operatorKey, http.MethodPut, "/api/accounts/alice", `{"address":"addr1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, api.AccountResponse{ID: "alice", Address: "addr1"}, decodeAccount(t, rec))

	// operator reads alice
	rec = env.do(t, env.operatorKey, http.MethodGet, "/api/accounts/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "addr1", decodeAccount(t, rec).Address)

	// attacker cannot overwrite
	rec = env.do(t, env.attackerKey, http.MethodPut, "/api/accounts/alice", `{"address":"evil"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec))

	// attacker cannot read, existing or not
	for _, id := range []string{"alice", "nobody"} {
		rec = env.do(t, env.attackerKey, http.MethodGet, "/api/accounts/"+id, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rec))
	}

	// binding is unchanged
	rec = env.do(t, env.operatorKey, http.MethodGet, "/api/accounts/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "addr1", decodeAccount(t, rec).Address)
}

func TestHandler_AbsentAndOverwrite(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.operatorKey, http.MethodGet, "/api/accounts/bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", decodeError(t, rec))

	for _, addr := range []string{"a1", "a2"} {
		rec = env.do(t, env.operatorKey, http.MethodPut, "/api/accounts/bob", fmt.Sprintf(`{"address":%q}`, addr))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = env.do(t, env.operatorKey, http.MethodGet, "/api/accounts/bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a2", decodeAccount(t, rec).Address)
}

func TestHandler_EscapedIdentifier(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.operatorKey, http.MethodPut, "/api/accounts/team%2Falice%20smith", `{"address":"addr1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "team/alice smith", decodeAccount(t, rec).ID)

	rec = env.do(t, env.operatorKey, http.MethodGet, "/api/accounts/team%2Falice%20smith", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "addr1", decodeAccount(t, rec).Address)
}

func TestHandler_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		key    *ecdsa.PrivateKey
		body   string
		status int
	}{
		{name: "unsigned", key: nil, body: `{"address":"addr1"}`, status: http.StatusUnauthorized},
		{name: "malformed json", key: env.operatorKey, body: `{"address":`, status: http.StatusBadRequest},
		{name: "missing address", key: env.operatorKey, body: `{}`, status: http.StatusBadRequest},
		{name: "oversized body", key: env.operatorKey, body: `{"address":"` + strings.Repeat("a", api.MaxBodySize) + `"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.key, http.MethodPut, "/api/accounts/alice", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_StoreErrors(t *testing.T) {
	operatorKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	operator := crypto.PubkeyToAddress(operatorKey.PublicKey)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "backend unavailable", err: fmt.Errorf("read failed: %w", interfaces.ErrBackendUnavailable), status: http.StatusServiceUnavailable},
		{name: "other failure", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRegistry := new(registry.MockAccountRegistry)
			mockRegistry.On("GetAccount", mock.Anything, operator, "alice").Return("", false, tt.err)
			mockRegistry.On("SetAccount", mock.Anything, operator, "alice", "addr1").Return(tt.err)

			router := chi.NewRouter()
			NewHandler(mockRegistry, identity.NewVerifier(discardLogger()), nil, discardLogger()).RegisterRoutes(router)

			req := httptest.NewRequest(http.MethodGet, "/api/accounts/alice", nil)
			require.NoError(t, identity.Sign(req, operatorKey))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "disk on fire")

			req = httptest.NewRequest(http.MethodPut, "/api/accounts/alice", bytes.NewBufferString(`{"address":"addr1"}`))
			require.NoError(t, identity.Sign(req, operatorKey))
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)

			mockRegistry.AssertExpectations(t)
		})
	}
}

// recordingObserver captures Observe calls.
type recordingObserver struct {
	results []string
}

func (o *recordingObserver) Observe(op, result string, took time.Duration) {
	o.results = append(o.results, op+":"+result)
}

func TestHandler_RecordsMetrics(t *testing.T) {
	operatorKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	log := discardLogger()
	reg := registry.NewRegistry(crypto.PubkeyToAddress(operatorKey.PublicKey), storage.NewMemoryStore("accounts"), log)

	observer := &recordingObserver{}
	router := chi.NewRouter()
	NewHandler(reg, identity.NewVerifier(log), observer, log).RegisterRoutes(router)

	send := func(method, body string, key *ecdsa.PrivateKey) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, "/api/accounts/alice", reader)
		if key != nil {
			require.NoError(t, identity.Sign(req, key))
		}
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	send(http.MethodGet, "", operatorKey)
	send(http.MethodPut, `{"address":"addr1"}`, operatorKey)
	send(http.MethodGet, "", operatorKey)
	send(http.MethodGet, "", nil)

	assert.Equal(t, []string{"get:not_found", "set:ok", "get:ok", "get:unauthorized"}, observer.results)
}

func TestServer_HealthAndDrain(t *testing.T) {
	operator := common.HexToAddress("0xaa")
	srv, err := New(&api.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      discardLogger(),
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, registry.NewRegistry(operator, storage.NewMemoryStore("accounts"), nil), identity.NewVerifier(nil))
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/livez").Code)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	assert.Contains(t, get("/drain").Body.String(), `"draining"`)
	assert.Contains(t, get("/drain").Body.String(), "already draining")
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)

	assert.Contains(t, get("/undrain").Body.String(), `"ready"`)
	assert.Contains(t, get("/undrain").Body.String(), "already ready")
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	// account routes are mounted
	assert.Equal(t, http.StatusUnauthorized, get("/api/accounts/alice").Code)
}
