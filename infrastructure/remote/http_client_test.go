package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "lugares-client/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker BreakerConfig) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPClientOptions{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Breaker: breaker,
	})
	require.NoError(t, err)
	return client
}

func writeEnvelope(w http.ResponseWriter, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPClientOptions{})
	assert.True(t, appErrors.IsValidation(err))
}

func TestHTTPClient_GetSendsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		writeEnvelope(w, true, "ok", []any{})
	}, BreakerConfig{})
	client.SetToken("tok-123")

	env, err := client.Get(context.Background(), "/places/search", url.Values{"q": {"library"}})
	require.NoError(t, err)
	assert.True(t, env.Success)

	require.NotNil(t, got)
	assert.Equal(t, "/places/search", got.URL.Path)
	assert.Equal(t, "library", got.URL.Query().Get("q"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "test-key", got.Header.Get("apikey"))
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
}

func TestHTTPClient_ClearTokenStopsSendingAuthorization(t *testing.T) {
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeEnvelope(w, true, "ok", []any{})
	}, BreakerConfig{})

	client.SetToken("tok-123")
	client.ClearToken()

	_, err := client.Get(context.Background(), "/places", nil)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestHTTPClient_PostEncodesJSONBody(t *testing.T) {
	var body LoginRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, true, "ok", map[string]any{"token": "t"})
	}, BreakerConfig{})

	_, err := client.Post(context.Background(), "/auth/login", LoginRequest{
		Email:    "ana@example.edu",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.edu", body.Email)
	assert.Equal(t, "secret1", body.Password)
}

func TestHTTPClient_UnauthorizedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeEnvelope(w, false, "invalid credentials", nil)
	}, BreakerConfig{})

	_, err := client.Get(context.Background(), "/auth/me", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsUnauthorized(err))
	assert.Equal(t, "invalid credentials", appErrors.Message(err))
}

func TestHTTPClient_ServerErrorIsProtocolError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, BreakerConfig{})

	_, err := client.Get(context.Background(), "/places", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsProtocol(err))
}

func TestHTTPClient_UndecodableBodyIsProtocolError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}, BreakerConfig{})

	_, err := client.Get(context.Background(), "/places", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsProtocol(err))
}

func TestHTTPClient_ConnectionRefusedIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/places", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsTransport(err))
}

func TestHTTPClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Get(ctx, "/places", nil)
		require.Error(t, err)
		assert.True(t, appErrors.IsProtocol(err))
	}

	// The breaker is now open; failures become transport errors without
	// reaching the backend.
	_, err := client.Get(ctx, "/places", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsTransport(err))
}

func TestHTTPClient_BreakerIgnoresAuthRejections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeEnvelope(w, false, "expired token", nil)
	}, BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := client.Get(ctx, "/auth/me", nil)
		require.Error(t, err)
		assert.True(t, appErrors.IsUnauthorized(err), "401s keep their type and never trip the breaker")
	}
}

func TestEnvelope_Payload(t *testing.T) {
	t.Run("success with data", func(t *testing.T) {
		env := &Envelope{Success: true, Data: json.RawMessage(`[1]`)}
		data, err := env.Payload()
		require.NoError(t, err)
		assert.JSONEq(t, `[1]`, string(data))
	})

	t.Run("reported failure", func(t *testing.T) {
		env := &Envelope{Success: false, Message: "nope"}
		_, err := env.Payload()
		require.Error(t, err)
		assert.True(t, appErrors.IsProtocol(err))
		assert.Equal(t, "nope", appErrors.Message(err))
	})

	t.Run("null data", func(t *testing.T) {
		env := &Envelope{Success: true, Data: json.RawMessage(`null`)}
		_, err := env.Payload()
		require.Error(t, err)
		assert.True(t, appErrors.IsProtocol(err))
	})

	t.Run("missing data", func(t *testing.T) {
		env := &Envelope{Success: true}
		_, err := env.Payload()
		require.Error(t, err)
		assert.True(t, appErrors.IsProtocol(err))
	})
}
