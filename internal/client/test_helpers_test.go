package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/fleet-client/internal/client"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// newTestClient starts a server around handler and returns a client pointed
// at it. The session store lives in a per-test directory so tests never see
// each other's credentials, or the developer's.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	return newTestClientWithConfig(t, handler, &fleet.Config{})
}

// newTestClientWithConfig is newTestClient with caller-controlled config.
// APIHost and DataDirectory are filled in when left empty.
func newTestClientWithConfig(t *testing.T, handler http.Handler, config *fleet.Config) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if config.APIHost == "" {
		config.APIHost = server.URL
	}

	if config.DataDirectory == "" {
		config.DataDirectory = t.TempDir()
	}

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	return client
}

// writeRecords responds with records wrapped in the collection envelope.
func writeRecords(t *testing.T, writer http.ResponseWriter, records ...map[string]any) {
	t.Helper()

	if records == nil {
		records = []map[string]any{}
	}

	writer.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(writer).Encode(map[string]any{"d": records})
	require.NoError(t, err)
}

// sessionToken mints a signed token shaped like the ones the API issues. The
// client never verifies the signature, so any secret will do; extra claims
// override the defaults.
func sessionToken(t *testing.T, extra jwt.MapClaims) string {
	t.Helper()

	claims := jwt.MapClaims{
		"id":       int64(42),
		"username": "ada",
		"email":    "ada@example.com",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	}

	for key, value := range extra {
		claims[key] = value
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return token
}
