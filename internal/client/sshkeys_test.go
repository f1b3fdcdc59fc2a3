package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

const testPublicKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIFlq4m0Z1example ada@laptop"

func TestSSHKeysClient_List(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v7/user__has__public_key", request.URL.Path)
		assert.Equal(t, "title asc", request.URL.Query().Get("$orderby"))

		writeRecords(t, writer,
			map[string]any{"id": 3, "title": "laptop", "public_key": testPublicKey},
		)
	}))

	keys, err := client.SSHKeys().List(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)

	assert.Equal(t, "laptop", keys[0].Title)
	assert.Equal(t, testPublicKey, keys[0].PublicKey)
}

func TestSSHKeysClient_Get(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "id eq 3", request.URL.Query().Get("$filter"))

		writeRecords(t, writer, map[string]any{"id": 3, "title": "laptop", "public_key": testPublicKey})
	}))

	key, err := client.SSHKeys().Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "laptop", key.Title)
}

func TestSSHKeysClient_Get_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeRecords(t, writer)
	}))

	_, err := client.SSHKeys().Get(context.Background(), 404)
	require.ErrorIs(t, err, fleet.ErrKeyNotFound)
}

func TestSSHKeysClient_Create(t *testing.T) {
	t.Parallel()

	client := newTestClientWithConfig(t,
		http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v7/user__has__public_key", request.URL.Path)
			assert.Equal(t, "POST", request.Method)

			var body map[string]any

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "laptop", body["title"])
			// Trailing whitespace is stripped and the key is attached to
			// the session user from the token claims.
			assert.Equal(t, testPublicKey, body["public_key"])
			assert.Equal(t, float64(42), body["user"])

			writer.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(writer).Encode(map[string]any{
				"id": 9, "title": "laptop", "public_key": testPublicKey,
			})
		}),
		&fleet.Config{Token: sessionToken(t, nil)},
	)

	key, err := client.SSHKeys().Create(context.Background(), "laptop", testPublicKey+"\n")
	require.NoError(t, err)
	assert.Equal(t, int64(9), key.ID)
}

func TestSSHKeysClient_Remove(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v7/user__has__public_key(3)", request.URL.Path)
		assert.Equal(t, "DELETE", request.Method)

		writer.WriteHeader(http.StatusOK)
	}))

	err := client.SSHKeys().Remove(context.Background(), 3)
	require.NoError(t, err)
}
