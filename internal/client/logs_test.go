package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

func TestLogsClient_History(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/device/v2/"+testDeviceUUID+"/logs", request.URL.Path)
		assert.Equal(t, "GET", request.Method)
		assert.Equal(t, "50", request.URL.Query().Get("count"))

		_ = json.NewEncoder(writer).Encode([]map[string]any{
			{"message": "Supervisor starting", "timestamp": 1700000000000, "isSystem": true},
			{"message": "ready", "timestamp": 1700000001000, "serviceId": 12},
		})
	}))

	entries, err := client.Logs().History(context.Background(), testDeviceUUID, 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Supervisor starting", entries[0].Message)
	assert.True(t, entries[0].IsSystem)
	assert.Equal(t, time.UnixMilli(1700000000000), entries[0].Time())

	require.NotNil(t, entries[1].ServiceID)
	assert.Equal(t, int64(12), *entries[1].ServiceID)
}

func TestLogsClient_History_DefaultCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// Zero means the backend default, so no count parameter at all.
		assert.False(t, request.URL.Query().Has("count"))

		_, _ = writer.Write([]byte("[]"))
	}))

	entries, err := client.Logs().History(context.Background(), testDeviceUUID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogsClient_Subscribe(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/device/v2/"+testDeviceUUID+"/logs", request.URL.Path)
		assert.Equal(t, "1", request.URL.Query().Get("stream"))

		flusher, ok := writer.(http.Flusher)
		require.True(t, ok)

		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusOK)

		for _, line := range []string{
			`{"message":"one","timestamp":1700000000000}`,
			``,
			`{"message":"two","timestamp":1700000001000,"isStdErr":true}`,
		} {
			_, _ = writer.Write([]byte(line + "\n"))
			flusher.Flush()
		}
	}))

	messages, errs, err := client.Logs().Subscribe(context.Background(), testDeviceUUID, 0)
	require.NoError(t, err)

	var received []fleet.LogMessage
	for message := range messages {
		received = append(received, message)
	}

	require.Len(t, received, 2)
	assert.Equal(t, "one", received[0].Message)
	assert.Equal(t, "two", received[1].Message)
	assert.True(t, received[1].IsStdErr)

	select {
	case streamErr := <-errs:
		t.Fatalf("unexpected stream error: %v", streamErr)
	default:
	}
}

func TestLogsClient_Subscribe_MalformedEntry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		flusher, ok := writer.(http.Flusher)
		require.True(t, ok)

		_, _ = writer.Write([]byte("not json\n"))
		flusher.Flush()
	}))

	messages, errs, err := client.Logs().Subscribe(context.Background(), testDeviceUUID, 0)
	require.NoError(t, err)

	for range messages {
	}

	select {
	case streamErr := <-errs:
		require.Error(t, streamErr)
		assert.Contains(t, streamErr.Error(), "parsing log entry")
	case <-time.After(time.Second):
		t.Fatal("expected a parse error on the error channel")
	}
}

func TestLogsClient_Subscribe_Unauthorized(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte("bad credential"))
	}))

	_, _, err := client.Logs().Subscribe(context.Background(), testDeviceUUID, 0)
	require.ErrorIs(t, err, fleet.ErrTransport)

	var apiErr *fleet.APIError

	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestLogsClient_Subscribe_CancelEndsStream(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		flusher, ok := writer.(http.Flusher)
		require.True(t, ok)

		_, _ = writer.Write([]byte(`{"message":"one","timestamp":1700000000000}` + "\n"))
		flusher.Flush()

		// Keep the stream open until the test is done.
		select {
		case <-release:
		case <-request.Context().Done():
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, errs, err := client.Logs().Subscribe(ctx, testDeviceUUID, 0)
	require.NoError(t, err)

	first, ok := <-messages
	require.True(t, ok)
	assert.Equal(t, "one", first.Message)

	cancel()

	// The reader goroutine shuts down without reporting the cancellation
	// as a stream failure.
	for range messages {
	}

	select {
	case streamErr := <-errs:
		t.Fatalf("unexpected stream error: %v", streamErr)
	default:
	}
}
