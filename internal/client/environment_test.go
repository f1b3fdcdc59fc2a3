package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

func TestVariablesClient_List(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v7/device_environment_variable", request.URL.Path)
		assert.Equal(t, "device eq 5", request.URL.Query().Get("$filter"))
		assert.Equal(t, "name asc", request.URL.Query().Get("$orderby"))

		writeRecords(t, writer,
			map[string]any{"id": 1, "name": "LOG_LEVEL", "value": "debug"},
			map[string]any{"id": 2, "name": "MQTT_HOST", "value": "broker.local"},
		)
	}))

	vars, err := client.Environment().Device().List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, vars, 2)

	assert.Equal(t, "LOG_LEVEL", vars[0].Name)
	assert.Equal(t, "debug", vars[0].Value)
}

func TestVariablesClient_Get(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "device eq 5 and name eq 'LOG_LEVEL'", request.URL.Query().Get("$filter"))

		writeRecords(t, writer, map[string]any{"id": 1, "name": "LOG_LEVEL", "value": "debug"})
	}))

	value, err := client.Environment().Device().Get(context.Background(), 5, "LOG_LEVEL")
	require.NoError(t, err)
	assert.Equal(t, "debug", value)
}

func TestVariablesClient_Get_NotSet(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeRecords(t, writer)
	}))

	_, err := client.Environment().Device().Get(context.Background(), 5, "MISSING")
	require.ErrorIs(t, err, fleet.ErrVariableNotFound)
}

func TestVariablesClient_Set_CreatesWhenMissing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case "GET":
			writeRecords(t, writer)
		case "POST":
			assert.Equal(t, "/v7/device_environment_variable", request.URL.Path)

			var body map[string]any

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, float64(5), body["device"])
			assert.Equal(t, "LOG_LEVEL", body["name"])
			assert.Equal(t, "info", body["value"])

			writer.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(writer).Encode(map[string]any{
				"id": 9, "name": "LOG_LEVEL", "value": "info",
			})
		}
	}))

	err := client.Environment().Device().Set(context.Background(), 5, "LOG_LEVEL", "info")
	require.NoError(t, err)
}

func TestVariablesClient_Set_UpdatesInPlace(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case "GET":
			writeRecords(t, writer, map[string]any{"id": 9, "name": "LOG_LEVEL", "value": "info"})
		case "PATCH":
			assert.Equal(t, "/v7/device_environment_variable(9)", request.URL.Path)

			var body map[string]any

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, map[string]any{"value": "warn"}, body)

			writer.WriteHeader(http.StatusOK)
		}
	}))

	err := client.Environment().Device().Set(context.Background(), 5, "LOG_LEVEL", "warn")
	require.NoError(t, err)
}

func TestVariablesClient_Remove(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case "GET":
			writeRecords(t, writer, map[string]any{"id": 9, "name": "LOG_LEVEL", "value": "info"})
		case "DELETE":
			assert.Equal(t, "/v7/device_environment_variable(9)", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}
	}))

	err := client.Environment().Device().Remove(context.Background(), 5, "LOG_LEVEL")
	require.NoError(t, err)
}

func TestVariablesClient_Remove_NotSet(t *testing.T) {
	t.Parallel()

	var deletes atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == "DELETE" {
			deletes.Add(1)
		}

		writeRecords(t, writer)
	}))

	err := client.Environment().Device().Remove(context.Background(), 5, "MISSING")
	require.ErrorIs(t, err, fleet.ErrVariableNotFound)
	assert.Equal(t, int32(0), deletes.Load())
}

func TestEnvironmentClient_CollectionRouting(t *testing.T) {
	t.Parallel()

	// Each collection addresses its own resource, scoped by its own parent
	// field.
	tests := []struct {
		name       string
		vars       func(fleet.EnvironmentClient) fleet.VariablesClient
		wantPath   string
		wantFilter string
	}{
		{
			name:       "device environment",
			vars:       fleet.EnvironmentClient.Device,
			wantPath:   "/v7/device_environment_variable",
			wantFilter: "device eq 5",
		},
		{
			name:       "device config",
			vars:       fleet.EnvironmentClient.DeviceConfig,
			wantPath:   "/v7/device_config_variable",
			wantFilter: "device eq 5",
		},
		{
			name:       "application environment",
			vars:       fleet.EnvironmentClient.Application,
			wantPath:   "/v7/application_environment_variable",
			wantFilter: "application eq 5",
		},
		{
			name:       "application config",
			vars:       fleet.EnvironmentClient.ApplicationConfig,
			wantPath:   "/v7/application_config_variable",
			wantFilter: "application eq 5",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.wantPath, request.URL.Path)
				assert.Equal(t, testCase.wantFilter, request.URL.Query().Get("$filter"))

				writeRecords(t, writer)
			}))

			_, err := testCase.vars(client.Environment()).List(context.Background(), 5)
			require.NoError(t, err)
		})
	}
}
