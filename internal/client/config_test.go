package client_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigClient_DeviceTypes(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		fetches.Add(1)
		assert.Equal(t, "/v7/device_type", request.URL.Path)
		assert.Equal(t, "name asc", request.URL.Query().Get("$orderby"))

		writeRecords(t, writer,
			map[string]any{"id": 58, "slug": "intel-nuc", "name": "Intel NUC", "is_private": false},
			map[string]any{"id": 77, "slug": "raspberrypi4-64", "name": "Raspberry Pi 4", "is_private": false},
		)
	}))

	deviceTypes, err := client.Config().DeviceTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, deviceTypes, 2)
	assert.Equal(t, "intel-nuc", deviceTypes[0].Slug)
	assert.Equal(t, "Raspberry Pi 4", deviceTypes[1].Name)

	// The catalog is cached, so a second call stays off the wire.
	again, err := client.Config().DeviceTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, deviceTypes, again)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestConfigClient_Vars(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/config/vars", request.URL.Path)

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"reservedNames":["fleet","supervisor"],"invalidRegex":"/^\\d|\\W/"}`))
	}))

	vars, err := client.Config().Vars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"fleet", "supervisor"}, vars["reservedNames"])
	assert.Equal(t, "/^\\d|\\W/", vars["invalidRegex"])
}
