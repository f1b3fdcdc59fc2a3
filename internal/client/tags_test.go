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

func TestTagResourceClient_List(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v7/device_tag", request.URL.Path)
		assert.Equal(t, "device eq 5", request.URL.Query().Get("$filter"))
		assert.Equal(t, "tag_key asc", request.URL.Query().Get("$orderby"))

		writeRecords(t, writer,
			map[string]any{"id": 1, "tag_key": "rack", "value": "b4"},
			map[string]any{"id": 2, "tag_key": "site", "value": "fra-1"},
		)
	}))

	tags, err := client.Tags().Device().List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assert.Equal(t, "rack", tags[0].TagKey)
	assert.Equal(t, "b4", tags[0].Value)
}

func TestTagResourceClient_Set_CreatesWhenMissing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case "GET":
			assert.Equal(t, "device eq 5 and tag_key eq 'rack'", request.URL.Query().Get("$filter"))
			writeRecords(t, writer)
		case "POST":
			assert.Equal(t, "/v7/device_tag", request.URL.Path)

			var body map[string]any

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, float64(5), body["device"])
			assert.Equal(t, "rack", body["tag_key"])
			assert.Equal(t, "b4", body["value"])

			writer.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(writer).Encode(map[string]any{
				"id": 3, "tag_key": "rack", "value": "b4",
			})
		}
	}))

	err := client.Tags().Device().Set(context.Background(), 5, "rack", "b4")
	require.NoError(t, err)
}

func TestTagResourceClient_Set_UpdatesInPlace(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case "GET":
			writeRecords(t, writer, map[string]any{"id": 3, "tag_key": "rack", "value": "b4"})
		case "PATCH":
			assert.Equal(t, "/v7/device_tag(3)", request.URL.Path)

			var body map[string]any

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, map[string]any{"value": "c2"}, body)

			writer.WriteHeader(http.StatusOK)
		}
	}))

	err := client.Tags().Device().Set(context.Background(), 5, "rack", "c2")
	require.NoError(t, err)
}

func TestTagResourceClient_Remove(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method {
		case "GET":
			writeRecords(t, writer, map[string]any{"id": 3, "tag_key": "rack", "value": "b4"})
		case "DELETE":
			assert.Equal(t, "/v7/device_tag(3)", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}
	}))

	err := client.Tags().Device().Remove(context.Background(), 5, "rack")
	require.NoError(t, err)
}

func TestTagResourceClient_Remove_NotSet(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeRecords(t, writer)
	}))

	err := client.Tags().Device().Remove(context.Background(), 5, "missing")
	require.ErrorIs(t, err, fleet.ErrTagNotFound)
}

func TestTagsClient_CollectionRouting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tags       func(fleet.TagsClient) fleet.TagResourceClient
		wantPath   string
		wantFilter string
	}{
		{
			name:       "device",
			tags:       fleet.TagsClient.Device,
			wantPath:   "/v7/device_tag",
			wantFilter: "device eq 9",
		},
		{
			name:       "application",
			tags:       fleet.TagsClient.Application,
			wantPath:   "/v7/application_tag",
			wantFilter: "application eq 9",
		},
		{
			name:       "release",
			tags:       fleet.TagsClient.Release,
			wantPath:   "/v7/release_tag",
			wantFilter: "release eq 9",
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

			_, err := testCase.tags(client.Tags()).List(context.Background(), 9)
			require.NoError(t, err)
		})
	}
}
