package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// TagResourceClient implements fleet.TagResourceClient for one tag
// collection, following the same shape as the variable collections.
type TagResourceClient struct {
	client      *Client
	resource    string
	parentField string
}

func newTagResourceClient(client *Client, resource, parentField string) *TagResourceClient {
	return &TagResourceClient{client: client, resource: resource, parentField: parentField}
}

// List implements fleet.TagResourceClient.List.
func (t *TagResourceClient) List(ctx context.Context, parentID int64) ([]fleet.Tag, error) {
	opts := fleet.NewQueryOptions().
		WithFilter(fleet.Eq(t.parentField, parentID)).
		WithOrderBy("tag_key", false)

	return queryTyped[fleet.Tag](ctx, t.client, t.resource, opts)
}

// Set implements fleet.TagResourceClient.Set.
func (t *TagResourceClient) Set(ctx context.Context, parentID int64, key, value string) error {
	existing, err := t.find(ctx, parentID, key)
	if err != nil {
		return err
	}

	if existing != nil {
		return t.client.patchResource(ctx, t.resource, existing.ID, map[string]any{"value": value})
	}

	body := map[string]any{
		t.parentField: parentID,
		"tag_key":     key,
		"value":       value,
	}

	if _, err := createResource[fleet.Tag](ctx, t.client, t.resource, body); err != nil {
		return err
	}

	return nil
}

// Remove implements fleet.TagResourceClient.Remove.
func (t *TagResourceClient) Remove(ctx context.Context, parentID int64, key string) error {
	existing, err := t.find(ctx, parentID, key)
	if err != nil {
		return err
	}

	if existing == nil {
		return fmt.Errorf("%q: %w", key, fleet.ErrTagNotFound)
	}

	return t.client.deleteResource(ctx, t.resource, existing.ID)
}

// find looks up the tag under the parent, nil when unset.
func (t *TagResourceClient) find(ctx context.Context, parentID int64, key string) (*fleet.Tag, error) {
	opts := fleet.NewQueryOptions().WithFilter(fleet.And(
		fleet.Eq(t.parentField, parentID),
		fleet.Eq("tag_key", key),
	))

	return queryFirst[fleet.Tag](ctx, t.client, t.resource, opts)
}

// TagsClient implements fleet.TagsClient.
type TagsClient struct {
	device      *TagResourceClient
	application *TagResourceClient
	release     *TagResourceClient
}

// NewTagsClient creates a new tags client covering all three collections.
func NewTagsClient(client *Client) *TagsClient {
	return &TagsClient{
		device:      newTagResourceClient(client, "device_tag", "device"),
		application: newTagResourceClient(client, "application_tag", "application"),
		release:     newTagResourceClient(client, "release_tag", "release"),
	}
}

// Device implements fleet.TagsClient.Device.
func (t *TagsClient) Device() fleet.TagResourceClient {
	return t.device
}

// Application implements fleet.TagsClient.Application.
func (t *TagsClient) Application() fleet.TagResourceClient {
	return t.application
}

// Release implements fleet.TagsClient.Release.
func (t *TagsClient) Release() fleet.TagResourceClient {
	return t.release
}
