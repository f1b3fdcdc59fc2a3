package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// APIKeysClient implements fleet.APIKeysClient.
type APIKeysClient struct {
	client *Client
}

// NewAPIKeysClient creates a new API keys client.
func NewAPIKeysClient(client *Client) *APIKeysClient {
	return &APIKeysClient{client: client}
}

// List implements fleet.APIKeysClient.List.
func (k *APIKeysClient) List(ctx context.Context, opts *fleet.QueryOptions) ([]fleet.APIKey, error) {
	scoped := scopedOptions(opts, nil, fleet.OrderBy{Field: "name"})

	return queryTyped[fleet.APIKey](ctx, k.client, "api_key", scoped)
}

// Create implements fleet.APIKeysClient.Create. The returned secret is not
// retrievable again.
func (k *APIKeysClient) Create(ctx context.Context, name, description string) (string, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}

	resp, err := k.client.http.Post(ctx, "/api-key/user/full", body)
	if err != nil {
		return "", fmt.Errorf("creating api key: %w", err)
	}

	return decodeKeySecret(resp.Body), nil
}

// Update implements fleet.APIKeysClient.Update. Empty arguments leave the
// corresponding field unchanged.
func (k *APIKeysClient) Update(ctx context.Context, id int64, name, description string) error {
	body := map[string]any{}

	if name != "" {
		body["name"] = name
	}

	if description != "" {
		body["description"] = description
	}

	if len(body) == 0 {
		return nil
	}

	return k.client.patchResource(ctx, "api_key", id, body)
}

// Revoke implements fleet.APIKeysClient.Revoke.
func (k *APIKeysClient) Revoke(ctx context.Context, id int64) error {
	return k.client.deleteResource(ctx, "api_key", id)
}

// decodeKeySecret reads a key secret that arrives either as a JSON-encoded
// string or as a bare body.
func decodeKeySecret(body []byte) string {
	var secret string
	if err := json.Unmarshal(body, &secret); err == nil {
		return secret
	}

	return strings.TrimSpace(string(body))
}
