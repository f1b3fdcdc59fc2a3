package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// SSHKeysClient implements fleet.SSHKeysClient.
type SSHKeysClient struct {
	client *Client
}

// NewSSHKeysClient creates a new SSH keys client.
func NewSSHKeysClient(client *Client) *SSHKeysClient {
	return &SSHKeysClient{client: client}
}

// List implements fleet.SSHKeysClient.List.
func (s *SSHKeysClient) List(ctx context.Context) ([]fleet.SSHKey, error) {
	opts := fleet.NewQueryOptions().WithOrderBy("title", false)

	return queryTyped[fleet.SSHKey](ctx, s.client, "user__has__public_key", opts)
}

// Get implements fleet.SSHKeysClient.Get.
func (s *SSHKeysClient) Get(ctx context.Context, id int64) (*fleet.SSHKey, error) {
	opts := fleet.NewQueryOptions().WithFilter(fleet.Eq("id", id))

	key, err := queryFirst[fleet.SSHKey](ctx, s.client, "user__has__public_key", opts)
	if err != nil {
		return nil, err
	}

	if key == nil {
		return nil, fmt.Errorf("%d: %w", id, fleet.ErrKeyNotFound)
	}

	return key, nil
}

// Create implements fleet.SSHKeysClient.Create. The key is attached to the
// session user.
func (s *SSHKeysClient) Create(ctx context.Context, title, publicKey string) (*fleet.SSHKey, error) {
	user, err := s.client.Auth().WhoAmI(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"title":      title,
		"public_key": strings.TrimSpace(publicKey),
		"user":       user.ID,
	}

	return createResource[fleet.SSHKey](ctx, s.client, "user__has__public_key", body)
}

// Remove implements fleet.SSHKeysClient.Remove.
func (s *SSHKeysClient) Remove(ctx context.Context, id int64) error {
	return s.client.deleteResource(ctx, "user__has__public_key", id)
}
