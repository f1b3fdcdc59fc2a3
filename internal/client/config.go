package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// deviceTypesCacheKey names the cached device type catalog.
const deviceTypesCacheKey = "device_types"

// ConfigClient implements fleet.ConfigClient.
type ConfigClient struct {
	client *Client
}

// NewConfigClient creates a new config client.
func NewConfigClient(client *Client) *ConfigClient {
	return &ConfigClient{client: client}
}

// DeviceTypes implements fleet.ConfigClient.DeviceTypes. The catalog moves
// slowly, so fetched results are kept in the configured cache.
func (c *ConfigClient) DeviceTypes(ctx context.Context) ([]fleet.DeviceType, error) {
	if entry, err := c.client.cache.Get(ctx, deviceTypesCacheKey); err == nil {
		var cached []fleet.DeviceType
		if err := json.Unmarshal(entry.Value, &cached); err == nil {
			return cached, nil
		}
		// Unreadable cache content falls through to a fresh fetch.
	}

	opts := fleet.NewQueryOptions().WithOrderBy("name", false)

	deviceTypes, err := queryTyped[fleet.DeviceType](ctx, c.client, "device_type", opts)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(deviceTypes); err == nil {
		_ = c.client.cache.Set(ctx, deviceTypesCacheKey, &fleet.CacheEntry{
			Value:    data,
			StoredAt: time.Now(),
			TTL:      constants.DeviceTypeCacheTTL,
		})
	}

	return deviceTypes, nil
}

// Vars implements fleet.ConfigClient.Vars.
func (c *ConfigClient) Vars(ctx context.Context) (map[string]any, error) {
	resp, err := c.client.http.Get(ctx, "/config/vars", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching config vars: %w", err)
	}

	var vars map[string]any
	if err := json.Unmarshal(resp.Body, &vars); err != nil {
		return nil, fmt.Errorf("parsing config vars: %w", err)
	}

	return vars, nil
}
