// Package fleetclient provides the main entry point for creating fleet API clients
package fleetclient

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/fivetwenty-io/fleet-client/internal/client"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// New creates a new fleet API client. Credentials in config take precedence
// over any session persisted by a previous run; a username/password pair is
// exchanged for a session token before New returns.
func New(ctx context.Context, config *fleet.Config) (fleet.Client, error) {
	if config == nil {
		return nil, fleet.ErrConfigRequired
	}

	fleetClient, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return fleetClient, nil
}

// NewFromEnv creates a client configured from FLEET_* environment variables.
func NewFromEnv(ctx context.Context) (fleet.Client, error) {
	config := &fleet.Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return New(ctx, config)
}

// NewWithToken creates a client that authenticates with an existing session
// token.
func NewWithToken(ctx context.Context, token string) (fleet.Client, error) {
	return New(ctx, &fleet.Config{
		Token: token,
	})
}

// NewWithAPIKey creates a client that authenticates with an API key.
func NewWithAPIKey(ctx context.Context, apiKey string) (fleet.Client, error) {
	return New(ctx, &fleet.Config{
		APIKey: apiKey,
	})
}

// NewWithPassword creates a client that logs in with username and password.
func NewWithPassword(ctx context.Context, username, password string) (fleet.Client, error) {
	return New(ctx, &fleet.Config{
		Username: username,
		Password: password,
	})
}
