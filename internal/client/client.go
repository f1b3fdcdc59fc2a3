package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fivetwenty-io/fleet-client/internal/auth"
	"github.com/fivetwenty-io/fleet-client/internal/constants"
	"github.com/fivetwenty-io/fleet-client/internal/http"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// Client implements the fleet.Client interface.
type Client struct {
	http     *http.Client
	authHTTP *http.Client
	sessions *auth.Store
	tokens   *auth.Manager
	cache    fleet.Cache
	logger   fleet.Logger

	baseURL    string
	apiVersion string

	// Resource clients
	auth          fleet.AuthClient
	applications  fleet.ApplicationsClient
	devices       fleet.DevicesClient
	releases      fleet.ReleasesClient
	environment   fleet.EnvironmentClient
	sshKeys       fleet.SSHKeysClient
	apiKeys       fleet.APIKeysClient
	tags          fleet.TagsClient
	organizations fleet.OrganizationsClient
	logs          fleet.LogsClient
	config        fleet.ConfigClient
}

// New creates a fleet API client from config, loading any session a previous
// run persisted and then applying explicit credentials in precedence order.
// A username/password pair is exchanged for a token before New returns.
func New(ctx context.Context, config *fleet.Config) (*Client, error) {
	if config == nil {
		config = &fleet.Config{}
	}

	baseURL := normalizeHost(config.APIHost)

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = constants.DefaultAPIVersion
	}

	dataDir := config.DataDirectory
	if dataDir == "" {
		dir, err := auth.DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}

		dataDir = dir
	}

	sessions := auth.NewStore(dataDir)

	tokens, err := auth.NewManager(sessions)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	cache, err := fleet.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("configuring cache: %w", err)
	}

	client := &Client{
		sessions:   sessions,
		tokens:     tokens,
		cache:      cache,
		logger:     config.Logger,
		baseURL:    baseURL,
		apiVersion: apiVersion,
	}

	httpOpts := buildHTTPOptions(config)

	// Credential exchange (login, refresh) goes through a client whose
	// token source never triggers a refresh of its own.
	client.authHTTP = http.NewClient(baseURL, &tokenSource{tokens: tokens}, httpOpts...)
	client.http = http.NewClient(baseURL, &tokenSource{
		tokens:  tokens,
		refresh: client.refreshSession,
		logger:  config.Logger,
	}, httpOpts...)

	client.initResourceClients()

	// Explicit credentials replace whatever session a previous run left
	// behind.
	switch {
	case config.Token != "":
		if err := client.auth.LoginWithToken(ctx, config.Token); err != nil {
			return nil, err
		}
	case config.APIKey != "":
		if err := client.auth.LoginWithAPIKey(ctx, config.APIKey); err != nil {
			return nil, err
		}
	case config.Username != "" && config.Password != "":
		if err := client.auth.Login(ctx, config.Username, config.Password); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// normalizeHost applies the default API host and ensures the scheme the HTTP
// layer needs in a base URL.
func normalizeHost(host string) string {
	if host == "" {
		host = constants.DefaultAPIHost
	}

	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	return strings.TrimRight(host, "/")
}

// buildHTTPOptions translates config into HTTP client options, leaving
// transport defaults in place for anything unset.
func buildHTTPOptions(config *fleet.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.RequestLimit != 0 {
		interval := constants.DefaultRequestLimitInterval

		if config.RequestLimitInterval > 0 {
			interval = config.RequestLimitInterval
		}

		httpOpts = append(httpOpts, http.WithRateLimit(config.RequestLimit, interval))
	}

	return httpOpts
}

// initResourceClients initializes all resource-specific clients.
func (c *Client) initResourceClients() {
	c.auth = NewAuthClient(c)
	c.applications = NewApplicationsClient(c)
	c.devices = NewDevicesClient(c)
	c.releases = NewReleasesClient(c)
	c.environment = NewEnvironmentClient(c)
	c.sshKeys = NewSSHKeysClient(c)
	c.apiKeys = NewAPIKeysClient(c)
	c.tags = NewTagsClient(c)
	c.organizations = NewOrganizationsClient(c)
	c.logs = NewLogsClient(c)
	c.config = NewConfigClient(c)
}

// apiPath prefixes a resource name with the API version segment.
func (c *Client) apiPath(resource string) string {
	return "/" + c.apiVersion + "/" + resource
}

// refreshSession is the refresh hook handed to the token source.
func (c *Client) refreshSession(ctx context.Context) error {
	return c.auth.RefreshToken(ctx)
}

// Resource client accessors

// Auth implements fleet.Client.Auth.
func (c *Client) Auth() fleet.AuthClient {
	return c.auth
}

// Applications implements fleet.Client.Applications.
func (c *Client) Applications() fleet.ApplicationsClient {
	return c.applications
}

// Devices implements fleet.Client.Devices.
func (c *Client) Devices() fleet.DevicesClient {
	return c.devices
}

// Releases implements fleet.Client.Releases.
func (c *Client) Releases() fleet.ReleasesClient {
	return c.releases
}

// Environment implements fleet.Client.Environment.
func (c *Client) Environment() fleet.EnvironmentClient {
	return c.environment
}

// SSHKeys implements fleet.Client.SSHKeys.
func (c *Client) SSHKeys() fleet.SSHKeysClient {
	return c.sshKeys
}

// APIKeys implements fleet.Client.APIKeys.
func (c *Client) APIKeys() fleet.APIKeysClient {
	return c.apiKeys
}

// Tags implements fleet.Client.Tags.
func (c *Client) Tags() fleet.TagsClient {
	return c.tags
}

// Organizations implements fleet.Client.Organizations.
func (c *Client) Organizations() fleet.OrganizationsClient {
	return c.organizations
}

// Logs implements fleet.Client.Logs.
func (c *Client) Logs() fleet.LogsClient {
	return c.logs
}

// Config implements fleet.Client.Config.
func (c *Client) Config() fleet.ConfigClient {
	return c.config
}

// Query implements fleet.Client.Query.
func (c *Client) Query(ctx context.Context, resource string, opts *fleet.QueryOptions) ([]fleet.Record, error) {
	return c.queryResource(ctx, resource, opts)
}

// Close implements fleet.Client.Close.
func (c *Client) Close() error {
	if closer, ok := c.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closing cache: %w", err)
		}
	}

	return nil
}

// tokenSource feeds the HTTP layer the current session credential. When a
// refresh hook is set and the token nears expiry, the hook runs first; a
// failed refresh is logged and the stale token sent anyway, leaving the
// verdict to the server.
type tokenSource struct {
	tokens  *auth.Manager
	refresh func(ctx context.Context) error
	logger  fleet.Logger
}

func (s *tokenSource) GetToken(ctx context.Context) (string, error) {
	if s.refresh != nil && s.tokens.NeedsRefresh(time.Now()) {
		if err := s.refresh(ctx); err != nil && s.logger != nil {
			s.logger.Warn("token refresh failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	cred, ok := s.tokens.Credential()
	if !ok {
		return "", nil
	}

	return cred, nil
}
