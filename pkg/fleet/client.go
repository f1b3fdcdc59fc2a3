package fleet

import (
	"context"
	"time"
)

// AuthClient manages the session credential. Login state questions are
// answered from the stored credential alone; only the operations that
// exchange or verify credentials touch the network.
type AuthClient interface {
	// Login exchanges username and password for a session token and stores
	// it. ErrAuthenticationFailed on rejected credentials. When the account
	// has two-factor enabled the stored token still needs
	// TwoFactorChallenge before other calls succeed.
	Login(ctx context.Context, username, password string) error
	// LoginWithToken stores an existing session token.
	LoginWithToken(ctx context.Context, token string) error
	// LoginWithAPIKey stores an API key credential.
	LoginWithAPIKey(ctx context.Context, apiKey string) error
	// TwoFactorChallenge completes a pending two-factor login with a TOTP
	// code.
	TwoFactorChallenge(ctx context.Context, code string) error
	// Logout drops the stored credential.
	Logout(ctx context.Context) error
	// Register creates a new account and stores the resulting token.
	Register(ctx context.Context, email, password string) error
	// IsLoggedIn reports whether a usable credential is stored. Never
	// touches the network.
	IsLoggedIn() bool
	// TwoFactorPending reports whether the stored token still awaits its
	// second factor.
	TwoFactorPending() bool
	// Token returns the raw stored credential, or ErrNotLoggedIn.
	Token() (string, error)
	// RefreshToken exchanges the current session token for a fresh one.
	RefreshToken(ctx context.Context) error
	// WhoAmI returns the identity behind the credential.
	WhoAmI(ctx context.Context) (*UserInfo, error)
}

// ApplicationsClient operates on applications.
type ApplicationsClient interface {
	List(ctx context.Context, opts *QueryOptions) ([]Application, error)
	// Get accepts a slug ("org/app"), an application UUID, or a numeric id.
	Get(ctx context.Context, nameOrID string, opts *QueryOptions) (*Application, error)
	GetByName(ctx context.Context, name string, opts *QueryOptions) (*Application, error)
	GetID(ctx context.Context, nameOrID string) (int64, error)
	Create(ctx context.Context, name, deviceType, organization string) (*Application, error)
	Rename(ctx context.Context, id int64, newName string) error
	SetNote(ctx context.Context, id int64, note string) error
	Remove(ctx context.Context, id int64) error
	// GenerateProvisioningKey returns a key devices can register with.
	GenerateProvisioningKey(ctx context.Context, id int64, keyName string) (string, error)
}

// DevicesClient operates on devices.
type DevicesClient interface {
	List(ctx context.Context, opts *QueryOptions) ([]Device, error)
	ListByApplication(ctx context.Context, applicationID int64, opts *QueryOptions) ([]Device, error)
	ListByOrganization(ctx context.Context, handle string, opts *QueryOptions) ([]Device, error)
	// Get accepts a numeric id, a full UUID, or a unique UUID prefix.
	// ErrAmbiguousDevice when a prefix matches more than one device.
	Get(ctx context.Context, uuidOrID string, opts *QueryOptions) (*Device, error)
	GetByName(ctx context.Context, name string, opts *QueryOptions) (*Device, error)
	Rename(ctx context.Context, uuidOrID, newName string) error
	SetNote(ctx context.Context, uuidOrID, note string) error
	// Move reassigns the device to another application.
	Move(ctx context.Context, uuidOrID string, applicationID int64) error
	Remove(ctx context.Context, uuidOrID string) error
	// Deactivate releases the device from billing without deleting it.
	Deactivate(ctx context.Context, uuidOrID string) error
	IsOnline(ctx context.Context, uuidOrID string) (bool, error)
	GetMetrics(ctx context.Context, uuidOrID string) (*DeviceMetrics, error)
	// Register provisions a new device identity under an application. The
	// device UUID is generated client side.
	Register(ctx context.Context, applicationID int64, provisioningKey string) (*DeviceRegistration, error)
	// DashboardURL returns the dashboard page for a device UUID.
	DashboardURL(uuid string) (string, error)
}

// ReleasesClient operates on releases.
type ReleasesClient interface {
	List(ctx context.Context, opts *QueryOptions) ([]Release, error)
	ListByApplication(ctx context.Context, applicationID int64, opts *QueryOptions) ([]Release, error)
	// Get accepts a numeric id or a commit hash.
	Get(ctx context.Context, commitOrID string, opts *QueryOptions) (*Release, error)
	// GetLatestByApplication returns the newest successful release.
	GetLatestByApplication(ctx context.Context, applicationID int64, opts *QueryOptions) (*Release, error)
	SetNote(ctx context.Context, commitOrID, note string) error
}

// VariablesClient operates on one variable collection (device or
// application, environment or config), scoped by the parent's numeric id.
type VariablesClient interface {
	List(ctx context.Context, parentID int64) ([]EnvironmentVariable, error)
	// Get returns the value of the named variable. ErrVariableNotFound when
	// it is not set.
	Get(ctx context.Context, parentID int64, name string) (string, error)
	// Set creates the variable or updates it in place.
	Set(ctx context.Context, parentID int64, name, value string) error
	Remove(ctx context.Context, parentID int64, name string) error
}

// EnvironmentClient groups the variable collections.
type EnvironmentClient interface {
	// Device holds per-device environment variables.
	Device() VariablesClient
	// DeviceConfig holds per-device config variables.
	DeviceConfig() VariablesClient
	// Application holds fleet-wide environment variables.
	Application() VariablesClient
	// ApplicationConfig holds fleet-wide config variables.
	ApplicationConfig() VariablesClient
}

// SSHKeysClient operates on the account's SSH keys.
type SSHKeysClient interface {
	List(ctx context.Context) ([]SSHKey, error)
	Get(ctx context.Context, id int64) (*SSHKey, error)
	Create(ctx context.Context, title, publicKey string) (*SSHKey, error)
	Remove(ctx context.Context, id int64) error
}

// APIKeysClient operates on named API keys.
type APIKeysClient interface {
	List(ctx context.Context, opts *QueryOptions) ([]APIKey, error)
	// Create returns the key secret, shown exactly once.
	Create(ctx context.Context, name, description string) (string, error)
	Update(ctx context.Context, id int64, name, description string) error
	Revoke(ctx context.Context, id int64) error
}

// TagResourceClient operates on one tag collection, scoped by the parent's
// numeric id.
type TagResourceClient interface {
	List(ctx context.Context, parentID int64) ([]Tag, error)
	// Set creates the tag or updates its value in place.
	Set(ctx context.Context, parentID int64, key, value string) error
	Remove(ctx context.Context, parentID int64, key string) error
}

// TagsClient groups the tag collections.
type TagsClient interface {
	Device() TagResourceClient
	Application() TagResourceClient
	Release() TagResourceClient
}

// OrganizationsClient operates on organizations.
type OrganizationsClient interface {
	List(ctx context.Context, opts *QueryOptions) ([]Organization, error)
	// Get accepts a handle or a numeric id.
	Get(ctx context.Context, handleOrID string, opts *QueryOptions) (*Organization, error)
	Create(ctx context.Context, name, handle string) (*Organization, error)
	Remove(ctx context.Context, id int64) error
}

// LogsClient reads device logs.
type LogsClient interface {
	// History fetches up to count stored log entries. count <= 0 means the
	// backend default.
	History(ctx context.Context, uuid string, count int) ([]LogMessage, error)
	// Subscribe streams log entries until ctx is canceled or the stream
	// ends. The message channel closes on termination; a terminal failure
	// is delivered on the error channel first.
	Subscribe(ctx context.Context, uuid string, count int) (<-chan LogMessage, <-chan error, error)
}

// ConfigClient reads platform configuration.
type ConfigClient interface {
	// DeviceTypes lists the supported device types. Results are cached.
	DeviceTypes(ctx context.Context) ([]DeviceType, error)
	// Vars returns the platform's configuration variable whitelist.
	Vars(ctx context.Context) (map[string]any, error)
}

// Client is the fleet API client.
type Client interface {
	Auth() AuthClient
	Applications() ApplicationsClient
	Devices() DevicesClient
	Releases() ReleasesClient
	Environment() EnvironmentClient
	SSHKeys() SSHKeysClient
	APIKeys() APIKeysClient
	Tags() TagsClient
	Organizations() OrganizationsClient
	Logs() LogsClient
	Config() ConfigClient

	// Query runs an arbitrary resource query and returns normalized
	// records. This is the escape hatch for anything the typed clients do
	// not cover.
	Query(ctx context.Context, resource string, opts *QueryOptions) ([]Record, error)

	// Close releases resources held by the client, such as cache backend
	// connections. The client must not be used afterwards.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a fleet.Client.
//
// # Credential precedence
//
// The concrete client (see pkg/fleetclient and internal/client) applies:
//  1. Token: stored directly as the session credential.
//  2. APIKey: stored as an API key credential; never refreshed.
//  3. Username/Password: exchanged for a token on construction.
//  4. Nothing: the persisted session from a previous run, if any.
//
// # Timeouts, retries, and rate limiting
//
// Each request attempt is bounded by HTTPTimeout. Transient failures retry
// up to RetryMax times with backoff between RetryWaitMin and RetryWaitMax.
// Outgoing requests additionally pass a client-side token bucket of
// RequestLimit per RequestLimitInterval so a busy caller stays under the
// server's window. Zero values take the defaults.
type Config struct {
	// APIHost is the API endpoint, with or without scheme. Defaults to the
	// public cloud host.
	APIHost string `env:"FLEET_API_HOST"`
	// APIVersion selects the API version path segment. Defaults to "v7".
	APIVersion string `env:"FLEET_API_VERSION"`
	// DataDirectory holds the session file. Defaults to ~/.fleet.
	DataDirectory string `env:"FLEET_DATA_DIRECTORY"`

	// Token seeds the session with an existing session token.
	Token string `env:"FLEET_TOKEN"`
	// APIKey seeds the session with an API key.
	APIKey string `env:"FLEET_API_KEY"`
	// Username is exchanged together with Password for a token when no
	// other credential is given.
	Username string `env:"FLEET_USERNAME"`
	// Password accompanies Username.
	Password string `env:"FLEET_PASSWORD"`

	// HTTPTimeout bounds each request attempt.
	HTTPTimeout time.Duration `env:"FLEET_HTTP_TIMEOUT"`
	// RetryMax is the maximum number of retries for transient failures.
	RetryMax int `env:"FLEET_RETRY_MAX"`
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration `env:"FLEET_RETRY_WAIT_MIN"`
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration `env:"FLEET_RETRY_WAIT_MAX"`
	// RequestLimit caps outgoing requests per RequestLimitInterval.
	RequestLimit int `env:"FLEET_REQUEST_LIMIT"`
	// RequestLimitInterval is the rate limit window.
	RequestLimitInterval time.Duration `env:"FLEET_REQUEST_LIMIT_INTERVAL"`

	// Cache configures response caching for slow-moving catalog data.
	Cache *CacheConfig

	// Debug enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool `env:"FLEET_DEBUG"`
	// Logger is the optional structured logger used by the HTTP layer.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string `env:"FLEET_USER_AGENT"`
}
