package constants

import "time"

// File and directory permissions.
const (
	// DataDirPerm is the permission for the client data directory.
	DataDirPerm = 0750

	// DataFilePerm is the permission for persisted session and config files.
	DataFilePerm = 0600
)

// API endpoint defaults.
const (
	// DefaultAPIHost is the host the client talks to when none is configured.
	DefaultAPIHost = "api.fleet-cloud.io"

	// DefaultAPIVersion is the query protocol version prefix.
	DefaultAPIVersion = "v7"

	// DefaultDataDirectoryName is the directory under $HOME holding client state.
	DefaultDataDirectoryName = ".fleet"

	// SessionFileName is the persisted session file inside the data directory.
	SessionFileName = "session.yml"

	// ConfigFileName is the CLI configuration file inside the data directory.
	ConfigFileName = "config.yml"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// StreamHTTPTimeout bounds the connect phase of log streaming requests.
	StreamHTTPTimeout = 59 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Rate limiting.
const (
	// DefaultRequestLimit is the number of requests allowed per limit interval.
	DefaultRequestLimit = 89

	// DefaultRequestLimitInterval is the window the request limit applies to.
	DefaultRequestLimitInterval = 60 * time.Second
)

// Token lifecycle.
const (
	// DefaultTokenRefreshInterval is the token age after which a refresh is
	// requested when the token carries no expiry claim.
	DefaultTokenRefreshInterval = 1 * time.Hour

	// TokenExpiryLeadTime is how close to expiry a token may get before a
	// refresh is requested.
	TokenExpiryLeadTime = 2 * time.Minute

	// TokenPartsCount is the expected number of parts in a session token.
	TokenPartsCount = 3
)

// Identifier shapes.
const (
	// FullUUIDLength is the length of a full device UUID.
	FullUUIDLength = 32

	// LongUUIDLength is the length of the extended device UUID form.
	LongUUIDLength = 62
)

// Cache sizing and lifetimes.
const (
	// DefaultCacheSize is the default cache entry limit.
	DefaultCacheSize = 1000

	// DeviceTypeCacheTTL is the TTL for device type catalog lookups.
	DeviceTypeCacheTTL = 168 * time.Hour
)

// Buffering.
const (
	// LogBufferSize is the channel buffer for streamed log entries.
	LogBufferSize = 100
)
