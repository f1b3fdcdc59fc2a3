package fleet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Record is a raw resource record as returned by the query escape hatch,
// after normalization. Keys are wire field names.
type Record map[string]any

// String returns the named field as a string.
func (r Record) String(key string) (string, bool) {
	value, ok := r[key].(string)

	return value, ok
}

// Int64 returns the named field as an int64, converting from the numeric
// types JSON decoding produces.
func (r Record) Int64(key string) (int64, bool) {
	return asInt64(r[key])
}

// Bool returns the named field as a bool.
func (r Record) Bool(key string) (bool, bool) {
	value, ok := r[key].(bool)

	return value, ok
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

// ForeignKey is a to-one relation field. On the wire it is either a deferred
// reference carrying the related record's id, or, when the relation was
// expanded, a list of zero or one related records. Both shapes decode into
// this type; a list with more than one element fails with
// ErrDecodeInconsistency.
type ForeignKey struct {
	id       int64
	record   Record
	expanded bool
	set      bool
}

// NewForeignKey builds a deferred reference to the given id, for use in
// create and update bodies.
func NewForeignKey(id int64) *ForeignKey {
	return &ForeignKey{id: id, set: true}
}

// ID returns the related record's id, or zero when the relation is unset or
// expanded to nothing.
func (f *ForeignKey) ID() int64 {
	if f == nil {
		return 0
	}

	return f.id
}

// IsSet reports whether the relation points at a record.
func (f *ForeignKey) IsSet() bool {
	return f != nil && (f.set || f.record != nil)
}

// IsExpanded reports whether the relation arrived expanded.
func (f *ForeignKey) IsExpanded() bool {
	return f != nil && f.expanded
}

// Record returns the expanded related record, or nil when the relation was
// deferred or empty.
func (f *ForeignKey) Record() Record {
	if f == nil {
		return nil
	}

	return f.record
}

// UnmarshalJSON accepts the two wire shapes for a to-one relation.
func (f *ForeignKey) UnmarshalJSON(data []byte) error {
	*f = ForeignKey{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var reference map[string]any

		err := json.Unmarshal(trimmed, &reference)
		if err != nil {
			return fmt.Errorf("decoding foreign key reference: %w", err)
		}

		id, ok := asInt64(reference["__id"])
		if !ok {
			return fmt.Errorf("foreign key reference without __id: %w", ErrDecodeInconsistency)
		}

		f.id = id
		f.set = true

		return nil
	case '[':
		var records []Record

		err := json.Unmarshal(trimmed, &records)
		if err != nil {
			return fmt.Errorf("decoding expanded foreign key: %w", err)
		}

		if len(records) > 1 {
			return fmt.Errorf("foreign key expanded to %d records: %w", len(records), ErrDecodeInconsistency)
		}

		f.expanded = true

		if len(records) == 1 {
			f.record = records[0]
			f.set = true

			if id, ok := asInt64(records[0]["id"]); ok {
				f.id = id
			}
		}

		return nil
	default:
		id, ok := asInt64FromJSON(trimmed)
		if !ok {
			return fmt.Errorf("unexpected foreign key shape %q: %w", string(trimmed), ErrDecodeInconsistency)
		}

		f.id = id
		f.set = true

		return nil
	}
}

// MarshalJSON writes the canonical shape back out: a deferred reference, the
// expanded list, or null when unset.
func (f *ForeignKey) MarshalJSON() ([]byte, error) {
	switch {
	case f == nil || (!f.set && !f.expanded):
		return []byte("null"), nil
	case f.expanded && f.record != nil:
		return json.Marshal([]Record{f.record})
	case f.expanded:
		return []byte("[]"), nil
	default:
		return json.Marshal(map[string]int64{"__id": f.id})
	}
}

func asInt64FromJSON(data []byte) (int64, bool) {
	var number json.Number

	err := json.Unmarshal(data, &number)
	if err != nil {
		return 0, false
	}

	id, err := number.Int64()
	if err != nil {
		return 0, false
	}

	return id, true
}

// Application represents a fleet of devices sharing a device type and
// release train.
type Application struct {
	ID                         int64       `json:"id" yaml:"id"`
	CreatedAt                  time.Time   `json:"created_at" yaml:"created_at"`
	AppName                    string      `json:"app_name" yaml:"app_name"`
	Slug                       string      `json:"slug" yaml:"slug"`
	UUID                       string      `json:"uuid" yaml:"uuid"`
	Note                       string      `json:"note,omitempty" yaml:"note,omitempty"`
	IsAccessibleBySupportUntil *time.Time  `json:"is_accessible_by_support_until__date,omitempty" yaml:"is_accessible_by_support_until__date,omitempty"`
	IsHost                     bool        `json:"is_host" yaml:"is_host"`
	ShouldTrackLatestRelease   bool        `json:"should_track_latest_release" yaml:"should_track_latest_release"`
	IsPublic                   bool        `json:"is_public" yaml:"is_public"`
	IsOfClass                  string      `json:"is_of__class" yaml:"is_of__class"`
	IsArchived                 bool        `json:"is_archived" yaml:"is_archived"`
	IsDiscoverable             bool        `json:"is_discoverable" yaml:"is_discoverable"`
	IsStoredAtRepositoryURL    string      `json:"is_stored_at__repository_url,omitempty" yaml:"is_stored_at__repository_url,omitempty"`
	Actor                      *ForeignKey `json:"actor,omitempty" yaml:"actor,omitempty"`
	Organization               *ForeignKey `json:"organization,omitempty" yaml:"organization,omitempty"`
	ApplicationType            *ForeignKey `json:"application_type,omitempty" yaml:"application_type,omitempty"`
	IsForDeviceType            *ForeignKey `json:"is_for__device_type,omitempty" yaml:"is_for__device_type,omitempty"`
	DependsOnApplication       *ForeignKey `json:"depends_on__application,omitempty" yaml:"depends_on__application,omitempty"`
	ShouldBeRunningRelease     *ForeignKey `json:"should_be_running__release,omitempty" yaml:"should_be_running__release,omitempty"`
	PublicOrganization         *ForeignKey `json:"public_organization,omitempty" yaml:"public_organization,omitempty"`

	OwnsDevice                     []Device              `json:"owns__device,omitempty" yaml:"owns__device,omitempty"`
	OwnsRelease                    []Release             `json:"owns__release,omitempty" yaml:"owns__release,omitempty"`
	ApplicationEnvironmentVariable []EnvironmentVariable `json:"application_environment_variable,omitempty" yaml:"application_environment_variable,omitempty"`
	ApplicationConfigVariable      []EnvironmentVariable `json:"application_config_variable,omitempty" yaml:"application_config_variable,omitempty"`
	ApplicationTag                 []Tag                 `json:"application_tag,omitempty" yaml:"application_tag,omitempty"`
}

// Device represents a provisioned device.
type Device struct {
	ID                         int64       `json:"id" yaml:"id"`
	CreatedAt                  time.Time   `json:"created_at" yaml:"created_at"`
	ModifiedAt                 time.Time   `json:"modified_at" yaml:"modified_at"`
	UUID                       string      `json:"uuid" yaml:"uuid"`
	DeviceName                 string      `json:"device_name" yaml:"device_name"`
	Note                       string      `json:"note,omitempty" yaml:"note,omitempty"`
	IsOnline                   bool        `json:"is_online" yaml:"is_online"`
	IsConnectedToVPN           bool        `json:"is_connected_to_vpn" yaml:"is_connected_to_vpn"`
	IsActive                   bool        `json:"is_active" yaml:"is_active"`
	IsFrozen                   bool        `json:"is_frozen" yaml:"is_frozen"`
	IsWebAccessible            bool        `json:"is_web_accessible" yaml:"is_web_accessible"`
	IsUndervolted              bool        `json:"is_undervolted" yaml:"is_undervolted"`
	Status                     string      `json:"status,omitempty" yaml:"status,omitempty"`
	OverallStatus              string      `json:"overall_status,omitempty" yaml:"overall_status,omitempty"`
	OverallProgress            *int        `json:"overall_progress,omitempty" yaml:"overall_progress,omitempty"`
	ProvisioningState          string      `json:"provisioning_state,omitempty" yaml:"provisioning_state,omitempty"`
	ProvisioningProgress       *int        `json:"provisioning_progress,omitempty" yaml:"provisioning_progress,omitempty"`
	DownloadProgress           *int        `json:"download_progress,omitempty" yaml:"download_progress,omitempty"`
	LastConnectivityEvent      *time.Time  `json:"last_connectivity_event,omitempty" yaml:"last_connectivity_event,omitempty"`
	LastVPNEvent               *time.Time  `json:"last_vpn_event,omitempty" yaml:"last_vpn_event,omitempty"`
	IsLockedUntil              *time.Time  `json:"is_locked_until__date,omitempty" yaml:"is_locked_until__date,omitempty"`
	IsAccessibleBySupportUntil *time.Time  `json:"is_accessible_by_support_until__date,omitempty" yaml:"is_accessible_by_support_until__date,omitempty"`
	IPAddress                  string      `json:"ip_address,omitempty" yaml:"ip_address,omitempty"`
	MACAddress                 string      `json:"mac_address,omitempty" yaml:"mac_address,omitempty"`
	PublicAddress              string      `json:"public_address,omitempty" yaml:"public_address,omitempty"`
	OSVersion                  string      `json:"os_version,omitempty" yaml:"os_version,omitempty"`
	OSVariant                  string      `json:"os_variant,omitempty" yaml:"os_variant,omitempty"`
	SupervisorVersion          string      `json:"supervisor_version,omitempty" yaml:"supervisor_version,omitempty"`
	APIHeartbeatState          string      `json:"api_heartbeat_state,omitempty" yaml:"api_heartbeat_state,omitempty"`
	Longitude                  string      `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Latitude                   string      `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Location                   string      `json:"location,omitempty" yaml:"location,omitempty"`
	CustomLongitude            string      `json:"custom_longitude,omitempty" yaml:"custom_longitude,omitempty"`
	CustomLatitude             string      `json:"custom_latitude,omitempty" yaml:"custom_latitude,omitempty"`
	LocalID                    string      `json:"local_id,omitempty" yaml:"local_id,omitempty"`
	MemoryUsage                int64       `json:"memory_usage,omitempty" yaml:"memory_usage,omitempty"`
	MemoryTotal                int64       `json:"memory_total,omitempty" yaml:"memory_total,omitempty"`
	StorageBlockDevice         string      `json:"storage_block_device,omitempty" yaml:"storage_block_device,omitempty"`
	StorageUsage               int64       `json:"storage_usage,omitempty" yaml:"storage_usage,omitempty"`
	StorageTotal               int64       `json:"storage_total,omitempty" yaml:"storage_total,omitempty"`
	CPUUsage                   int64       `json:"cpu_usage,omitempty" yaml:"cpu_usage,omitempty"`
	CPUTemp                    int64       `json:"cpu_temp,omitempty" yaml:"cpu_temp,omitempty"`
	CPUID                      string      `json:"cpu_id,omitempty" yaml:"cpu_id,omitempty"`
	Actor                      *ForeignKey `json:"actor,omitempty" yaml:"actor,omitempty"`
	IsOfDeviceType             *ForeignKey `json:"is_of__device_type,omitempty" yaml:"is_of__device_type,omitempty"`
	BelongsToApplication       *ForeignKey `json:"belongs_to__application,omitempty" yaml:"belongs_to__application,omitempty"`
	BelongsToUser              *ForeignKey `json:"belongs_to__user,omitempty" yaml:"belongs_to__user,omitempty"`
	IsRunningRelease           *ForeignKey `json:"is_running__release,omitempty" yaml:"is_running__release,omitempty"`
	IsPinnedOnRelease          *ForeignKey `json:"is_pinned_on__release,omitempty" yaml:"is_pinned_on__release,omitempty"`
	ShouldBeOperatedByRelease  *ForeignKey `json:"should_be_operated_by__release,omitempty" yaml:"should_be_operated_by__release,omitempty"`
	ShouldBeManagedByRelease   *ForeignKey `json:"should_be_managed_by__release,omitempty" yaml:"should_be_managed_by__release,omitempty"`
	IsManagedByServiceInstance *ForeignKey `json:"is_managed_by__service_instance,omitempty" yaml:"is_managed_by__service_instance,omitempty"`

	DeviceEnvironmentVariable []EnvironmentVariable `json:"device_environment_variable,omitempty" yaml:"device_environment_variable,omitempty"`
	DeviceConfigVariable      []EnvironmentVariable `json:"device_config_variable,omitempty" yaml:"device_config_variable,omitempty"`
	DeviceTag                 []Tag                 `json:"device_tag,omitempty" yaml:"device_tag,omitempty"`
}

// Release represents a built release of an application.
type Release struct {
	ID                   int64          `json:"id" yaml:"id"`
	CreatedAt            time.Time      `json:"created_at" yaml:"created_at"`
	Commit               string         `json:"commit" yaml:"commit"`
	Status               string         `json:"status" yaml:"status"`
	Source               string         `json:"source,omitempty" yaml:"source,omitempty"`
	BuildLog             string         `json:"build_log,omitempty" yaml:"build_log,omitempty"`
	Composition          map[string]any `json:"composition,omitempty" yaml:"composition,omitempty"`
	Contract             string         `json:"contract,omitempty" yaml:"contract,omitempty"`
	IsInvalidated        bool           `json:"is_invalidated" yaml:"is_invalidated"`
	InvalidationReason   string         `json:"invalidation_reason,omitempty" yaml:"invalidation_reason,omitempty"`
	StartTimestamp       time.Time      `json:"start_timestamp" yaml:"start_timestamp"`
	UpdateTimestamp      *time.Time     `json:"update_timestamp,omitempty" yaml:"update_timestamp,omitempty"`
	EndTimestamp         *time.Time     `json:"end_timestamp,omitempty" yaml:"end_timestamp,omitempty"`
	Phase                string         `json:"phase,omitempty" yaml:"phase,omitempty"`
	Semver               string         `json:"semver,omitempty" yaml:"semver,omitempty"`
	SemverMajor          int            `json:"semver_major,omitempty" yaml:"semver_major,omitempty"`
	SemverMinor          int            `json:"semver_minor,omitempty" yaml:"semver_minor,omitempty"`
	SemverPatch          int            `json:"semver_patch,omitempty" yaml:"semver_patch,omitempty"`
	SemverPrerelease     string         `json:"semver_prerelease,omitempty" yaml:"semver_prerelease,omitempty"`
	SemverBuild          string         `json:"semver_build,omitempty" yaml:"semver_build,omitempty"`
	Variant              string         `json:"variant,omitempty" yaml:"variant,omitempty"`
	Revision             *int           `json:"revision,omitempty" yaml:"revision,omitempty"`
	KnownIssueList       string         `json:"known_issue_list,omitempty" yaml:"known_issue_list,omitempty"`
	RawVersion           string         `json:"raw_version,omitempty" yaml:"raw_version,omitempty"`
	Version              map[string]any `json:"version,omitempty" yaml:"version,omitempty"`
	IsFinal              bool           `json:"is_final" yaml:"is_final"`
	IsFinalizedAt        *time.Time     `json:"is_finalized_at__date,omitempty" yaml:"is_finalized_at__date,omitempty"`
	Note                 string         `json:"note,omitempty" yaml:"note,omitempty"`
	BelongsToApplication *ForeignKey    `json:"belongs_to__application,omitempty" yaml:"belongs_to__application,omitempty"`
	IsCreatedByUser      *ForeignKey    `json:"is_created_by__user,omitempty" yaml:"is_created_by__user,omitempty"`

	ReleaseTag []Tag `json:"release_tag,omitempty" yaml:"release_tag,omitempty"`
}

// User represents an account.
type User struct {
	ID        int64       `json:"id" yaml:"id"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
	Username  string      `json:"username" yaml:"username"`
	Email     string      `json:"email,omitempty" yaml:"email,omitempty"`
	Actor     *ForeignKey `json:"actor,omitempty" yaml:"actor,omitempty"`
}

// Organization represents an organization owning applications.
type Organization struct {
	ID                     int64        `json:"id" yaml:"id"`
	CreatedAt              time.Time    `json:"created_at" yaml:"created_at"`
	Name                   string       `json:"name" yaml:"name"`
	Handle                 string       `json:"handle" yaml:"handle"`
	LogoImage              *WebResource `json:"logo_image,omitempty" yaml:"logo_image,omitempty"`
	HasPastDueInvoiceSince *time.Time   `json:"has_past_due_invoice_since__date,omitempty" yaml:"has_past_due_invoice_since__date,omitempty"`
}

// WebResource represents a hosted file reference.
type WebResource struct {
	Href        string `json:"href" yaml:"href"`
	Filename    string `json:"filename,omitempty" yaml:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// APIKey represents a named API key belonging to an actor.
type APIKey struct {
	ID          int64       `json:"id" yaml:"id"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	ExpiryDate  *time.Time  `json:"expiry_date,omitempty" yaml:"expiry_date,omitempty"`
	IsOfActor   *ForeignKey `json:"is_of__actor,omitempty" yaml:"is_of__actor,omitempty"`
}

// SSHKey represents a public SSH key registered on an account.
type SSHKey struct {
	ID        int64       `json:"id" yaml:"id"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
	Title     string      `json:"title" yaml:"title"`
	PublicKey string      `json:"public_key" yaml:"public_key"`
	User      *ForeignKey `json:"user,omitempty" yaml:"user,omitempty"`
}

// EnvironmentVariable represents a name/value pair scoped to a device,
// application or service.
type EnvironmentVariable struct {
	ID          int64       `json:"id" yaml:"id"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
	Name        string      `json:"name" yaml:"name"`
	Value       string      `json:"value" yaml:"value"`
	Device      *ForeignKey `json:"device,omitempty" yaml:"device,omitempty"`
	Application *ForeignKey `json:"application,omitempty" yaml:"application,omitempty"`
	Service     *ForeignKey `json:"service,omitempty" yaml:"service,omitempty"`
}

// Tag represents a key/value tag scoped to a device, application or release.
type Tag struct {
	ID          int64       `json:"id" yaml:"id"`
	TagKey      string      `json:"tag_key" yaml:"tag_key"`
	Value       string      `json:"value" yaml:"value"`
	Device      *ForeignKey `json:"device,omitempty" yaml:"device,omitempty"`
	Application *ForeignKey `json:"application,omitempty" yaml:"application,omitempty"`
	Release     *ForeignKey `json:"release,omitempty" yaml:"release,omitempty"`
}

// DeviceType represents a supported board or machine type.
type DeviceType struct {
	ID                    int64          `json:"id" yaml:"id"`
	Slug                  string         `json:"slug" yaml:"slug"`
	Name                  string         `json:"name" yaml:"name"`
	IsPrivate             bool           `json:"is_private" yaml:"is_private"`
	Logo                  string         `json:"logo,omitempty" yaml:"logo,omitempty"`
	Contract              map[string]any `json:"contract,omitempty" yaml:"contract,omitempty"`
	IsOfCPUArchitecture   *ForeignKey    `json:"is_of__cpu_architecture,omitempty" yaml:"is_of__cpu_architecture,omitempty"`
	BelongsToDeviceFamily *ForeignKey    `json:"belongs_to__device_family,omitempty" yaml:"belongs_to__device_family,omitempty"`
}

// CPUArchitecture represents a processor architecture.
type CPUArchitecture struct {
	ID   int64  `json:"id" yaml:"id"`
	Slug string `json:"slug" yaml:"slug"`
}

// DeviceFamily represents a family of related device types.
type DeviceFamily struct {
	ID   int64  `json:"id" yaml:"id"`
	Slug string `json:"slug" yaml:"slug"`
	Name string `json:"name" yaml:"name"`
}

// UserInfo represents the identity behind the current session.
type UserInfo struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
}

// DeviceRegistration represents the provisioning result for a new device.
type DeviceRegistration struct {
	ID     int64  `json:"id" yaml:"id"`
	UUID   string `json:"uuid" yaml:"uuid"`
	APIKey string `json:"api_key" yaml:"api_key"`
}

// DeviceMetrics represents the metrics snapshot of a device.
type DeviceMetrics struct {
	MemoryUsage        int64  `json:"memory_usage" yaml:"memory_usage"`
	MemoryTotal        int64  `json:"memory_total" yaml:"memory_total"`
	StorageBlockDevice string `json:"storage_block_device,omitempty" yaml:"storage_block_device,omitempty"`
	StorageUsage       int64  `json:"storage_usage" yaml:"storage_usage"`
	StorageTotal       int64  `json:"storage_total" yaml:"storage_total"`
	CPUUsage           int64  `json:"cpu_usage" yaml:"cpu_usage"`
	CPUTemp            int64  `json:"cpu_temp" yaml:"cpu_temp"`
	CPUID              string `json:"cpu_id,omitempty" yaml:"cpu_id,omitempty"`
	IsUndervolted      bool   `json:"is_undervolted" yaml:"is_undervolted"`
}

// LogMessage represents a single device log entry. Timestamps are
// milliseconds since the epoch as sent by the log backend.
type LogMessage struct {
	Message   string `json:"message" yaml:"message"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"`
	IsSystem  bool   `json:"isSystem" yaml:"isSystem"`
	IsStdErr  bool   `json:"isStdErr" yaml:"isStdErr"`
	ServiceID *int64 `json:"serviceId,omitempty" yaml:"serviceId,omitempty"`
}

// Time returns the log entry's timestamp as a time.Time.
func (l LogMessage) Time() time.Time {
	return time.UnixMilli(l.Timestamp)
}
