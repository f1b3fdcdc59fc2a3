package fleet

// resourceSchema is the slice of the remote data model the client relies on:
// the scalar fields a resource exposes, its to-one relations (deferred or
// expanded to at most one record on the wire), and its reverse to-many
// relations (present only when expanded, always as a list). Targets name the
// related resource so normalization and expand validation can recurse.
type resourceSchema struct {
	scalars map[string]struct{}
	toOne   map[string]string
	toMany  map[string]string
}

// knownField reports whether name is selectable on the resource.
func (s resourceSchema) knownField(name string) bool {
	if _, ok := s.scalars[name]; ok {
		return true
	}

	if _, ok := s.toOne[name]; ok {
		return true
	}

	_, ok := s.toMany[name]

	return ok
}

// relationTarget resolves a relation name to its target resource, to-one or
// to-many.
func (s resourceSchema) relationTarget(name string) (string, bool) {
	if target, ok := s.toOne[name]; ok {
		return target, true
	}

	target, ok := s.toMany[name]

	return target, ok
}

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// schema holds the static tables for every resource the client models.
// Resources absent from this table pass through the query compiler and the
// normalizer without schema validation.
var schema = map[string]resourceSchema{
	"application": {
		scalars: fieldSet(
			"id", "created_at", "app_name", "slug", "uuid", "note",
			"is_accessible_by_support_until__date", "is_host",
			"should_track_latest_release", "is_public", "is_of__class",
			"is_archived", "is_discoverable", "is_stored_at__repository_url",
		),
		toOne: map[string]string{
			"actor":                      "actor",
			"organization":               "organization",
			"application_type":           "application_type",
			"is_for__device_type":        "device_type",
			"depends_on__application":    "application",
			"should_be_running__release": "release",
			"public_organization":        "organization",
		},
		toMany: map[string]string{
			"application_config_variable":      "application_config_variable",
			"application_environment_variable": "application_environment_variable",
			"build_environment_variable":       "build_environment_variable",
			"application_tag":                  "application_tag",
			"owns__device":                     "device",
			"owns__release":                    "release",
			"service":                          "service",
			"is_directly_accessible_by__user":  "user",
			"user_application_membership":      "application_membership",
		},
	},
	"device": {
		scalars: fieldSet(
			"id", "created_at", "modified_at", "custom_latitude",
			"custom_longitude", "device_name", "download_progress",
			"ip_address", "public_address", "mac_address",
			"is_accessible_by_support_until__date", "is_connected_to_vpn",
			"is_locked_until__date", "is_web_accessible", "is_active",
			"is_frozen", "is_online", "last_connectivity_event",
			"last_vpn_event", "latitude", "local_id", "location", "longitude",
			"note", "os_variant", "os_version", "provisioning_progress",
			"provisioning_state", "status", "supervisor_version", "uuid",
			"api_heartbeat_state", "memory_usage", "memory_total",
			"storage_block_device", "storage_usage", "storage_total",
			"cpu_usage", "cpu_temp", "cpu_id", "is_undervolted",
			"overall_status", "overall_progress",
		),
		toOne: map[string]string{
			"actor":                           "actor",
			"is_of__device_type":              "device_type",
			"belongs_to__application":         "application",
			"belongs_to__user":                "user",
			"is_running__release":             "release",
			"is_pinned_on__release":           "release",
			"should_be_operated_by__release":  "release",
			"should_be_managed_by__release":   "release",
			"is_managed_by__service_instance": "service_instance",
		},
		toMany: map[string]string{
			"device_config_variable":      "device_config_variable",
			"device_environment_variable": "device_environment_variable",
			"device_tag":                  "device_tag",
			"service_install":             "service_install",
			"image_install":               "image_install",
		},
	},
	"release": {
		scalars: fieldSet(
			"id", "created_at", "commit", "composition", "contract", "status",
			"source", "build_log", "is_invalidated", "start_timestamp",
			"update_timestamp", "end_timestamp", "phase", "semver",
			"semver_major", "semver_minor", "semver_patch",
			"semver_prerelease", "semver_build", "variant", "revision",
			"known_issue_list", "raw_version", "version", "is_final",
			"is_finalized_at__date", "note", "invalidation_reason",
		),
		toOne: map[string]string{
			"belongs_to__application": "application",
			"is_created_by__user":     "user",
		},
		toMany: map[string]string{
			"release_image": "release_image",
			"release_tag":   "release_tag",
		},
	},
	"user": {
		scalars: fieldSet("id", "created_at", "username", "email"),
		toOne: map[string]string{
			"actor": "actor",
		},
		toMany: map[string]string{
			"organization_membership":           "organization_membership",
			"user_application_membership":       "application_membership",
			"has_direct_access_to__application": "application",
		},
	},
	"organization": {
		scalars: fieldSet(
			"id", "created_at", "name", "handle", "logo_image",
			"has_past_due_invoice_since__date",
		),
		toMany: map[string]string{
			"application":             "application",
			"organization_membership": "organization_membership",
			"owns__team":              "team",
		},
	},
	"api_key": {
		scalars: fieldSet("id", "created_at", "name", "description", "expiry_date"),
		toOne: map[string]string{
			"is_of__actor": "actor",
		},
	},
	"user__has__public_key": {
		scalars: fieldSet("id", "created_at", "title", "public_key"),
		toOne: map[string]string{
			"user": "user",
		},
	},
	"device_environment_variable": {
		scalars: fieldSet("id", "created_at", "name", "value"),
		toOne: map[string]string{
			"device": "device",
		},
	},
	"device_config_variable": {
		scalars: fieldSet("id", "created_at", "name", "value"),
		toOne: map[string]string{
			"device": "device",
		},
	},
	"application_environment_variable": {
		scalars: fieldSet("id", "created_at", "name", "value"),
		toOne: map[string]string{
			"application": "application",
		},
	},
	"application_config_variable": {
		scalars: fieldSet("id", "created_at", "name", "value"),
		toOne: map[string]string{
			"application": "application",
		},
	},
	"service_environment_variable": {
		scalars: fieldSet("id", "created_at", "name", "value"),
		toOne: map[string]string{
			"service": "service",
		},
	},
	"device_tag": {
		scalars: fieldSet("id", "tag_key", "value"),
		toOne: map[string]string{
			"device": "device",
		},
	},
	"application_tag": {
		scalars: fieldSet("id", "tag_key", "value"),
		toOne: map[string]string{
			"application": "application",
		},
	},
	"release_tag": {
		scalars: fieldSet("id", "tag_key", "value"),
		toOne: map[string]string{
			"release": "release",
		},
	},
	"device_type": {
		scalars: fieldSet("id", "slug", "name", "is_private", "logo", "contract"),
		toOne: map[string]string{
			"is_of__cpu_architecture":   "cpu_architecture",
			"belongs_to__device_family": "device_family",
		},
		toMany: map[string]string{
			"device_type_alias": "device_type_alias",
		},
	},
	"service": {
		scalars: fieldSet("id", "created_at", "service_name"),
		toOne: map[string]string{
			"application": "application",
		},
		toMany: map[string]string{
			"service_environment_variable": "service_environment_variable",
		},
	},
	"service_instance": {
		scalars: fieldSet("id", "created_at", "service_type", "ip_address", "last_heartbeat"),
	},
	"actor": {
		scalars: fieldSet("id"),
		toOne: map[string]string{
			"is_of__user":        "user",
			"is_of__application": "application",
			"is_of__device":      "device",
			"api_key":            "api_key",
		},
	},
	"cpu_architecture": {
		scalars: fieldSet("id", "slug"),
	},
	"device_family": {
		scalars: fieldSet("id", "slug", "name"),
	},
}

// schemaFor looks up the static schema for a resource name.
func schemaFor(resource string) (resourceSchema, bool) {
	s, ok := schema[resource]

	return s, ok
}
