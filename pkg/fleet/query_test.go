package fleet_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestQueryOptions_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resource string
		options  *fleet.QueryOptions
		expected url.Values
	}{
		{
			name:     "nil options",
			resource: "device",
			options:  nil,
			expected: url.Values{},
		},
		{
			name:     "empty options",
			resource: "device",
			options:  fleet.NewQueryOptions(),
			expected: url.Values{},
		},
		{
			name:     "filter",
			resource: "device",
			options:  fleet.NewQueryOptions().WithFilter(fleet.Eq("is_online", true)),
			expected: url.Values{"$filter": []string{"is_online eq true"}},
		},
		{
			name:     "filter across relations",
			resource: "device",
			options: fleet.NewQueryOptions().WithFilter(
				fleet.Eq("belongs_to__application.organization.handle", "acme"),
			),
			expected: url.Values{"$filter": []string{"belongs_to__application/organization/handle eq 'acme'"}},
		},
		{
			name:     "select",
			resource: "device",
			options:  fleet.NewQueryOptions().WithSelect("id", "device_name", "uuid"),
			expected: url.Values{"$select": []string{"id,device_name,uuid"}},
		},
		{
			name:     "order by",
			resource: "device",
			options: fleet.NewQueryOptions().
				WithOrderBy("device_name", false).
				WithOrderBy("created_at", true),
			expected: url.Values{"$orderby": []string{"device_name asc,created_at desc"}},
		},
		{
			name:     "order by crosses relations",
			resource: "device",
			options:  fleet.NewQueryOptions().WithOrderBy("belongs_to__application.app_name", true),
			expected: url.Values{"$orderby": []string{"belongs_to__application/app_name desc"}},
		},
		{
			name:     "paging",
			resource: "device",
			options:  fleet.NewQueryOptions().WithTop(25).WithSkip(50),
			expected: url.Values{"$top": []string{"25"}, "$skip": []string{"50"}},
		},
		{
			name:     "zero top is explicit",
			resource: "device",
			options:  fleet.NewQueryOptions().WithTop(0),
			expected: url.Values{"$top": []string{"0"}},
		},
		{
			name:     "plain expand",
			resource: "device",
			options:  fleet.NewQueryOptions().WithExpand("belongs_to__application", nil),
			expected: url.Values{"$expand": []string{"belongs_to__application"}},
		},
		{
			name:     "expands keep their order",
			resource: "device",
			options: fleet.NewQueryOptions().
				WithExpand("belongs_to__application", nil).
				WithExpand("device_tag", nil),
			expected: url.Values{"$expand": []string{"belongs_to__application,device_tag"}},
		},
		{
			name:     "expand with nested select",
			resource: "application",
			options: fleet.NewQueryOptions().WithExpand(
				"is_for__device_type",
				fleet.NewQueryOptions().WithSelect("slug"),
			),
			expected: url.Values{"$expand": []string{"is_for__device_type($select=slug)"}},
		},
		{
			name:     "nested expand options keep the canonical key order",
			resource: "application",
			options: fleet.NewQueryOptions().WithExpand(
				"owns__device",
				fleet.NewQueryOptions().
					WithTop(5).
					WithOrderBy("device_name", false).
					WithSelect("device_name", "uuid").
					WithFilter(fleet.Eq("is_online", true)),
			),
			expected: url.Values{
				"$expand": []string{"owns__device($filter=is_online eq true;$select=device_name,uuid;$orderby=device_name asc;$top=5)"},
			},
		},
		{
			name:     "unknown resources skip schema validation",
			resource: "device_type_alias",
			options: fleet.NewQueryOptions().
				WithFilter(fleet.Eq("is_referenced_by__alias", "rpi4")).
				WithSelect("is_referenced_by__alias"),
			expected: url.Values{
				"$filter": []string{"is_referenced_by__alias eq 'rpi4'"},
				"$select": []string{"is_referenced_by__alias"},
			},
		},
		{
			name:     "hops beyond the modeled resources are not checked",
			resource: "application",
			options: fleet.NewQueryOptions().WithFilter(
				fleet.Eq("application_type.slug", "microservices-starter"),
			),
			expected: url.Values{"$filter": []string{"application_type/slug eq 'microservices-starter'"}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values, err := tt.options.ToValues(tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, values)
		})
	}
}

func TestQueryOptions_ToValues_OptionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resource string
		options  *fleet.QueryOptions
		reason   string
	}{
		{
			name:     "negative top",
			resource: "device",
			options:  fleet.NewQueryOptions().WithTop(-1),
			reason:   "invalid option $top=-1: must be non-negative",
		},
		{
			name:     "negative skip",
			resource: "device",
			options:  fleet.NewQueryOptions().WithSkip(-10),
			reason:   "invalid option $skip=-10: must be non-negative",
		},
		{
			name:     "empty select field",
			resource: "device",
			options:  fleet.NewQueryOptions().WithSelect("id", ""),
			reason:   "empty field name",
		},
		{
			name:     "empty order by field",
			resource: "device",
			options:  fleet.NewQueryOptions().WithOrderBy("", false),
			reason:   "empty field name",
		},
		{
			name:     "unknown select field",
			resource: "device",
			options:  fleet.NewQueryOptions().WithSelect("favourite_colour"),
			reason:   "unknown field on device",
		},
		{
			name:     "empty expand relation",
			resource: "device",
			options:  fleet.NewQueryOptions().WithExpand("", nil),
			reason:   "empty relation name",
		},
		{
			name:     "unknown expand relation",
			resource: "device",
			options:  fleet.NewQueryOptions().WithExpand("owns__fleet", nil),
			reason:   "unknown relation on device",
		},
		{
			name:     "nested expand options are validated against the target",
			resource: "application",
			options: fleet.NewQueryOptions().WithExpand(
				"is_for__device_type",
				fleet.NewQueryOptions().WithSelect("app_name"),
			),
			reason: "unknown field on device_type",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.options.ToValues(tt.resource)
			require.Error(t, err)
			assert.ErrorIs(t, err, fleet.ErrInvalidOption)
			assert.ErrorContains(t, err, tt.reason)
		})
	}
}

func TestQueryOptions_ToValues_FilterPathErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resource string
		filter   fleet.Filter
		reason   string
	}{
		{
			name:     "unknown field",
			resource: "device",
			filter:   fleet.Eq("favourite_colour", "green"),
			reason:   `unknown field "favourite_colour" on device`,
		},
		{
			name:     "unknown relation hop",
			resource: "device",
			filter:   fleet.Eq("owned_by__fleet.handle", "acme"),
			reason:   `unknown relation "owned_by__fleet" on device`,
		},
		{
			name:     "unknown field after a valid hop",
			resource: "device",
			filter:   fleet.Eq("belongs_to__application.favourite_colour", "green"),
			reason:   `unknown field "favourite_colour" on application`,
		},
		{
			name:     "paths inside combinators are checked",
			resource: "device",
			filter:   fleet.And(fleet.Eq("is_online", true), fleet.Not(fleet.Eq("favourite_colour", "green"))),
			reason:   `unknown field "favourite_colour" on device`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := fleet.NewQueryOptions().WithFilter(tt.filter)

			_, err := opts.ToValues(tt.resource)
			require.Error(t, err)
			assert.ErrorIs(t, err, fleet.ErrInvalidFilter)
			assert.ErrorContains(t, err, tt.reason)
		})
	}
}

func TestQueryOptions_Builders(t *testing.T) {
	t.Parallel()

	options := fleet.NewQueryOptions().
		WithFilter(fleet.Eq("is_online", true)).
		WithExpand("belongs_to__application", nil).
		WithSelect("id").
		WithSelect("device_name", "uuid").
		WithOrderBy("device_name", false).
		WithTop(10).
		WithSkip(20)

	values, err := options.ToValues("device")
	require.NoError(t, err)

	assert.Equal(t, "is_online eq true", values.Get("$filter"))
	assert.Equal(t, "belongs_to__application", values.Get("$expand"))
	assert.Equal(t, "id,device_name,uuid", values.Get("$select"))
	assert.Equal(t, "device_name asc", values.Get("$orderby"))
	assert.Equal(t, "10", values.Get("$top"))
	assert.Equal(t, "20", values.Get("$skip"))
}
