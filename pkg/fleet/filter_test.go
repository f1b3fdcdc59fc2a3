package fleet_test

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestCompileFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filter   fleet.Filter
		expected string
	}{
		{
			name:     "string equality",
			filter:   fleet.Eq("device_name", "edge-01"),
			expected: "device_name eq 'edge-01'",
		},
		{
			name:     "embedded quotes are doubled",
			filter:   fleet.Eq("app_name", "o'brien's fleet"),
			expected: "app_name eq 'o''brien''s fleet'",
		},
		{
			name:     "integer literal",
			filter:   fleet.Eq("id", 42),
			expected: "id eq 42",
		},
		{
			name:     "int64 literal",
			filter:   fleet.Gt("memory_usage", int64(1024)),
			expected: "memory_usage gt 1024",
		},
		{
			name:     "float literal",
			filter:   fleet.Ge("cpu_temp", 51.5),
			expected: "cpu_temp ge 51.5",
		},
		{
			name:     "boolean literal",
			filter:   fleet.Eq("is_online", true),
			expected: "is_online eq true",
		},
		{
			name:     "nil literal",
			filter:   fleet.Ne("should_be_running__release", nil),
			expected: "should_be_running__release ne null",
		},
		{
			name:     "time literal is normalized to UTC",
			filter:   fleet.Lt("created_at", time.Date(2026, 3, 14, 12, 30, 0, 0, time.FixedZone("CET", 3600))),
			expected: "created_at lt datetime'2026-03-14T11:30:00Z'",
		},
		{
			name:     "not equal",
			filter:   fleet.Ne("status", "success"),
			expected: "status ne 'success'",
		},
		{
			name:     "less or equal",
			filter:   fleet.Le("id", 100),
			expected: "id le 100",
		},
		{
			name:     "dotted path becomes navigation",
			filter:   fleet.Eq("belongs_to__application.organization.handle", "acme"),
			expected: "belongs_to__application/organization/handle eq 'acme'",
		},
		{
			name:     "in with one value stays bare",
			filter:   fleet.In("status", "success"),
			expected: "status eq 'success'",
		},
		{
			name:     "in with several values",
			filter:   fleet.In("id", 1, 2, 3),
			expected: "(id eq 1 or id eq 2 or id eq 3)",
		},
		{
			name:     "in with no values matches nothing",
			filter:   fleet.In("id"),
			expected: "1 eq 0",
		},
		{
			name:     "top level and is not grouped",
			filter:   fleet.And(fleet.Eq("is_online", true), fleet.Gt("id", 5)),
			expected: "is_online eq true and id gt 5",
		},
		{
			name:     "empty and matches everything",
			filter:   fleet.And(),
			expected: "1 eq 1",
		},
		{
			name:     "empty or matches nothing",
			filter:   fleet.Or(),
			expected: "1 eq 0",
		},
		{
			name: "nested or is grouped",
			filter: fleet.And(
				fleet.Eq("is_online", true),
				fleet.Or(fleet.Eq("status", "success"), fleet.Eq("status", "running")),
			),
			expected: "is_online eq true and (status eq 'success' or status eq 'running')",
		},
		{
			name: "nested and is grouped",
			filter: fleet.Or(
				fleet.And(fleet.Eq("is_online", true), fleet.Eq("is_active", true)),
				fleet.Eq("id", 9),
			),
			expected: "(is_online eq true and is_active eq true) or id eq 9",
		},
		{
			name: "nested single operand needs no grouping",
			filter: fleet.Or(
				fleet.And(fleet.Eq("is_online", true)),
				fleet.Eq("id", 9),
			),
			expected: "is_online eq true or id eq 9",
		},
		{
			name:     "not wraps its operand",
			filter:   fleet.Not(fleet.Eq("is_online", true)),
			expected: "not (is_online eq true)",
		},
		{
			name:     "not around a conjunction",
			filter:   fleet.Not(fleet.And(fleet.Eq("is_online", true), fleet.Eq("is_active", true))),
			expected: "not (is_online eq true and is_active eq true)",
		},
		{
			name:     "double negation keeps both wrappers",
			filter:   fleet.Not(fleet.Not(fleet.Eq("is_online", true))),
			expected: "not (not (is_online eq true))",
		},
		{
			name:     "equality conjoined with membership",
			filter:   fleet.And(fleet.Eq("device_name", "edge-01"), fleet.In("status", "online", "offline")),
			expected: "device_name eq 'edge-01' and (status eq 'online' or status eq 'offline')",
		},
		{
			name:     "startswith",
			filter:   fleet.StartsWith("uuid", "0011223"),
			expected: "startswith(uuid,'0011223')",
		},
		{
			name:     "raw passes through at top level",
			filter:   fleet.Raw("is_directly_accessible_by__user/any(dau:1 eq 1)"),
			expected: "is_directly_accessible_by__user/any(dau:1 eq 1)",
		},
		{
			name:     "raw is grouped when nested",
			filter:   fleet.And(fleet.Raw("a eq 1 or b eq 2"), fleet.Eq("id", 3)),
			expected: "(a eq 1 or b eq 2) and id eq 3",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := fleet.CompileFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCompileFilter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter fleet.Filter
		reason string
	}{
		{
			name:   "nil filter",
			filter: nil,
			reason: "nil filter",
		},
		{
			name:   "empty field path",
			filter: fleet.Eq("", 1),
			reason: "empty field path",
		},
		{
			name:   "field segment with spaces",
			filter: fleet.Eq("device name", 1),
			reason: "field path segments must be identifiers",
		},
		{
			name:   "empty path segment",
			filter: fleet.Eq("organization..handle", "acme"),
			reason: "field path segments must be identifiers",
		},
		{
			name:   "unsupported literal type",
			filter: fleet.Eq("id", []string{"nope"}),
			reason: "unsupported literal type",
		},
		{
			name:   "empty raw predicate",
			filter: fleet.Raw(""),
			reason: "empty raw predicate",
		},
		{
			name:   "nil operand inside and",
			filter: fleet.And(fleet.Eq("id", 1), nil),
			reason: "nil filter operand",
		},
		{
			name:   "nil operand inside not",
			filter: fleet.Not(nil),
			reason: "nil filter operand",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := fleet.CompileFilter(tt.filter)
			require.Error(t, err)
			assert.ErrorIs(t, err, fleet.ErrInvalidFilter)
			assert.ErrorContains(t, err, tt.reason)
		})
	}
}

func TestMergeScoped(t *testing.T) {
	t.Parallel()

	scope := fleet.Raw("is_directly_accessible_by__user/any(dau:1 eq 1)")

	tests := []struct {
		name     string
		merged   fleet.Filter
		expected string
	}{
		{
			name:     "caller without scopes is untouched",
			merged:   fleet.MergeScoped(fleet.Eq("id", 1)),
			expected: "id eq 1",
		},
		{
			name:     "scope alone is grouped",
			merged:   fleet.MergeScoped(nil, scope),
			expected: "(is_directly_accessible_by__user/any(dau:1 eq 1))",
		},
		{
			name:     "scope and caller are grouped separately",
			merged:   fleet.MergeScoped(fleet.Eq("is_public", true), scope),
			expected: "(is_directly_accessible_by__user/any(dau:1 eq 1)) and (is_public eq true)",
		},
		{
			name: "scopes stack left to right",
			merged: fleet.MergeScoped(
				fleet.Eq("is_public", true),
				fleet.Eq("belongs_to__application", 42),
				fleet.Eq("status", "success"),
			),
			expected: "(belongs_to__application eq 42) and (status eq 'success') and (is_public eq true)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := fleet.CompileFilter(tt.merged)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}

	t.Run("nothing to merge", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, fleet.MergeScoped(nil))
	})
}
