package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// envelope is the wrapper every collection query response arrives in.
type envelope struct {
	D []map[string]any `json:"d"`
}

// queryResource runs a collection query and returns normalized records.
func (c *Client) queryResource(ctx context.Context, resource string, opts *fleet.QueryOptions) ([]fleet.Record, error) {
	values, err := opts.ToValues(resource)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, c.apiPath(resource), values)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", resource, err)
	}

	return decodeEnvelope(resource, resp.Body)
}

// decodeEnvelope unwraps {"d": [...]} and normalizes each record.
func decodeEnvelope(resource string, body []byte) ([]fleet.Record, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", resource, err)
	}

	if env.D == nil {
		return nil, &fleet.DecodeError{Resource: resource, Reason: "response missing d envelope"}
	}

	if err := fleet.NormalizeRecords(resource, env.D); err != nil {
		return nil, err
	}

	records := make([]fleet.Record, len(env.D))
	for i, record := range env.D {
		records[i] = fleet.Record(record)
	}

	return records, nil
}

// decodeInto round-trips a normalized record into a typed struct.
func decodeInto[T any](record map[string]any) (*T, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("re-encoding record: %w", err)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	return &out, nil
}

// queryTyped runs a collection query and decodes every record.
func queryTyped[T any](ctx context.Context, c *Client, resource string, opts *fleet.QueryOptions) ([]T, error) {
	records, err := c.queryResource(ctx, resource, opts)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(records))

	for _, record := range records {
		decoded, err := decodeInto[T](record)
		if err != nil {
			return nil, fmt.Errorf("decoding %s record: %w", resource, err)
		}

		out = append(out, *decoded)
	}

	return out, nil
}

// queryFirst runs a collection query expected to match at most one record.
// No match returns (nil, nil); the caller supplies its own not-found error.
func queryFirst[T any](ctx context.Context, c *Client, resource string, opts *fleet.QueryOptions) (*T, error) {
	records, err := c.queryResource(ctx, resource, opts)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	decoded, err := decodeInto[T](records[0])
	if err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", resource, err)
	}

	return decoded, nil
}

// createResource posts a new record and decodes the created result, which
// comes back bare rather than in the d envelope.
func createResource[T any](ctx context.Context, c *Client, resource string, body any) (*T, error) {
	resp, err := c.http.Post(ctx, c.apiPath(resource), body)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", resource, err)
	}

	var record map[string]any
	if err := json.Unmarshal(resp.Body, &record); err != nil {
		return nil, fmt.Errorf("parsing created %s: %w", resource, err)
	}

	if err := fleet.NormalizeRecord(resource, record); err != nil {
		return nil, err
	}

	decoded, err := decodeInto[T](record)
	if err != nil {
		return nil, fmt.Errorf("decoding created %s: %w", resource, err)
	}

	return decoded, nil
}

// patchResource updates a record by id.
func (c *Client) patchResource(ctx context.Context, resource string, id int64, body any) error {
	path := fmt.Sprintf("%s(%d)", c.apiPath(resource), id)
	if _, err := c.http.Patch(ctx, path, body); err != nil {
		return fmt.Errorf("updating %s %d: %w", resource, id, err)
	}

	return nil
}

// deleteResource removes a record by id.
func (c *Client) deleteResource(ctx context.Context, resource string, id int64) error {
	path := fmt.Sprintf("%s(%d)", c.apiPath(resource), id)
	if _, err := c.http.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting %s %d: %w", resource, id, err)
	}

	return nil
}

// scopedOptions clones caller options, AND-merging scope into any caller
// filter and applying a default ordering when the caller supplies none. The
// caller's options are never mutated.
func scopedOptions(opts *fleet.QueryOptions, scope fleet.Filter, defaultOrder ...fleet.OrderBy) *fleet.QueryOptions {
	merged := fleet.NewQueryOptions()
	if opts != nil {
		clone := *opts
		merged = &clone
	}

	if scope != nil {
		merged.Filter = fleet.MergeScoped(merged.Filter, scope)
	}

	if len(merged.OrderBy) == 0 && len(defaultOrder) > 0 {
		merged.OrderBy = defaultOrder
	}

	return merged
}
