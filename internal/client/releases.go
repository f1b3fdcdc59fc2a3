package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// ReleasesClient implements fleet.ReleasesClient.
type ReleasesClient struct {
	client *Client
}

// NewReleasesClient creates a new releases client.
func NewReleasesClient(client *Client) *ReleasesClient {
	return &ReleasesClient{client: client}
}

// List implements fleet.ReleasesClient.List.
func (r *ReleasesClient) List(ctx context.Context, opts *fleet.QueryOptions) ([]fleet.Release, error) {
	scoped := scopedOptions(opts, nil, fleet.OrderBy{Field: "created_at", Desc: true})

	return queryTyped[fleet.Release](ctx, r.client, "release", scoped)
}

// ListByApplication implements fleet.ReleasesClient.ListByApplication.
func (r *ReleasesClient) ListByApplication(ctx context.Context, applicationID int64, opts *fleet.QueryOptions) ([]fleet.Release, error) {
	scope := fleet.Eq("belongs_to__application", applicationID)
	scoped := scopedOptions(opts, scope, fleet.OrderBy{Field: "created_at", Desc: true})

	return queryTyped[fleet.Release](ctx, r.client, "release", scoped)
}

// Get implements fleet.ReleasesClient.Get.
func (r *ReleasesClient) Get(ctx context.Context, commitOrID string, opts *fleet.QueryOptions) (*fleet.Release, error) {
	scoped := scopedOptions(opts, releaseIdentityFilter(commitOrID))

	release, err := queryFirst[fleet.Release](ctx, r.client, "release", scoped)
	if err != nil {
		return nil, err
	}

	if release == nil {
		return nil, fmt.Errorf("%q: %w", commitOrID, fleet.ErrReleaseNotFound)
	}

	return release, nil
}

// GetLatestByApplication implements
// fleet.ReleasesClient.GetLatestByApplication. Latest means the most
// recently created successful release.
func (r *ReleasesClient) GetLatestByApplication(ctx context.Context, applicationID int64, opts *fleet.QueryOptions) (*fleet.Release, error) {
	scope := fleet.And(
		fleet.Eq("belongs_to__application", applicationID),
		fleet.Eq("status", "success"),
	)

	scoped := scopedOptions(opts, scope, fleet.OrderBy{Field: "created_at", Desc: true}).WithTop(1)

	release, err := queryFirst[fleet.Release](ctx, r.client, "release", scoped)
	if err != nil {
		return nil, err
	}

	if release == nil {
		return nil, fmt.Errorf("application %d: %w", applicationID, fleet.ErrReleaseNotFound)
	}

	return release, nil
}

// SetNote implements fleet.ReleasesClient.SetNote.
func (r *ReleasesClient) SetNote(ctx context.Context, commitOrID, note string) error {
	id, err := r.resolveID(ctx, commitOrID)
	if err != nil {
		return err
	}

	return r.client.patchResource(ctx, "release", id, map[string]any{"note": note})
}

// resolveID resolves a commit hash or numeric id to the release id.
func (r *ReleasesClient) resolveID(ctx context.Context, commitOrID string) (int64, error) {
	if id, err := strconv.ParseInt(commitOrID, 10, 64); err == nil {
		return id, nil
	}

	release, err := r.Get(ctx, commitOrID, fleet.NewQueryOptions().WithSelect("id"))
	if err != nil {
		return 0, err
	}

	return release.ID, nil
}

// releaseIdentityFilter maps a numeric id or a commit hash onto a filter.
func releaseIdentityFilter(commitOrID string) fleet.Filter {
	if id, err := strconv.ParseInt(commitOrID, 10, 64); err == nil {
		return fleet.Eq("id", id)
	}

	return fleet.Eq("commit", commitOrID)
}
