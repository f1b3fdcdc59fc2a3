package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// OrganizationsClient implements fleet.OrganizationsClient.
type OrganizationsClient struct {
	client *Client
}

// NewOrganizationsClient creates a new organizations client.
func NewOrganizationsClient(client *Client) *OrganizationsClient {
	return &OrganizationsClient{client: client}
}

// List implements fleet.OrganizationsClient.List.
func (o *OrganizationsClient) List(ctx context.Context, opts *fleet.QueryOptions) ([]fleet.Organization, error) {
	scoped := scopedOptions(opts, nil, fleet.OrderBy{Field: "name"})

	return queryTyped[fleet.Organization](ctx, o.client, "organization", scoped)
}

// Get implements fleet.OrganizationsClient.Get.
func (o *OrganizationsClient) Get(ctx context.Context, handleOrID string, opts *fleet.QueryOptions) (*fleet.Organization, error) {
	scoped := scopedOptions(opts, orgIdentityFilter(handleOrID))

	org, err := queryFirst[fleet.Organization](ctx, o.client, "organization", scoped)
	if err != nil {
		return nil, err
	}

	if org == nil {
		return nil, fmt.Errorf("%q: %w", handleOrID, fleet.ErrOrganizationNotFound)
	}

	return org, nil
}

// Create implements fleet.OrganizationsClient.Create. An empty handle lets
// the server derive one from the name.
func (o *OrganizationsClient) Create(ctx context.Context, name, handle string) (*fleet.Organization, error) {
	body := map[string]any{"name": name}
	if handle != "" {
		body["handle"] = handle
	}

	return createResource[fleet.Organization](ctx, o.client, "organization", body)
}

// Remove implements fleet.OrganizationsClient.Remove.
func (o *OrganizationsClient) Remove(ctx context.Context, id int64) error {
	return o.client.deleteResource(ctx, "organization", id)
}

// orgIdentityFilter maps a handle or numeric id onto a filter.
func orgIdentityFilter(handleOrID string) fleet.Filter {
	if id, err := strconv.ParseInt(handleOrID, 10, 64); err == nil {
		return fleet.Eq("id", id)
	}

	return fleet.Eq("handle", handleOrID)
}
