package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// directlyAccessible scopes application queries to what the session user can
// act on, matching the dashboard's view of the fleet list.
var directlyAccessible = fleet.Raw("is_directly_accessible_by__user/any(dau:1 eq 1)")

// ApplicationsClient implements fleet.ApplicationsClient.
type ApplicationsClient struct {
	client *Client
}

// NewApplicationsClient creates a new applications client.
func NewApplicationsClient(client *Client) *ApplicationsClient {
	return &ApplicationsClient{client: client}
}

// List implements fleet.ApplicationsClient.List.
func (a *ApplicationsClient) List(ctx context.Context, opts *fleet.QueryOptions) ([]fleet.Application, error) {
	scoped := scopedOptions(opts, directlyAccessible, fleet.OrderBy{Field: "app_name"})

	return queryTyped[fleet.Application](ctx, a.client, "application", scoped)
}

// Get implements fleet.ApplicationsClient.Get.
func (a *ApplicationsClient) Get(ctx context.Context, nameOrID string, opts *fleet.QueryOptions) (*fleet.Application, error) {
	scoped := scopedOptions(opts, appIdentityFilter(nameOrID))

	app, err := queryFirst[fleet.Application](ctx, a.client, "application", scoped)
	if err != nil {
		return nil, err
	}

	if app == nil {
		return nil, fmt.Errorf("%q: %w", nameOrID, fleet.ErrApplicationNotFound)
	}

	return app, nil
}

// GetByName implements fleet.ApplicationsClient.GetByName.
func (a *ApplicationsClient) GetByName(ctx context.Context, name string, opts *fleet.QueryOptions) (*fleet.Application, error) {
	scoped := scopedOptions(opts, fleet.Eq("app_name", name))

	app, err := queryFirst[fleet.Application](ctx, a.client, "application", scoped)
	if err != nil {
		return nil, err
	}

	if app == nil {
		return nil, fmt.Errorf("%q: %w", name, fleet.ErrApplicationNotFound)
	}

	return app, nil
}

// GetID implements fleet.ApplicationsClient.GetID.
func (a *ApplicationsClient) GetID(ctx context.Context, nameOrID string) (int64, error) {
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		return id, nil
	}

	app, err := a.Get(ctx, nameOrID, fleet.NewQueryOptions().WithSelect("id"))
	if err != nil {
		return 0, err
	}

	return app.ID, nil
}

// Create implements fleet.ApplicationsClient.Create. The device type slug
// and organization handle are resolved to ids before the create call.
func (a *ApplicationsClient) Create(ctx context.Context, name, deviceType, organization string) (*fleet.Application, error) {
	deviceTypeID, err := a.deviceTypeID(ctx, deviceType)
	if err != nil {
		return nil, err
	}

	org, err := a.client.Organizations().Get(ctx, organization, fleet.NewQueryOptions().WithSelect("id"))
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"app_name":            name,
		"is_for__device_type": deviceTypeID,
		"organization":        org.ID,
	}

	return createResource[fleet.Application](ctx, a.client, "application", body)
}

// Rename implements fleet.ApplicationsClient.Rename.
func (a *ApplicationsClient) Rename(ctx context.Context, id int64, newName string) error {
	return a.client.patchResource(ctx, "application", id, map[string]any{"app_name": newName})
}

// SetNote implements fleet.ApplicationsClient.SetNote.
func (a *ApplicationsClient) SetNote(ctx context.Context, id int64, note string) error {
	return a.client.patchResource(ctx, "application", id, map[string]any{"note": note})
}

// Remove implements fleet.ApplicationsClient.Remove.
func (a *ApplicationsClient) Remove(ctx context.Context, id int64) error {
	return a.client.deleteResource(ctx, "application", id)
}

// GenerateProvisioningKey implements
// fleet.ApplicationsClient.GenerateProvisioningKey.
func (a *ApplicationsClient) GenerateProvisioningKey(ctx context.Context, id int64, keyName string) (string, error) {
	var body any
	if keyName != "" {
		body = map[string]string{"name": keyName}
	}

	resp, err := a.client.http.Post(ctx, fmt.Sprintf("/api-key/application/%d/provisioning", id), body)
	if err != nil {
		return "", fmt.Errorf("generating provisioning key: %w", err)
	}

	return decodeKeySecret(resp.Body), nil
}

// deviceTypeID resolves a device type slug to its numeric id.
func (a *ApplicationsClient) deviceTypeID(ctx context.Context, slug string) (int64, error) {
	opts := fleet.NewQueryOptions().
		WithFilter(fleet.Eq("slug", slug)).
		WithSelect("id")

	deviceType, err := queryFirst[fleet.DeviceType](ctx, a.client, "device_type", opts)
	if err != nil {
		return 0, err
	}

	if deviceType == nil {
		return 0, fmt.Errorf("%q: %w", slug, fleet.ErrDeviceTypeNotFound)
	}

	return deviceType.ID, nil
}

// appIdentityFilter maps the accepted identifier forms onto a filter:
// numeric id, slug containing a "/", or application UUID.
func appIdentityFilter(nameOrID string) fleet.Filter {
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		return fleet.Eq("id", id)
	}

	if strings.Contains(nameOrID, "/") {
		return fleet.Eq("slug", strings.ToLower(nameOrID))
	}

	return fleet.Eq("uuid", strings.ToLower(nameOrID))
}
