package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// VariablesClient implements fleet.VariablesClient for one variable
// collection. The same implementation serves device and application scope,
// environment and config alike; only the resource and parent field differ.
type VariablesClient struct {
	client      *Client
	resource    string
	parentField string
}

func newVariablesClient(client *Client, resource, parentField string) *VariablesClient {
	return &VariablesClient{client: client, resource: resource, parentField: parentField}
}

// List implements fleet.VariablesClient.List.
func (v *VariablesClient) List(ctx context.Context, parentID int64) ([]fleet.EnvironmentVariable, error) {
	opts := fleet.NewQueryOptions().
		WithFilter(fleet.Eq(v.parentField, parentID)).
		WithOrderBy("name", false)

	return queryTyped[fleet.EnvironmentVariable](ctx, v.client, v.resource, opts)
}

// Get implements fleet.VariablesClient.Get.
func (v *VariablesClient) Get(ctx context.Context, parentID int64, name string) (string, error) {
	variable, err := v.find(ctx, parentID, name)
	if err != nil {
		return "", err
	}

	if variable == nil {
		return "", fmt.Errorf("%q: %w", name, fleet.ErrVariableNotFound)
	}

	return variable.Value, nil
}

// Set implements fleet.VariablesClient.Set. An existing variable is patched
// in place; a missing one is created.
func (v *VariablesClient) Set(ctx context.Context, parentID int64, name, value string) error {
	existing, err := v.find(ctx, parentID, name)
	if err != nil {
		return err
	}

	if existing != nil {
		return v.client.patchResource(ctx, v.resource, existing.ID, map[string]any{"value": value})
	}

	body := map[string]any{
		v.parentField: parentID,
		"name":        name,
		"value":       value,
	}

	if _, err := createResource[fleet.EnvironmentVariable](ctx, v.client, v.resource, body); err != nil {
		return err
	}

	return nil
}

// Remove implements fleet.VariablesClient.Remove.
func (v *VariablesClient) Remove(ctx context.Context, parentID int64, name string) error {
	existing, err := v.find(ctx, parentID, name)
	if err != nil {
		return err
	}

	if existing == nil {
		return fmt.Errorf("%q: %w", name, fleet.ErrVariableNotFound)
	}

	return v.client.deleteResource(ctx, v.resource, existing.ID)
}

// find looks up the named variable under the parent, nil when unset.
func (v *VariablesClient) find(ctx context.Context, parentID int64, name string) (*fleet.EnvironmentVariable, error) {
	opts := fleet.NewQueryOptions().WithFilter(fleet.And(
		fleet.Eq(v.parentField, parentID),
		fleet.Eq("name", name),
	))

	return queryFirst[fleet.EnvironmentVariable](ctx, v.client, v.resource, opts)
}

// EnvironmentClient implements fleet.EnvironmentClient.
type EnvironmentClient struct {
	device            *VariablesClient
	deviceConfig      *VariablesClient
	application       *VariablesClient
	applicationConfig *VariablesClient
}

// NewEnvironmentClient creates a new environment client covering all four
// variable collections.
func NewEnvironmentClient(client *Client) *EnvironmentClient {
	return &EnvironmentClient{
		device:            newVariablesClient(client, "device_environment_variable", "device"),
		deviceConfig:      newVariablesClient(client, "device_config_variable", "device"),
		application:       newVariablesClient(client, "application_environment_variable", "application"),
		applicationConfig: newVariablesClient(client, "application_config_variable", "application"),
	}
}

// Device implements fleet.EnvironmentClient.Device.
func (e *EnvironmentClient) Device() fleet.VariablesClient {
	return e.device
}

// DeviceConfig implements fleet.EnvironmentClient.DeviceConfig.
func (e *EnvironmentClient) DeviceConfig() fleet.VariablesClient {
	return e.deviceConfig
}

// Application implements fleet.EnvironmentClient.Application.
func (e *EnvironmentClient) Application() fleet.VariablesClient {
	return e.application
}

// ApplicationConfig implements fleet.EnvironmentClient.ApplicationConfig.
func (e *EnvironmentClient) ApplicationConfig() fleet.VariablesClient {
	return e.applicationConfig
}
