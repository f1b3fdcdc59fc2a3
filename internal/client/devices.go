package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
	"github.com/fivetwenty-io/fleet-client/internal/http"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// Static errors for err113 compliance.
var ErrEmptyDeviceUUID = errors.New("device uuid is empty")

// deviceMetricFields is the column set GetMetrics asks for.
var deviceMetricFields = []string{
	"memory_usage", "memory_total", "storage_block_device", "storage_usage",
	"storage_total", "cpu_usage", "cpu_temp", "cpu_id", "is_undervolted",
}

// DevicesClient implements fleet.DevicesClient.
type DevicesClient struct {
	client *Client
}

// NewDevicesClient creates a new devices client.
func NewDevicesClient(client *Client) *DevicesClient {
	return &DevicesClient{client: client}
}

// List implements fleet.DevicesClient.List.
func (d *DevicesClient) List(ctx context.Context, opts *fleet.QueryOptions) ([]fleet.Device, error) {
	scoped := scopedOptions(opts, nil, fleet.OrderBy{Field: "device_name"})

	return queryTyped[fleet.Device](ctx, d.client, "device", scoped)
}

// ListByApplication implements fleet.DevicesClient.ListByApplication.
func (d *DevicesClient) ListByApplication(ctx context.Context, applicationID int64, opts *fleet.QueryOptions) ([]fleet.Device, error) {
	scoped := scopedOptions(opts, fleet.Eq("belongs_to__application", applicationID), fleet.OrderBy{Field: "device_name"})

	return queryTyped[fleet.Device](ctx, d.client, "device", scoped)
}

// ListByOrganization implements fleet.DevicesClient.ListByOrganization. The
// organization is matched by handle through the owning application.
func (d *DevicesClient) ListByOrganization(ctx context.Context, handle string, opts *fleet.QueryOptions) ([]fleet.Device, error) {
	scope := fleet.Eq("belongs_to__application.organization.handle", handle)
	scoped := scopedOptions(opts, scope, fleet.OrderBy{Field: "device_name"})

	return queryTyped[fleet.Device](ctx, d.client, "device", scoped)
}

// Get implements fleet.DevicesClient.Get.
func (d *DevicesClient) Get(ctx context.Context, uuidOrID string, opts *fleet.QueryOptions) (*fleet.Device, error) {
	filter, prefix := deviceIdentityFilter(uuidOrID)

	devices, err := queryTyped[fleet.Device](ctx, d.client, "device", scopedOptions(opts, filter))
	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("%q: %w", uuidOrID, fleet.ErrDeviceNotFound)
	}

	if prefix && len(devices) > 1 {
		return nil, fmt.Errorf("%q: %w", uuidOrID, fleet.ErrAmbiguousDevice)
	}

	return &devices[0], nil
}

// GetByName implements fleet.DevicesClient.GetByName.
func (d *DevicesClient) GetByName(ctx context.Context, name string, opts *fleet.QueryOptions) (*fleet.Device, error) {
	scoped := scopedOptions(opts, fleet.Eq("device_name", name))

	device, err := queryFirst[fleet.Device](ctx, d.client, "device", scoped)
	if err != nil {
		return nil, err
	}

	if device == nil {
		return nil, fmt.Errorf("%q: %w", name, fleet.ErrDeviceNotFound)
	}

	return device, nil
}

// Rename implements fleet.DevicesClient.Rename.
func (d *DevicesClient) Rename(ctx context.Context, uuidOrID, newName string) error {
	id, err := d.resolveID(ctx, uuidOrID)
	if err != nil {
		return err
	}

	return d.client.patchResource(ctx, "device", id, map[string]any{"device_name": newName})
}

// SetNote implements fleet.DevicesClient.SetNote.
func (d *DevicesClient) SetNote(ctx context.Context, uuidOrID, note string) error {
	id, err := d.resolveID(ctx, uuidOrID)
	if err != nil {
		return err
	}

	return d.client.patchResource(ctx, "device", id, map[string]any{"note": note})
}

// Move implements fleet.DevicesClient.Move.
func (d *DevicesClient) Move(ctx context.Context, uuidOrID string, applicationID int64) error {
	id, err := d.resolveID(ctx, uuidOrID)
	if err != nil {
		return err
	}

	return d.client.patchResource(ctx, "device", id, map[string]any{"belongs_to__application": applicationID})
}

// Remove implements fleet.DevicesClient.Remove.
func (d *DevicesClient) Remove(ctx context.Context, uuidOrID string) error {
	id, err := d.resolveID(ctx, uuidOrID)
	if err != nil {
		return err
	}

	return d.client.deleteResource(ctx, "device", id)
}

// Deactivate implements fleet.DevicesClient.Deactivate.
func (d *DevicesClient) Deactivate(ctx context.Context, uuidOrID string) error {
	id, err := d.resolveID(ctx, uuidOrID)
	if err != nil {
		return err
	}

	return d.client.patchResource(ctx, "device", id, map[string]any{"is_active": false})
}

// IsOnline implements fleet.DevicesClient.IsOnline.
func (d *DevicesClient) IsOnline(ctx context.Context, uuidOrID string) (bool, error) {
	device, err := d.Get(ctx, uuidOrID, fleet.NewQueryOptions().WithSelect("id", "is_online"))
	if err != nil {
		return false, err
	}

	return device.IsOnline, nil
}

// GetMetrics implements fleet.DevicesClient.GetMetrics.
func (d *DevicesClient) GetMetrics(ctx context.Context, uuidOrID string) (*fleet.DeviceMetrics, error) {
	device, err := d.Get(ctx, uuidOrID, fleet.NewQueryOptions().WithSelect(deviceMetricFields...))
	if err != nil {
		return nil, err
	}

	return &fleet.DeviceMetrics{
		MemoryUsage:        device.MemoryUsage,
		MemoryTotal:        device.MemoryTotal,
		StorageBlockDevice: device.StorageBlockDevice,
		StorageUsage:       device.StorageUsage,
		StorageTotal:       device.StorageTotal,
		CPUUsage:           device.CPUUsage,
		CPUTemp:            device.CPUTemp,
		CPUID:              device.CPUID,
		IsUndervolted:      device.IsUndervolted,
	}, nil
}

// Register implements fleet.DevicesClient.Register. The new identity gets a
// client-generated UUID; the provisioning key authorizes the call in place
// of the session credential.
func (d *DevicesClient) Register(ctx context.Context, applicationID int64, provisioningKey string) (*fleet.DeviceRegistration, error) {
	deviceType, err := d.applicationDeviceType(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	newUUID := uuid.New()

	body := map[string]any{
		"application": applicationID,
		"device_type": deviceType,
		"uuid":        hex.EncodeToString(newUUID[:]),
	}

	resp, err := d.client.http.Do(ctx, &http.Request{
		Method: "POST",
		Path:   "/device/register",
		Body:   body,
		Headers: map[string]string{
			"Authorization": "Bearer " + provisioningKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}

	var registration fleet.DeviceRegistration
	if err := json.Unmarshal(resp.Body, &registration); err != nil {
		return nil, fmt.Errorf("parsing registration response: %w", err)
	}

	return &registration, nil
}

// DashboardURL implements fleet.DevicesClient.DashboardURL. The dashboard
// host is the API host with its leading subdomain swapped.
func (d *DevicesClient) DashboardURL(deviceUUID string) (string, error) {
	if deviceUUID == "" {
		return "", ErrEmptyDeviceUUID
	}

	parsed, err := url.Parse(d.client.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing API host: %w", err)
	}

	host := parsed.Host
	if after, ok := strings.CutPrefix(host, "api."); ok {
		host = "dashboard." + after
	} else {
		host = "dashboard." + host
	}

	return fmt.Sprintf("https://%s/devices/%s/summary", host, strings.ToLower(deviceUUID)), nil
}

// resolveID resolves any accepted device identifier to the numeric id.
func (d *DevicesClient) resolveID(ctx context.Context, uuidOrID string) (int64, error) {
	if id, err := strconv.ParseInt(uuidOrID, 10, 64); err == nil {
		return id, nil
	}

	device, err := d.Get(ctx, uuidOrID, fleet.NewQueryOptions().WithSelect("id"))
	if err != nil {
		return 0, err
	}

	return device.ID, nil
}

// applicationDeviceType fetches the device type slug an application is for.
func (d *DevicesClient) applicationDeviceType(ctx context.Context, applicationID int64) (string, error) {
	opts := fleet.NewQueryOptions().
		WithFilter(fleet.Eq("id", applicationID)).
		WithSelect("id").
		WithExpand("is_for__device_type", fleet.NewQueryOptions().WithSelect("slug"))

	app, err := queryFirst[fleet.Application](ctx, d.client, "application", opts)
	if err != nil {
		return "", err
	}

	if app == nil {
		return "", fmt.Errorf("%d: %w", applicationID, fleet.ErrApplicationNotFound)
	}

	if app.IsForDeviceType == nil || !app.IsForDeviceType.IsExpanded() {
		return "", &fleet.DecodeError{Resource: "application", Field: "is_for__device_type", Reason: "expanded device type missing"}
	}

	slug, ok := app.IsForDeviceType.Record().String("slug")
	if !ok {
		return "", &fleet.DecodeError{Resource: "device_type", Field: "slug", Reason: "missing from expanded record"}
	}

	return slug, nil
}

// deviceIdentityFilter maps an identifier onto a device filter. The second
// return reports a uuid prefix, which may match more than one device.
func deviceIdentityFilter(uuidOrID string) (fleet.Filter, bool) {
	if id, err := strconv.ParseInt(uuidOrID, 10, 64); err == nil {
		return fleet.Eq("id", id), false
	}

	deviceUUID := strings.ToLower(uuidOrID)
	if len(deviceUUID) == constants.FullUUIDLength || len(deviceUUID) == constants.LongUUIDLength {
		return fleet.Eq("uuid", deviceUUID), false
	}

	return fleet.StartsWith("uuid", deviceUUID), true
}
