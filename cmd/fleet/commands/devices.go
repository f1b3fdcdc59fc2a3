package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// NewDevicesCommand creates the devices command group
func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device"},
		Short:   "Manage devices",
		Long:    "List, inspect, and manage fleet devices",
	}

	cmd.AddCommand(newDevicesListCommand())
	cmd.AddCommand(newDevicesGetCommand())
	cmd.AddCommand(newDevicesRenameCommand())
	cmd.AddCommand(newDevicesNoteCommand())
	cmd.AddCommand(newDevicesMoveCommand())
	cmd.AddCommand(newDevicesRemoveCommand())
	cmd.AddCommand(newDevicesDeactivateCommand())
	cmd.AddCommand(newDevicesRegisterCommand())
	cmd.AddCommand(newDevicesMetricsCommand())
	cmd.AddCommand(newDevicesURLCommand())

	return cmd
}

func newDevicesListCommand() *cobra.Command {
	var (
		appNameOrID string
		orgHandle   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List devices",
		Long:  "List all devices, optionally limited to one application or organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			var devices []fleet.Device

			switch {
			case appNameOrID != "":
				appID, err := client.Applications().GetID(ctx, appNameOrID)
				if err != nil {
					return err
				}

				devices, err = client.Devices().ListByApplication(ctx, appID, nil)
				if err != nil {
					return fmt.Errorf("failed to list devices: %w", err)
				}
			case orgHandle != "":
				devices, err = client.Devices().ListByOrganization(ctx, orgHandle, nil)
				if err != nil {
					return fmt.Errorf("failed to list devices: %w", err)
				}
			default:
				devices, err = client.Devices().List(ctx, nil)
				if err != nil {
					return fmt.Errorf("failed to list devices: %w", err)
				}
			}

			// Output results
			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(devices)
			case OutputFormatYAML:
				return renderYAML(devices)
			default:
				if len(devices) == 0 {
					fmt.Println("No devices found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("UUID", "Name", "Status", "Online", "Application", "OS", "Supervisor")

				for _, device := range devices {
					status := device.OverallStatus
					if status == "" {
						status = device.Status
					}
					if status == "" {
						status = NotAvailable
					}

					osVersion := device.OSVersion
					if osVersion == "" {
						osVersion = NotAvailable
					}

					supervisor := device.SupervisorVersion
					if supervisor == "" {
						supervisor = NotAvailable
					}

					_ = table.Append(
						shortUUID(device.UUID),
						device.DeviceName,
						status,
						yesNo(device.IsOnline),
						formatForeignKey(device.BelongsToApplication),
						osVersion,
						supervisor,
					)
				}

				_ = table.Render()
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&appNameOrID, "app", "a", "", "filter by application name or id")
	cmd.Flags().StringVarP(&orgHandle, "org", "o", "", "filter by organization handle")

	return cmd
}

func newDevicesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DEVICE_UUID_OR_ID",
		Short: "Get device details",
		Long:  "Display detailed information about a single device; a unique UUID prefix is accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			device, err := client.Devices().Get(ctx, args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to get device: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(device)
			case OutputFormatYAML:
				return renderYAML(device)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("ID", fmt.Sprintf("%d", device.ID))
				_ = table.Append("UUID", device.UUID)
				_ = table.Append("Name", device.DeviceName)
				_ = table.Append("Application", formatForeignKey(device.BelongsToApplication))
				_ = table.Append("Device Type", formatForeignKey(device.IsOfDeviceType))
				_ = table.Append("Online", yesNo(device.IsOnline))
				_ = table.Append("Active", yesNo(device.IsActive))

				status := device.OverallStatus
				if status == "" {
					status = device.Status
				}
				if status != "" {
					_ = table.Append("Status", status)
				}

				if device.IPAddress != "" {
					_ = table.Append("IP Address", device.IPAddress)
				}
				if device.MACAddress != "" {
					_ = table.Append("MAC Address", device.MACAddress)
				}
				if device.PublicAddress != "" {
					_ = table.Append("Public Address", device.PublicAddress)
				}
				if device.OSVersion != "" {
					_ = table.Append("OS Version", device.OSVersion)
				}
				if device.OSVariant != "" {
					_ = table.Append("OS Variant", device.OSVariant)
				}
				if device.SupervisorVersion != "" {
					_ = table.Append("Supervisor", device.SupervisorVersion)
				}
				if device.Note != "" {
					_ = table.Append("Note", device.Note)
				}
				if device.LastConnectivityEvent != nil {
					_ = table.Append("Last Seen", formatTime(*device.LastConnectivityEvent))
				}

				_ = table.Append("Created", formatTime(device.CreatedAt))
				_ = table.Render()
			}

			return nil
		},
	}
}

func newDevicesRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename DEVICE_UUID_OR_ID NEW_NAME",
		Short: "Rename a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Devices().Rename(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to rename device: %w", err)
			}

			fmt.Printf("Successfully renamed device to '%s'\n", args[1])

			return nil
		},
	}
}

func newDevicesNoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "note DEVICE_UUID_OR_ID NOTE",
		Short: "Set the note on a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Devices().SetNote(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set note: %w", err)
			}

			fmt.Println("Successfully updated note")

			return nil
		},
	}
}

func newDevicesMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move DEVICE_UUID_OR_ID APP_NAME_OR_ID",
		Short: "Move a device to another application",
		Long:  "Reassign a device to another application of a compatible device type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			appID, err := client.Applications().GetID(ctx, args[1])
			if err != nil {
				return err
			}

			if err := client.Devices().Move(ctx, args[0], appID); err != nil {
				return fmt.Errorf("failed to move device: %w", err)
			}

			fmt.Printf("Successfully moved device to application '%s'\n", args[1])

			return nil
		},
	}
}

func newDevicesRemoveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm DEVICE_UUID_OR_ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a device",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(force, fmt.Sprintf("Really delete device '%s'?", args[0])) {
				fmt.Println("Cancelled")
				return nil
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Devices().Remove(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove device: %w", err)
			}

			fmt.Printf("Successfully removed device '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func newDevicesDeactivateCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "deactivate DEVICE_UUID_OR_ID",
		Short: "Deactivate a device",
		Long:  "Release a device from billing without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(force, fmt.Sprintf("Really deactivate device '%s'?", args[0])) {
				fmt.Println("Cancelled")
				return nil
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Devices().Deactivate(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to deactivate device: %w", err)
			}

			fmt.Printf("Successfully deactivated device '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func newDevicesRegisterCommand() *cobra.Command {
	var provisioningKey string

	cmd := &cobra.Command{
		Use:   "register APP_NAME_OR_ID",
		Short: "Register a new device",
		Long:  "Provision a new device identity under an application using a provisioning key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			appID, err := client.Applications().GetID(ctx, args[0])
			if err != nil {
				return err
			}

			registration, err := client.Devices().Register(ctx, appID, provisioningKey)
			if err != nil {
				return fmt.Errorf("failed to register device: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(registration)
			case OutputFormatYAML:
				return renderYAML(registration)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("ID", fmt.Sprintf("%d", registration.ID))
				_ = table.Append("UUID", registration.UUID)
				_ = table.Append("API Key", registration.APIKey)
				_ = table.Render()
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&provisioningKey, "key", "k", "", "provisioning key (required)")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newDevicesMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics DEVICE_UUID_OR_ID",
		Short: "Show device metrics",
		Long:  "Display the latest resource usage snapshot reported by a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			metrics, err := client.Devices().GetMetrics(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get device metrics: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(metrics)
			case OutputFormatYAML:
				return renderYAML(metrics)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Metric", "Value")
				_ = table.Append("Memory Usage", fmt.Sprintf("%d MB", metrics.MemoryUsage))
				_ = table.Append("Memory Total", fmt.Sprintf("%d MB", metrics.MemoryTotal))
				_ = table.Append("Storage Usage", fmt.Sprintf("%d MB", metrics.StorageUsage))
				_ = table.Append("Storage Total", fmt.Sprintf("%d MB", metrics.StorageTotal))
				_ = table.Append("CPU Usage", fmt.Sprintf("%d%%", metrics.CPUUsage))
				_ = table.Append("CPU Temp", fmt.Sprintf("%d C", metrics.CPUTemp))
				_ = table.Append("Undervolted", yesNo(metrics.IsUndervolted))
				_ = table.Render()
			}

			return nil
		},
	}
}

func newDevicesURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url DEVICE_UUID_OR_ID",
		Short: "Print the dashboard URL for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			// Resolve prefixes and names to the canonical UUID first.
			device, err := client.Devices().Get(ctx, args[0], fleet.NewQueryOptions().WithSelect("id", "uuid"))
			if err != nil {
				return fmt.Errorf("failed to get device: %w", err)
			}

			url, err := client.Devices().DashboardURL(device.UUID)
			if err != nil {
				return err
			}

			fmt.Println(url)

			return nil
		},
	}
}
