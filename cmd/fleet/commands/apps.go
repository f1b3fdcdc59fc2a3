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

// NewAppsCommand creates the apps command group
func NewAppsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app", "applications"},
		Short:   "Manage applications",
		Long:    "List, create, and manage fleet applications",
	}

	cmd.AddCommand(newAppsListCommand())
	cmd.AddCommand(newAppsGetCommand())
	cmd.AddCommand(newAppsCreateCommand())
	cmd.AddCommand(newAppsRenameCommand())
	cmd.AddCommand(newAppsNoteCommand())
	cmd.AddCommand(newAppsRemoveCommand())
	cmd.AddCommand(newAppsProvisionKeyCommand())

	return cmd
}

func newAppsListCommand() *cobra.Command {
	var orgHandle string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Long:  "List all applications the user has access to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := fleet.NewQueryOptions()
			if orgHandle != "" {
				opts.WithFilter(fleet.Eq("organization.handle", orgHandle))
			}

			apps, err := client.Applications().List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list applications: %w", err)
			}

			// Output results
			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(apps)
			case OutputFormatYAML:
				return renderYAML(apps)
			default:
				if len(apps) == 0 {
					fmt.Println("No applications found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Name", "Slug", "Class", "Public", "Created")

				for _, app := range apps {
					_ = table.Append(
						fmt.Sprintf("%d", app.ID),
						app.AppName,
						app.Slug,
						app.IsOfClass,
						yesNo(app.IsPublic),
						formatTime(app.CreatedAt),
					)
				}

				_ = table.Render()
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&orgHandle, "org", "o", "", "filter by organization handle")

	return cmd
}

func newAppsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get APP_NAME_OR_ID",
		Short: "Get application details",
		Long:  "Display detailed information about a single application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := fleet.NewQueryOptions().
				WithExpand("is_for__device_type", fleet.NewQueryOptions().WithSelect("slug"))

			app, err := client.Applications().Get(ctx, args[0], opts)
			if err != nil {
				return fmt.Errorf("failed to get application: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(app)
			case OutputFormatYAML:
				return renderYAML(app)
			default:
				deviceType := NotAvailable
				if app.IsForDeviceType.IsExpanded() {
					if slug, ok := app.IsForDeviceType.Record().String("slug"); ok {
						deviceType = slug
					}
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("ID", fmt.Sprintf("%d", app.ID))
				_ = table.Append("Name", app.AppName)
				_ = table.Append("Slug", app.Slug)
				_ = table.Append("UUID", app.UUID)
				_ = table.Append("Device Type", deviceType)
				_ = table.Append("Class", app.IsOfClass)
				_ = table.Append("Track Latest", yesNo(app.ShouldTrackLatestRelease))
				_ = table.Append("Public", yesNo(app.IsPublic))
				_ = table.Append("Host", yesNo(app.IsHost))
				_ = table.Append("Archived", yesNo(app.IsArchived))
				if app.Note != "" {
					_ = table.Append("Note", app.Note)
				}
				_ = table.Append("Created", formatTime(app.CreatedAt))
				_ = table.Render()
			}

			return nil
		},
	}
}

func newAppsCreateCommand() *cobra.Command {
	var (
		deviceType string
		orgHandle  string
	)

	cmd := &cobra.Command{
		Use:   "create APP_NAME",
		Short: "Create an application",
		Long:  "Create a new application for a device type under an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			app, err := client.Applications().Create(ctx, args[0], deviceType, orgHandle)
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}

			fmt.Printf("Successfully created application '%s' (id: %d)\n", app.AppName, app.ID)

			return nil
		},
	}

	cmd.Flags().StringVarP(&deviceType, "type", "T", "", "device type slug (required)")
	cmd.Flags().StringVarP(&orgHandle, "org", "o", "", "organization handle or id (required)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func newAppsRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename APP_NAME_OR_ID NEW_NAME",
		Short: "Rename an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.Applications().GetID(ctx, args[0])
			if err != nil {
				return err
			}

			if err := client.Applications().Rename(ctx, id, args[1]); err != nil {
				return fmt.Errorf("failed to rename application: %w", err)
			}

			fmt.Printf("Successfully renamed application to '%s'\n", args[1])

			return nil
		},
	}
}

func newAppsNoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "note APP_NAME_OR_ID NOTE",
		Short: "Set the note on an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.Applications().GetID(ctx, args[0])
			if err != nil {
				return err
			}

			if err := client.Applications().SetNote(ctx, id, args[1]); err != nil {
				return fmt.Errorf("failed to set note: %w", err)
			}

			fmt.Println("Successfully updated note")

			return nil
		},
	}
}

func newAppsRemoveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm APP_NAME_OR_ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove an application",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(force, fmt.Sprintf("Really delete application '%s'?", args[0])) {
				fmt.Println("Cancelled")
				return nil
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.Applications().GetID(ctx, args[0])
			if err != nil {
				return err
			}

			if err := client.Applications().Remove(ctx, id); err != nil {
				return fmt.Errorf("failed to remove application: %w", err)
			}

			fmt.Printf("Successfully removed application '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func newAppsProvisionKeyCommand() *cobra.Command {
	var keyName string

	cmd := &cobra.Command{
		Use:   "provision-key APP_NAME_OR_ID",
		Short: "Generate a provisioning key",
		Long:  "Generate a provisioning key that devices can use to register with the application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.Applications().GetID(ctx, args[0])
			if err != nil {
				return err
			}

			key, err := client.Applications().GenerateProvisioningKey(ctx, id, keyName)
			if err != nil {
				return fmt.Errorf("failed to generate provisioning key: %w", err)
			}

			// The key is only shown once; print it bare for scripting.
			fmt.Println(key)

			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "name", "", "descriptive name for the key")

	return cmd
}
