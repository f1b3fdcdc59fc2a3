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

// NewReleasesCommand creates the releases command group
func NewReleasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "releases",
		Aliases: []string{"release"},
		Short:   "Manage releases",
		Long:    "List and inspect application releases",
	}

	cmd.AddCommand(newReleasesListCommand())
	cmd.AddCommand(newReleasesGetCommand())
	cmd.AddCommand(newReleasesLatestCommand())
	cmd.AddCommand(newReleasesNoteCommand())

	return cmd
}

func renderReleaseList(releases []fleet.Release) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return renderJSON(releases)
	case OutputFormatYAML:
		return renderYAML(releases)
	default:
		if len(releases) == 0 {
			fmt.Println("No releases found")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Commit", "Status", "Version", "Final", "Created")

		for _, release := range releases {
			version := release.Semver
			if version == "" {
				version = NotAvailable
			}

			_ = table.Append(
				fmt.Sprintf("%d", release.ID),
				shortUUID(release.Commit),
				release.Status,
				version,
				yesNo(release.IsFinal),
				formatTime(release.CreatedAt),
			)
		}

		_ = table.Render()
	}

	return nil
}

func newReleasesListCommand() *cobra.Command {
	var appNameOrID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releases",
		Long:  "List releases, newest first, optionally limited to one application",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			var releases []fleet.Release

			if appNameOrID != "" {
				appID, err := client.Applications().GetID(ctx, appNameOrID)
				if err != nil {
					return err
				}

				releases, err = client.Releases().ListByApplication(ctx, appID, nil)
				if err != nil {
					return fmt.Errorf("failed to list releases: %w", err)
				}
			} else {
				releases, err = client.Releases().List(ctx, nil)
				if err != nil {
					return fmt.Errorf("failed to list releases: %w", err)
				}
			}

			return renderReleaseList(releases)
		},
	}

	cmd.Flags().StringVarP(&appNameOrID, "app", "a", "", "filter by application name or id")

	return cmd
}

func renderRelease(release *fleet.Release) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return renderJSON(release)
	case OutputFormatYAML:
		return renderYAML(release)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")
		_ = table.Append("ID", fmt.Sprintf("%d", release.ID))
		_ = table.Append("Commit", release.Commit)
		_ = table.Append("Status", release.Status)
		_ = table.Append("Application", formatForeignKey(release.BelongsToApplication))

		if release.Semver != "" {
			_ = table.Append("Version", release.Semver)
		}
		if release.Variant != "" {
			_ = table.Append("Variant", release.Variant)
		}
		if release.Source != "" {
			_ = table.Append("Source", release.Source)
		}

		_ = table.Append("Final", yesNo(release.IsFinal))
		_ = table.Append("Invalidated", yesNo(release.IsInvalidated))

		if release.Note != "" {
			_ = table.Append("Note", release.Note)
		}

		_ = table.Append("Created", formatTime(release.CreatedAt))
		_ = table.Render()
	}

	return nil
}

func newReleasesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get COMMIT_OR_ID",
		Short: "Get release details",
		Long:  "Display detailed information about a single release by commit hash or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			release, err := client.Releases().Get(ctx, args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to get release: %w", err)
			}

			return renderRelease(release)
		},
	}
}

func newReleasesLatestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "latest APP_NAME_OR_ID",
		Short: "Get the latest successful release",
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

			release, err := client.Releases().GetLatestByApplication(ctx, appID, nil)
			if err != nil {
				return fmt.Errorf("failed to get latest release: %w", err)
			}

			return renderRelease(release)
		},
	}
}

func newReleasesNoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "note COMMIT_OR_ID NOTE",
		Short: "Set the note on a release",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Releases().SetNote(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set note: %w", err)
			}

			fmt.Println("Successfully updated note")

			return nil
		},
	}
}
