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

// tagScope pairs a tag collection with the resolved parent id.
type tagScope struct {
	tags     fleet.TagResourceClient
	parentID int64
}

// resolveTagScope picks the tag collection addressed by the scope flags.
// Exactly one of device, app and release must be set.
func resolveTagScope(ctx context.Context, client fleet.Client, device, app, release string) (*tagScope, error) {
	set := 0
	for _, flag := range []string{device, app, release} {
		if flag != "" {
			set++
		}
	}

	if set != 1 {
		return nil, ErrTagScopeRequired
	}

	switch {
	case device != "":
		id, err := resolveDeviceID(ctx, client, device)
		if err != nil {
			return nil, err
		}

		return &tagScope{tags: client.Tags().Device(), parentID: id}, nil
	case app != "":
		id, err := client.Applications().GetID(ctx, app)
		if err != nil {
			return nil, err
		}

		return &tagScope{tags: client.Tags().Application(), parentID: id}, nil
	default:
		id, err := resolveReleaseID(ctx, client, release)
		if err != nil {
			return nil, err
		}

		return &tagScope{tags: client.Tags().Release(), parentID: id}, nil
	}
}

func addTagScopeFlags(cmd *cobra.Command, device, app, release *string) {
	cmd.Flags().StringVarP(device, "device", "d", "", "device uuid or id")
	cmd.Flags().StringVarP(app, "app", "a", "", "application name or id")
	cmd.Flags().StringVarP(release, "release", "r", "", "release commit or id")
}

// NewTagsCommand creates the tags command group
func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Manage tags",
		Long:    "List and modify key/value tags on devices, applications and releases",
	}

	cmd.AddCommand(newTagsListCommand())
	cmd.AddCommand(newTagsSetCommand())
	cmd.AddCommand(newTagsRemoveCommand())

	return cmd
}

func newTagsListCommand() *cobra.Command {
	var (
		device  string
		app     string
		release string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveTagScope(ctx, client, device, app, release)
			if err != nil {
				return err
			}

			tags, err := scope.tags.List(ctx, scope.parentID)
			if err != nil {
				return fmt.Errorf("failed to list tags: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(tags)
			case OutputFormatYAML:
				return renderYAML(tags)
			default:
				if len(tags) == 0 {
					fmt.Println("No tags found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Key", "Value")

				for _, tag := range tags {
					_ = table.Append(fmt.Sprintf("%d", tag.ID), tag.TagKey, tag.Value)
				}

				_ = table.Render()
			}

			return nil
		},
	}

	addTagScopeFlags(cmd, &device, &app, &release)

	return cmd
}

func newTagsSetCommand() *cobra.Command {
	var (
		device  string
		app     string
		release string
	)

	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Create or update a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveTagScope(ctx, client, device, app, release)
			if err != nil {
				return err
			}

			if err := scope.tags.Set(ctx, scope.parentID, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set tag: %w", err)
			}

			fmt.Printf("Successfully set %s\n", args[0])

			return nil
		},
	}

	addTagScopeFlags(cmd, &device, &app, &release)

	return cmd
}

func newTagsRemoveCommand() *cobra.Command {
	var (
		device  string
		app     string
		release string
	)

	cmd := &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a tag",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveTagScope(ctx, client, device, app, release)
			if err != nil {
				return err
			}

			if err := scope.tags.Remove(ctx, scope.parentID, args[0]); err != nil {
				return fmt.Errorf("failed to remove tag: %w", err)
			}

			fmt.Printf("Successfully removed %s\n", args[0])

			return nil
		},
	}

	addTagScopeFlags(cmd, &device, &app, &release)

	return cmd
}
