package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewOrgsCommand creates the orgs command group
func NewOrgsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"org", "organizations"},
		Short:   "Manage organizations",
		Long:    "List, create, and manage organizations",
	}

	cmd.AddCommand(newOrgsListCommand())
	cmd.AddCommand(newOrgsGetCommand())
	cmd.AddCommand(newOrgsCreateCommand())
	cmd.AddCommand(newOrgsRemoveCommand())

	return cmd
}

func newOrgsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			orgs, err := client.Organizations().List(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to list organizations: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(orgs)
			case OutputFormatYAML:
				return renderYAML(orgs)
			default:
				if len(orgs) == 0 {
					fmt.Println("No organizations found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Name", "Handle", "Created")

				for _, org := range orgs {
					_ = table.Append(fmt.Sprintf("%d", org.ID), org.Name, org.Handle, formatTime(org.CreatedAt))
				}

				_ = table.Render()
			}

			return nil
		},
	}
}

func newOrgsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get HANDLE_OR_ID",
		Short: "Get organization details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			org, err := client.Organizations().Get(ctx, args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to get organization: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(org)
			case OutputFormatYAML:
				return renderYAML(org)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("ID", fmt.Sprintf("%d", org.ID))
				_ = table.Append("Name", org.Name)
				_ = table.Append("Handle", org.Handle)
				_ = table.Append("Created", formatTime(org.CreatedAt))
				_ = table.Render()
			}

			return nil
		},
	}
}

func newOrgsCreateCommand() *cobra.Command {
	var handle string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an organization",
		Long:  "Create a new organization; without --handle the server derives one from the name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			org, err := client.Organizations().Create(ctx, args[0], handle)
			if err != nil {
				return fmt.Errorf("failed to create organization: %w", err)
			}

			fmt.Printf("Successfully created organization '%s' (handle: %s)\n", org.Name, org.Handle)

			return nil
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "unique organization handle")

	return cmd
}

func newOrgsRemoveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm HANDLE_OR_ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove an organization",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(force, fmt.Sprintf("Really delete organization '%s'?", args[0])) {
				fmt.Println("Cancelled")
				return nil
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			org, err := client.Organizations().Get(ctx, args[0], nil)
			if err != nil {
				return err
			}

			if err := client.Organizations().Remove(ctx, org.ID); err != nil {
				return fmt.Errorf("failed to remove organization: %w", err)
			}

			fmt.Printf("Successfully removed organization '%s'\n", org.Handle)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
