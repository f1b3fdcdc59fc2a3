package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewAPIKeysCommand creates the api-keys command group
func NewAPIKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "api-keys",
		Aliases: []string{"api-key"},
		Short:   "Manage API keys",
		Long:    "List, create, update and revoke named API keys",
	}

	cmd.AddCommand(newAPIKeysListCommand())
	cmd.AddCommand(newAPIKeysCreateCommand())
	cmd.AddCommand(newAPIKeysUpdateCommand())
	cmd.AddCommand(newAPIKeysRevokeCommand())

	return cmd
}

func newAPIKeysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.APIKeys().List(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to list API keys: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(keys)
			case OutputFormatYAML:
				return renderYAML(keys)
			default:
				if len(keys) == 0 {
					fmt.Println("No API keys found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Name", "Description", "Created", "Expires")

				for _, key := range keys {
					description := key.Description
					if description == "" {
						description = NotAvailable
					}

					expires := NotAvailable
					if key.ExpiryDate != nil {
						expires = formatTime(*key.ExpiryDate)
					}

					_ = table.Append(
						fmt.Sprintf("%d", key.ID),
						key.Name,
						description,
						formatTime(key.CreatedAt),
						expires,
					)
				}

				_ = table.Render()
			}

			return nil
		},
	}
}

func newAPIKeysCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an API key",
		Long:  "Create a named API key; the secret is printed once and cannot be retrieved again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			secret, err := client.APIKeys().Create(ctx, args[0], description)
			if err != nil {
				return fmt.Errorf("failed to create API key: %w", err)
			}

			// The secret is only shown once; print it bare for scripting.
			fmt.Println(secret)

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "description of what the key is for")

	return cmd
}

func newAPIKeysUpdateCommand() *cobra.Command {
	var (
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update KEY_ID",
		Short: "Update an API key",
		Long:  "Update the name or description of an API key; unset flags leave the field unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id '%s': %w", args[0], err)
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.APIKeys().Update(ctx, keyID, name, description); err != nil {
				return fmt.Errorf("failed to update API key: %w", err)
			}

			fmt.Printf("Successfully updated API key %d\n", keyID)

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name for the key")
	cmd.Flags().StringVar(&description, "description", "", "new description for the key")

	return cmd
}

func newAPIKeysRevokeCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "revoke KEY_ID",
		Aliases: []string{"rm", "delete"},
		Short:   "Revoke an API key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id '%s': %w", args[0], err)
			}

			if !confirmAction(force, fmt.Sprintf("Really revoke API key %d?", keyID)) {
				fmt.Println("Cancelled")
				return nil
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.APIKeys().Revoke(ctx, keyID); err != nil {
				return fmt.Errorf("failed to revoke API key: %w", err)
			}

			fmt.Printf("Successfully revoked API key %d\n", keyID)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
