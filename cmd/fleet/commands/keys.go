package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewKeysCommand creates the keys command group
func NewKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keys",
		Aliases: []string{"key"},
		Short:   "Manage SSH keys",
		Long:    "List, add and remove the SSH keys registered on the account",
	}

	cmd.AddCommand(newKeysListCommand())
	cmd.AddCommand(newKeysGetCommand())
	cmd.AddCommand(newKeysAddCommand())
	cmd.AddCommand(newKeysRemoveCommand())

	return cmd
}

func newKeysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.SSHKeys().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list SSH keys: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(keys)
			case OutputFormatYAML:
				return renderYAML(keys)
			default:
				if len(keys) == 0 {
					fmt.Println("No SSH keys found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Title", "Created")

				for _, key := range keys {
					_ = table.Append(fmt.Sprintf("%d", key.ID), key.Title, formatTime(key.CreatedAt))
				}

				_ = table.Render()
			}

			return nil
		},
	}
}

func newKeysGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY_ID",
		Short: "Print an SSH key",
		Long:  "Print the public key material of one registered SSH key",
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

			key, err := client.SSHKeys().Get(ctx, keyID)
			if err != nil {
				return fmt.Errorf("failed to get SSH key: %w", err)
			}

			fmt.Println(key.PublicKey)

			return nil
		},
	}
}

func newKeysAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add TITLE [KEY_FILE]",
		Short: "Register an SSH key",
		Long:  "Register a public SSH key from a file, or from stdin when no file is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var keyMaterial []byte

			if len(args) == 2 {
				data, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("failed to read key file: %w", err)
				}
				keyMaterial = data
			} else {
				stat, err := os.Stdin.Stat()
				if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
					return ErrKeyFileOrStdin
				}

				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				keyMaterial = data
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			key, err := client.SSHKeys().Create(ctx, args[0], string(keyMaterial))
			if err != nil {
				return fmt.Errorf("failed to add SSH key: %w", err)
			}

			fmt.Printf("Successfully added SSH key '%s' (id: %d)\n", key.Title, key.ID)

			return nil
		},
	}
}

func newKeysRemoveCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm KEY_ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove an SSH key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id '%s': %w", args[0], err)
			}

			if !confirmAction(force, fmt.Sprintf("Really delete SSH key %d?", keyID)) {
				fmt.Println("Cancelled")
				return nil
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.SSHKeys().Remove(ctx, keyID); err != nil {
				return fmt.Errorf("failed to remove SSH key: %w", err)
			}

			fmt.Printf("Successfully removed SSH key %d\n", keyID)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
