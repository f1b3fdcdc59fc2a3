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

// envScope pairs a variable collection with the resolved parent id.
type envScope struct {
	vars     fleet.VariablesClient
	parentID int64
}

// resolveEnvScope picks the variable collection addressed by the scope flags.
// Exactly one of device and app must be set.
func resolveEnvScope(ctx context.Context, client fleet.Client, device, app string, config bool) (*envScope, error) {
	switch {
	case device != "" && app == "":
		id, err := resolveDeviceID(ctx, client, device)
		if err != nil {
			return nil, err
		}

		vars := client.Environment().Device()
		if config {
			vars = client.Environment().DeviceConfig()
		}

		return &envScope{vars: vars, parentID: id}, nil
	case app != "" && device == "":
		id, err := client.Applications().GetID(ctx, app)
		if err != nil {
			return nil, err
		}

		vars := client.Environment().Application()
		if config {
			vars = client.Environment().ApplicationConfig()
		}

		return &envScope{vars: vars, parentID: id}, nil
	default:
		return nil, ErrEnvScopeRequired
	}
}

// NewEnvsCommand creates the envs command group
func NewEnvsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "envs",
		Aliases: []string{"env"},
		Short:   "Manage environment variables",
		Long: `List and modify environment variables scoped to a device or an application.

Config variables, which configure the device supervisor rather than the
running services, are addressed with --config.`,
	}

	cmd.AddCommand(newEnvsListCommand())
	cmd.AddCommand(newEnvsGetCommand())
	cmd.AddCommand(newEnvsSetCommand())
	cmd.AddCommand(newEnvsRemoveCommand())

	return cmd
}

func newEnvsListCommand() *cobra.Command {
	var (
		device     string
		app        string
		configVars bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveEnvScope(ctx, client, device, app, configVars)
			if err != nil {
				return err
			}

			variables, err := scope.vars.List(ctx, scope.parentID)
			if err != nil {
				return fmt.Errorf("failed to list variables: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(variables)
			case OutputFormatYAML:
				return renderYAML(variables)
			default:
				if len(variables) == 0 {
					fmt.Println("No variables found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Name", "Value")

				for _, variable := range variables {
					_ = table.Append(fmt.Sprintf("%d", variable.ID), variable.Name, variable.Value)
				}

				_ = table.Render()
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "device uuid or id")
	cmd.Flags().StringVarP(&app, "app", "a", "", "application name or id")
	cmd.Flags().BoolVar(&configVars, "config", false, "address config variables instead of environment variables")

	return cmd
}

func newEnvsGetCommand() *cobra.Command {
	var (
		device     string
		app        string
		configVars bool
	)

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print the value of a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveEnvScope(ctx, client, device, app, configVars)
			if err != nil {
				return err
			}

			value, err := scope.vars.Get(ctx, scope.parentID, args[0])
			if err != nil {
				return fmt.Errorf("failed to get variable: %w", err)
			}

			fmt.Println(value)

			return nil
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "device uuid or id")
	cmd.Flags().StringVarP(&app, "app", "a", "", "application name or id")
	cmd.Flags().BoolVar(&configVars, "config", false, "address config variables instead of environment variables")

	return cmd
}

func newEnvsSetCommand() *cobra.Command {
	var (
		device     string
		app        string
		configVars bool
	)

	cmd := &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Create or update a variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveEnvScope(ctx, client, device, app, configVars)
			if err != nil {
				return err
			}

			if err := scope.vars.Set(ctx, scope.parentID, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set variable: %w", err)
			}

			fmt.Printf("Successfully set %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "device uuid or id")
	cmd.Flags().StringVarP(&app, "app", "a", "", "application name or id")
	cmd.Flags().BoolVar(&configVars, "config", false, "address config variables instead of environment variables")

	return cmd
}

func newEnvsRemoveCommand() *cobra.Command {
	var (
		device     string
		app        string
		configVars bool
	)

	cmd := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a variable",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			scope, err := resolveEnvScope(ctx, client, device, app, configVars)
			if err != nil {
				return err
			}

			if err := scope.vars.Remove(ctx, scope.parentID, args[0]); err != nil {
				return fmt.Errorf("failed to remove variable: %w", err)
			}

			fmt.Printf("Successfully removed %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "device uuid or id")
	cmd.Flags().StringVarP(&app, "app", "a", "", "application name or id")
	cmd.Flags().BoolVar(&configVars, "config", false, "address config variables instead of environment variables")

	return cmd
}
