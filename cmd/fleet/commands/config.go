package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
)

// settingsKeys are the keys `fleet config set` accepts. They mirror the
// persistent flags bound in main.
var settingsKeys = []string{"host", "no-color", "output", "token", "verbose"}

func isSettingsKey(key string) bool {
	for _, known := range settingsKeys {
		if key == known {
			return true
		}
	}

	return false
}

// parseSettingsValue parses boolean settings so the config file round-trips
// them as YAML booleans rather than strings.
func parseSettingsValue(key, value string) (any, error) {
	switch key {
	case "no-color", "verbose":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parsing '%s' as a boolean: %w", value, err)
		}

		return parsed, nil
	default:
		return value, nil
	}
}

// settingsFilePath returns the config file in use, or the default location
// when no config file has been read yet.
func settingsFilePath() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, constants.DefaultDataDirectoryName)
	if err := os.MkdirAll(dir, constants.DataDirPerm); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, constants.ConfigFileName), nil
}

func readSettingsFile(path string) (map[string]any, error) {
	settings := map[string]any{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return settings, nil
}

func writeSettingsFile(path string, settings map[string]any) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage persisted CLI settings and inspect the platform configuration",
	}

	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigListCommand())
	cmd.AddCommand(newConfigDeviceTypesCommand())
	cmd.AddCommand(newConfigVarsCommand())

	return cmd
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value",
		Long:  "Print the effective value of a configuration key after merging flags, environment and the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !isSettingsKey(key) {
				return fmt.Errorf("'%s': %w", key, constants.ErrUnknownConfigKey)
			}

			fmt.Println(viper.GetString(key))

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Persist a configuration value to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func runConfigSet(key, value string) error {
	if !isSettingsKey(key) {
		return fmt.Errorf("'%s': %w", key, constants.ErrUnknownConfigKey)
	}

	if value == "" {
		return fmt.Errorf("'%s': %w", key, constants.ErrValueRequired)
	}

	parsed, err := parseSettingsValue(key, value)
	if err != nil {
		return err
	}

	path, err := settingsFilePath()
	if err != nil {
		return err
	}

	settings, err := readSettingsFile(path)
	if err != nil {
		return err
	}

	settings[key] = parsed

	if err := writeSettingsFile(path, settings); err != nil {
		return err
	}

	// Make the new value visible to the rest of this invocation too.
	viper.Set(key, parsed)

	fmt.Printf("Set %s\n", key)

	return nil
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !isSettingsKey(key) {
				return fmt.Errorf("'%s': %w", key, constants.ErrUnknownConfigKey)
			}

			path, err := settingsFilePath()
			if err != nil {
				return err
			}

			settings, err := readSettingsFile(path)
			if err != nil {
				return err
			}

			delete(settings, key)

			if err := writeSettingsFile(path, settings); err != nil {
				return err
			}

			fmt.Printf("Unset %s\n", key)

			return nil
		},
	}
}

func newConfigListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configuration values",
		Long:  "Display the effective configuration after merging flags, environment and the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := map[string]any{}
			for _, key := range settingsKeys {
				settings[key] = viper.Get(key)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(settings)
			case OutputFormatYAML:
				return renderYAML(settings)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Key", "Value")

				for _, key := range settingsKeys {
					value := viper.GetString(key)
					if value == "" {
						value = NotAvailable
					}

					if key == "token" && value != NotAvailable {
						value = "[REDACTED]"
					}

					_ = table.Append(key, value)
				}

				_ = table.Render()
			}

			return nil
		},
	}
}

func newConfigDeviceTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "device-types",
		Short: "List supported device types",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			deviceTypes, err := client.Config().DeviceTypes(ctx)
			if err != nil {
				return fmt.Errorf("failed to list device types: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(deviceTypes)
			case OutputFormatYAML:
				return renderYAML(deviceTypes)
			default:
				if len(deviceTypes) == 0 {
					fmt.Println("No device types found")
					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Slug", "Name", "Private")

				for _, deviceType := range deviceTypes {
					_ = table.Append(
						fmt.Sprintf("%d", deviceType.ID),
						deviceType.Slug,
						deviceType.Name,
						yesNo(deviceType.IsPrivate),
					)
				}

				_ = table.Render()
			}

			return nil
		},
	}
}

func newConfigVarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vars",
		Short: "List configurable variables",
		Long:  "Display the configuration variable whitelist published by the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			vars, err := client.Config().Vars(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch config vars: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(vars)
			case OutputFormatYAML:
				return renderYAML(vars)
			default:
				if len(vars) == 0 {
					fmt.Println("No config vars found")
					return nil
				}

				names := make([]string, 0, len(vars))
				for name := range vars {
					names = append(names, name)
				}
				sort.Strings(names)

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Name", "Value")

				for _, name := range names {
					_ = table.Append(name, fmt.Sprintf("%v", vars[name]))
				}

				_ = table.Render()
			}

			return nil
		},
	}
}
