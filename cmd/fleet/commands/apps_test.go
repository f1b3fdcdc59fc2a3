package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fleet-client/cmd/fleet/commands"
)

func TestNewAppsCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewAppsCommand()
	assert.Equal(t, "apps", cmd.Use)
	assert.Equal(t, []string{"app", "applications"}, cmd.Aliases)
	assert.Equal(t, "Manage applications", cmd.Short)

	subcommands := cmd.Commands()
	commandNames := make([]string, 0, len(subcommands))
	for _, subcmd := range subcommands {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "get")
	assert.Contains(t, commandNames, "create")
	assert.Contains(t, commandNames, "rename")
	assert.Contains(t, commandNames, "note")
	assert.Contains(t, commandNames, "rm")
	assert.Contains(t, commandNames, "provision-key")
}

func TestAppsCreateCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewAppsCommand()
	cmd := findSubcommand(root, "create")
	require.NotNil(t, cmd)

	assert.Equal(t, "create APP_NAME", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Flags().Lookup("type"))
	assert.NotNil(t, cmd.Flags().Lookup("org"))
}

func TestAppsRemoveCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewAppsCommand()
	cmd := findSubcommand(root, "rm")
	require.NotNil(t, cmd)

	assert.Equal(t, []string{"remove", "delete"}, cmd.Aliases)
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}
