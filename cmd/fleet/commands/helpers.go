package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
	"github.com/fivetwenty-io/fleet-client/pkg/fleetclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	// Common values.
	Yes = "yes"
	No  = "no"

	timeFormat = "2006-01-02 15:04:05"
)

// Common static errors used throughout the commands package.
var (
	ErrEnvScopeRequired = errors.New("exactly one of --device or --application must be set")
	ErrTagScopeRequired = errors.New("exactly one of --device, --application or --release must be set")
	ErrEmailRequired    = errors.New("email is required")
	ErrKeyFileOrStdin   = errors.New("provide a public key file or pipe the key on stdin")
)

// createClient builds a client from the resolved CLI configuration. A token
// with the three dot-separated parts of a JWT is treated as a session token,
// anything else as an API key.
func createClient(ctx context.Context) (fleet.Client, error) {
	config := &fleet.Config{
		APIHost: viper.GetString("host"),
		Debug:   viper.GetBool("verbose"),
	}

	if token := viper.GetString("token"); token != "" {
		if len(strings.Split(token, ".")) == constants.TokenPartsCount {
			config.Token = token
		} else {
			config.APIKey = token
		}
	}

	return fleetclient.New(ctx, config)
}

// renderJSON writes data to stdout as indented JSON.
func renderJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(data)
}

// renderYAML writes data to stdout as YAML.
func renderYAML(data any) error {
	return yaml.NewEncoder(os.Stdout).Encode(data)
}

// confirmAction prompts for confirmation unless force is set.
func confirmAction(force bool, prompt string) bool {
	if force {
		return true
	}

	fmt.Printf("%s (y/N): ", prompt)

	var response string
	_, _ = fmt.Scanln(&response)

	return response == "y" || response == "Y"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}

	return t.Format(timeFormat)
}

func yesNo(value bool) string {
	if value {
		return Yes
	}

	return No
}

func formatForeignKey(fk *fleet.ForeignKey) string {
	if fk == nil || !fk.IsSet() {
		return NotAvailable
	}

	return strconv.FormatInt(fk.ID(), 10)
}

func shortUUID(uuid string) string {
	if len(uuid) > 7 {
		return uuid[:7]
	}

	return uuid
}

// resolveDeviceID turns a device identifier into its numeric id, accepting
// the id itself, a full UUID or a unique UUID prefix.
func resolveDeviceID(ctx context.Context, client fleet.Client, uuidOrID string) (int64, error) {
	if id, err := strconv.ParseInt(uuidOrID, 10, 64); err == nil {
		return id, nil
	}

	device, err := client.Devices().Get(ctx, uuidOrID, fleet.NewQueryOptions().WithSelect("id", "uuid"))
	if err != nil {
		return 0, err
	}

	return device.ID, nil
}

// resolveReleaseID turns a release identifier into its numeric id, accepting
// the id itself or a commit hash.
func resolveReleaseID(ctx context.Context, client fleet.Client, commitOrID string) (int64, error) {
	if id, err := strconv.ParseInt(commitOrID, 10, 64); err == nil {
		return id, nil
	}

	release, err := client.Releases().Get(ctx, commitOrID, fleet.NewQueryOptions().WithSelect("id", "commit"))
	if err != nil {
		return 0, err
	}

	return release.ID, nil
}
