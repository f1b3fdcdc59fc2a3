package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

func printLogMessage(message fleet.LogMessage) {
	stream := "stdout"
	if message.IsStdErr {
		stream = "stderr"
	}
	if message.IsSystem {
		stream = "system"
	}

	fmt.Printf("%s [%s] %s\n", message.Time().Format(timeFormat), stream, message.Message)
}

// NewLogsCommand creates the logs command
func NewLogsCommand() *cobra.Command {
	var (
		count  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs DEVICE_UUID_OR_ID",
		Short: "Show device logs",
		Long:  "Fetch stored device logs, or stream them live with --follow until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			// The log backend is addressed by full UUID only.
			device, err := client.Devices().Get(ctx, args[0], fleet.NewQueryOptions().WithSelect("id", "uuid"))
			if err != nil {
				return fmt.Errorf("failed to get device: %w", err)
			}

			if follow {
				return followLogs(client, device.UUID, count)
			}

			history, err := client.Logs().History(ctx, device.UUID, count)
			if err != nil {
				return fmt.Errorf("failed to fetch logs: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(history)
			case OutputFormatYAML:
				return renderYAML(history)
			default:
				for _, message := range history {
					printLogMessage(message)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of stored entries to fetch (0 means the backend default)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream logs until interrupted")

	return cmd
}

func followLogs(client fleet.Client, uuid string, count int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messages, errs, err := client.Logs().Subscribe(ctx, uuid, count)
	if err != nil {
		return fmt.Errorf("failed to subscribe to logs: %w", err)
	}

	jsonOutput := viper.GetString("output") == OutputFormatJSON

	for message := range messages {
		if jsonOutput {
			line, err := json.Marshal(message)
			if err != nil {
				return fmt.Errorf("failed to encode log entry: %w", err)
			}
			fmt.Println(string(line))
		} else {
			printLogMessage(message)
		}
	}

	// A terminal failure is delivered before the message channel closes.
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
