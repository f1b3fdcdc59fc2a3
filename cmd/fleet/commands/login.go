package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		email    string
		password string
		token    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the fleet API",
		Long:  "Authenticate with email and password, a session token or an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			// A token passed on the command line wins over prompting.
			if token == "" {
				token = viper.GetString("token")
			}

			if token != "" {
				// The client stores the credential as part of construction.
				viper.Set("token", token)

				client, err := createClient(ctx)
				if err != nil {
					return fmt.Errorf("failed to create client: %w", err)
				}
				defer client.Close()

				user, err := client.Auth().WhoAmI(ctx)
				if err != nil {
					return fmt.Errorf("failed to verify credential: %w", err)
				}

				fmt.Printf("Successfully logged in as %s\n", user.Username)

				return nil
			}

			// Username/password flow
			if email == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Email: ")
				email, _ = reader.ReadString('\n')
				email = strings.TrimSpace(email)
			}

			if email == "" {
				return ErrEmailRequired
			}

			if password == "" {
				fmt.Print("Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
				fmt.Println()
			}

			client, err := createClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer client.Close()

			if err := client.Auth().Login(ctx, email, password); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}

			if client.Auth().TwoFactorPending() {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Two-factor code: ")
				code, _ := reader.ReadString('\n')

				err := client.Auth().TwoFactorChallenge(ctx, strings.TrimSpace(code))
				if err != nil {
					return fmt.Errorf("failed to verify two-factor code: %w", err)
				}
			}

			user, err := client.Auth().WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch user info: %w", err)
			}

			fmt.Printf("Successfully logged in as %s\n", user.Username)

			return nil
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address for authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for authentication")
	cmd.Flags().StringVar(&token, "token", "", "session token or API key")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the fleet API",
		Long:  "Clear the stored session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer client.Close()

			if err := client.Auth().Logout(ctx); err != nil {
				return fmt.Errorf("failed to logout: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}

// NewWhoamiCommand creates the whoami command
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the logged in user",
		Long:  "Display account information for the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer client.Close()

			user, err := client.Auth().WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch user info: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(user)
			case OutputFormatYAML:
				return renderYAML(user)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("ID", fmt.Sprintf("%d", user.ID))
				_ = table.Append("Username", user.Username)
				if user.Email != "" {
					_ = table.Append("Email", user.Email)
				}
				_ = table.Render()
			}

			return nil
		},
	}
}
