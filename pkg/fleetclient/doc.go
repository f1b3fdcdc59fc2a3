// Package fleetclient provides the primary entry point for constructing a
// fleet API client that implements the fleet.Client interface.
//
// It layers configuration, HTTP transport, session persistence, and
// authentication on top of the resource interfaces and types defined in the
// fleet package. Most applications should import fleetclient to build a
// client, then use the returned fleet.Client to access resource-specific
// clients, for example Applications(), Devices(), Logs(), etc.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/fleet-client/pkg/fleet"
//	  "github.com/fivetwenty-io/fleet-client/pkg/fleetclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: reuse the session persisted by a previous login.
//	  cli, err := fleetclient.New(ctx, &fleet.Config{})
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with a session token you already have:
//	  cli, err = fleetclient.NewWithToken(ctx, "eyJhbGciOi...")
//
//	  // Or with an API key, or username/password. A password login runs
//	  // during construction and persists the resulting session token.
//	  cli, err = fleetclient.New(ctx, &fleet.Config{
//	    Username: "user",
//	    Password: "pass",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the fleet.Client interface
//	  apps, err := cli.Applications().List(ctx, fleet.NewQueryOptions().WithTop(10))
//	  if err != nil { log.Fatal(err) }
//	  _ = apps
//	}
//
// # Sessions
//
// Session credentials persist in ~/.fleet/session.yml (override the
// directory with Config.DataDirectory or FLEET_DATA_DIRECTORY) so separate
// processes share one login. The file is written with 0600 permissions.
//
// # Helpers
//
// The package also provides convenience constructors NewFromEnv,
// NewWithToken, NewWithAPIKey, and NewWithPassword that wrap New with the
// appropriate configuration.
package fleetclient
