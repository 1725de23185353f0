package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wcreiley/notice-alert-system/internal/adapters/driving/rest"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

// defaultAlertQueries are the standing queries seeded by --defaults.
var defaultAlertQueries = []string{
	`What are the site names of any capacity constraints.
Alert me of any new capacity constraints.`,
	`What are all the capacity constraints?
Alert me of any new capacity constraints.

Identify the notice type.
Identify the location.
Identify the pipeline segment.
Identify the duration of the outage.
Identify the change in capacity.`,
	`Are there any outages for Creole Trail.
Alert me of any outages.`,
}

var errNotRegistered = errors.New("subscription failed")

var (
	subscribeUser     string
	subscribeDefaults bool
	subscribeServer   string
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [query]",
	Short: "Register standing queries for change alerts",
	Long: `Registers a question as a standing query. Its answer is recomputed whenever
the notices change and material changes are posted to the alert channel.

With --server the queries are posted to a running "noticealert serve" instead
of being answered in-process, which is required for the alerts to be tracked
by that server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubscribe,
}

func init() {
	subscribeCmd.Flags().StringVarP(&subscribeUser, "user", "u", "", "who is subscribing (default \"user\")")
	subscribeCmd.Flags().BoolVar(&subscribeDefaults, "defaults", false, "register the built-in capacity and outage alerts")
	subscribeCmd.Flags().StringVar(&subscribeServer, "server", "", "URL of a running server, e.g. http://127.0.0.1:8080/")
	rootCmd.AddCommand(subscribeCmd)
}

func runSubscribe(cmd *cobra.Command, args []string) (err error) {
	var queries []string
	if subscribeDefaults {
		queries = append(queries, defaultAlertQueries...)
	}
	queries = append(queries, args...)
	if len(queries) == 0 {
		return errors.New("a query or --defaults is required")
	}

	ctx := cmd.Context()

	if subscribeServer != "" {
		client := rest.NewClient(subscribeServer, nil)
		for _, q := range queries {
			answer, err := client.Ask(ctx, driving.QueryRequest{Query: q, User: subscribeUser})
			if err != nil {
				return fmt.Errorf("subscribing via %s: %w", subscribeServer, err)
			}
			cmd.Println(answer)
		}
		return nil
	}

	eng, err := startSynced(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, eng.Close())
	}()

	for _, q := range queries {
		resp, err := eng.Query().Subscribe(ctx, q, subscribeUser)
		if err != nil {
			return fmt.Errorf("subscribe failed: %w", err)
		}
		if err := printResponse(cmd, resp, false); err != nil {
			return err
		}
		if !resp.Registered {
			return fmt.Errorf("%w: %q was not registered (state %s)", errNotRegistered, q, resp.State)
		}
	}
	return nil
}
