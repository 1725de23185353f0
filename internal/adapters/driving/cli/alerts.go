package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var alertsJSON bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List standing queries",
	Long:  `Lists standing queries stored in STATE_DB with their last answers.`,
	Args:  cobra.NoArgs,
	RunE:  runAlerts,
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	eng, err := startEngine(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, eng.Close())
	}()

	queries, err := eng.Query().StandingQueries(ctx)
	if err != nil {
		return fmt.Errorf("listing alerts: %w", err)
	}

	if alertsJSON {
		data, err := json.MarshalIndent(queries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal alerts: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(queries) == 0 {
		cmd.Println("No standing queries.")
		return nil
	}

	for i := range queries {
		// Format: [identity] user: query
		cmd.Printf("[%s] %s: %s\n", queries[i].Identity, queries[i].User, queries[i].Query)
		if queries[i].LastAnswer != "" {
			cmd.Printf("    %s\n", queries[i].LastAnswer)
		}
	}
	return nil
}
