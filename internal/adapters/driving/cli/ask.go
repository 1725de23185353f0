package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

var (
	askUser string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a question about the notices",
	Long: `Indexes the data directory once and answers the question.
Questions that ask to be alerted are registered as standing queries; set
STATE_DB so they outlive the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "who is asking (default \"user\")")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	eng, err := startSynced(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, eng.Close())
	}()

	resp, err := eng.Query().Ask(ctx, driving.QueryRequest{Query: args[0], User: askUser})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return printResponse(cmd, resp, askJSON)
}

func printResponse(cmd *cobra.Command, resp *driving.QueryResponse, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(resp.Answer)
	switch {
	case resp.Registered:
		cmd.Printf("\nAlert registered: %s\n", resp.Identity)
	case resp.AlertEnabled:
		cmd.Printf("\nAlert not registered (state %s)\n", resp.State)
	}
	return nil
}
