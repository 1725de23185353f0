package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the data directory once",
	Long:  `Normalises, chunks and embeds every notice in the data directory and reports the counts.`,
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) (err error) {
	eng, err := startSynced(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, eng.Close())
	}()

	status := eng.Ingest().Status()
	cmd.Printf("Documents indexed: %d\n", status.DocumentsIndexed)
	cmd.Printf("Documents skipped: %d\n", status.DocumentsSkipped)
	cmd.Printf("Chunks indexed:    %d\n", status.ChunksIndexed)
	cmd.Printf("Chunk failures:    %d\n", status.ChunkFailures)
	cmd.Printf("Errors:            %d\n", status.Errors)
	return nil
}
