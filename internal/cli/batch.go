package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/fcyf/internal/pipeline"
	"github.com/ppiankov/fcyf/internal/worker"
)

var (
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check many claims from a file in parallel",
	Long: `Batch checks every claim in a file concurrently:
- One claim per line, or one JSON request object per line
- Blank lines and lines starting with # are skipped
- Each claim runs through its own pipeline call
- Results are written as JSON lines in input order

Example:
  fcyf batch claims.txt
  fcyf batch claims.txt --concurrency 8 --output results.jsonl
  fcyf batch claims.txt --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().Duration("claim-timeout", 0, "timeout for each claim (default from config)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write JSON lines to this file instead of stdout")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")

	_ = viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("batch.timeout", batchCmd.Flags().Lookup("claim-timeout"))
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	processor := worker.NewBatchProcessor(p, cfg.Batch.Concurrency, cfg.Batch.Timeout, logger)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out := cmd.OutOrStdout()
	if batchOutput != "" {
		f, createErr := os.Create(batchOutput)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		out = f
	}

	if err := worker.WriteJSONLines(out, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "✓ Checked %d claims (%d failed)\n", len(results), failed)

	return nil
}
