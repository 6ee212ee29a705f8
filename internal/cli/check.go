package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/pipeline"
)

var (
	spice        string
	skeptic      bool
	checkTimeout time.Duration
	compact      bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Fact-check a single claim and print the JSON answer",
	Long: `Check runs one claim through the full pipeline:
- Search the web for evidence (Wikipedia summary if the search is empty)
- Label evidence by source authority
- Ask the LLM for a schema-constrained answer with 2-4 citations
- Repair or reject malformed output

Example:
  fcyf check "Is tequila a stimulant?"
  fcyf check "Did the Great Wall show up on Apollo photos?" --spice light
  fcyf check "Vaccines cause autism" --skeptic --llm-provider anthropic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&spice, "spice", string(model.SpiceOff), "tone: off, light, extra")
	checkCmd.Flags().BoolVar(&skeptic, "skeptic", false, "push back harder on weakly supported claims")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall timeout for the check")
	checkCmd.Flags().BoolVar(&compact, "compact", false, "print JSON on one line")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	result, err := p.Check(ctx, model.CheckRequest{
		Query:   strings.Join(args, " "),
		Spice:   model.Spice(spice),
		Skeptic: skeptic,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
