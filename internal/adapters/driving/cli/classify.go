package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

var (
	classifyTopK       int
	classifyNoFeedback bool
	classifyJSON       bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [product description]",
	Short: "Classify a product description into HTS codes",
	Long: `Classifies a free-text product description into ranked HTS code
candidates with calibrated confidence scores. Prior user corrections
are applied unless --no-feedback is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().IntVarP(&classifyTopK, "top-k", "k", domain.DefaultTopK, "number of candidates to return")
	classifyCmd.Flags().BoolVar(&classifyNoFeedback, "no-feedback", false, "disable feedback-based re-ranking")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if !catalogIndex.Ready() {
		if err := catalogIndex.Build(ctx); err != nil {
			return fmt.Errorf("building catalog index: %w", err)
		}
	}

	description := strings.Join(args, " ")
	results, err := classifierService.Classify(ctx, description, domain.ClassifyOptions{
		TopK:              classifyTopK,
		LearnFromFeedback: !classifyNoFeedback,
	})
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	if classifyJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputCandidates(cmd, results)
	return nil
}

func outputCandidates(cmd *cobra.Command, results []domain.CandidateResult) {
	if len(results) == 0 {
		cmd.Println("No candidates found.")
		return
	}

	if results[0].LowConfidence {
		cmd.Println("Warning: no candidate cleared the confidence threshold; results are best-effort.")
		cmd.Println()
	}

	for i, r := range results {
		cmd.Printf("  [%d] %s (%.0f%% confidence)\n", i+1, r.HTSCode, r.Confidence)
		cmd.Printf("      %s\n", r.Description)
		if r.GeneralRate != "" {
			cmd.Printf("      Duty: %s", r.GeneralRate)
			if len(r.Units) > 0 {
				cmd.Printf("  Units: %s", strings.Join(r.Units, ", "))
			}
			cmd.Println()
		}
		if r.Source != domain.SourceSimilarity {
			cmd.Printf("      Adjusted by feedback: %s\n", r.Explanation)
		}
		cmd.Println()
	}
}
