package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var insightsJSON bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show what the classifier has learned from feedback",
	Long: `Summarises the feedback history: correction rates overall and per
chapter, recurring misclassification patterns and suggested threshold
adjustments.`,
	Args: cobra.NoArgs,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "output insights as JSON")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	insight, err := classifierService.Insights(cmd.Context())
	if err != nil {
		return fmt.Errorf("computing insights: %w", err)
	}

	if insightsJSON {
		data, err := json.MarshalIndent(insight, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal insights: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Feedback records:   %d\n", insight.TotalRecords)
	cmd.Printf("Corrections:        %d\n", insight.TotalCorrections)
	cmd.Printf("Correction rate:    %.1f%%\n", insight.CorrectionRate*100)

	if len(insight.CorrectionRateByChapter) > 0 {
		cmd.Println("\nBy chapter:")
		chapters := make([]string, 0, len(insight.CorrectionRateByChapter))
		for ch := range insight.CorrectionRateByChapter {
			chapters = append(chapters, ch)
		}
		sort.Strings(chapters)
		for _, ch := range chapters {
			cmd.Printf("  %s: %.1f%%", ch, insight.CorrectionRateByChapter[ch]*100)
			if drift, ok := insight.ThresholdDrift[ch]; ok {
				cmd.Printf("  (suggest threshold %+.0f)", drift)
			}
			cmd.Println()
		}
	}

	if len(insight.TopPatterns) > 0 {
		cmd.Println("\nRecurring corrections:")
		for _, p := range insight.TopPatterns {
			cmd.Printf("  %s -> %s (%dx)\n", p.FromHeading, p.ToHeading, p.Count)
		}
	}
	return nil
}
