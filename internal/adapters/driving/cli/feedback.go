package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	feedbackPredicted string
	feedbackCorrected string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [product description]",
	Short: "Record a correction for a prior classification",
	Long: `Records that a classification was wrong (or confirms it was right).
Future queries with the same or a semantically similar description will
rank the corrected code higher.

Example:
  htsclass feedback "leather wallet" --predicted 4202.32 --corrected 4202.31`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackPredicted, "predicted", "", "HTS code the classifier returned")
	feedbackCmd.Flags().StringVar(&feedbackCorrected, "corrected", "", "HTS code that is actually correct")
	feedbackCmd.MarkFlagRequired("predicted") //nolint:errcheck
	feedbackCmd.MarkFlagRequired("corrected") //nolint:errcheck
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	description := strings.Join(args, " ")
	err := classifierService.AddFeedback(cmd.Context(), description, feedbackPredicted, feedbackCorrected)
	if err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}

	if feedbackPredicted == feedbackCorrected {
		cmd.Printf("Confirmation recorded for %s.\n", feedbackCorrected)
	} else {
		cmd.Printf("Correction recorded: %s -> %s.\n", feedbackPredicted, feedbackCorrected)
	}
	return nil
}
