package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearfreight-labs/htsclass/internal/core/domain"
)

var (
	calcValue    float64
	calcQuantity float64
)

var calculateCmd = &cobra.Command{
	Use:   "calculate [hts code]",
	Short: "Estimate duty for an HTS code and declared value",
	Long: `Parses the general duty rate for a classified HTS code and estimates
the duty owed for a declared customs value. Specific (per-unit) rate
components use --quantity.

Example:
  htsclass calculate 4202.31.60 --value 12000 --quantity 500`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().Float64Var(&calcValue, "value", 0, "declared customs value in dollars")
	calculateCmd.Flags().Float64Var(&calcQuantity, "quantity", 0, "quantity for per-unit rate components")
	calculateCmd.MarkFlagRequired("value") //nolint:errcheck
	rootCmd.AddCommand(calculateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if !catalogIndex.Ready() {
		if err := catalogIndex.Build(ctx); err != nil {
			return fmt.Errorf("building catalog index: %w", err)
		}
	}

	code := args[0]
	entry, ok := catalogIndex.Entry(code)
	if !ok {
		return fmt.Errorf("HTS code %s: %w", code, domain.ErrNotFound)
	}
	if entry.GeneralRate == "" {
		return fmt.Errorf("HTS code %s has no general duty rate", code)
	}

	dutyRate, err := domain.ParseDutyRate(entry.GeneralRate)
	if err != nil {
		return fmt.Errorf("parsing duty rate %q: %w", entry.GeneralRate, err)
	}

	cmd.Printf("HTS %s: %s\n", code, catalogIndex.FullDescription(code))
	cmd.Printf("General rate: %s\n", entry.GeneralRate)
	if dutyRate.Free {
		cmd.Println("Estimated duty: $0.00 (duty free)")
		return nil
	}
	if dutyRate.SpecificCents > 0 && calcQuantity == 0 {
		cmd.Printf("Note: rate has a per-%s component; pass --quantity for a full estimate.\n", dutyRate.SpecificUnit)
	}
	cmd.Printf("Estimated duty on $%.2f: $%.2f\n", calcValue, dutyRate.Estimate(calcValue, calcQuantity))
	return nil
}
