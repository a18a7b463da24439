package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	decayStaleDays int
	decayDryRun    bool
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Lower confidence of stale facts",
	Long: `Decay reduces the confidence of facts that have not been touched for
a while, so old knowledge gradually loses weight against fresh facts.

Run it from cron or before large imports. With --dry-run the affected
records are listed without being changed.

Examples:
  aria decay --stale-days 90
  aria decay --stale-days 30 --dry-run`,
	RunE: runDecay,
}

func init() {
	decayCmd.Flags().IntVar(&decayStaleDays, "stale-days", 90, "age in days before a fact is stale")
	decayCmd.Flags().BoolVar(&decayDryRun, "dry-run", false, "list affected facts without changing them")
}

func runDecay(cmd *cobra.Command, args []string) error {
	if decayStaleDays <= 0 {
		return fmt.Errorf("stale-days must be positive, got %d", decayStaleDays)
	}

	ctx := context.Background()
	decayed, err := getStore(nil).ApplyDecay(ctx, decayStaleDays, decayDryRun)
	if err != nil {
		return fmt.Errorf("decay: %w", err)
	}

	if len(decayed) == 0 {
		fmt.Println("No stale facts.")
		return nil
	}

	verb := "Decayed"
	if decayDryRun {
		verb = "Would decay"
	}
	fmt.Printf("%s %d facts:\n", verb, len(decayed))
	for _, rec := range decayed {
		fmt.Printf("  %s %.2f -> %.2f  %s\n", rec.ID.String(), rec.OldConfidence, rec.NewConfidence, rec.Text)
	}
	return nil
}
