package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge store and runtime statistics",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	count, err := getStore(nil).Count(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}

	fmt.Printf("Knowledge store\n")
	fmt.Printf("  URL:       %s\n", cfg.SurrealDBURL)
	fmt.Printf("  Namespace: %s/%s\n", cfg.SurrealDBNamespace, cfg.SurrealDBDatabase)
	fmt.Printf("  Records:   %d\n", count)
	fmt.Printf("\nEmbedding\n")
	fmt.Printf("  Provider:  %s\n", cfg.EmbedProvider)
	fmt.Printf("  Model:     %s (%d dims)\n", cfg.EmbedModel, cfg.EmbedDimension)
	fmt.Printf("\nSynthesis\n")
	fmt.Printf("  Provider:  %s\n", cfg.LLMProvider)

	snap := collector.Snapshot()
	if len(snap.Operations) == 0 {
		return nil
	}

	ops := make([]string, 0, len(snap.Operations))
	for op := range snap.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Printf("\nOperations (uptime %.1fs)\n", snap.UptimeSeconds)
	for _, op := range ops {
		m := snap.Operations[op]
		fmt.Printf("  %-12s count=%d avg=%.1fms min=%dms max=%dms\n",
			op, m.Count, m.AvgTimeMs, m.MinTimeMs, m.MaxTimeMs)
	}
	return nil
}
