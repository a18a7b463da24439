package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
)

var (
	searchCategory string
	searchLanguage string
	searchLimit    int
	searchMinScore float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored knowledge without answer synthesis",
	Long: `Search ranks stored facts by semantic similarity to the query.

Returns raw matches with their similarity scores. Use 'ask' for a
synthesized answer.

Examples:
  aria search "favorite editor"
  aria search "auth service" --category work -n 3`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "filter by category")
	searchCmd.Flags().StringVarP(&searchLanguage, "language", "l", "", "filter by language")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "max results (default from config)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum similarity score")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	retriever, store, err := getRetriever(ctx)
	if err != nil {
		return err
	}

	var filters models.Filters
	if searchCategory != "" {
		filters.Category = &searchCategory
	}
	if searchLanguage != "" {
		filters.Language = &searchLanguage
	}

	results, err := retriever.Retrieve(ctx, retrieval.Query{
		Text:     args[0],
		K:        searchLimit,
		MinScore: searchMinScore,
		Filters:  filters,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for _, res := range results {
		rec, err := store.Get(ctx, res.RecordID)
		if err != nil || rec == nil {
			continue
		}
		fmt.Printf("%d. [%.3f] %s\n", res.Rank, res.Score, rec.Text)
		if verbose {
			fmt.Printf("   id=%s category=%s language=%s source=%s confidence=%.2f\n",
				res.RecordID, rec.Category, rec.Language, rec.Source, rec.Confidence)
		}
	}
	return nil
}
