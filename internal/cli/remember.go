package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/db"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

var (
	rememberCategory   string
	rememberLanguage   string
	rememberConfidence float64
)

var rememberCmd = &cobra.Command{
	Use:   "remember <fact>",
	Short: "Store a fact directly",
	Long: `Remember stores a single fact with a manual provenance tag. Unlike
'learn', no dedup check runs; what you say is what gets stored.

Examples:
  aria remember "my passport expires in March 2027"
  aria remember --category work "standup is at 9:30"`,
	Args: cobra.ExactArgs(1),
	RunE: runRemember,
}

func init() {
	rememberCmd.Flags().StringVarP(&rememberCategory, "category", "c", "", "fact category")
	rememberCmd.Flags().StringVarP(&rememberLanguage, "language", "l", "", "fact language")
	rememberCmd.Flags().Float64Var(&rememberConfidence, "confidence", 1.0, "initial confidence [0,1]")
}

func runRemember(cmd *cobra.Command, args []string) error {
	if rememberConfidence < 0 || rememberConfidence > 1 {
		return fmt.Errorf("confidence must be in [0,1], got %g", rememberConfidence)
	}

	ctx := context.Background()
	enc, err := getEncoder(ctx)
	if err != nil {
		return err
	}

	vector, err := enc.Encode(ctx, args[0])
	if err != nil {
		return fmt.Errorf("embed fact: %w", err)
	}

	id, err := getStore(enc).Insert(ctx, db.InsertInput{
		Text:       args[0],
		Embedding:  vector,
		Category:   rememberCategory,
		Language:   rememberLanguage,
		Source:     models.SourceManual,
		Confidence: rememberConfidence,
	})
	if err != nil {
		return fmt.Errorf("store fact: %w", err)
	}

	fmt.Printf("Remembered as %s\n", id)
	return nil
}
