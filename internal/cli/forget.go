package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a stored fact",
	Long: `Forget removes a fact by ID. Both bare IDs and full
"knowledge:<id>" references are accepted. Forgetting an unknown ID is a
no-op.

Example:
  aria forget knowledge:8d5c1a2e-4f3b-4c6d-9e2a-1b7f3c9d0a4e`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := getStore(nil).Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("forget: %w", err)
	}

	fmt.Printf("Forgot %s\n", args[0])
	return nil
}
