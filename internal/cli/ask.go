package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/rag"
)

var (
	askCategory    string
	askLanguage    string
	askInteractive bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from stored knowledge",
	Long: `Ask answers a question using retrieval over the knowledge store and
optional LLM synthesis. Answers cite the facts they are grounded in; when
nothing relevant is stored, aria says so instead of guessing.

In interactive mode (-i) the session keeps an emotional state across
turns. Reply "+" or "-" to rate the previous answer.

Examples:
  aria ask "what is my favorite editor?"
  aria ask --category work "who owns the auth service?"
  aria ask -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCategory, "category", "c", "", "restrict to a category")
	askCmd.Flags().StringVarP(&askLanguage, "language", "l", "", "restrict to a language")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "multi-turn session")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	retriever, store, err := getRetriever(ctx)
	if err != nil {
		return err
	}
	model, err := getModel()
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	loop, err := getLoop(ctx, nil)
	if err != nil {
		return err
	}

	var gen rag.Generator
	if model != nil {
		gen = model
	}
	orchestrator := rag.New(retriever, store, gen, loop)
	session := rag.NewSession(cfg.EmotionBaseline, cfg.EmotionDecayRate)

	if askInteractive {
		return runAskInteractive(ctx, orchestrator, session)
	}

	if len(args) == 0 {
		return fmt.Errorf("a question is required unless -i is set")
	}
	env := orchestrator.Answer(ctx, session, args[0], askFilters())
	printEnvelope(env)
	return nil
}

func runAskInteractive(ctx context.Context, o *rag.Orchestrator, session *rag.Session) error {
	fmt.Println("Ask me anything. \"+\" / \"-\" rates the last answer, \"exit\" quits.")

	scanner := bufio.NewScanner(os.Stdin)
	var lastTurn string
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "+":
			session.RecordFeedback(true)
			fmt.Println("Glad that helped.")
			// A confirmed exchange is worth remembering.
			if report, err := o.LearnFromExchange(ctx, session, lastTurn); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not learn from that: %v\n", err)
			} else if report != nil && report.Accepted+report.Merged > 0 {
				fmt.Println("(I'll remember that.)")
			}
			continue
		case "-":
			session.RecordFeedback(false)
			fmt.Println("Noted, I'll try to do better.")
			continue
		}

		lastTurn = line
		env := o.Answer(ctx, session, line, askFilters())
		printEnvelope(env)
		fmt.Println()
	}
}

func askFilters() models.Filters {
	var f models.Filters
	if askCategory != "" {
		f.Category = &askCategory
	}
	if askLanguage != "" {
		f.Language = &askLanguage
	}
	return f
}

func printEnvelope(env *rag.ResponseEnvelope) {
	fmt.Println(env.Text)

	if len(env.GroundingRecords) > 0 {
		fmt.Println("\nGrounded in:")
		for i, rec := range env.GroundingRecords {
			fmt.Printf("  [%d] %s\n", i+1, rec.Text)
		}
	}

	if verbose {
		fmt.Printf("\n(tone: %s", env.EmotionalTone)
		if env.Ungrounded {
			fmt.Print(", ungrounded")
		}
		if env.Note != "" {
			fmt.Printf(", note: %s", env.Note)
		}
		fmt.Println(")")
	}
}
