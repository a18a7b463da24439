package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/learning"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/parser"
)

var learnPlain bool

var learnCmd = &cobra.Command{
	Use:   "learn <file>...",
	Short: "Ingest facts from bulk files",
	Long: `Learn reads fact files and runs them through the learning loop: each
candidate is embedded, checked against stored knowledge and then inserted,
merged into a matching record, or rejected as a near-duplicate.

YAML files carry structured facts with optional defaults; any other file
is read as one fact per line.

Examples:
  aria learn facts.yaml
  aria learn notes.txt more-notes.txt --plain`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().BoolVar(&learnPlain, "plain", false, "disable the progress UI")
}

func runLearn(cmd *cobra.Command, args []string) error {
	var candidates []models.LearningCandidate
	for _, path := range args {
		facts, err := parser.ParseFactFile(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		candidates = append(candidates, facts...)
	}
	if len(candidates) == 0 {
		fmt.Println("No facts found.")
		return nil
	}

	ctx := context.Background()
	interactive := !learnPlain && term.IsTerminal(int(os.Stdout.Fd()))

	var report *models.Report
	var err error
	if interactive {
		report, err = RunLearnProgress(len(candidates), func(progress func(done, total int)) (*models.Report, error) {
			loop, err := getLoop(ctx, progress)
			if err != nil {
				return nil, err
			}
			return loop.Ingest(ctx, candidates)
		})
	} else {
		var loop *learning.Loop
		loop, err = getLoop(ctx, nil)
		if err == nil {
			report, err = loop.Ingest(ctx, candidates)
		}
	}
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	if !interactive && report != nil {
		fmt.Printf("Processed %d facts.\n\n%s", report.Total(), renderReport(report, defaultTheme))
	}
	return nil
}
