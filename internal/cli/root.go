// Package cli provides the command-line interface for aria.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/config"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/db"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/embedding"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/learning"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/llm"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/metrics"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg       config.Config
	dbClient  *db.Client
	collector *metrics.Collector
	closeLog  func() error

	// Lazy-initialized embedding encoder
	encoder embedding.Encoder
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aria",
	Short: "Personal assistant knowledge core",
	Long: `Aria is the knowledge retrieval and learning core of a personal
assistant. It stores facts with embeddings, answers questions grounded in
what it has learned, and ingests new knowledge autonomously.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closer := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		closeLog = closer
		collector = metrics.NewCollector()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// getEncoder lazily builds the embedding encoder wrapped with retry policy.
func getEncoder(ctx context.Context) (embedding.Encoder, error) {
	if encoder != nil {
		return encoder, nil
	}
	enc, err := embedding.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init encoder: %w", err)
	}
	encoder = embedding.WithRetry(enc, cfg.RemoteTimeout, cfg.RetryAttempts, collector)
	return encoder, nil
}

// getStore builds the knowledge store adapter. The encoder is needed for
// text-changing updates; commands that never update may pass nil.
func getStore(enc embedding.Encoder) *db.Store {
	return db.NewStore(dbClient, enc, db.StoreOptions{
		Timeout:  cfg.RemoteTimeout,
		Attempts: cfg.RetryAttempts,
		Metrics:  collector,
	})
}

// getRetriever wires the retrieval pipeline.
func getRetriever(ctx context.Context) (*retrieval.Retriever, *db.Store, error) {
	enc, err := getEncoder(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := getStore(enc)
	r := retrieval.New(store, enc, retrieval.Options{
		K:               cfg.RetrieveK,
		MinScore:        cfg.MinScore,
		OverfetchFactor: cfg.OverfetchFactor,
		Metrics:         collector,
	})
	return r, store, nil
}

// getLoop wires the learning loop. progress may be nil.
func getLoop(ctx context.Context, progress func(done, total int)) (*learning.Loop, error) {
	enc, err := getEncoder(ctx)
	if err != nil {
		return nil, err
	}
	return learning.New(getStore(enc), enc, learning.Options{
		MergeThreshold:  cfg.MergeThreshold,
		RejectThreshold: cfg.RejectThreshold,
		ConfidenceBoost: cfg.ConfidenceBoost,
		Concurrency:     cfg.BatchConcurrency,
		Progress:        progress,
		Metrics:         collector,
	}), nil
}

// getModel builds the synthesis model; nil when the provider is "none".
func getModel() (*llm.Model, error) {
	return llm.NewModel(cfg, collector)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(decayCmd)
}
