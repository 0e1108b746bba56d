package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsbrief/internal/collect"
	"newsbrief/internal/config"
	"newsbrief/internal/email"
	"newsbrief/internal/fetch"
	"newsbrief/internal/llm"
	"newsbrief/internal/logger"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/search"
	"newsbrief/internal/store"
	"newsbrief/internal/vectorindex"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsbrief",
	Short: "newsbrief generates and delivers personalized newsletters.",
	Long: `newsbrief aggregates topical articles for a set of interest tags,
deduplicates and ranks them, summarizes the survivors, and delivers the
result as an HTML newsletter. Indexed articles stay searchable across runs.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.newsbrief.yaml)")
}

// initConfig loads configuration and initializes logging.
func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
	logger.Init(cfg.App.LogLevel)
}

// newLLMClient builds the shared Gemini client.
func newLLMClient(ctx context.Context) (*llm.Client, error) {
	return llm.NewClient(ctx, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model, cfg.AI.Gemini.EmbeddingModel)
}

// newIndex opens the persistent similarity index.
func newIndex(embedder vectorindex.Embedder) (*vectorindex.Index, error) {
	return vectorindex.New(cfg.Index.Directory, embedder, llm.EmbeddingDimensions)
}

// buildPipeline wires the full newsletter pipeline from configuration.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	client, err := newLLMClient(ctx)
	if err != nil {
		return nil, err
	}

	factory := search.NewProviderFactory()
	provider, err := factory.CreateProvider(
		search.ProviderType(cfg.Search.Provider),
		map[string]string{"api_key": cfg.Search.APIKey},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	scrapeCache, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open scrape cache: %w", err)
	}

	index, err := newIndex(client)
	if err != nil {
		return nil, fmt.Errorf("failed to open similarity index: %w", err)
	}

	collector := collect.New(provider, fetch.NewScraper(), scrapeCache, cfg.Search.IncludeDomains)
	sender := email.NewSMTPSender(cfg.Email.SMTPServer, cfg.Email.SMTPPort,
		cfg.Email.Username, cfg.Email.Password, cfg.Email.From)

	p := pipeline.New(client, collector, index, sender)
	if cfg.Search.MaxResults > 0 {
		p.SetResultBudget(cfg.Search.MaxResults)
	}
	return p, nil
}
