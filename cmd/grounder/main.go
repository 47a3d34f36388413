package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grounder-ai/grounder/internal/config"
	"github.com/grounder-ai/grounder/internal/llm"
	"github.com/grounder-ai/grounder/internal/models"
	"github.com/grounder-ai/grounder/internal/orchestrator"
	"github.com/grounder-ai/grounder/internal/search"
	"github.com/grounder-ai/grounder/internal/storage"
	"github.com/grounder-ai/grounder/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile string
	showVer bool

	maxResults int
	region     string
	sites      []string
	provider   string
	toolPolicy string
	noStore    bool
)

var rootCmd = &cobra.Command{
	Use:   "grounder",
	Short: "Web-search-grounded LLM answering",
	Long: `grounder asks an OpenAI-compatible model a question, lets it
invoke a declared web-search tool, executes the search locally and feeds
the results back so the final answer cites its sources.

Run without a subcommand to execute the built-in example query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("grounder %s (built %s)\n", Version, BuildDate)
			return nil
		}

		// The built-in example: HbA1c reference range, restricted to the
		// Asan Medical Center health-information site
		return runAsk(orchestrator.Question{
			Query:      "당화혈색소 정상 수치",
			MaxResults: 10,
			Region:     "kr-kr",
			Sites:      []string{"amc.seoul.kr"},
		}, "", "")
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask a question grounded in web search results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(orchestrator.Question{
			Query:      args[0],
			MaxResults: maxResults,
			Region:     region,
			Sites:      sites,
		}, provider, toolPolicy)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <run-id>",
	Short: "Print a stored run transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(cfgFile)
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		defer logger.Sync()

		store, err := storage.NewTranscriptStore(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open transcript store: %w", err)
		}
		defer store.Close()

		t, ok := store.Get(args[0])
		if !ok {
			return fmt.Errorf("transcript not found: %s", args[0])
		}

		out, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")

	askCmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "maximum number of search results (default from config)")
	askCmd.Flags().StringVarP(&region, "region", "r", "", "search region code, e.g. kr-kr (default from config)")
	askCmd.Flags().StringArrayVarP(&sites, "site", "s", nil, "restrict search to a domain (repeatable)")
	askCmd.Flags().StringVarP(&provider, "provider", "p", "", "search provider to use (default from config)")
	askCmd.Flags().StringVar(&toolPolicy, "tool-policy", "", "forced or auto (default from config)")
	askCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the run transcript")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// providerSearcher pins the manager to one named provider
type providerSearcher struct {
	manager *search.Manager
	name    string
}

func (s *providerSearcher) Search(ctx context.Context, q *search.Query) (*models.SearchProviderResult, error) {
	return s.manager.SearchWithProvider(ctx, s.name, q)
}

func runAsk(q orchestrator.Question, providerName, policyOverride string) error {
	cfg := config.Load(cfgFile)

	// Flag overrides before validation
	if policyOverride != "" {
		cfg.Search.ToolPolicy = policyOverride
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()

	logger.Info("starting run",
		zap.String("version", Version),
		zap.String("model", cfg.LLM.Model),
		zap.String("policy", cfg.Search.ToolPolicy),
	)

	// Caller defaults from config
	if q.MaxResults == 0 {
		q.MaxResults = cfg.Search.MaxResults
	}
	if q.Region == "" {
		q.Region = cfg.Search.Region
	}

	manager := search.NewManager(&cfg.Search)
	if !manager.HasAvailableProvider() {
		return fmt.Errorf("no available search provider")
	}

	var searcher orchestrator.Searcher = manager
	if providerName != "" {
		searcher = &providerSearcher{manager: manager, name: providerName}
	}

	client := llm.NewHTTPClient(&cfg.LLM)
	orch := orchestrator.New(client, searcher, cfg.LLM.Model,
		orchestrator.ToolPolicy(cfg.Search.ToolPolicy), logger.Log)

	res, err := orch.Run(context.Background(), q)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}

	fmt.Println(res.Answer)

	if cfg.Storage.Enabled && !noStore {
		store, err := storage.NewTranscriptStore(cfg.Storage.Path)
		if err != nil {
			logger.Warn("failed to open transcript store", zap.Error(err))
			return nil
		}
		defer store.Close()

		t := &storage.Transcript{
			ID:        res.RunID,
			CreatedAt: res.CreatedAt,
			Question:  q.Query,
			Answer:    res.Answer,
			Messages:  res.Messages,
		}
		if err := store.Store(t); err != nil {
			logger.Warn("failed to store transcript", zap.Error(err))
			return nil
		}
		logger.Info("transcript stored", zap.String("run_id", res.RunID))
	}

	return nil
}
