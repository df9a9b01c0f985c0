// MAGI deliberation system entry point.
//
// Usage:
//
//	magi ask "your question"              # run one deliberation
//	magi ask --debate "your question"     # engage the full council
//	magi search <keyword>                 # search stored deliberations
//	magi recall                           # show recent keypoint context
//	magi clipboard                        # show the session clipboard
//	magi version                          # show version information
//	magi health                           # probe the model backend
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/magisys/magi/config"
	"github.com/magisys/magi/council"
	"github.com/magisys/magi/internal/metrics"
	"github.com/magisys/magi/llm/openaicompat"
	"github.com/magisys/magi/memory"
	"github.com/magisys/magi/tools"
)

// Build-time injection via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ask":
		runAsk(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	case "recall":
		runRecall(os.Args[2:])
	case "clipboard":
		runClipboard(os.Args[2:])
	case "health":
		runHealth(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	address := fs.String("address", "ALL", "Address mode: ALL, MELCHIOR, BALTHASAR, or CASPER")
	debate := fs.Bool("debate", false, "Engage the full council with debate")
	refine := fs.Bool("refine", false, "Run the refinement rewrite pass")
	contextText := fs.String("context", "", "Context override injected into the briefing")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: magi ask [options] <question>")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting MAGI",
		zap.String("version", Version),
		zap.String("model", cfg.LLM.Model),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := buildOrchestrator(ctx, cfg, logger)

	responses, err := orch.ProcessQuery(ctx, question, council.Options{
		AddressMode: *address,
		ContextText: *contextText,
		Refinement:  *refine,
		Debate:      *debate,
	}, council.Events{
		OnStatus: func(msg string) { fmt.Fprintln(os.Stderr, msg) },
		OnTool:   func(msg string) { fmt.Fprintln(os.Stderr, msg) },
		OnStats:  func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	})
	if err != nil {
		logger.Error("deliberation aborted", zap.Error(err))
		os.Exit(1)
	}

	printResponses(responses)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	limit := fs.Int("limit", 5, "Maximum number of results")
	fs.Parse(args)

	keyword := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if keyword == "" {
		fmt.Fprintln(os.Stderr, "Usage: magi search [options] <keyword>")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, err := memory.Open(cfg.Memory.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open memory store: %v\n", err)
		os.Exit(1)
	}

	hits, err := store.SearchMemory(context.Background(), keyword, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, h := range hits {
		fmt.Printf("[%s] %s\n", h.Timestamp.Format("2006-01-02 15:04"), h.Query)
		fmt.Printf("  %s\n\n", h.Decision)
	}
}

func runRecall(args []string) {
	fs := flag.NewFlagSet("recall", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	limit := fs.Int("limit", 0, "Number of recent deliberations (default from config)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, err := memory.Open(cfg.Memory.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open memory store: %v\n", err)
		os.Exit(1)
	}

	n := *limit
	if n <= 0 {
		n = cfg.Memory.RecentContextLimit
	}
	block, err := store.RetrieveRecentContext(context.Background(), n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recall failed: %v\n", err)
		os.Exit(1)
	}
	if block == "" {
		fmt.Println("No recent keypoints.")
		return
	}
	fmt.Print(block)
}

func runClipboard(args []string) {
	fs := flag.NewFlagSet("clipboard", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	store := clipboardStore(cfg)

	items, err := store.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load clipboard: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("Clipboard is empty.")
		return
	}
	for i, item := range items {
		fmt.Printf("%2d. %s\n", i+1, item)
	}
}

func runHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	provider := openaicompat.New(openaicompat.Config{
		ProviderName: "lmstudio",
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.Model,
		Timeout:      cfg.LLM.Timeout,
	}, zap.NewNop())

	status, err := provider.HealthCheck(context.Background())
	if err != nil || !status.Healthy {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (%s)\n", status.Latency)
}

// buildOrchestrator wires the full pipeline from config: provider, tool
// registry, metrics, memory, clipboard persistence.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger *zap.Logger) *council.Orchestrator {
	provider := openaicompat.New(openaicompat.Config{
		ProviderName:     "lmstudio",
		BaseURL:          cfg.LLM.BaseURL,
		APIKey:           cfg.LLM.APIKey,
		DefaultModel:     cfg.LLM.Model,
		DefaultMaxTokens: cfg.Council.MaxAgentTokens,
		Timeout:          cfg.LLM.Timeout,
	}, logger)

	collector := metrics.NewCollector(nil)

	registry := tools.NewRegistry(logger)
	registry.SetObserver(collector)
	web := tools.NewWebTools(tools.WebConfig{
		Enabled:    cfg.Tools.WebSearchEnabled,
		MaxResults: cfg.Tools.MaxSearchResults,
	}, logger)
	if err := web.RegisterAll(registry); err != nil {
		logger.Fatal("tool registration failed", zap.Error(err))
	}

	orch := council.NewOrchestrator(provider, registry, council.Config{
		Model:                cfg.LLM.Model,
		SimilarityThreshold:  cfg.Council.SimilarityThreshold,
		MaxDebateRounds:      cfg.Council.MaxDebateRounds,
		MaxAgentTokens:       cfg.Council.MaxAgentTokens,
		MaxHistoryMessages:   cfg.Council.MaxHistoryMessages,
		MemoryEnabled:        cfg.Memory.Enabled,
		AutoExtractKeypoints: cfg.Memory.AutoExtractKeypoints,
	}, logger).WithMetrics(collector)

	if cfg.Memory.Enabled {
		store, err := memory.Open(cfg.Memory.DBPath, logger)
		if err != nil {
			logger.Warn("memory store unavailable, persistence disabled", zap.Error(err))
		} else {
			extractor := memory.NewExtractor(provider, cfg.LLM.Model, logger)
			orch = orch.WithMemory(store, extractor)
		}
	}

	orch = orch.WithClipboardStore(ctx, clipboardStore(cfg))
	return orch
}

// clipboardStore selects Redis- or file-backed clipboard persistence.
func clipboardStore(cfg *config.Config) council.ClipboardStore {
	if cfg.Memory.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Memory.RedisAddr})
		return memory.NewRedisClipboardStore(client, "")
	}
	return memory.NewFileClipboardStore(cfg.Memory.ClipboardPath)
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// printResponses renders the response set in speaking order, final ruling
// and refined text last.
func printResponses(responses map[string]string) {
	if reply, ok := responses[council.OverseerKey]; ok && len(responses) == 1 {
		fmt.Println(reply)
		return
	}

	order := []string{
		string(council.Casper),
		string(council.Balthasar),
		string(council.Melchior),
		council.FinalDecisionKey,
		council.RefinedKey,
	}
	for _, key := range order {
		text, ok := responses[key]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Printf("=== %s ===\n%s\n\n", key, text)
	}
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func printVersion() {
	fmt.Printf("MAGI %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`MAGI - Multi-Agent Deliberation System

Usage:
  magi <command> [options]

Commands:
  ask        Run one deliberation
  search     Search stored deliberations by keyword
  recall     Show keypoint context from recent deliberations
  clipboard  Show the persisted session clipboard
  health     Probe the model backend
  version    Show version information
  help       Show this help message

Options for 'ask':
  --config <path>      Path to configuration file (YAML)
  --address <name>     ALL (default), MELCHIOR, BALTHASAR, or CASPER
  --debate             Engage the full council with debate
  --refine             Run the refinement rewrite pass
  --context <text>     Context override injected into the briefing

Examples:
  magi ask "What should we name the new service?"
  magi ask --debate --refine "Should we migrate to event sourcing?"
  magi ask --address BALTHASAR "Poke holes in this rollout plan"
  magi search "event sourcing"`)
}
