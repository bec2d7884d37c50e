// Package main is the assist CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/assist/internal/assistant"
	"github.com/hyperjump/assist/internal/cli"
	"github.com/hyperjump/assist/internal/config"
	"github.com/hyperjump/assist/internal/indexer"
	"github.com/hyperjump/assist/internal/keyword"
	"github.com/hyperjump/assist/internal/llm"
	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/search"
	"github.com/hyperjump/assist/internal/server"
	"github.com/hyperjump/assist/internal/session"
	"github.com/hyperjump/assist/internal/storage"
	"github.com/hyperjump/assist/internal/typesense"
	"github.com/hyperjump/assist/internal/watcher"
	"github.com/hyperjump/assist/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/assist/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present (for development), and a missing
// default file falls back to defaults plus environment.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "chat":
		runChat()
	case "index":
		runIndex()
	case "version", "--version", "-v":
		fmt.Printf("assist version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (turns, model output, catalog changes)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("index_provider", cfg.Index.Provider),
	)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	registry := session.NewRegistry(components.Provider, cfg.SessionOptions(), logger)
	var opts []server.Option
	if components.Engine != nil {
		opts = append(opts, server.WithCatalogStats(components.Engine))
	}
	srv := server.NewServer(components.Assistant, registry, cfg, logger, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	g.Go(func() error {
		registry.Run(gctx, sweepInterval(cfg.Sessions.TTL))
		return nil
	})
	if w := newCatalogWatcher(cfg, components, logger, debugMode); w != nil {
		g.Go(func() error { return w.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// sweepInterval is how often idle sessions are expired.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	interval := ttl / 4
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}
	return interval
}

func newCatalogWatcher(cfg *config.Config, c *Components, logger *zap.Logger, debug bool) *watcher.Watcher {
	if len(cfg.Watch.Directories) == 0 {
		return nil
	}
	if c.Indexer == nil {
		logger.Warn("Ignoring watch directories: the catalog is only watched for the local index",
			zap.String("index_provider", cfg.Index.Provider))
		return nil
	}
	var opts []watcher.Option
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	return watcher.New(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), c.Indexer, opts...)
}

// promptFromArgs joins all positional args with spaces so multi-word prompts
// work the same with or without shell quoting.
func promptFromArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the prompt
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	summary := fs.String("summary", "", "summary of the conversation so far")
	output := fs.String("format", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: assist chat [flags] <prompt>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	prompt := promptFromArgs(fs.Args())
	if prompt == "" {
		fmt.Println(assistant.ErrEmptyPrompt.Error())
		fs.Usage()
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	sess, err := components.Provider.NewSession(ctx)
	if err != nil {
		fmt.Printf("Failed to open %s session: %v\n", components.Provider.Name(), err)
		os.Exit(1)
	}
	resp, err := components.Assistant.Respond(ctx, sess, models.ConversationTurn{UserPrompt: prompt, RunningSummary: *summary})
	if err != nil {
		fmt.Printf("Chat failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteChatResponse(os.Stdout, resp, format); err != nil {
		fmt.Printf("Failed to write response: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	remove := fs.Bool("remove", false, "remove the videos ingested from the given files instead")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: assist index [flags] <catalog.json|catalog.jsonl>...")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeLocalIndex(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	failed := false
	for _, path := range fs.Args() {
		if *remove {
			if err := components.Indexer.RemoveFile(ctx, path); err != nil {
				fmt.Printf("Removing %s failed: %v\n", path, err)
				failed = true
				continue
			}
			fmt.Printf("Removed videos from %s\n", path)
			continue
		}
		n, err := components.Indexer.IndexFile(ctx, path)
		if err != nil {
			fmt.Printf("Indexing %s failed: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("Indexed %d video(s) from %s\n", n, path)
	}
	if failed {
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Store
	KeywordIndex keyword.VideoIndex
	Engine       *search.Engine
	Indexer      *indexer.Indexer
	Index        search.Index
	Provider     llm.Provider
	Assistant    *assistant.Assistant
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

// initializeLocalIndex opens the SQLite catalog and Bleve index.
func initializeLocalIndex(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Index.Local.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	keywordIndex, err := keyword.NewBleveIndex(cfg.Index.Local.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	idxOpts := []indexer.IndexerOption{}
	if debug {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	engine := search.NewEngine(store, keywordIndex)
	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Engine:       engine,
		Indexer:      indexer.NewIndexer(store, keywordIndex, idxOpts...),
		Index:        engine,
	}, nil
}

// initializeComponents builds the search index, model provider and assistant.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	var c *Components
	switch cfg.Index.Provider {
	case config.IndexTypesense:
		ts := cfg.Index.Typesense
		client := typesense.NewClient(ts.URL, ts.APIKey, ts.Timeout, logger)
		if err := client.Health(ctx); err != nil {
			logger.Warn("Typesense health check failed", zap.String("url", ts.URL), zap.Error(err))
		}
		c = &Components{Index: client}
	default:
		var err error
		if c, err = initializeLocalIndex(cfg, logger, debug); err != nil {
			return nil, err
		}
	}

	provider, err := llm.NewProvider(ctx, cfg.LLMOptions())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}
	loc, err := cfg.Assistant.Location()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Provider = provider
	c.Assistant = assistant.New(c.Index, assistant.Options{Location: loc}, logger)
	logger.Info("Components initialized",
		zap.String("llm_provider", provider.Name()),
		zap.String("index_provider", cfg.Index.Provider))
	return c, nil
}

func printUsage() {
	fmt.Println(`assist - Conversational video search assistant

Usage:
  assist server [flags]            Start the HTTP server
  assist chat [flags] <prompt>     Run one conversation turn and print the reply
  assist index [flags] <file>...   Ingest catalog files into the local index
  assist version                   Show version
  assist help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/assist/config.yaml)
  --debug            Enable debug logging

Chat Flags:
  --config string    Config file path
  --summary string   Summary of the previous messages
  --format string    Output format: text or json (default: text)
  --debug            Enable debug logging

Index Flags:
  --config string    Config file path
  --remove           Remove the videos ingested from the given files

Environment:
  GEMINI_API_KEY, ASSIST_GEMINI_API_KEY   Gemini API key
  ASSIST_LLM_PROVIDER                     gemini or ollama
  ASSIST_INDEX_PROVIDER                   local or typesense
  ASSIST_TYPESENSE_URL                    Typesense server URL
  ASSIST_TYPESENSE_API_KEY                Typesense API key

Examples:
  assist server
  assist chat "can you find me ted talk videos"
  assist chat --format json --summary "User likes TED" "only ones from last year"
  assist index videos.json more-videos.jsonl`)
}
