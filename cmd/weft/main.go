// Package main is the weft CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/weftlab/weft/internal/builder"
	"github.com/weftlab/weft/internal/catalog"
	"github.com/weftlab/weft/internal/cli"
	"github.com/weftlab/weft/internal/config"
	"github.com/weftlab/weft/internal/models"
	"github.com/weftlab/weft/internal/neighbors"
	"github.com/weftlab/weft/internal/server"
	"github.com/weftlab/weft/internal/store"
	"github.com/weftlab/weft/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/weft/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "weft serve" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
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
	case "build":
		runBuild()
	case "serve":
		runServe()
	case "similar":
		runSimilar()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("weft version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedPath))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	res, err := components.Builder.Build(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRunSummary(os.Stdout, res.Run, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	nb := loadOrBuildIndex(ctx, cfg, components, logger)

	srv := server.NewServer(cfg, components.Store, components.Builder, nb,
		components.Catalog, version, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// loadOrBuildIndex serves stored embeddings when present; with an empty
// store and configured inputs it runs an initial build so a fresh install
// serves data without a separate build step.
func loadOrBuildIndex(ctx context.Context, cfg *config.Config, components *Components, logger *zap.Logger) *neighbors.Index {
	embs, err := components.Store.ListEmbeddings(ctx)
	if err == nil && len(embs) > 0 {
		nb, idxErr := neighbors.FromEmbeddings(embs)
		if idxErr == nil {
			logger.Info("neighbor index loaded from store",
				zap.Int("items", nb.Size()), zap.Int("dim", nb.Dim()))
			return nb
		}
		logger.Warn("stored embeddings unusable", zap.Error(idxErr))
	}
	if len(cfg.Inputs.Paths) == 0 {
		logger.Warn("no stored embeddings and no inputs configured; serving empty")
		return nil
	}
	res, err := components.Builder.Build(ctx)
	if err != nil {
		logger.Warn("initial build failed; serving empty until next rebuild", zap.Error(err))
		return nil
	}
	return res.Neighbors
}

func runSimilar() {
	args := reorderFlagsFirst(os.Args[2:])
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	itemID := fs.String("id", "", "item identifier to query")
	limit := fs.Int("limit", 10, "number of neighbors")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	id := *itemID
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		fmt.Println("Usage: weft similar [flags] <item-id>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	var response *models.SimilarResponse
	if *serverURL != "" {
		response, err = similarViaHTTP(*serverURL, id, *limit)
		if err != nil {
			// Server unreachable or errored; fall back to the store.
			response, err = similarViaStore(*configPath, id, *limit)
		}
	} else {
		response, err = similarViaStore(*configPath, id, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Similar query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSimilarResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func similarViaHTTP(serverURL, id string, limit int) (*models.SimilarResponse, error) {
	u := fmt.Sprintf("%s/api/v1/items/%s/similar?limit=%d",
		serverURL, url.PathEscape(id), limit)
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SimilarResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func similarViaStore(configPath, id string, limit int) (*models.SimilarResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	embs, err := components.Store.ListEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if len(embs) == 0 {
		return nil, fmt.Errorf("no embeddings stored; run \"weft build\" first")
	}
	nb, err := neighbors.FromEmbeddings(embs)
	if err != nil {
		return nil, err
	}
	query := &models.SimilarQuery{ItemID: id, Limit: limit}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	hits, err := nb.SearchByID(query.ItemID, query.Limit)
	if err != nil {
		return nil, err
	}
	if components.Catalog != nil {
		for _, h := range hits {
			h.Title = components.Catalog.Title(ctx, h.ItemID)
		}
	}
	return &models.SimilarResponse{
		Query:     id,
		Neighbors: hits,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *models.Status
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
		if err != nil {
			status, err = statusViaStore(*configPath)
		}
	} else {
		status, err = statusViaStore(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*models.Status, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s models.Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func statusViaStore(configPath string) (*models.Status, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	items, err := components.Store.CountItems(ctx)
	if err != nil {
		return nil, err
	}
	status := &models.Status{Items: int(items), Version: version}
	if run, runErr := components.Store.LatestRun(ctx); runErr == nil {
		status.LatestRun = run
	}
	if components.Catalog != nil {
		status.CatalogEnabled = true
		if n, cntErr := components.Catalog.Count(); cntErr == nil {
			status.CatalogSize = n
		}
	}
	return status, nil
}

// reorderFlagsFirst moves flags (and their values) that appear after a
// positional argument to the front of the slice so flag.Parse() sees them.
// Go's flag package stops at the first non-flag argument, so
// "weft similar i1 -limit 5" would otherwise leave -limit unparsed.
func reorderFlagsFirst(args []string) []string {
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

// Components holds initialized services.
type Components struct {
	Store   store.Store
	Catalog *catalog.Catalog
	Builder *builder.Builder
}

func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	// The catalog only exists when an items metadata file is configured.
	var cat *catalog.Catalog
	if cfg.Inputs.ItemsPath != "" {
		cat, err = catalog.Open(cfg.Storage.CatalogPath)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
	}

	opts := []builder.Option{builder.WithLogger(logger)}
	if cat != nil {
		opts = append(opts, builder.WithCatalog(cat))
	}
	b := builder.New(cfg, st, opts...)

	return &Components{Store: st, Catalog: cat, Builder: b}, nil
}

func printUsage() {
	fmt.Println(`weft - collaborative-filtering item embeddings

Usage:
  weft build [flags]              Run the pipeline once and store embeddings
  weft serve [flags]              Start the HTTP server
  weft similar [flags] <item-id>  Query nearest items
  weft status [flags]             Show store/run status
  weft version                    Show version
  weft help                       Show this help

Build Flags:
  --config string    Config file path (default: /usr/local/etc/weft/config.yaml)
  --output string    Output format: text or json (default: text)

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging (watch events, stage timing, etc.)

Similar Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --id string        Item identifier (alternative to the positional argument)
  --limit int        Number of neighbors (default: 10)
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  weft build
  weft serve
  weft similar i42
  weft similar --limit 5 --output json i42
  weft status --output json`)
}
