// Package main is the Shirabe CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/cli"
	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/embedding"
	"github.com/hyperjump/shirabe/internal/engine"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/power"
	"github.com/hyperjump/shirabe/internal/server"
	"github.com/hyperjump/shirabe/internal/watcher"
	"github.com/hyperjump/shirabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shirabe/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
// A missing default config is not an error; built-in defaults apply.
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
		if _, statErr := os.Stat(path); statErr != nil {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "search":
		runSearch()
	case "add":
		runAdd()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "export":
		runExport()
	case "import":
		runImport()
	case "version", "--version", "-v":
		fmt.Printf("shirabe version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: shirabe <command> [flags]

Commands:
  server    Run the search server
  search    Search a running server
  add       Add documents to a running server
  delete    Delete a document from a running server
  status    Show index status of a running server
  export    Download a snapshot of the index
  import    Replace the index from a snapshot file
  version   Print version
  help      Show this help
`)
}

// buildEngine constructs the engine from config, including the cached
// built-in embedder and the query cache power when enabled.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*engine.Engine, error) {
	embedder := embedding.NewCachingEmbedder(
		embedding.NewHashEmbedder(cfg.Embedding.Dimensions),
		cfg.Embedding.CacheSize,
	)
	eng, err := engine.New(
		engine.OptionsFromConfig(cfg),
		engine.WithLogger(logger),
		engine.WithEmbedder(embedder),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Enabled {
		qc := power.NewQueryCache(power.QueryCacheOptions{
			MaxSize: cfg.Cache.MaxSize,
			TTL:     time.Duration(cfg.Cache.TTLMilli) * time.Millisecond,
		})
		if err := eng.Use(qc); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func loadSnapshot(eng *engine.Engine, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var entries []models.ExportedDocument
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if err := eng.Import(context.Background(), entries); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	logger.Info("snapshot loaded", zap.String("path", path), zap.Int("documents", len(entries)))
	return nil
}

func saveSnapshot(eng *engine.Engine, path string, logger *zap.Logger) error {
	entries := eng.Export()
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	logger.Info("snapshot saved", zap.String("path", path), zap.Int("documents", len(entries)))
	return nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
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

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}

	if cfg.Snapshot.Path != "" {
		if err := loadSnapshot(eng, cfg.Snapshot.Path, logger); err != nil {
			logger.Fatal("Failed to load snapshot", zap.Error(err))
		}
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Snapshot.Path != "" && cfg.Snapshot.Watch {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		snapWatch := watcher.NewWatcher(cfg.Snapshot.Path, func(path string) {
			if err := loadSnapshot(eng, path, logger); err != nil {
				logger.Warn("snapshot reload failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err := snapWatch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start snapshot watcher", zap.Error(err))
		}
		defer snapWatch.Stop()
	}

	srv := server.NewServer(eng, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Snapshot.Path != "" {
		if err := saveSnapshot(eng, cfg.Snapshot.Path, logger); err != nil {
			logger.Warn("snapshot save failed", zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	k := fs.Int("k", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe search [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: shirabe search [flags] <query>")
		os.Exit(1)
	}

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	var resp server.SearchResponse
	if err := postJSON(*serverURL+"/api/v1/search", &server.SearchRequest{Query: queryStr, K: *k}, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, queryStr, resp.Results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	id := fs.String("id", "", "document id (generated when empty)")
	file := fs.String("file", "", "read content from file instead of arguments")
	_ = fs.Parse(os.Args[2:])

	var content string
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
			os.Exit(1)
		}
		content = string(data)
	} else {
		content = buildSearchQuery(fs.Args())
	}
	if content == "" {
		fmt.Println("Usage: shirabe add [flags] <content>")
		os.Exit(1)
	}

	var resp map[string]interface{}
	doc := models.Document{ID: *id, Content: content}
	if err := postJSON(*serverURL+"/api/v1/documents", []models.Document{doc}, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed: %v\n", resp["ids"])
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe delete [flags] <id>")
		os.Exit(1)
	}
	id := fs.Arg(0)
	req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents/"+id, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		fmt.Printf("Not found: %s\n", id)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("Deleted: %s\n", id)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Documents: %d\nRouting:   %s\nPowers:    %s\n",
		status.Documents, status.Routing, strings.Join(status.Powers, ", "))
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	out := fs.String("out", "", "output file (stdout when empty)")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/export")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported to %s\n", *out)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe import [flags] <snapshot.json>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read snapshot: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.Post(*serverURL+"/api/v1/import", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Println("Imported")
}

func postJSON(url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
