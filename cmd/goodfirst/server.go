package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/goodfirst/goodfirst/internal/api"
	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/config"
	"github.com/goodfirst/goodfirst/internal/ingest"
	"github.com/goodfirst/goodfirst/internal/recommend"
	"github.com/goodfirst/goodfirst/internal/skills"
	"github.com/goodfirst/goodfirst/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the goodfirst server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running goodfirst server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show goodfirst system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "goodfirst.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "goodfirst version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Ensure API token exists in platform secret store.
	apiToken, err := config.EnsureAPIToken()
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("goodfirst is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("goodfirst is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Load the quiz taxonomy and profile manager.
	taxonomy, err := skills.LoadTaxonomy(cfg.Taxonomy.Path)
	if err != nil {
		return fmt.Errorf("loading taxonomy: %w", err)
	}
	profiles := skills.NewManager(store)

	// Pick the issue catalog backend.
	var source catalog.Source
	switch cfg.Catalog.Source {
	case "github":
		source = catalog.NewGitHubSource(cfg.Catalog.GitHubBaseURL, slog.Default(),
			catalog.WithGitHubToken(cfg.Catalog.GitHubToken),
			catalog.WithPerKeyword(cfg.Catalog.PerKeyword),
		)
	default:
		source = catalog.NewMatchSource(cfg.Catalog.BaseURL, slog.Default(),
			catalog.WithTimeout(cfg.CatalogTimeout()),
		)
	}
	slog.Info("issue catalog configured", "source", cfg.Catalog.Source)

	recommender := recommend.NewService(profiles, source, slog.Default())

	// Build HTTP handler and server.
	appHandler := api.NewAppHandler(api.AppDeps{
		Store:       store,
		Profiles:    profiles,
		Taxonomy:    taxonomy,
		Recommender: recommender,
		Token:       apiToken,
		MaxResults:  cfg.Catalog.MaxResults,
		TopKSkills:  cfg.Matching.TopKSkills,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// Start resume extraction worker.
	worker := ingest.NewWorker(store, taxonomy, profiles, cfg.Matching.TopKSkills, 500*time.Millisecond)
	go worker.Run(ctx)

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:       store,
		Profiles:    profiles,
		Taxonomy:    taxonomy,
		Recommender: recommender,
		MaxResults:  cfg.Catalog.MaxResults,
		TopKSkills:  cfg.Matching.TopKSkills,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "goodfirst listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("goodfirst is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop goodfirst (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to goodfirst (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Catalog", "%s", cfg.Catalog.Source)
	switch cfg.Catalog.Source {
	case "github":
		printStatus("Catalog URL", "%s", cfg.Catalog.GitHubBaseURL)
	default:
		printStatus("Catalog URL", "%s", cfg.Catalog.BaseURL)
	}
	printStatus("Top skills", "%d", cfg.Matching.TopKSkills)

	// Show assessment/history counts if server is running.
	apiToken, tokenErr := config.EnsureAPIToken()
	if tokenErr == nil && resp != nil && resp.StatusCode == 200 {
		assessResp, err := apiGet(client, serverURL+"/v1/assessments", apiToken)
		if err == nil {
			var assessments []json.RawMessage
			if json.NewDecoder(assessResp.Body).Decode(&assessments) == nil {
				printStatus("Assessments", "%d", len(assessments))
			}
			assessResp.Body.Close()
		}
		histResp, err2 := apiGet(client, serverURL+"/v1/history?limit=100", apiToken)
		if err2 == nil {
			var entries []json.RawMessage
			if json.NewDecoder(histResp.Body).Decode(&entries) == nil {
				printStatus("History", "%s", countLabel(len(entries), 100))
			}
			histResp.Body.Close()
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}

func apiGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
