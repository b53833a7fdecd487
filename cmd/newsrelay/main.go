package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/newsrelay/internal/api"
	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/dashboard"
	"github.com/IshaanNene/newsrelay/internal/engine"
	"github.com/IshaanNene/newsrelay/internal/extractor"
	"github.com/IshaanNene/newsrelay/internal/fetcher"
	"github.com/IshaanNene/newsrelay/internal/settings"
	"github.com/IshaanNene/newsrelay/internal/types"
)

const shutdownTimeout = 30 * time.Second

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsrelay",
		Short: "newsrelay scrapes a news listing page and republishes it as RSS",
		Long: `newsrelay periodically scrapes a university news listing page, stores
new articles, and serves them as an RSS feed next to an operations
dashboard and a JSON API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, logCloser, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := settings.Seed(ctx, a.store, cfg); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	dash, err := dashboard.New(cfg.Feed.Title, config.Version, logger)
	if err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	srv := api.NewServer(cfg, api.Deps{
		Store:     a.store,
		Scheduler: a.scheduler,
		Journal:   a.journal,
		Metrics:   a.metrics,
		Dashboard: dash,
	}, logger)
	if err := srv.Start(); err != nil {
		return err
	}

	logger.Info("newsrelay starting",
		"version", config.Version,
		"source", cfg.Source.URL,
		"store", a.store.Name(),
		"port", cfg.Server.Port,
	)

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	logger.Info("received signal, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-a.scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scrape run did not finish before shutdown timeout")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	return nil
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run a single scrape and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, logCloser, err := setupLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.scheduler.RunScrapeTask(ctx)
			if err := printJSON(res); err != nil {
				return err
			}
			if res.Status == engine.RunFailed {
				return fmt.Errorf("scrape failed: %s", res.Error)
			}
			return nil
		},
	}
}

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "extract <file|url>",
		Short: "Extract candidates from a saved page or a URL without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, logCloser, err := setupLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			body, base, err := readSource(cmd.Context(), cfg, args[0], logger)
			if err != nil {
				return err
			}
			if baseURL != "" {
				base = baseURL
			}

			res, err := extractor.New(cfg.Extractor, logger).Extract(body, base)
			if err != nil {
				return err
			}
			logger.Info("extraction complete",
				"strategy", res.Strategy,
				"candidates", len(res.Candidates),
				"rejected", res.Rejected,
				"failures", len(res.Failures),
			)
			return printJSON(res.Candidates)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base", "", "base URL for resolving links (defaults to source.url for files)")
	return cmd
}

// readSource fetches target when it is an http(s) URL, else reads it as a
// file. It returns the body and the URL links should resolve against.
func readSource(ctx context.Context, cfg *config.Config, target string, logger *slog.Logger) ([]byte, string, error) {
	if config.ValidateURL(target) != nil {
		body, err := os.ReadFile(target)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", target, err)
		}
		return body, cfg.Source.URL, nil
	}

	req, err := types.NewRequest(target)
	if err != nil {
		return nil, "", err
	}
	f := fetcher.NewHTTPFetcher(cfg, logger)
	defer f.Close()

	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, "", err
	}
	logger.Info("page fetched", "url", resp.FinalURL, "status", resp.StatusCode, "bytes", len(resp.Body))
	return resp.Body, resp.FinalURL, nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newsrelay %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
