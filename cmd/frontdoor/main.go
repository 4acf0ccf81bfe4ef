package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rathix/frontdoor/internal/baseurl"
	appconfig "github.com/rathix/frontdoor/internal/config"
	"github.com/rathix/frontdoor/internal/devproxy"
	"github.com/rathix/frontdoor/internal/server"
)

const defaultAddr = ":4173"

// Version is injected at build time using ldflags.
var Version = "(unknown)"

// config holds all gateway configuration.
type config struct {
	Dev         bool
	ShowVersion bool
	ListenAddr  string
	FrontendDir string
	APIBaseURL  string
	ProxyTarget string
	Host        string
	ConfigFile  string
	LogFormat   string
}

func main() {
	// Quick check for version flag before full config loading
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			fmt.Printf("Frontdoor version %s\n", Version)
			return
		}
	}

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig parses flags and environment variables with precedence: Flag > Env > Default.
// Values left empty here may still be filled from the YAML config file in run.
func loadConfig(args []string) (config, error) {
	fs := flag.NewFlagSet("frontdoor", flag.ContinueOnError)

	cfg := config{}
	fs.BoolVar(&cfg.Dev, "dev", getEnvBool("DEV", false), "development mode: proxy API requests to a local backend")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
	fs.StringVar(&cfg.ListenAddr, "listen-addr", getEnv("LISTEN_ADDR", defaultAddr), "listen address")
	fs.StringVar(&cfg.FrontendDir, "frontend-dir", getEnv("FRONTEND_DIR", "web/build"), "directory with the built frontend assets")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", getEnv("API_BASE_URL", ""), "explicit API base URL override")
	fs.StringVar(&cfg.ProxyTarget, "proxy-target", getEnv("PROXY_TARGET", ""), "backend origin the dev proxy forwards to")
	fs.StringVar(&cfg.Host, "host", getEnv("FRONTDOOR_HOST", "localhost"), "host name the frontend is served under")
	fs.StringVar(&cfg.ConfigFile, "config", getEnv("CONFIG_FILE", ""), "path to YAML config file")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "log format (json or text)")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return config{}, fmt.Errorf("unsupported log format %q: must be \"json\" or \"text\"", cfg.LogFormat)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func setupLogger(format string) *slog.Logger {
	return setupLoggerWithWriter(format, os.Stdout)
}

func setupLoggerWithWriter(format string, writer io.Writer) *slog.Logger {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(writer, nil)
	} else {
		handler = slog.NewTextHandler(writer, nil)
	}
	return slog.New(handler)
}

// firstNonEmpty returns the first value that is non-empty after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// buildRule combines flag/env values with the file config into the active
// proxy rule. Flag and env values win over the file.
func buildRule(cfg config, fileCfg *appconfig.Config, logger *slog.Logger) devproxy.Rule {
	target := cfg.ProxyTarget
	cookieDomain := ""
	pathPrefix := ""
	if fileCfg != nil {
		target = firstNonEmpty(cfg.ProxyTarget, fileCfg.Proxy.Target)
		cookieDomain = fileCfg.Proxy.CookieDomain
		pathPrefix = fileCfg.Proxy.PathPrefix
	}

	rule := devproxy.DefaultRule(target)
	if pathPrefix != "" {
		rule.PathPrefix = pathPrefix
	}
	rule.CookieDomainRewrite = cookieDomain
	return rule.WithObserver(devproxy.NewLogObserver(logger))
}

// run starts the gateway and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	logger := setupLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting Frontdoor", "version", Version)

	// Load the optional YAML config file
	var fileCfg *appconfig.Config
	if cfg.ConfigFile != "" {
		loaded, configErrs := appconfig.Load(cfg.ConfigFile)
		for _, e := range configErrs {
			if loaded == nil {
				slog.Error("Config parse failed, continuing with flag/env values only", "error", e)
			} else {
				slog.Warn("Config validation warning", "error", e)
			}
		}
		fileCfg = loaded
	}

	// Resolve the API base URL once for the process lifetime. Flag/env
	// override wins, then the config file, then the runtime context.
	override := cfg.APIBaseURL
	if fileCfg != nil {
		override = firstNonEmpty(cfg.APIBaseURL, fileCfg.API.BaseURL)
	}
	apiBaseURL := baseurl.Resolve(baseurl.Context{
		Override: override,
		Dev:      cfg.Dev,
		Host:     cfg.Host,
	})
	slog.Info("API base URL resolved", "url", apiBaseURL)

	rule := buildRule(cfg, fileCfg, logger)

	mux := http.NewServeMux()
	mux.Handle("GET "+server.ConfigScriptPath, server.ConfigScriptHandler(apiBaseURL))

	// The proxy is mounted exactly when the frontend will issue same-origin
	// API requests; with an absolute base URL the browser talks to the
	// backend directly and the prefix must fall through to the SPA handler.
	var swapper *devproxy.Swappable
	if strings.HasPrefix(apiBaseURL, "/") {
		proxy, err := devproxy.NewHandler(rule)
		if err != nil {
			return fmt.Errorf("failed to create dev proxy: %w", err)
		}
		swapper = devproxy.NewSwappable(proxy)
		mux.Handle(rule.PathPrefix+"/", swapper)
		mux.Handle(rule.PathPrefix, swapper)
		slog.Info("Dev proxy mounted",
			"prefix", rule.PathPrefix,
			"target", rule.TargetOrigin,
			"verify_tls", rule.VerifyTLSCertificate,
		)
	}

	if _, err := os.Stat(cfg.FrontendDir); err != nil {
		slog.Warn("Frontend directory not found, static requests will 404", "dir", cfg.FrontendDir)
	}
	mux.Handle("/", server.NewSPAHandler(os.DirFS(cfg.FrontendDir)))

	// Hot-reload the proxy target when the config file changes.
	watcherCtx, watcherCancel := context.WithCancel(ctx)
	defer watcherCancel()
	if cfg.ConfigFile != "" && swapper != nil {
		activePrefix := rule.PathPrefix
		watcher := appconfig.NewWatcher(cfg.ConfigFile, 0, func(newCfg *appconfig.Config, errs []error) {
			for _, e := range errs {
				if newCfg == nil {
					slog.Error("Config reload parse failed", "error", e)
				} else {
					slog.Warn("Config reload validation warning", "error", e)
				}
			}
			if newCfg == nil {
				// Keep the last-known-good rule active when reload parsing fails.
				return
			}
			newRule := buildRule(cfg, newCfg, logger)
			if newRule.PathPrefix != activePrefix {
				slog.Warn("Path prefix change requires a restart, keeping current prefix",
					"active", activePrefix, "configured", newRule.PathPrefix)
				newRule.PathPrefix = activePrefix
			}
			proxy, err := devproxy.NewHandler(newRule)
			if err != nil {
				slog.Error("Config reload produced unusable proxy rule", "error", err)
				return
			}
			swapper.Swap(proxy)
			slog.Info("Proxy rule reloaded", "target", newRule.TargetOrigin)
		}, logger)
		go func() {
			if err := watcher.Run(watcherCtx); err != nil && watcherCtx.Err() == nil {
				slog.Warn("config watcher stopped with error", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	// Channel to catch server errors
	serverError := make(chan error, 1)

	go func() {
		slog.Info("Listening", "addr", cfg.ListenAddr, "frontend_dir", cfg.FrontendDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down gracefully...")
		watcherCancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server stopped")
	case err := <-serverError:
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
