// Worldtime serves timezone and world clock tools over the Model Context Protocol,
// backed by worldtimeapi.org and TimeZoneDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sabbour/worldtime-mcp-go/internal/config"
	"github.com/sabbour/worldtime-mcp-go/internal/httpserver"
	"github.com/sabbour/worldtime-mcp-go/internal/telemetry"
	"github.com/sabbour/worldtime-mcp-go/internal/tools"
	"github.com/sabbour/worldtime-mcp-go/internal/upstream"
)

// Build-time variables (set by ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	CommitSHA = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   = flag.String("config", "", "Path to a TOML or YAML config file")
		httpMode     = flag.Bool("http", false, "Serve over streamable HTTP instead of stdio")
		host         = flag.String("host", "127.0.0.1", "Host interface to bind the HTTP server")
		port         = flag.Int("port", 3000, "Port for the HTTP server")
		apiKey       = flag.String("api-key", "", "Optional API key required for incoming HTTP requests")
		stateless    = flag.Bool("stateless", false, "Enable stateless HTTP mode (no session reuse)")
		otlpEndpoint = flag.String("otlp-endpoint", "", "OTLP/HTTP endpoint to export traces to")
		verbose      = flag.Bool("verbose", false, "Enable verbose debug logging")
		quiet        = flag.Bool("quiet", false, "Suppress all output except errors")
		version      = flag.Bool("version", false, "Show version information")
		printConfig  = flag.Bool("print-config", false, "Print a config file with the defaults and exit")
	)

	flag.Parse()

	if *version {
		fmt.Printf("Worldtime MCP server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Commit: %s\n", CommitSHA)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return 0
	}

	if *printConfig {
		fmt.Print(config.Template())
		return 0
	}

	// stdout carries the protocol in stdio mode, so everything is logged to stderr.
	logger := log.New(os.Stderr, "[worldtime] ", log.LstdFlags)

	var debug *log.Logger
	if *verbose && !*quiet {
		debug = logger
	}

	logInfo := func(format string, args ...any) {
		if !*quiet {
			logger.Printf("INFO: "+format, args...)
		}
	}

	logWarn := func(format string, args ...any) {
		if !*quiet {
			logger.Printf("WARN: "+format, args...)
		}
	}

	logError := func(format string, args ...any) {
		logger.Printf("ERROR: "+format, args...)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logError("%v", err)
		return 1
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http":
			cfg.HTTP.Enabled = *httpMode
		case "host":
			cfg.HTTP.Host = *host
		case "port":
			cfg.HTTP.Port = *port
		case "api-key":
			cfg.HTTP.APIKey = *apiKey
		case "stateless":
			cfg.HTTP.Stateless = *stateless
		case "otlp-endpoint":
			cfg.Telemetry.OTLPEndpoint = *otlpEndpoint
		}
	})

	if err := cfg.Validate(); err != nil {
		logError("invalid configuration: %v", err)
		return 2
	}
	calendar, _ := cfg.Calendar()

	if cfg.TimezoneDB.APIKey == "" {
		logWarn("TIMEZONE_DB_API_KEY is not set, TimeZoneDB requests will be rejected upstream")
	}

	ctx := context.Background()

	tp, err := telemetry.New(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
	})
	if err != nil {
		logError("failed to set up tracing: %v", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logError("trace flush: %v", err)
		}
	}()

	upstreamOpts := upstream.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
		Tracer:    tp.Tracer(),
		Debug:     debug,
	}

	mcpServer := tools.NewServer(tools.Deps{
		WorldTime:  upstream.NewWorldTime(cfg.WorldTime.BaseURL, upstreamOpts),
		TimezoneDB: upstream.NewTimezoneDB(cfg.TimezoneDB.BaseURL, cfg.TimezoneDB.APIKey, upstreamOpts),
		Calendar:   calendar,
		Tracer:     tp.Tracer(),
		Debug:      debug,
		Version:    Version,
	})

	if debug != nil {
		debug.Printf("DEBUG: worldtime=%s timezonedb=%s calendar=%s timeout=%s",
			cfg.WorldTime.BaseURL, cfg.TimezoneDB.BaseURL, calendar, cfg.RequestTimeout)
	}

	if !cfg.HTTP.Enabled {
		logInfo("Worldtime server running on stdio")
		if err := server.ServeStdio(mcpServer, server.WithErrorLogger(logger)); err != nil {
			logError("stdio server: %v", err)
			return 1
		}
		return 0
	}

	srv, err := httpserver.Start(httpserver.Options{
		Host:      cfg.HTTP.Host,
		Port:      cfg.HTTP.Port,
		APIKey:    cfg.HTTP.APIKey,
		MCP:       mcpServer,
		Stateless: cfg.HTTP.Stateless,
		Logger:    logger,
		Debug:     debug,
	})
	if err != nil {
		logError("failed to start http server on %s: %v", cfg.HTTPAddr(), err)
		return 1
	}

	logInfo("listening on %s", srv.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	select {
	case <-sigCh:
	case err, ok := <-srv.Errors():
		if ok && err != nil {
			code = 1
		}
	}

	logInfo("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil {
		logError("shutdown error: %v", err)
	}
	return code
}
