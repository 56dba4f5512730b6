package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/patch-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("patch-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("patch-tools-mcp - MCP server for mirror-boundary patch extraction")
			fmt.Println()
			fmt.Println("Usage: patch-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug      Log level (trace, debug, info, warn, error)\n", envLogLevel)
			fmt.Printf("  %s=4            Goroutines for region extraction (0 = all CPUs)\n", envWorkers)
			fmt.Printf("  %s=65536     Max centres per window_features_region call\n", envMaxRegion)
			fmt.Printf("  %s=255       Max window_size for every window tool\n", envMaxWindow)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// stdout is for MCP protocol
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, warnings := loadConfig(os.Getenv)
	logger.SetLevel(cfg.Level)
	for _, w := range warnings {
		logger.Warn(w)
	}

	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
		"workers":    cfg.Workers,
		"max_region": cfg.MaxRegion,
		"max_window": cfg.MaxWindowSize,
	}).Debug("starting patch MCP server")

	srv := server.New(server.Config{
		Workers:   cfg.Workers,
		MaxRegion:     cfg.MaxRegion,
		MaxWindowSize: cfg.MaxWindowSize,
		Logger:        logger,
	})
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
