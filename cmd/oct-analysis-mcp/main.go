package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/oct-analysis-mcp/internal/config"
	"github.com/ironsheep/oct-analysis-mcp/internal/cv"
	"github.com/ironsheep/oct-analysis-mcp/internal/logger"
	"github.com/ironsheep/oct-analysis-mcp/internal/server"
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
			fmt.Printf("oct-analysis-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Vision backend: %s\n", cv.Backend())
			return
		case "--help", "-h", "help":
			fmt.Println("oct-analysis-mcp - MCP server for OCT image filtering")
			fmt.Println()
			fmt.Println("Usage: oct-analysis-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  OCT_MCP_LOG_LEVEL=debug|info|warn|error   Log level (default info)")
			fmt.Println("  OCT_MCP_LOG_FORMAT=console|json           Log format (default console)")
			fmt.Println("  OCT_MCP_OUTPUT_DIR=<dir>                  Where image_export writes (default .)")
			fmt.Println("  OCT_MCP_CLAMP_THRESHOLDS=true|false       Clamp thresholds to 0-255 (default true)")
			fmt.Println("  OCT_MCP_PREVIEW_WIDTH=<pixels>            Stage preview width (default 200)")
			fmt.Println("  OCT_MCP_ADAPTIVE_METHOD=gaussian|mean     Adaptive threshold weighting (default gaussian)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr (stdout is for MCP protocol)
	log := logger.ForFormat(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	log.Debug().
		Str("version", Version).
		Str("built", BuildTime).
		Str("commit", GitCommit).
		Str("backend", cv.Backend()).
		Str("output_dir", cfg.OutputDir).
		Msg("starting OCT analysis MCP server")

	srv := server.NewWithConfig(cfg, log)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
