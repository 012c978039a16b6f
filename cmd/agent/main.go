package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eraser-team/netdata/internal/claim"
	"github.com/eraser-team/netdata/internal/config"
	"github.com/eraser-team/netdata/internal/version"
	"github.com/eraser-team/netdata/pkg/console"
	"github.com/eraser-team/netdata/pkg/debug"
	"github.com/joho/godotenv"
)

// agentConfig holds the raw command-line inputs before resolution
type agentConfig struct {
	token       string // One-time claiming token
	rooms       string // Comma-separated room list
	url         string // Cloud registry base URL
	id          string // Agent id override
	hostname    string // Hostname override
	configDir   string // Configuration directory override
	debug       bool   // Enable debug logging
	showVersion bool   // Print version and exit
}

/*
 * main is the entry point for the netdata agent claiming tool.
 *
 * It performs the following operations:
 * 1. Parses flags and loads the .env file
 * 2. Resolves the claiming configuration (dirs, id, hostname, token, rooms)
 * 3. Runs the claiming procedure against the cloud registry
 * 4. Exits with the outcome's fixed exit code
 */
func main() {
	cfg := agentConfig{}
	fs := flag.NewFlagSet("netdata-claim", flag.ContinueOnError)
	fs.StringVar(&cfg.token, "token", "", "One-time claiming token (required for first-time claiming)")
	fs.StringVar(&cfg.rooms, "rooms", "", "Comma-separated list of rooms the agent should join")
	fs.StringVar(&cfg.url, "url", "", "Cloud registry base URL (default "+config.DefaultCloudURL+")")
	fs.StringVar(&cfg.id, "id", "", "Agent id (default: generated once and persisted)")
	fs.StringVar(&cfg.hostname, "hostname", "", "Hostname to report (default: system hostname)")
	fs.StringVar(&cfg.configDir, "config-dir", "", "Configuration directory for keys and claiming state")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		// The flag package already printed the diagnostic and usage
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unrecognized argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if cfg.showVersion {
		fmt.Println(version.GetVersion())
		os.Exit(0)
	}

	// Set debug environment variables before any logging happens
	if cfg.debug {
		os.Setenv("DEBUG", "true")
		os.Setenv("LOG_LEVEL", "DEBUG")
	}
	debug.Reinitialize()

	loadEnvFile()

	// Reinitialize debug with values the .env file may have set
	debug.Reinitialize()

	if cfg.configDir != "" {
		os.Setenv("NETDATA_CONFIG_DIR", cfg.configDir)
	}
	configDir := config.GetConfigDir()

	claimDir, err := config.EnsureClaimDir(configDir)
	if err != nil {
		console.Error("Cannot set up claiming directory: %v", err)
		os.Exit(2)
	}

	state := claim.NewState(claimDir)

	agentID, err := config.EnsureAgentID(configDir, firstNonEmpty(cfg.id, os.Getenv("NETDATA_CLAIM_ID")))
	if err != nil {
		console.Error("Cannot resolve agent id: %v", err)
		os.Exit(2)
	}

	// A token supplied now is persisted before the exchange so a failed
	// attempt stays retryable without re-supplying it
	token := firstNonEmpty(cfg.token, os.Getenv("NETDATA_CLAIM_TOKEN"))
	if token != "" {
		if err := state.SaveToken(token); err != nil {
			console.Error("Cannot persist claiming token: %v", err)
			os.Exit(2)
		}
	} else {
		token = state.PendingToken()
	}
	if token == "" && !state.IsClaimed() {
		fmt.Fprintln(os.Stderr, "a claiming token is required: pass -token or set NETDATA_CLAIM_TOKEN")
		fs.Usage()
		os.Exit(1)
	}

	roomsRaw := firstNonEmpty(cfg.rooms, os.Getenv("NETDATA_CLAIM_ROOMS"))
	if roomsRaw != "" {
		if err := state.SaveRooms(roomsRaw); err != nil {
			debug.Warning("Could not persist rooms: %v", err)
		}
	} else {
		roomsRaw = state.PendingRooms()
	}

	resolved := config.Config{
		BaseURL:  firstNonEmpty(cfg.url, os.Getenv("NETDATA_CLAIM_URL")),
		AgentID:  agentID,
		Hostname: config.ResolveHostname(cfg.hostname),
		Token:    token,
		Rooms:    config.ParseRooms(roomsRaw),
		ClaimDir: claimDir,
	}

	outcome := claim.Run(context.Background(), resolved)
	os.Exit(outcome.ExitCode())
}

// loadEnvFile loads the .env file from the path in NETDATA_ENV_FILE, the
// current directory, or the executable's directory, in that order.
func loadEnvFile() {
	if envFilePath := os.Getenv("NETDATA_ENV_FILE"); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			debug.Warning("Failed to load .env from %s: %v", envFilePath, err)
		} else {
			debug.Info("Loaded .env from %s", envFilePath)
			return
		}
	}

	if err := godotenv.Load(".env"); err == nil {
		debug.Info("Loaded .env from current directory")
		return
	}

	if execPath, err := os.Executable(); err == nil {
		execEnvPath := filepath.Join(filepath.Dir(execPath), ".env")
		if err := godotenv.Load(execEnvPath); err == nil {
			debug.Info("Loaded .env from %s", execEnvPath)
			return
		}
	}

	debug.Debug("No .env file found, using flags and environment only")
}

// firstNonEmpty returns the first non-empty value
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
