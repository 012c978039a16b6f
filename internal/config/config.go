/*
 * Package config provides configuration and directory handling for the
 * netdata agent claiming procedure.
 */
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eraser-team/netdata/pkg/debug"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/host"
)

const (
	// DefaultConfigDir is the default directory name for agent configuration.
	// This will be created in the same directory as the executable.
	DefaultConfigDir = "config"

	// ClaimDirName is the claiming state directory under the config directory
	ClaimDirName = "claim.d"

	// MachineIDFile persists the generated agent id under the config directory
	MachineIDFile = "machine_id"
)

// Config holds the resolved inputs to the claiming procedure. It is
// populated once by the CLI layer and passed by value into the core.
type Config struct {
	BaseURL  string   // Cloud registry base URL
	AgentID  string   // Stable identifier for this machine
	Hostname string   // Hostname reported to the registry
	Token    string   // One-time claiming token
	Rooms    []string // Destination rooms to join, may be empty
	ClaimDir string   // Claiming state directory (claim.d)
}

// GetConfigDir returns the path to the agent's configuration directory.
// It checks NETDATA_CONFIG_DIR environment variable first, then falls back
// to a directory next to the executable. The directory is created if it
// doesn't exist.
func GetConfigDir() string {
	var configDir string

	// Check environment variable first (useful for testing)
	if envDir := os.Getenv("NETDATA_CONFIG_DIR"); envDir != "" {
		debug.Info("Using config directory from environment: %s", envDir)

		if filepath.IsAbs(envDir) {
			configDir = envDir
		} else {
			absPath, err := filepath.Abs(envDir)
			if err != nil {
				debug.Error("Failed to resolve absolute path: %v", err)
				configDir = envDir
			} else {
				configDir = absPath
			}
		}
	} else {
		execPath, err := os.Executable()
		if err != nil {
			debug.Error("Could not get executable path: %v", err)
			configDir = DefaultConfigDir
		} else {
			execDir := filepath.Dir(execPath)
			configDir = filepath.Join(execDir, DefaultConfigDir)
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		debug.Error("Failed to create config directory %s: %v", configDir, err)
		// Fall back to current directory if we can't create the intended directory
		configDir = DefaultConfigDir
		debug.Warning("Falling back to default config directory: %s", configDir)
		if err := os.MkdirAll(configDir, 0700); err != nil {
			debug.Error("Failed to create fallback config directory: %v", err)
		}
	}

	debug.Info("Using config directory: %s", configDir)
	return configDir
}

// EnsureClaimDir creates the claiming directory under configDir and verifies
// its permissions. A claiming directory accessible by group or world is a
// misconfiguration and is rejected before any key material is handled.
func EnsureClaimDir(configDir string) (string, error) {
	claimDir := filepath.Join(configDir, ClaimDirName)

	if err := os.MkdirAll(claimDir, 0700); err != nil {
		debug.Error("Failed to create claiming directory %s: %v", claimDir, err)
		return "", fmt.Errorf("failed to create claiming directory: %w", err)
	}

	info, err := os.Stat(claimDir)
	if err != nil {
		return "", fmt.Errorf("failed to stat claiming directory: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		debug.Error("Claiming directory %s has unsafe permissions %04o", claimDir, perm)
		return "", fmt.Errorf("claiming directory %s is accessible by group or world (%04o)", claimDir, perm)
	}

	debug.Info("Using claiming directory: %s", claimDir)
	return claimDir, nil
}

// EnsureAgentID returns the agent id to claim with. An externally supplied
// id wins; otherwise an id is generated once and persisted under configDir
// so the machine keeps the same identity across runs.
func EnsureAgentID(configDir, supplied string) (string, error) {
	if supplied != "" {
		return supplied, nil
	}

	idPath := filepath.Join(configDir, MachineIDFile)
	if data, err := os.ReadFile(idPath); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			debug.Info("Loaded agent id from %s", idPath)
			return id, nil
		}
		debug.Warning("Agent id file %s is empty, regenerating", idPath)
	}

	id := uuid.NewString()
	if err := os.WriteFile(idPath, []byte(id+"\n"), 0600); err != nil {
		debug.Error("Failed to persist agent id: %v", err)
		return "", fmt.Errorf("failed to persist agent id: %w", err)
	}

	debug.Info("Generated new agent id")
	return id, nil
}

// ResolveHostname returns the hostname to report to the registry. An
// externally supplied name wins; otherwise the host metadata is queried,
// falling back to the kernel hostname.
func ResolveHostname(supplied string) string {
	if supplied != "" {
		return supplied
	}

	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		debug.Warning("Could not determine hostname, using 'unknown': %v", err)
		return "unknown"
	}
	return hostname
}

// ParseRooms splits a comma-separated room list into an ordered slice,
// trimming whitespace and dropping empty entries. A nil result is never
// returned so the rooms always serialize as a JSON array.
func ParseRooms(raw string) []string {
	rooms := []string{}
	for _, room := range strings.Split(raw, ",") {
		room = strings.TrimSpace(room)
		if room != "" {
			rooms = append(rooms, room)
		}
	}
	return rooms
}
