/*
 * Package config provides configuration and URL handling for the netdata agent.
 */
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/eraser-team/netdata/pkg/debug"
)

// DefaultCloudURL is the registry endpoint used when none is configured
const DefaultCloudURL = "https://app.netdata.cloud"

// URLConfig holds the cloud registry URL configuration
type URLConfig struct {
	BaseURL string // Base HTTP URL (http:// or https://)
}

// NewURLConfig creates a new URL configuration from the supplied base URL,
// falling back to the default cloud endpoint when empty.
func NewURLConfig(baseURL string) *URLConfig {
	if baseURL == "" {
		baseURL = DefaultCloudURL
		debug.Debug("Using default cloud URL: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	debug.Info("URL Configuration:")
	debug.Info("  Base URL: %s", baseURL)

	return &URLConfig{BaseURL: baseURL}
}

// GetClaimURL returns the URL for claiming the given agent id
func (c *URLConfig) GetClaimURL(agentID string) string {
	return fmt.Sprintf("%s/api/v1/workspaces/agents/%s", c.BaseURL, url.PathEscape(agentID))
}
