package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewURLConfig(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{
			name:     "default cloud URL when empty",
			baseURL:  "",
			expected: DefaultCloudURL,
		},
		{
			name:     "custom URL kept as-is",
			baseURL:  "https://registry.example.com",
			expected: "https://registry.example.com",
		},
		{
			name:     "trailing slash trimmed",
			baseURL:  "https://registry.example.com/",
			expected: "https://registry.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urlConfig := NewURLConfig(tt.baseURL)
			assert.Equal(t, tt.expected, urlConfig.BaseURL)
		})
	}
}

func TestGetClaimURL(t *testing.T) {
	urlConfig := NewURLConfig("https://registry.example.com")

	assert.Equal(t,
		"https://registry.example.com/api/v1/workspaces/agents/agent-123",
		urlConfig.GetClaimURL("agent-123"))

	// Path metacharacters in the id cannot break the endpoint path
	assert.Equal(t,
		"https://registry.example.com/api/v1/workspaces/agents/a%2Fb",
		urlConfig.GetClaimURL("a/b"))
}
