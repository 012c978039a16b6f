package claim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eraser-team/netdata/pkg/debug"
)

const (
	// TokenFile holds the pending claim token, deleted on success
	TokenFile = "token"

	// RoomsFile holds the persisted room list, as supplied
	RoomsFile = "rooms"

	// ClaimedMarkerFile is the empty file whose presence records a
	// previously completed successful claim
	ClaimedMarkerFile = "is_claimed"

	statePerms = 0600
)

// State owns the durable claiming markers in the claiming directory.
// Concurrent invocations against the same directory are not supported;
// single-instance execution is a caller obligation.
type State struct {
	Dir string
}

// NewState returns the enrollment state rooted at dir
func NewState(dir string) *State {
	return &State{Dir: dir}
}

// IsClaimed reports whether a previous invocation completed successfully
func (s *State) IsClaimed() bool {
	_, err := os.Stat(filepath.Join(s.Dir, ClaimedMarkerFile))
	return err == nil
}

// SaveToken persists the pending claim token so a failed attempt can be
// retried without re-supplying it
func (s *State) SaveToken(token string) error {
	path := filepath.Join(s.Dir, TokenFile)
	if err := os.WriteFile(path, []byte(token+"\n"), statePerms); err != nil {
		return fmt.Errorf("failed to save claim token: %w", err)
	}
	debug.Debug("Saved pending claim token to %s", path)
	return nil
}

// PendingToken returns the stored claim token, or "" when none is pending
func (s *State) PendingToken() string {
	data, err := os.ReadFile(filepath.Join(s.Dir, TokenFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveRooms persists the room list as supplied
func (s *State) SaveRooms(raw string) error {
	path := filepath.Join(s.Dir, RoomsFile)
	if err := os.WriteFile(path, []byte(raw+"\n"), statePerms); err != nil {
		return fmt.Errorf("failed to save rooms: %w", err)
	}
	debug.Debug("Saved rooms to %s", path)
	return nil
}

// PendingRooms returns the stored room list, or "" when none was persisted
func (s *State) PendingRooms() string {
	data, err := os.ReadFile(filepath.Join(s.Dir, RoomsFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Commit records the outcome of a completed attempt. On success the marker
// is created and the stored token deleted, so a re-run without a fresh
// token cannot silently re-claim. On failure every existing file is left
// untouched so the operation stays retryable.
func (s *State) Commit(o Outcome) error {
	if !o.Succeeded() {
		debug.Debug("Claim failed (%s), leaving enrollment state untouched", o.Kind)
		return nil
	}

	markerPath := filepath.Join(s.Dir, ClaimedMarkerFile)
	if err := os.WriteFile(markerPath, nil, statePerms); err != nil {
		return fmt.Errorf("failed to write success marker: %w", err)
	}

	tokenPath := filepath.Join(s.Dir, TokenFile)
	if err := os.Remove(tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove consumed token: %w", err)
	}

	debug.Info("Recorded successful claim in %s", s.Dir)
	return nil
}
