package claim

import (
	"context"

	"github.com/eraser-team/netdata/internal/config"
	"github.com/eraser-team/netdata/internal/keystore"
	"github.com/eraser-team/netdata/pkg/console"
	"github.com/eraser-team/netdata/pkg/debug"
)

// Run executes the whole claiming procedure with an already-resolved
// configuration: ensure the keypair, build the payload, perform the
// exchange and commit the verdict. It is single-threaded and
// run-to-completion; the only blocking operation is the network call.
func Run(ctx context.Context, cfg config.Config) Outcome {
	state := NewState(cfg.ClaimDir)

	if state.IsClaimed() {
		debug.Info("Success marker present, nothing to do")
		console.Success("Agent is already claimed")
		return Outcome{Kind: Success, Message: "agent already claimed"}
	}

	console.Status("Ensuring agent keypair...")
	keypair, err := keystore.EnsureKeypair(cfg.ClaimDir)
	if err != nil {
		console.Error("Key generation failed: %v", err)
		return failure(KeyGenerationFailure, "key generation failed: %v", err)
	}

	request := BuildClaimRequest(
		AgentIdentity{ID: cfg.AgentID, Hostname: cfg.Hostname},
		cfg.Token,
		cfg.Rooms,
		string(keypair.PublicPEM),
	)
	payload, err := request.Marshal()
	if err != nil {
		console.Error("Failed to encode claim request: %v", err)
		return failure(KeyGenerationFailure, "failed to encode claim request: %v", err)
	}

	transport, err := NewTransport(cfg.ClaimDir)
	if err != nil {
		console.Error("Failed to prepare connection: %v", err)
		return failure(TransportFailure, "failed to prepare connection: %v", err)
	}

	urlConfig := config.NewURLConfig(cfg.BaseURL)
	claimURL := urlConfig.GetClaimURL(cfg.AgentID)

	console.Status("Claiming agent %s with the registry...", cfg.AgentID)
	resp, err := transport.Send(ctx, claimURL, payload)
	if err != nil {
		console.Error("Could not reach the registry: %v", err)
		return failure(TransportFailure, "could not reach the registry: %v", err)
	}

	outcome := Interpret(resp)
	if err := state.Commit(outcome); err != nil {
		console.Error("Failed to record claim result: %v", err)
		return failure(DirectorySetupFailure, "failed to record claim result: %v", err)
	}

	if outcome.Succeeded() {
		console.Success("%s", outcome.Message)
	} else {
		console.Error("%s", outcome.Message)
	}
	return outcome
}
