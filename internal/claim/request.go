/*
 * Package claim implements the cloud claiming procedure for the netdata
 * agent: a one-time enrollment that proves ownership of the machine
 * identity to the registry with a public key and a bearer token.
 */
package claim

import "encoding/json"

// AgentIdentity identifies the machine being claimed
type AgentIdentity struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
}

// ClaimRequest is the wire payload sent to the registry. It is constructed
// fresh on every invocation and never persisted.
type ClaimRequest struct {
	Agent     AgentIdentity `json:"agent"`
	Token     string        `json:"token"`
	Rooms     []string      `json:"rooms"`
	PublicKey string        `json:"publicKey"`
}

// BuildClaimRequest assembles the enrollment payload. Free-text fields are
// taken as supplied; semantic validation is the registry's job. A nil room
// list becomes an empty one so it serializes as [] rather than null.
func BuildClaimRequest(identity AgentIdentity, token string, rooms []string, publicKey string) ClaimRequest {
	if rooms == nil {
		rooms = []string{}
	}
	return ClaimRequest{
		Agent:     identity,
		Token:     token,
		Rooms:     rooms,
		PublicKey: publicKey,
	}
}

// Marshal serializes the request to a single JSON object. The encoder
// escapes quotes, backslashes and the PEM newlines, so the payload cannot
// be structurally corrupted by its inputs.
func (r ClaimRequest) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
