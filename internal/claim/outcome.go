package claim

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eraser-team/netdata/pkg/debug"
)

// Kind classifies the terminal result of a claiming attempt
type Kind int

const (
	Success Kind = iota
	DependencyMissing
	DirectorySetupFailure
	KeyGenerationFailure
	TransportFailure
	UnknownServerError
	InvalidAgentID
	InvalidPublicKey
	TokenExpired
	InvalidToken
	DuplicateAgentID
	AlreadyClaimedElsewhere
	InternalServerError
)

var kindNames = map[Kind]string{
	Success:                 "success",
	DependencyMissing:       "missing dependency",
	DirectorySetupFailure:   "claiming directory setup failed",
	KeyGenerationFailure:    "key generation failed",
	TransportFailure:        "connection to registry failed",
	UnknownServerError:      "unrecognized server error",
	InvalidAgentID:          "invalid agent id",
	InvalidPublicKey:        "invalid public key",
	TokenExpired:            "token has expired",
	InvalidToken:            "invalid token",
	DuplicateAgentID:        "duplicate agent id",
	AlreadyClaimedElsewhere: "claimed in another workspace",
	InternalServerError:     "internal server error",
}

// Process exit codes, fixed for compatibility with calling automation.
// DependencyMissing is retained in the table even though the Go build
// links its crypto and HTTP tooling statically and cannot hit it.
var exitCodes = map[Kind]int{
	Success:                 0,
	DirectorySetupFailure:   2,
	KeyGenerationFailure:    2,
	DependencyMissing:       3,
	TransportFailure:        4,
	UnknownServerError:      5,
	InvalidAgentID:          6,
	InvalidPublicKey:        7,
	TokenExpired:            8,
	InvalidToken:            9,
	DuplicateAgentID:        10,
	AlreadyClaimedElsewhere: 11,
	InternalServerError:     12,
}

// serverErrors maps the registry's error strings to outcome kinds
var serverErrors = map[string]Kind{
	"invalid agent id":             InvalidAgentID,
	"invalid public key":           InvalidPublicKey,
	"token has expired":            TokenExpired,
	"invalid token":                InvalidToken,
	"duplicate agent id":           DuplicateAgentID,
	"claimed in another workspace": AlreadyClaimedElsewhere,
	"internal server error":        InternalServerError,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown kind %d", int(k))
}

// Outcome is the terminal result of one claiming invocation
type Outcome struct {
	Kind    Kind
	Message string
}

// Succeeded reports whether the claim was accepted by the registry
func (o Outcome) Succeeded() bool {
	return o.Kind == Success
}

// ExitCode returns the process exit code for this outcome
func (o Outcome) ExitCode() int {
	return exitCodes[o.Kind]
}

// failure builds a failure outcome with a formatted diagnostic
func failure(kind Kind, format string, args ...interface{}) Outcome {
	return Outcome{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// errorBody is the JSON shape of a registry error response
type errorBody struct {
	Error string `json:"error"`
}

// Interpret classifies the registry's response into a terminal outcome.
// Status 200 is success regardless of body content. Anything else is mapped
// through the server error table; a body that is not JSON, lacks an error
// field, or carries an unrecognized message resolves to UnknownServerError.
func Interpret(resp *Response) Outcome {
	if resp.StatusCode == http.StatusOK {
		debug.Info("Registry accepted the claim")
		return Outcome{Kind: Success, Message: "agent claimed successfully"}
	}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.Error == "" {
		debug.Warning("Registry returned status %d with unparseable body", resp.StatusCode)
		return failure(UnknownServerError, "server returned status %d with no recognizable error", resp.StatusCode)
	}

	if kind, ok := serverErrors[body.Error]; ok {
		debug.Info("Registry rejected the claim: %s", body.Error)
		return failure(kind, "server rejected the claim: %s", body.Error)
	}

	debug.Warning("Registry returned unrecognized error: %s", body.Error)
	return failure(UnknownServerError, "server returned unrecognized error: %s", body.Error)
}
