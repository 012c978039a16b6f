package claim

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpret_SuccessRegardlessOfBody(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "empty body", body: nil},
		{name: "json body", body: []byte(`{"ok":true}`)},
		{name: "garbage body", body: []byte("not json at all")},
		{name: "error field present", body: []byte(`{"error":"invalid token"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Interpret(&Response{StatusCode: http.StatusOK, Body: tt.body})
			assert.True(t, outcome.Succeeded())
			assert.Equal(t, 0, outcome.ExitCode())
		})
	}
}

func TestInterpret_NamedServerErrors(t *testing.T) {
	tests := []struct {
		message  string
		kind     Kind
		exitCode int
	}{
		{"invalid agent id", InvalidAgentID, 6},
		{"invalid public key", InvalidPublicKey, 7},
		{"token has expired", TokenExpired, 8},
		{"invalid token", InvalidToken, 9},
		{"duplicate agent id", DuplicateAgentID, 10},
		{"claimed in another workspace", AlreadyClaimedElsewhere, 11},
		{"internal server error", InternalServerError, 12},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			body := []byte(fmt.Sprintf(`{"error":%q}`, tt.message))
			outcome := Interpret(&Response{StatusCode: http.StatusForbidden, Body: body})

			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Equal(t, tt.exitCode, outcome.ExitCode())
			assert.False(t, outcome.Succeeded())
		})
	}
}

func TestInterpret_UnknownServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   []byte
	}{
		{name: "unrecognized message", status: 422, body: []byte(`{"error":"rate limited"}`)},
		{name: "non-json body", status: 500, body: []byte("<html>oops</html>")},
		{name: "missing error field", status: 400, body: []byte(`{"message":"nope"}`)},
		{name: "empty error field", status: 400, body: []byte(`{"error":""}`)},
		{name: "empty body", status: 502, body: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Interpret(&Response{StatusCode: tt.status, Body: tt.body})
			assert.Equal(t, UnknownServerError, outcome.Kind)
			assert.Equal(t, 5, outcome.ExitCode())
		})
	}
}

func TestOutcome_ExitCodes(t *testing.T) {
	// The full fixed table, reproduced exactly for calling automation
	expected := map[Kind]int{
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

	for kind, code := range expected {
		assert.Equal(t, code, Outcome{Kind: kind}.ExitCode(), "exit code for %s", kind)
	}
}
