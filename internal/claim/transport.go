package claim

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/eraser-team/netdata/internal/version"
	"github.com/eraser-team/netdata/pkg/debug"
)

const (
	// TrustAnchorFile is the optional certificate used to validate the
	// registry's TLS identity in addition to the system trust store
	TrustAnchorFile = "cloud_fullchain.pem"

	requestTimeout = 10 * time.Second
	maxAttempts    = 3
)

// Response is the raw result of one completed HTTP exchange. The body is
// retained on every status so the interpreter can read error details.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs the single idempotent PUT against the registry.
// Connection-establishment failures are retried; a received response of any
// status ends the attempt loop, since a response is proof of successful
// communication.
type Transport struct {
	client   *http.Client
	attempts int
}

// NewTransport builds a transport rooted at the claiming directory. If a
// readable trust anchor file is present there it is appended to the system
// certificate pool (soft pinning); otherwise default validation applies.
func NewTransport(claimDir string) (*Transport, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		debug.Warning("Could not load system cert pool, starting empty: %v", err)
		pool = x509.NewCertPool()
	}

	anchorPath := filepath.Join(claimDir, TrustAnchorFile)
	if anchor, err := os.ReadFile(anchorPath); err == nil {
		if pool.AppendCertsFromPEM(anchor) {
			debug.Info("Loaded trust anchor from %s", anchorPath)
		} else {
			debug.Warning("Trust anchor %s contains no usable certificates", anchorPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read trust anchor: %w", err)
	}

	return &Transport{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					RootCAs: pool,
				},
			},
		},
		attempts: maxAttempts,
	}, nil
}

// Send performs the PUT with the serialized payload as the body. It returns
// the full response on any status, or an error when no response was
// received after all attempts.
func (t *Transport) Send(ctx context.Context, url string, payload []byte) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= t.attempts; attempt++ {
		debug.Info("Claim attempt %d of %d to %s", attempt, t.attempts, url)

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "netdata-agent/"+version.GetVersion())

		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
			debug.Warning("Claim attempt %d failed: %v", attempt, err)
			if attempt < t.attempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Second * time.Duration(attempt)):
				}
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			// The server answered, so this is not retryable
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		debug.Info("Registry responded with status %d", resp.StatusCode)
		return &Response{StatusCode: resp.StatusCode, Body: body}, nil
	}

	return nil, fmt.Errorf("no response after %d attempts: %w", t.attempts, lastErr)
}
