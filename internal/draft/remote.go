package draft

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RemoteSync pushes the current draft to the server draft endpoint and
// tracks the last content the server acknowledged, so unchanged drafts
// never hit the network.
//
// There is no retry machinery here: a failed push leaves the acknowledged
// content unchanged, which makes the next scheduler tick re-attempt the
// same draft naturally.
type RemoteSync struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu        sync.Mutex
	lastAcked string
	inFlight  bool
}

// NewRemoteSync creates a RemoteSync for the given draft endpoint.
// If client is nil, a default client with a 5s timeout is used.
func NewRemoteSync(endpoint string, client *http.Client, logger *slog.Logger) *RemoteSync {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteSync{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

// LastAcked returns the most recent content the server confirmed, or the
// empty string if nothing was ever acknowledged.
func (r *RemoteSync) LastAcked() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastAcked
}

// Save pushes content to the draft endpoint as a form POST with a single
// field `body`. It is a no-op when content equals the last acknowledged
// value, and when a previous push is still in flight; the skipped content
// stays eligible for the next tick. Only a 2xx response advances the
// acknowledged content; it is never set speculatively.
func (r *RemoteSync) Save(ctx context.Context, content string) error {
	r.mu.Lock()
	if content == r.lastAcked {
		r.mu.Unlock()
		return nil
	}
	if r.inFlight {
		// A slow push from a previous tick is still pending. Skipping
		// here keeps acknowledgments ordered; the next tick retries.
		r.mu.Unlock()
		r.logger.Debug("draft: remote save skipped, push in flight")
		return nil
	}
	r.inFlight = true
	r.mu.Unlock()

	err := r.push(ctx, content)

	r.mu.Lock()
	r.inFlight = false
	if err == nil {
		r.lastAcked = content
	}
	r.mu.Unlock()
	return err
}

func (r *RemoteSync) push(ctx context.Context, content string) error {
	form := url.Values{"body": {content}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("draft: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("draft: push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("draft: push not acknowledged: status %d", resp.StatusCode)
	}
	return nil
}
