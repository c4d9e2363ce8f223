package draft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// draftEndpoint is a test double for the server draft endpoint. It records
// every received body and serves the configured status.
type draftEndpoint struct {
	srv      *httptest.Server
	status   atomic.Int64
	requests atomic.Int64

	mu     sync.Mutex
	bodies []string
}

func newDraftEndpoint(t *testing.T) *draftEndpoint {
	t.Helper()
	ep := &draftEndpoint{}
	ep.status.Store(http.StatusNoContent)
	ep.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep.requests.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		ep.mu.Lock()
		ep.bodies = append(ep.bodies, r.PostForm.Get("body"))
		ep.mu.Unlock()
		w.WriteHeader(int(ep.status.Load()))
	}))
	t.Cleanup(ep.srv.Close)
	return ep
}

func (ep *draftEndpoint) lastBody() string {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if len(ep.bodies) == 0 {
		return ""
	}
	return ep.bodies[len(ep.bodies)-1]
}

func TestSaveAdvancesLastAckedOn2xx(t *testing.T) {
	// WHAT: A successful push records the content as acknowledged and the
	// body arrives as the form field `body`.
	ep := newDraftEndpoint(t)
	rs := NewRemoteSync(ep.srv.URL, nil, nil)
	ctx := context.Background()

	if err := rs.Save(ctx, "hello"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := rs.LastAcked(); got != "hello" {
		t.Errorf("last acked: got %q, want %q", got, "hello")
	}
	if got := ep.lastBody(); got != "hello" {
		t.Errorf("body: got %q", got)
	}
}

func TestSaveUnchangedContentIsNoOp(t *testing.T) {
	// WHAT: Saving the same content twice issues exactly one request.
	// WHY: Redundant drafts must not hit the network.
	ep := newDraftEndpoint(t)
	rs := NewRemoteSync(ep.srv.URL, nil, nil)
	ctx := context.Background()

	rs.Save(ctx, "same")
	rs.Save(ctx, "same")

	if n := ep.requests.Load(); n != 1 {
		t.Errorf("requests: got %d, want 1", n)
	}
}

func TestSaveFailureLeavesLastAcked(t *testing.T) {
	// WHAT: A 500 leaves the acknowledged content unchanged, so the next
	// tick retries the same content; a later 2xx then advances it.
	ep := newDraftEndpoint(t)
	rs := NewRemoteSync(ep.srv.URL, nil, nil)
	ctx := context.Background()

	rs.Save(ctx, "first")
	if rs.LastAcked() != "first" {
		t.Fatalf("setup: last acked %q", rs.LastAcked())
	}

	ep.status.Store(http.StatusInternalServerError)
	if err := rs.Save(ctx, "second"); err == nil {
		t.Fatal("save against 500 should return an error")
	}
	if got := rs.LastAcked(); got != "first" {
		t.Errorf("last acked after failure: got %q, want %q", got, "first")
	}

	// Next tick: same content, server recovered.
	ep.status.Store(http.StatusNoContent)
	if err := rs.Save(ctx, "second"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := rs.LastAcked(); got != "second" {
		t.Errorf("last acked after retry: got %q", got)
	}
	if n := ep.requests.Load(); n != 3 {
		t.Errorf("requests: got %d, want 3", n)
	}
}

func TestSaveNetworkFailure(t *testing.T) {
	// WHAT: A transport-level failure behaves like a non-2xx: error
	// returned, acknowledged content unchanged.
	ep := newDraftEndpoint(t)
	rs := NewRemoteSync(ep.srv.URL, nil, nil)
	ctx := context.Background()

	rs.Save(ctx, "ok")
	ep.srv.Close()

	if err := rs.Save(ctx, "unreachable"); err == nil {
		t.Fatal("save against closed server should fail")
	}
	if got := rs.LastAcked(); got != "ok" {
		t.Errorf("last acked: got %q, want %q", got, "ok")
	}
}

func TestSaveSingleFlight(t *testing.T) {
	// WHAT: While a push is in flight, overlapping saves return without a
	// second request; the content stays eligible for the next tick.
	// WHY: Overlapping pushes could acknowledge out of order.
	release := make(chan struct{})
	started := make(chan struct{})
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			close(started)
			<-release
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rs := NewRemoteSync(srv.URL, nil, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- rs.Save(ctx, "slow") }()
	<-started

	// Second tick fires while the first push hangs.
	if err := rs.Save(ctx, "newer"); err != nil {
		t.Fatalf("overlapping save: %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("requests during flight: got %d, want 1", n)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow save: %v", err)
	}
	if got := rs.LastAcked(); got != "slow" {
		t.Errorf("last acked: got %q, want %q", got, "slow")
	}

	// Next tick pushes the newer content that was skipped.
	if err := rs.Save(ctx, "newer"); err != nil {
		t.Fatalf("follow-up save: %v", err)
	}
	if got := rs.LastAcked(); got != "newer" {
		t.Errorf("last acked: got %q, want %q", got, "newer")
	}
}
