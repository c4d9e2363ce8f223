package draft

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soverbye/dagbok/internal/idgen"
)

// SessionIDLength is the length of the random session identifier. The ID
// only exists to keep concurrent sessions from clobbering each other's
// local fallback copy; it does not persist across sessions.
const SessionIDLength = 32

// Config configures a drafting session.
type Config struct {
	// DraftURL is the server draft endpoint (POST, form field `body`).
	DraftURL string
	// SubmitURL is the entry submission endpoint (POST, form field `body`).
	SubmitURL string
	// Interval between draft-save cycles. Default: DefaultInterval.
	Interval time.Duration
	// HTTPClient overrides the default 5s-timeout client.
	HTTPClient *http.Client
	// Storage is the local persistence capability. Required.
	Storage Storage
	// Logger overrides the default slog logger.
	Logger *slog.Logger
	// NewID overrides the session ID generator.
	NewID idgen.Generator
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NewID == nil {
		c.NewID = idgen.NanoID(SessionIDLength)
	}
}

// Session owns one drafting session: the editor, the content mirror, local
// and remote draft persistence, the scheduler, and the finalizer. All the
// formerly ambient state (last acknowledged content, the random session
// identifier) lives here.
type Session struct {
	id        string
	editor    Editor
	mirror    *Mirror
	local     *LocalStore
	remote    *RemoteSync
	scheduler *Scheduler
	finalizer *Finalizer
	form      url.Values
	client    *http.Client
	submitURL string
	logger    *slog.Logger
}

// NewSession builds a session. The editor is constructed through open with
// the seed document: a surviving local draft when one exists, otherwise
// initial (typically the server-side form field value, often empty).
func NewSession(open OpenEditor, initial string, cfg Config) (*Session, error) {
	cfg.defaults()
	if cfg.Storage == nil {
		return nil, fmt.Errorf("draft: Storage is required")
	}

	id := cfg.NewID()
	local := NewLocalStore(cfg.Storage, id, cfg.Logger)

	seed := initial
	if rec, err := local.Load(); err == nil && rec.Content != "" {
		seed = rec.Content
		cfg.Logger.Info("draft: recovered local draft", "saved_at", rec.SavedAt, "bytes", len(rec.Content))
	}

	editor, err := open(seed)
	if err != nil {
		return nil, fmt.Errorf("draft: open editor: %w", err)
	}

	mirror := NewMirror(seed)
	editor.OnChange(mirror.Set)

	s := &Session{
		id:        id,
		editor:    editor,
		mirror:    mirror,
		local:     local,
		remote:    NewRemoteSync(cfg.DraftURL, cfg.HTTPClient, cfg.Logger),
		form:      url.Values{},
		client:    cfg.HTTPClient,
		submitURL: cfg.SubmitURL,
		logger:    cfg.Logger,
	}
	s.scheduler = NewScheduler(mirror, local, s.remote, cfg.Interval, cfg.Logger)
	s.finalizer = NewFinalizer(mirror, func(v string) { s.form.Set("body", v) }, local, cfg.Logger)
	return s, nil
}

// ID returns the random session identifier.
func (s *Session) ID() string { return s.id }

// Mirror returns the session's content mirror.
func (s *Session) Mirror() *Mirror { return s.mirror }

// Run drives the periodic draft-save cycle until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	s.scheduler.Run(ctx)
}

// Submit finalizes the document and performs the native submission: a form
// POST carrying the full entry body. The committed local snapshot is
// written concurrently; Submit waits for it before returning so the
// snapshot survives process exit. On success the live draft is cleared and
// the created entry's URL is returned.
func (s *Session) Submit(ctx context.Context) (string, error) {
	_, committed := s.finalizer.Finalize()
	location, err := s.post(ctx)
	<-committed
	if err != nil {
		return "", err
	}

	if cerr := s.local.Clear(); cerr != nil {
		s.logger.Warn("draft: clear after submit failed", "error", cerr)
	}
	return location, nil
}

func (s *Session) post(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.submitURL,
		strings.NewReader(s.form.Encode()))
	if err != nil {
		return "", fmt.Errorf("draft: build submission: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("draft: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("draft: submit rejected: status %d", resp.StatusCode)
	}
	// The server redirects to the created entry; the client followed it.
	return resp.Request.URL.String(), nil
}
