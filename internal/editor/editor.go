// Package editor implements the editing widget boundary for terminal use:
// the document is a markdown file opened in the user's editor, and change
// notifications come from polling the file for content changes.
package editor

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultPollInterval is how often the draft file is checked for changes.
const DefaultPollInterval = 500 * time.Millisecond

// Options tunes the file editor.
type Options struct {
	// PollInterval is the change-detection frequency. Default: 500ms.
	PollInterval time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// File is an Editor backed by a file on disk. The file is the document;
// whoever edits it (normally $EDITOR) owns the content, and Watch delivers
// change notifications with the full updated text.
type File struct {
	path string
	opts Options

	mu       sync.Mutex
	text     string
	lastSum  [sha256.Size]byte
	onChange func(string)
}

// Open seeds path with the initial document and returns a File bound to it.
func Open(path, initial string, opts Options) (*File, error) {
	opts.defaults()
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		return nil, fmt.Errorf("editor: seed draft file: %w", err)
	}
	return &File{
		path:    path,
		opts:    opts,
		text:    initial,
		lastSum: sha256.Sum256([]byte(initial)),
	}, nil
}

// Path returns the draft file path.
func (f *File) Path() string { return f.path }

// Text returns the document as of the last detected change.
func (f *File) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

// OnChange registers fn to be called with the full text after every
// detected content change.
func (f *File) OnChange(fn func(string)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Watch polls the file until ctx is cancelled. Read errors are logged and
// the poll continues; editors replace files atomically, so a transient
// missing file is normal.
func (f *File) Watch(ctx context.Context) {
	ticker := time.NewTicker(f.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.poll()
		}
	}
}

// poll reads the file once and fires the change callback when the content
// hash moved.
func (f *File) poll() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.opts.Logger.Debug("editor: poll read", "error", err)
		return
	}
	sum := sha256.Sum256(data)

	f.mu.Lock()
	if sum == f.lastSum {
		f.mu.Unlock()
		return
	}
	f.lastSum = sum
	f.text = string(data)
	fn := f.onChange
	text := f.text
	f.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

// RunEditor blocks while the user's editor is open on the draft file.
// command is the editor executable (plus arguments); the file path is
// appended as the final argument.
func (f *File) RunEditor(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("editor: no editor command configured")
	}
	args := append(command[1:len(command):len(command)], f.path)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor: %s: %w", command[0], err)
	}
	// Deliver the final state before returning so the mirror cannot be
	// behind the file at submission time.
	f.poll()
	return nil
}
