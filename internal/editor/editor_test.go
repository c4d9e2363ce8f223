package editor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func openTestFile(t *testing.T, initial string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.md")
	f, err := Open(path, initial, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return f
}

func TestOpenSeedsFile(t *testing.T) {
	// WHAT: Open writes the initial document to disk and reports it as the
	// current text before any change is detected.
	f := openTestFile(t, "seed text")

	data, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "seed text" {
		t.Errorf("file: got %q", data)
	}
	if f.Text() != "seed text" {
		t.Errorf("text: got %q", f.Text())
	}
}

func TestPollDetectsContentChange(t *testing.T) {
	// WHAT: A changed file fires the callback with the full new text and
	// updates Text(); an unchanged file stays silent.
	f := openTestFile(t, "before")

	var mu sync.Mutex
	var calls []string
	f.OnChange(func(s string) {
		mu.Lock()
		calls = append(calls, s)
		mu.Unlock()
	})

	f.poll() // unchanged
	mu.Lock()
	if len(calls) != 0 {
		t.Fatalf("calls after no-op poll: %v", calls)
	}
	mu.Unlock()

	if err := os.WriteFile(f.Path(), []byte("after"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.poll()

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 || calls[0] != "after" {
		t.Fatalf("calls: %v", calls)
	}
	if f.Text() != "after" {
		t.Errorf("text: got %q", f.Text())
	}
}

func TestPollSurvivesMissingFile(t *testing.T) {
	// WHAT: A missing file (editor mid-rename) does not fire the callback
	// and does not lose the last known text.
	f := openTestFile(t, "kept")
	fired := false
	f.OnChange(func(string) { fired = true })

	os.Remove(f.Path())
	f.poll()

	if fired {
		t.Error("callback fired for missing file")
	}
	if f.Text() != "kept" {
		t.Errorf("text: got %q", f.Text())
	}
}

func TestRunEditorRequiresCommand(t *testing.T) {
	// WHAT: An empty editor command is a configuration error.
	f := openTestFile(t, "")
	if err := f.RunEditor(t.Context(), nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestRunEditorPicksUpFinalState(t *testing.T) {
	// WHAT: After the editor process exits, the final file content is
	// delivered even if no poll tick ran in between.
	f := openTestFile(t, "old")
	var got string
	f.OnChange(func(s string) { got = s })

	// `true` exits immediately; simulate the edit by rewriting the file first.
	if err := os.WriteFile(f.Path(), []byte("final"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.RunEditor(t.Context(), []string{"true"}); err != nil {
		t.Fatalf("run editor: %v", err)
	}
	if got != "final" {
		t.Errorf("final text: got %q", got)
	}
	if f.Text() != "final" {
		t.Errorf("text: got %q", f.Text())
	}
}
