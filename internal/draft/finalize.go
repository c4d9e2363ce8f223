package draft

import "log/slog"

// Finalizer prepares the document for native submission. It copies the
// current document into the submission form field synchronously (the
// submission must carry the final content even when it is empty) and
// queues the hash-tracked local commit to run after the submit path
// returns, so committing never blocks or aborts the submission itself.
type Finalizer struct {
	mirror   *Mirror
	setField func(string)
	local    *LocalStore
	logger   *slog.Logger
}

// NewFinalizer creates a Finalizer. setField writes the final document
// into the underlying form field.
func NewFinalizer(mirror *Mirror, setField func(string), local *LocalStore, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{
		mirror:   mirror,
		setField: setField,
		local:    local,
		logger:   logger,
	}
}

// Finalize reads the current document, writes it into the form field, and
// queues the committed-snapshot write. It returns the finalized content
// and a channel that closes once the commit has run; submission proceeds
// without waiting on it.
func (f *Finalizer) Finalize() (string, <-chan struct{}) {
	content := f.mirror.Text()
	f.setField(content)

	committed := make(chan struct{})
	go func() {
		defer close(committed)
		if err := f.local.SaveWithHash(content); err != nil {
			f.logger.Warn("draft: committed snapshot failed", "error", err)
		}
	}()
	return content, committed
}
