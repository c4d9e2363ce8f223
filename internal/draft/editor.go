package draft

// Editor is the editing widget boundary. The widget owns the document;
// the draft machinery only reads it and listens for changes.
//
// Implementations must deliver change notifications in document-mutation
// order; the registered callback is invoked with the full updated text.
type Editor interface {
	// Text returns the current document as plain text.
	Text() string
	// OnChange registers fn to be called on every content change.
	OnChange(fn func(text string))
}

// OpenEditor constructs an Editor seeded with an initial document.
type OpenEditor func(initial string) (Editor, error)
