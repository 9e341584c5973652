package documents

import "time"

// Document represents an uploaded note. Documents are immutable once created.
type Document struct {
	ID         string
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	OwnerID    string
	CreatedAt  time.Time
	// Text is the extracted text, or the sentinel when a supported format
	// yielded nothing. HasText is false for the sentinel and for
	// unsupported formats, which keeps them out of retrieval.
	Text    string
	HasText bool
}
