package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"notes-backend/internal/access"
	"notes-backend/internal/documents"
)

const (
	DefaultLimit = 3
	MaxLimit     = 50

	phraseNameWeight = 10
	phraseTextWeight = 5
	termNameWeight   = 3
	termTextWeight   = 1
	// maxCounted caps per-term occurrences so one long document cannot
	// drown out the rest.
	maxCounted = 20
)

// Store is the corpus persistence the index reads and writes.
type Store interface {
	Create(ctx context.Context, doc documents.Document) error
	List(ctx context.Context, vis access.Visibility) ([]documents.Document, error)
}

// Match is one retrieved document and its relevance score.
type Match struct {
	Document  documents.Document
	Relevance int
}

// Index answers keyword relevance queries over the stored corpus.
type Index struct {
	store Store
}

func New(store Store) *Index {
	return &Index{store: store}
}

// Register makes a durably stored document searchable.
func (ix *Index) Register(ctx context.Context, doc documents.Document) error {
	if doc.ID == "" || doc.StorageKey == "" {
		return errors.New("document id and storage key are required")
	}
	return ix.store.Create(ctx, doc)
}

// Corpus returns every document visible under vis in storage order.
func (ix *Index) Corpus(ctx context.Context, vis access.Visibility) ([]documents.Document, error) {
	return ix.store.List(ctx, vis)
}

// Search returns at most limit documents whose name or text matches query,
// strongest match first, ties in storage order. Documents outside vis are
// never considered. An empty query matches nothing.
func (ix *Index) Search(ctx context.Context, query string, limit int, vis access.Visibility) ([]Match, error) {
	q := Parse(query)
	if q.Empty() {
		return []Match{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	corpus, err := ix.store.List(ctx, vis)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	matches := make([]Match, 0, limit)
	for _, doc := range corpus {
		if !vis.Allows(doc.OwnerID) {
			continue
		}
		if score := q.Score(doc); score > 0 {
			matches = append(matches, Match{Document: doc, Relevance: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Query is a normalised search query.
type Query struct {
	Phrase string
	Terms  []string
}

// Parse lower-cases the query and splits it into content terms. Stop words
// and single-character tokens are dropped from Terms; Phrase keeps the
// whole trimmed query.
func Parse(raw string) Query {
	phrase := strings.ToLower(strings.TrimSpace(raw))
	if phrase == "" {
		return Query{}
	}
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range strings.FieldsFunc(phrase, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return Query{Phrase: phrase, Terms: terms}
}

// Empty reports whether the query can match nothing.
func (q Query) Empty() bool {
	return q.Phrase == ""
}

// Score returns the relevance of doc, zero when it does not match. Only
// real extracted text takes part; sentinel text is ignored.
func (q Query) Score(doc documents.Document) int {
	if q.Empty() {
		return 0
	}
	name := strings.ToLower(doc.FileName)
	text := ""
	if doc.HasText {
		text = strings.ToLower(doc.Text)
	}

	score := 0
	if strings.Contains(name, q.Phrase) {
		score += phraseNameWeight
	}
	if text != "" {
		score += phraseTextWeight * capped(strings.Count(text, q.Phrase))
	}
	for _, term := range q.Terms {
		if strings.Contains(name, term) {
			score += termNameWeight
		}
		if text != "" {
			score += termTextWeight * capped(strings.Count(text, term))
		}
	}
	return score
}

func capped(n int) int {
	if n > maxCounted {
		return maxCounted
	}
	return n
}

var stopWords = func() map[string]struct{} {
	words := []string{
		"a", "about", "am", "an", "and", "any", "are", "as", "at", "be", "been", "but", "by",
		"can", "could", "did", "do", "does", "explain", "for", "from", "had", "has", "have",
		"he", "her", "his", "how", "if", "in", "into", "is", "it", "its", "me", "my", "no",
		"not", "of", "on", "or", "our", "please", "she", "should", "so", "tell", "than",
		"that", "the", "their", "them", "then", "there", "these", "they", "this", "those",
		"to", "us", "was", "we", "were", "what", "when", "where", "which", "who", "whom",
		"why", "will", "with", "would", "you", "your",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

var _ documents.Registrar = (*Index)(nil)
