package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-backend/internal/access"
	"notes-backend/internal/documents"
	"notes-backend/internal/index"
	"notes-backend/internal/llm"
	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/telemetry"
)

const (
	NotFoundAnswer    = "I couldn't find anything about that in the uploaded notes."
	NoNotesAnswer     = "No notes have been uploaded yet."
	UnavailableAnswer = "AI is temporarily unavailable. Please try again later."

	MaxSources      = 3
	MaxExcerptRunes = 1500

	defaultTimeout = 30 * time.Second
)

var ErrEmptyQuestion = errors.New("question is required")

// Retriever is the part of the document index the answerer needs.
type Retriever interface {
	Search(ctx context.Context, query string, limit int, vis access.Visibility) ([]index.Match, error)
	Corpus(ctx context.Context, vis access.Visibility) ([]documents.Document, error)
}

// Result is the caller-facing answer.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Service answers questions from the caller's visible notes.
type Service struct {
	Index     Retriever
	Completer llm.Completer
	Timeout   time.Duration
}

// Answer retrieves matching notes and asks the completion service. The only
// error returned is ErrEmptyQuestion; every downstream failure becomes
// UnavailableAnswer.
func (s *Service) Answer(ctx context.Context, question string, caller access.Identity) (Result, error) {
	if strings.TrimSpace(question) == "" {
		return Result{}, ErrEmptyQuestion
	}
	vis := access.VisibilityFor(caller)

	matches, err := s.Index.Search(ctx, question, MaxSources, vis)
	if err != nil {
		telemetry.Error("ask.search_failed", map[string]any{"user_id": caller.UserID, "error": err})
		return unavailable(), nil
	}
	if len(matches) == 0 {
		metrics.IncAsk(metrics.OutcomeNotFound)
		return Result{Answer: NotFoundAnswer, Sources: []string{}}, nil
	}

	sources := make([]string, 0, len(matches))
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, m.Document.FileName)
		if m.Document.HasText && strings.TrimSpace(m.Document.Text) != "" {
			blocks = append(blocks, excerpt(m.Document, m.Document.Text))
		}
	}

	if len(blocks) == 0 {
		corpus, err := s.Index.Corpus(ctx, vis)
		if err != nil {
			telemetry.Error("ask.corpus_failed", map[string]any{"user_id": caller.UserID, "error": err})
			return unavailable(), nil
		}
		if len(corpus) == 0 {
			metrics.IncAsk(metrics.OutcomeNoNotes)
			return Result{Answer: NoNotesAnswer, Sources: []string{}}, nil
		}
		if len(corpus) > MaxSources {
			corpus = corpus[:MaxSources]
		}
		for _, doc := range corpus {
			text := ""
			if doc.HasText {
				text = doc.Text
			}
			blocks = append(blocks, excerpt(doc, text))
		}
	}

	prompt := BuildPrompt(question, strings.Join(blocks, "\n\n"))
	text, err := s.complete(ctx, prompt)
	if err != nil {
		telemetry.Error("ask.completion_failed", map[string]any{"user_id": caller.UserID, "error": err})
		return unavailable(), nil
	}

	metrics.IncAsk(metrics.OutcomeAnswered)
	return Result{Answer: text, Sources: sources}, nil
}

// complete calls the provider under a deadline. A provider that ignores
// cancellation is abandoned once the deadline passes.
func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.Completer == nil {
		return "", llm.ErrNotConfigured
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("completion panic: %v", rec)}
			}
		}()
		text, err := s.Completer.Complete(ctx, prompt)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		metrics.ObserveCompletion(time.Since(start))
		if out.err != nil {
			return "", out.err
		}
		if strings.TrimSpace(out.text) == "" {
			return "", llm.ErrEmptyCompletion
		}
		return strings.TrimSpace(out.text), nil
	case <-ctx.Done():
		metrics.ObserveCompletion(time.Since(start))
		return "", fmt.Errorf("completion: %w", ctx.Err())
	}
}

func unavailable() Result {
	metrics.IncAsk(metrics.OutcomeUnavailable)
	return Result{Answer: UnavailableAnswer, Sources: []string{}}
}
