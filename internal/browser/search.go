package browser

import (
	"context"
	"strings"
)

// SearchCoordinator owns the search-affecting inputs, the composition of the
// effective query string, and the bookkeeping that keeps at most one search
// task outstanding. The engine drives it under its lock.
type SearchCoordinator struct {
	freeText        string
	deckRestriction string
	mode            Mode

	// generation of the latest launched search; a task may only commit its
	// results while its generation is still current.
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func newSearchCoordinator() *SearchCoordinator {
	done := make(chan struct{})
	close(done) // no search yet; waiting is a no-op
	return &SearchCoordinator{mode: ModeCards, done: done}
}

// effectiveQuery combines the free text with the deck restriction. If the
// free text already contains an explicit deck: term, the restriction is not
// prefixed, so the query is not double-scoped.
func (s *SearchCoordinator) effectiveQuery() string {
	text := strings.TrimSpace(s.freeText)
	if s.deckRestriction == "" || strings.Contains(text, "deck:") {
		return text
	}
	if text == "" {
		return s.deckRestriction
	}
	return s.deckRestriction + " " + text
}

// supersede cancels the in-flight search task, if any, and stamps a new
// generation. Returns the new generation, the task context, and the task's
// done channel.
func (s *SearchCoordinator) supersede() (uint64, context.Context, chan struct{}) {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.gen++
	s.done = make(chan struct{})
	return s.gen, ctx, s.done
}

// current reports whether a task generation is still the latest one.
func (s *SearchCoordinator) current(gen uint64) bool {
	return s.gen == gen
}

// DeckRestriction builds the search-string fragment scoping a search to one
// deck. Quote characters embedded in the deck name are escaped so they
// cannot break the query syntax. An empty name means "all decks" and yields
// an empty fragment.
func DeckRestriction(deckName string) string {
	if deckName == "" {
		return ""
	}
	escaped := strings.ReplaceAll(deckName, `"`, `\"`)
	return `deck:"` + escaped + `"`
}
