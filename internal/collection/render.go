package collection

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MaxPreviewChars caps the rendered question/answer previews.
const MaxPreviewChars = 120

// RowData is the per-row presentation payload the browser hands to its
// rendering layer. Opaque to the engine core.
type RowData struct {
	CardID    CardID   `json:"card_id"`
	NoteID    NoteID   `json:"note_id"`
	Deck      string   `json:"deck"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Tags      []string `json:"tags,omitempty"`
	Flag      int      `json:"flag,omitempty"`
	Marked    bool     `json:"marked,omitempty"`
	Suspended bool     `json:"suspended,omitempty"`
	Buried    bool     `json:"buried,omitempty"`
	Position  int      `json:"position"`
}

// RenderBrowserRow builds the presentation payload for one card. Note fields
// are markdown; previews are the extracted plain text.
func (c *Collection) RenderBrowserRow(ctx context.Context, id CardID) (*RowData, error) {
	card, err := c.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	note, err := c.GetNote(ctx, card.NoteID)
	if err != nil {
		return nil, err
	}
	deck, err := c.DeckName(ctx, card.DeckID)
	if err != nil {
		return nil, err
	}

	return &RowData{
		CardID:    card.ID,
		NoteID:    note.ID,
		Deck:      deck,
		Question:  markdownPreview(note.Front),
		Answer:    markdownPreview(note.Back),
		Tags:      note.Tags,
		Flag:      card.Flag,
		Marked:    note.Marked(),
		Suspended: card.Queue == QueueSuspended,
		Buried:    card.Queue.Buried(),
		Position:  card.Position,
	}, nil
}

// markdownPreview extracts the plain text of a markdown fragment, collapsing
// line structure to single spaces and truncating to MaxPreviewChars.
func markdownPreview(md string) string {
	source := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	out := strings.Join(strings.Fields(sb.String()), " ")
	if utf8.RuneCountInString(out) > MaxPreviewChars {
		runes := []rune(out)
		out = string(runes[:MaxPreviewChars-1]) + "…"
	}
	return out
}
