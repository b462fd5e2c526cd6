package browser

import (
	"context"

	"github.com/hpungsan/sift/internal/collection"
)

// Backend is the collection collaborator the engine drives. It is injected
// at construction; the engine never reaches for a process-wide handle.
// *collection.Collection satisfies it.
type Backend interface {
	FindCardIDs(ctx context.Context, query string, order collection.SortOrder, descending bool) ([]collection.CardID, error)
	FindNoteIDs(ctx context.Context, query string, order collection.SortOrder, descending bool) ([]collection.NoteID, error)

	CardIDsOfNotes(ctx context.Context, ids []collection.NoteID) ([]collection.CardID, error)
	NotesOfCards(ctx context.Context, ids []collection.CardID) ([]collection.NoteID, error)
	RenderBrowserRow(ctx context.Context, id collection.CardID) (*collection.RowData, error)

	AllCardsInQueues(ctx context.Context, ids []collection.CardID, queues ...collection.Queue) (bool, error)
	CountCardsOutsideQueues(ctx context.Context, ids []collection.CardID, queues ...collection.Queue) (int, error)
	AllNotesHaveTag(ctx context.Context, ids []collection.NoteID, tag string) (bool, error)

	BulkAddTag(ctx context.Context, ids []collection.NoteID, tag string) (*collection.OpResult, error)
	BulkRemoveTag(ctx context.Context, ids []collection.NoteID, tag string) (*collection.OpResult, error)
	SuspendCards(ctx context.Context, ids []collection.CardID) (*collection.OpResult, error)
	UnsuspendCards(ctx context.Context, ids []collection.CardID) (*collection.OpResult, error)
	BuryCards(ctx context.Context, ids []collection.CardID) (*collection.OpResult, error)
	UnburyCards(ctx context.Context, ids []collection.CardID) (*collection.OpResult, error)
	SetDeck(ctx context.Context, ids []collection.CardID, deck collection.DeckID) (*collection.OpResult, error)
	SetUserFlag(ctx context.Context, ids []collection.CardID, flag int) (*collection.OpResult, error)
	RemoveNotes(ctx context.Context, ids []collection.NoteID) (*collection.OpResult, error)
	SortCards(ctx context.Context, ids []collection.CardID, start, step int, shuffle, shift bool) (*collection.OpResult, error)
	FindReplace(ctx context.Context, ids []collection.NoteID, search, replacement string) (*collection.OpResult, error)
	ExportNotes(ctx context.Context, ids []collection.NoteID, path string) (string, int, error)

	GetConfig(ctx context.Context, key string, out any) error
	SetConfig(ctx context.Context, key string, v any) error
	BrowserColumns() []collection.ColumnMeta
	DeckName(ctx context.Context, id collection.DeckID) (string, error)
}
