package browser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sift/internal/collection"
	"github.com/hpungsan/sift/internal/errors"
)

// TestFullWorkflow exercises a complete browsing session:
// seed → search → select → tag → suspend → restore selection across
// engines → move deck → delete → export the survivors.
func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	col := newTestBackend(t)
	rows := seedBackend(t, col)

	e := New(col)
	e.Init(ctx)
	e.AwaitSearch()
	require.Equal(t, 3, e.RowCount())

	// 1. Scope to one deck and select everything in it.
	e.SetDeck("Spanish")
	e.AwaitSearch()
	require.Equal(t, 2, e.RowCount())
	e.SelectAll()
	require.Equal(t, 2, e.SelectedRowCount())

	// 2. Tag the selection.
	out, err := e.AddTag(ctx, "session1")
	require.NoError(t, err)
	require.Equal(t, "tagged", out.Action)
	require.Equal(t, 2, out.Count)
	e.AwaitSearch()

	// 3. Suspend one card.
	e.SelectNone()
	e.ToggleRow(rows["hola"])
	out, err = e.ToggleSuspend(ctx)
	require.NoError(t, err)
	require.Equal(t, "suspended", out.Action)
	e.AwaitSearch()

	// 4. Persist the selection and restore it in a fresh engine, the way a
	// process restart would. The suspend refresh kept hola selected.
	statePath := filepath.Join(t.TempDir(), "selection.json")
	require.True(t, e.HasSelectedAnyRows())
	require.NoError(t, e.SaveSelection(statePath))

	e2 := New(col)
	require.NoError(t, e2.LoadSelection(statePath))
	e2.Init(ctx)
	e2.AwaitSearch()
	require.True(t, e2.IsSelected(rows["hola"]))

	// 5. Move the French card out of its deck.
	archiveID, err := col.AddDeck(ctx, "Archive")
	require.NoError(t, err)
	e2.SetSearchText("bonjour")
	e2.AwaitSearch()
	e2.SelectAll()
	out, err = e2.MoveToDeck(ctx, archiveID)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)

	// 6. Delete the archived card's note.
	e2.SetSearchText("deck:Archive")
	e2.AwaitSearch()
	e2.SelectAll()
	out, err = e2.DeleteSelectedNotes(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	e2.AwaitSearch()
	require.Equal(t, 0, e2.RowCount())

	// 7. Export what survived.
	e2.SetSearchText("")
	e2.AwaitSearch()
	require.Equal(t, 2, e2.RowCount())
	e2.SelectAll()
	path, count, err := e2.ExportSelected(ctx, filepath.Join(t.TempDir(), "out.tsv"))
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NotEmpty(t, path)

	// 8. The deleted note is gone for good.
	_, err = col.GetCard(ctx, collection.CardID(rows["bonjour"].ID))
	require.Error(t, err)
	var sErr *errors.SiftError
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, errors.ErrNotFound, sErr.Code)
}
