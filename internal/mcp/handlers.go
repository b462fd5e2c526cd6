package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sift/internal/browser"
	"github.com/hpungsan/sift/internal/collection"
	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/errors"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	col *collection.Collection
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(col *collection.Collection, cfg *config.Config) *Handlers {
	return &Handlers{col: col, cfg: cfg}
}

// Request types for each tool

// SearchRequest represents the arguments for card_search.
type SearchRequest struct {
	Query      string `json:"query,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Sort       string `json:"sort,omitempty"`
	Descending bool   `json:"descending,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// TargetRequest carries the search selecting the targets of a bulk tool.
type TargetRequest struct {
	Query string `json:"query,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// BulkTagRequest represents the arguments for card_bulk_tag.
type BulkTagRequest struct {
	TargetRequest
	Tag    string `json:"tag"`
	Remove bool   `json:"remove,omitempty"`
}

// BulkFlagRequest represents the arguments for card_bulk_flag.
type BulkFlagRequest struct {
	TargetRequest
	Flag int `json:"flag"`
}

// RepositionRequest represents the arguments for card_reposition.
type RepositionRequest struct {
	Query   string `json:"query,omitempty"`
	Start   int    `json:"start,omitempty"`
	Step    int    `json:"step,omitempty"`
	Shuffle bool   `json:"shuffle,omitempty"`
	Shift   bool   `json:"shift,omitempty"`
}

// MoveDeckRequest represents the arguments for card_move_deck.
type MoveDeckRequest struct {
	TargetRequest
	Deck string `json:"deck"`
}

// FindReplaceRequest represents the arguments for card_find_replace.
type FindReplaceRequest struct {
	TargetRequest
	Search      string `json:"search"`
	Replacement string `json:"replacement,omitempty"`
}

// ExportRequest represents the arguments for card_export.
type ExportRequest struct {
	TargetRequest
	Path string `json:"path,omitempty"`
}

// NoteAddRequest represents the arguments for note_add.
type NoteAddRequest struct {
	Front string `json:"front"`
	Back  string `json:"back,omitempty"`
	Deck  string `json:"deck,omitempty"`
	Tags  string `json:"tags,omitempty"`
}

// parseMode maps the optional mode argument; empty means card rows.
func parseMode(s string) (browser.Mode, error) {
	if s == "" {
		return browser.ModeCards, nil
	}
	mode, ok := browser.ParseMode(s)
	if !ok {
		return browser.ModeCards, errors.NewInvalidRequest("mode must be cards or notes")
	}
	return mode, nil
}

// selectAllMatching runs a one-shot search and selects every result row, the
// selection the bulk operations act on.
func (h *Handlers) selectAllMatching(ctx context.Context, query, modeStr string) (*browser.Engine, error) {
	mode, err := parseMode(modeStr)
	if err != nil {
		return nil, err
	}
	e, err := browser.RunQuery(ctx, h.col, query, mode, browser.SortSpec{Type: collection.SortNone})
	if err != nil {
		return nil, err
	}
	e.SelectAll()
	return e, nil
}

// HandleSearch handles the card_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode, err := parseMode(input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	sort := collection.SortNone
	if input.Sort != "" {
		sort = collection.SortOrder(input.Sort)
	}

	e, err := browser.RunQuery(ctx, h.col, input.Query, mode, browser.SortSpec{
		Type:       sort,
		Descending: input.Descending,
	})
	if err != nil {
		return errorResult(err), nil
	}

	limit := input.Limit
	if h.cfg != nil && h.cfg.SearchLimit > 0 && (limit <= 0 || limit > h.cfg.SearchLimit) {
		limit = h.cfg.SearchLimit
	}
	rows, err := e.RenderRows(ctx, input.Offset, limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"total": e.RowCount(),
		"rows":  rows,
	})
}

// HandleBulkTag handles the card_bulk_tag tool call.
func (h *Handlers) HandleBulkTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkTagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}

	var out *browser.BulkOutcome
	if input.Remove {
		out, err = e.RemoveTag(ctx, input.Tag)
	} else {
		out, err = e.AddTag(ctx, input.Tag)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleBulkMark handles the card_bulk_mark tool call.
func (h *Handlers) HandleBulkMark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TargetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.ToggleMark(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleBulkFlag handles the card_bulk_flag tool call.
func (h *Handlers) HandleBulkFlag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkFlagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.SetFlag(ctx, input.Flag)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleBulkSuspend handles the card_bulk_suspend tool call.
func (h *Handlers) HandleBulkSuspend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TargetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.ToggleSuspend(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleBulkBury handles the card_bulk_bury tool call.
func (h *Handlers) HandleBulkBury(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TargetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.ToggleBury(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleReposition handles the card_reposition tool call.
func (h *Handlers) HandleReposition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RepositionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	// Reposition acts on cards only; note rows would re-expand anyway.
	e, err := h.selectAllMatching(ctx, input.Query, "cards")
	if err != nil {
		return errorResult(err), nil
	}

	step := input.Step
	if step == 0 {
		step = 1
	}
	out, err := e.Reposition(ctx, input.Start, step, input.Shuffle, input.Shift)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleMoveDeck handles the card_move_deck tool call.
func (h *Handlers) HandleMoveDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MoveDeckRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	deckID, err := h.col.DeckIDByName(ctx, input.Deck)
	if err != nil {
		return errorResult(err), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.MoveToDeck(ctx, deckID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleDelete handles the card_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TargetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.DeleteSelectedNotes(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleFindReplace handles the card_find_replace tool call.
func (h *Handlers) HandleFindReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FindReplaceRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	out, err := e.FindReplaceSelected(ctx, input.Search, input.Replacement)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleExport handles the card_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := h.selectAllMatching(ctx, input.Query, input.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	path, count, err := e.ExportSelected(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"path": path, "exported": count})
}

// HandleNoteAdd handles the note_add tool call.
func (h *Handlers) HandleNoteAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	noteID, cardID, err := h.col.AddNote(ctx, collection.NoteInput{
		Deck:  input.Deck,
		Front: input.Front,
		Back:  input.Back,
		Tags:  parseTags(input.Tags),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"note_id": noteID, "card_id": cardID})
}

// HandleDeckList handles the deck_list tool call.
func (h *Handlers) HandleDeckList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decks, err := h.col.Decks(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"decks": decks})
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := err.(*errors.SiftError); ok {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": sErr.Message,
			"status":  sErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
