// Package mcp exposes the collection and the browser's bulk operations as
// MCP tools over stdio.
package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/sift/internal/collection"
	"github.com/hpungsan/sift/internal/config"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"card", "note", "deck"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"card_search": {
		def: mcp.NewTool("card_search",
			mcp.WithDescription("Search the collection and return matching browser rows. Supports free text, deck:, tag:, is:, flag:, front:, back: terms and - negation."),
			mcp.WithString("query", mcp.Description("Search expression; empty matches everything")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
			mcp.WithString("sort", mcp.Description("Sort order: none|created|modified|deck|position|field")),
			mcp.WithBoolean("descending", mcp.Description("Reverse the sort order")),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return")),
			mcp.WithNumber("offset", mcp.Description("Rows to skip")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"card_bulk_tag": {
		def: mcp.NewTool("card_bulk_tag",
			mcp.WithDescription("Add or remove a tag on every note matched by a search."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
			mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to add or remove")),
			mcp.WithBoolean("remove", mcp.Description("Remove the tag instead of adding it")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkTag },
	},
	"card_bulk_mark": {
		def: mcp.NewTool("card_bulk_mark",
			mcp.WithDescription("Toggle the marked state on every note matched by a search: marks all, unless all are already marked, in which case all are unmarked."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkMark },
	},
	"card_bulk_flag": {
		def: mcp.NewTool("card_bulk_flag",
			mcp.WithDescription("Set the user flag (0 clears, 1-7) on every card matched by a search."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
			mcp.WithNumber("flag", mcp.Required(), mcp.Description("Flag value 0-7")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkFlag },
	},
	"card_bulk_suspend": {
		def: mcp.NewTool("card_bulk_suspend",
			mcp.WithDescription("Toggle suspension on every card matched by a search: suspends all, unless all are already suspended, in which case all are unsuspended."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkSuspend },
	},
	"card_bulk_bury": {
		def: mcp.NewTool("card_bulk_bury",
			mcp.WithDescription("Toggle burial on every card matched by a search: buries all, unless all are already buried, in which case all are unburied."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkBury },
	},
	"card_reposition": {
		def: mcp.NewTool("card_reposition",
			mcp.WithDescription("Reposition the new cards matched by a search. Rejected if any matched card is outside the new queue."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithNumber("start", mcp.Description("First position to assign")),
			mcp.WithNumber("step", mcp.Description("Position increment, at least 1 (default 1)")),
			mcp.WithBoolean("shuffle", mcp.Description("Randomize the assignment order")),
			mcp.WithBoolean("shift", mcp.Description("Push existing cards at or after start out of the way")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReposition },
	},
	"card_move_deck": {
		def: mcp.NewTool("card_move_deck",
			mcp.WithDescription("Move every card matched by a search to another deck."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
			mcp.WithString("deck", mcp.Required(), mcp.Description("Destination deck name; must exist")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMoveDeck },
	},
	"card_delete": {
		def: mcp.NewTool("card_delete",
			mcp.WithDescription("Delete every note matched by a search, along with all its cards."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"card_find_replace": {
		def: mcp.NewTool("card_find_replace",
			mcp.WithDescription("Replace text in the front and back fields of every note matched by a search."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
			mcp.WithString("search", mcp.Required(), mcp.Description("Text to find")),
			mcp.WithString("replacement", mcp.Description("Replacement text")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFindReplace },
	},
	"card_export": {
		def: mcp.NewTool("card_export",
			mcp.WithDescription("Export every note matched by a search as tab-separated front/back/tags lines."),
			mcp.WithString("query", mcp.Description("Search expression selecting the targets")),
			mcp.WithString("mode", mcp.Description("Row mode: cards (default) or notes")),
			mcp.WithString("path", mcp.Description("Output file path (default: a timestamped file under the exports directory)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"note_add": {
		def: mcp.NewTool("note_add",
			mcp.WithDescription("Add a note and its card to a deck."),
			mcp.WithString("front", mcp.Required(), mcp.Description("Front field (markdown)")),
			mcp.WithString("back", mcp.Description("Back field (markdown)")),
			mcp.WithString("deck", mcp.Description("Deck name, created if missing (default: Default)")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteAdd },
	},
	"deck_list": {
		def: mcp.NewTool("deck_list",
			mcp.WithDescription("List all decks."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckList },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "card_search" → "card").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// NewServer creates a new MCP server with Sift tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(col *collection.Collection, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sift",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(col, cfg)

	disabled := make(map[string]bool)
	if cfg != nil {
		for _, name := range cfg.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(col *collection.Collection, cfg *config.Config, version string) error {
	s := NewServer(col, cfg, version)
	return server.ServeStdio(s)
}
