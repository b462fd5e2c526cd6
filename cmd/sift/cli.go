package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/sift/internal/browser"
	"github.com/hpungsan/sift/internal/collection"
	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/errors"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(col *collection.Collection, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "sift",
		Usage:   "Card collection search and bulk editing",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(col),
			addDeckCmd(col),
			decksCmd(col),
			searchCmd(col, cfg),
			tagCmd(col),
			markCmd(col),
			flagCmd(col),
			suspendCmd(col),
			buryCmd(col),
			repositionCmd(col),
			moveCmd(col),
			deleteCmd(col),
			exportCmd(col),
			findReplaceCmd(col),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// targetFlags are shared by every command that acts on the rows a search
// selects.
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search selecting the target rows"},
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "cards", Usage: "Row mode: cards|notes"},
	}
}

// selectTargets runs the search named by --query/--mode and selects every
// result row.
func selectTargets(ctx context.Context, col *collection.Collection, c *cli.Context) (*browser.Engine, error) {
	mode, ok := browser.ParseMode(c.String("mode"))
	if !ok {
		return nil, errors.NewInvalidRequest("mode must be cards or notes")
	}
	e, err := browser.RunQuery(ctx, col, c.String("query"), mode, browser.SortSpec{Type: collection.SortNone})
	if err != nil {
		return nil, err
	}
	e.SelectAll()
	return e, nil
}

// addCmd creates the add command.
func addCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a note and its card to a deck",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "deck", Aliases: []string{"d"}, Value: "Default", Usage: "Deck name (created if missing)"},
			&cli.StringFlag{Name: "front", Aliases: []string{"f"}, Required: true, Usage: "Front field"},
			&cli.StringFlag{Name: "back", Aliases: []string{"b"}, Usage: "Back field"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
		},
		Action: func(c *cli.Context) error {
			noteID, cardID, err := col.AddNote(c.Context, collection.NoteInput{
				Deck:  c.String("deck"),
				Front: c.String("front"),
				Back:  c.String("back"),
				Tags:  parseTags(c.String("tags")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"note_id": noteID, "card_id": cardID})
		},
	}
}

// addDeckCmd creates the add-deck command.
func addDeckCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:      "add-deck",
		Usage:     "Create a deck (use :: for subdecks, e.g. Spanish::Verbs)",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("deck name is required"))
			}
			id, err := col.AddDeck(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deck_id": id})
		},
	}
}

// decksCmd creates the decks command.
func decksCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "decks",
		Usage: "List all decks",
		Action: func(c *cli.Context) error {
			decks, err := col.Decks(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"decks": decks})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(col *collection.Collection, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the collection and print matching rows",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "cards", Usage: "Row mode: cards|notes"},
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort order: position|created|field"},
			&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum rows to print"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Rows to skip"},
		},
		Action: func(c *cli.Context) error {
			mode, ok := browser.ParseMode(c.String("mode"))
			if !ok {
				return outputError(errors.NewInvalidRequest("mode must be cards or notes"))
			}
			sort := collection.SortNone
			if s := c.String("sort"); s != "" {
				sort = collection.SortOrder(s)
			}

			e, err := browser.RunQuery(c.Context, col, c.Args().First(), mode, browser.SortSpec{
				Type:       sort,
				Descending: c.Bool("desc"),
			})
			if err != nil {
				return outputError(err)
			}

			limit := c.Int("limit")
			if cfg != nil && cfg.SearchLimit > 0 && (limit <= 0 || limit > cfg.SearchLimit) {
				limit = cfg.SearchLimit
			}
			rows, err := e.RenderRows(c.Context, c.Int("offset"), limit)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"total": e.RowCount(), "rows": rows})
		},
	}
}

// tagCmd creates the tag command.
func tagCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add or remove a tag on every note a search matches",
		ArgsUsage: "<tag>",
		Flags: append(targetFlags(),
			&cli.BoolFlag{Name: "remove", Aliases: []string{"r"}, Usage: "Remove the tag instead of adding it"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("tag is required"))
			}
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}

			var out *browser.BulkOutcome
			if c.Bool("remove") {
				out, err = e.RemoveTag(c.Context, c.Args().First())
			} else {
				out, err = e.AddTag(c.Context, c.Args().First())
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// markCmd creates the mark command.
func markCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "mark",
		Usage: "Toggle the marked state of every note a search matches",
		Flags: targetFlags(),
		Action: func(c *cli.Context) error {
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.ToggleMark(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// flagCmd creates the flag command.
func flagCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:      "flag",
		Usage:     "Set the flag (0-7, 0 clears) on every card a search matches",
		ArgsUsage: "<flag>",
		Flags:     targetFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("flag number is required"))
			}
			flag, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest("flag must be 0-7"))
			}
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.SetFlag(c.Context, flag)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// suspendCmd creates the suspend command.
func suspendCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "suspend",
		Usage: "Toggle suspension of every card a search matches",
		Flags: targetFlags(),
		Action: func(c *cli.Context) error {
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.ToggleSuspend(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// buryCmd creates the bury command.
func buryCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "bury",
		Usage: "Toggle burial of every card a search matches",
		Flags: targetFlags(),
		Action: func(c *cli.Context) error {
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.ToggleBury(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// repositionCmd creates the reposition command.
func repositionCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "reposition",
		Usage: "Renumber the new-card positions of every card a search matches",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search selecting the target cards"},
			&cli.IntFlag{Name: "start", Value: 0, Usage: "First position"},
			&cli.IntFlag{Name: "step", Value: 1, Usage: "Position increment"},
			&cli.BoolFlag{Name: "shuffle", Usage: "Randomize order before numbering"},
			&cli.BoolFlag{Name: "shift", Usage: "Shift existing cards out of the way"},
		},
		Action: func(c *cli.Context) error {
			// Reposition acts on cards only.
			e, err := browser.RunQuery(c.Context, col, c.String("query"), browser.ModeCards,
				browser.SortSpec{Type: collection.SortNone})
			if err != nil {
				return outputError(err)
			}
			e.SelectAll()

			out, err := e.Reposition(c.Context, c.Int("start"), c.Int("step"), c.Bool("shuffle"), c.Bool("shift"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// moveCmd creates the move command.
func moveCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move every card a search matches to an existing deck",
		ArgsUsage: "<deck>",
		Flags:     targetFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("destination deck is required"))
			}
			deckID, err := col.DeckIDByName(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.MoveToDeck(c.Context, deckID)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete every note a search matches, cards included",
		Flags: targetFlags(),
		Action: func(c *cli.Context) error {
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.DeleteSelectedNotes(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the notes a search matches to a TSV file",
		Flags: append(targetFlags(),
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.sift/exports/notes-<timestamp>.tsv)"},
		),
		Action: func(c *cli.Context) error {
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			path, count, err := e.ExportSelected(c.Context, c.String("path"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"path": path, "exported": count})
		},
	}
}

// findReplaceCmd creates the find-replace command.
func findReplaceCmd(col *collection.Collection) *cli.Command {
	return &cli.Command{
		Name:  "find-replace",
		Usage: "Replace text in the fields of every note a search matches",
		Flags: append(targetFlags(),
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Required: true, Usage: "Text to find"},
			&cli.StringFlag{Name: "replace", Aliases: []string{"r"}, Usage: "Replacement text"},
		),
		Action: func(c *cli.Context) error {
			e, err := selectTargets(c.Context, col, c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.FindReplaceSelected(c.Context, c.String("search"), c.String("replace"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sErr, ok := err.(*errors.SiftError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
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
