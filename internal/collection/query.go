package collection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/sift/internal/errors"
)

// SortOrder selects the ORDER BY applied to search results.
type SortOrder string

const (
	SortNone     SortOrder = "none"
	SortCreated  SortOrder = "created"
	SortModified SortOrder = "modified"
	SortDeck     SortOrder = "deck"
	SortPosition SortOrder = "position"
	SortField    SortOrder = "field"
)

// searchTerm is one parsed term of a search expression.
type searchTerm struct {
	key     string // empty for bare words
	value   string
	negated bool
}

// tokenize splits a search expression into terms. Double quotes group a
// value that contains spaces and may appear after a key prefix
// (deck:"My Deck"). A backslash escapes a quote inside a quoted section,
// which is how deck restrictions embed deck names containing quotes.
func tokenize(query string) ([]searchTerm, error) {
	var terms []searchTerm
	runes := []rune(query)
	i := 0

	readQuoted := func() (string, error) {
		// positioned on the opening quote
		i++
		var sb strings.Builder
		for i < len(runes) {
			r := runes[i]
			if r == '\\' && i+1 < len(runes) && runes[i+1] == '"' {
				sb.WriteRune('"')
				i += 2
				continue
			}
			if r == '"' {
				i++
				return sb.String(), nil
			}
			sb.WriteRune(r)
			i++
		}
		return "", errors.NewInvalidSearch("unmatched quote in search expression")
	}

	for i < len(runes) {
		if runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\n' {
			i++
			continue
		}

		var term searchTerm
		if runes[i] == '-' {
			term.negated = true
			i++
		}

		var raw strings.Builder
		for i < len(runes) && runes[i] != ' ' && runes[i] != '\t' && runes[i] != '\n' {
			if runes[i] == '"' {
				val, err := readQuoted()
				if err != nil {
					return nil, err
				}
				raw.WriteString(val)
				continue
			}
			if runes[i] == ':' && term.key == "" {
				term.key = strings.ToLower(raw.String())
				raw.Reset()
				i++
				continue
			}
			raw.WriteRune(runes[i])
			i++
		}

		term.value = raw.String()
		if term.key == "" && term.value == "" {
			continue
		}
		terms = append(terms, term)
	}

	return terms, nil
}

// buildSearch translates a search expression into a WHERE clause over the
// cards/notes/decks join (aliases c, n, d). An empty expression matches
// everything. Syntax problems surface as INVALID_SEARCH.
func buildSearch(query string) (string, []any, error) {
	terms, err := tokenize(query)
	if err != nil {
		return "", nil, err
	}
	if len(terms) == 0 {
		return "1=1", nil, nil
	}

	var conds []string
	var args []any
	for _, term := range terms {
		cond, termArgs, err := termCondition(term)
		if err != nil {
			return "", nil, err
		}
		if term.negated {
			cond = "NOT (" + cond + ")"
		}
		conds = append(conds, cond)
		args = append(args, termArgs...)
	}

	return strings.Join(conds, " AND "), args, nil
}

func termCondition(term searchTerm) (string, []any, error) {
	switch term.key {
	case "":
		// Bare word or quoted phrase: substring match on note fields.
		return "(instr(lower(n.front), lower(?)) > 0 OR instr(lower(n.back), lower(?)) > 0)",
			[]any{term.value, term.value}, nil

	case "deck":
		// Exact deck name, or any of its subdecks.
		return "(d.name = ? COLLATE NOCASE OR d.name LIKE ? || '::%')",
			[]any{term.value, term.value}, nil

	case "tag":
		if term.value == "none" {
			return "n.tags = ''", nil, nil
		}
		return "instr(' ' || lower(n.tags) || ' ', ' ' || lower(?) || ' ') > 0",
			[]any{term.value}, nil

	case "front":
		return "instr(lower(n.front), lower(?)) > 0", []any{term.value}, nil

	case "back":
		return "instr(lower(n.back), lower(?)) > 0", []any{term.value}, nil

	case "is":
		switch term.value {
		case "new":
			return fmt.Sprintf("c.queue = %d", QueueNew), nil, nil
		case "learn":
			return fmt.Sprintf("c.queue = %d", QueueLearn), nil, nil
		case "review":
			return fmt.Sprintf("c.queue = %d", QueueReview), nil, nil
		case "suspended":
			return fmt.Sprintf("c.queue = %d", QueueSuspended), nil, nil
		case "buried":
			return fmt.Sprintf("c.queue IN (%d, %d)", QueueUserBuried, QueueSchedBuried), nil, nil
		default:
			return "", nil, errors.NewInvalidSearch(fmt.Sprintf("unknown state in is:%s", term.value))
		}

	case "flag":
		flag, err := strconv.Atoi(term.value)
		if err != nil || flag < 0 || flag > 7 {
			return "", nil, errors.NewInvalidSearch(fmt.Sprintf("flag must be 0-7, got %q", term.value))
		}
		return "c.flag = ?", []any{flag}, nil

	default:
		return "", nil, errors.NewInvalidSearch(fmt.Sprintf("unknown search key %q", term.key))
	}
}

// orderColumn returns the sort expression for an order, or "" for SortNone.
func orderColumn(order SortOrder) (string, error) {
	switch order {
	case SortNone, "":
		return "", nil
	case SortCreated:
		return "c.created_at", nil
	case SortModified:
		return "c.updated_at", nil
	case SortDeck:
		return "d.name", nil
	case SortPosition:
		return "c.position", nil
	case SortField:
		return "lower(n.front)", nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("unknown sort order %q", order))
	}
}
