package collection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportNotes writes the given notes as tab-separated front/back/tags lines.
// An empty path writes to a timestamped file in the exports directory.
// Returns the path written and the number of notes exported; stale ids are
// skipped.
func (c *Collection) ExportNotes(ctx context.Context, ids []NoteID, path string) (string, int, error) {
	if path == "" {
		name := fmt.Sprintf("notes-%s.tsv", time.Now().UTC().Format("20060102-150405"))
		path = filepath.Join(c.ExportsDir(), name)
	}

	var sb strings.Builder
	exported := 0
	for _, id := range ids {
		note, err := c.GetNote(ctx, id)
		if err != nil {
			continue // deleted since selection; skip
		}
		sb.WriteString(escapeTSV(note.Front))
		sb.WriteByte('\t')
		sb.WriteString(escapeTSV(note.Back))
		sb.WriteByte('\t')
		sb.WriteString(joinTags(note.Tags))
		sb.WriteByte('\n')
		exported++
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return "", 0, fmt.Errorf("export notes: %w", err)
	}
	return path, exported, nil
}

func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
