package collection

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkdownPreview(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"emphasis stripped", "some **bold** and *italic* text", "some bold and italic text"},
		{"heading stripped", "# Title\n\nbody text", "Title body text"},
		{"link text kept", "see [the docs](https://example.com) here", "see the docs here"},
		{"soft break collapses", "line one\nline two", "line one line two"},
		{"list items", "- uno\n- dos", "uno dos"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := markdownPreview(tt.md); got != tt.want {
				t.Errorf("markdownPreview(%q) = %q, want %q", tt.md, got, tt.want)
			}
		})
	}
}

func TestMarkdownPreview_Truncates(t *testing.T) {
	long := strings.Repeat("palabra ", 40)
	got := markdownPreview(long)
	if len([]rune(got)) != MaxPreviewChars {
		t.Errorf("len = %d, want %d", len([]rune(got)), MaxPreviewChars)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated preview should end with ellipsis: %q", got)
	}
}

func TestRenderBrowserRow(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	noteID, cardID := addNote(t, col, "Spanish", "**hola**", "hello\nthere", MarkedTag, "greeting")

	if _, err := col.SetUserFlag(ctx, []CardID{cardID}, 2); err != nil {
		t.Fatalf("SetUserFlag failed: %v", err)
	}

	row, err := col.RenderBrowserRow(ctx, cardID)
	if err != nil {
		t.Fatalf("RenderBrowserRow failed: %v", err)
	}
	if row.CardID != cardID || row.NoteID != noteID {
		t.Errorf("ids = %d/%d, want %d/%d", row.CardID, row.NoteID, cardID, noteID)
	}
	if row.Deck != "Spanish" {
		t.Errorf("Deck = %q", row.Deck)
	}
	if row.Question != "hola" {
		t.Errorf("Question = %q, want markdown stripped", row.Question)
	}
	if row.Answer != "hello there" {
		t.Errorf("Answer = %q, want line break collapsed", row.Answer)
	}
	if !row.Marked {
		t.Error("row should be marked")
	}
	if row.Flag != 2 {
		t.Errorf("Flag = %d, want 2", row.Flag)
	}
	if row.Suspended || row.Buried {
		t.Errorf("fresh card should be neither suspended nor buried: %+v", row)
	}
}

func TestExportNotes(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	n1, _ := addNote(t, col, "Spanish", "hola\tamigo", "line one\nline two", "greeting")
	n2, _ := addNote(t, col, "Spanish", "adios", "bye")

	path := filepath.Join(t.TempDir(), "out.tsv")
	written, count, err := col.ExportNotes(ctx, []NoteID{n1, n2, 99999}, path)
	if err != nil {
		t.Fatalf("ExportNotes failed: %v", err)
	}
	if written != path {
		t.Errorf("path = %q, want %q", written, path)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (stale id skipped)", count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0] != "hola\\tamigo\tline one\\nline two\tgreeting" {
		t.Errorf("line 1 = %q", lines[0])
	}
	if lines[1] != "adios\tbye\t" {
		t.Errorf("line 2 = %q", lines[1])
	}
}

func TestExportNotes_DefaultPath(t *testing.T) {
	col := newTestCollection(t)
	n1, _ := addNote(t, col, "Spanish", "hola", "hello")

	written, count, err := col.ExportNotes(context.Background(), []NoteID{n1}, "")
	if err != nil {
		t.Fatalf("ExportNotes failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if filepath.Dir(written) != col.ExportsDir() {
		t.Errorf("default export should land in exports dir: %q", written)
	}
	if _, err := os.Stat(written); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}
