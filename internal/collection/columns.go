package collection

// ColumnMeta describes one display column the browser can show.
type ColumnMeta struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// BrowserColumns returns the display columns this backend can populate.
// The browser validates its active-column configuration against this list.
func (c *Collection) BrowserColumns() []ColumnMeta {
	return []ColumnMeta{
		{Key: "question", Label: "Question"},
		{Key: "answer", Label: "Answer"},
		{Key: "deck", Label: "Deck"},
		{Key: "tags", Label: "Tags"},
		{Key: "created", Label: "Created"},
		{Key: "modified", Label: "Modified"},
		{Key: "position", Label: "Position"},
		{Key: "flag", Label: "Flag"},
	}
}
