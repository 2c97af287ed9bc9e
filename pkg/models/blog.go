package models

// BlogDocument is the generated post. It is produced once by the backend and
// never modified by the client.
type BlogDocument struct {
	Title           string         `json:"title"`
	MarkdownContent string         `json:"markdown_content"`
	HTMLContent     *string        `json:"html_content,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       Timestamp      `json:"created_at"`
}
