// Package document saves a generated blog post as a markdown file.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// ContentType is the media type of a saved document.
const ContentType = "text/markdown; charset=utf-8"

const untitled = "untitled"

var ErrNoDocument = errors.New("no document to save")

var unsafeChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// Filename derives the download name from a post title: every character
// outside a-z and 0-9 becomes "-", the result is lowercased and ".md" appended.
func Filename(title string) string {
	name := strings.ToLower(unsafeChars.ReplaceAllString(title, "-"))
	if name == "" {
		name = untitled
	}
	return name + ".md"
}

// Save writes the markdown content of doc. An empty target or an existing
// directory gets Filename(doc.Title) inside it; anything else is used as the
// file path. It returns the path written.
func Save(target string, doc *models.BlogDocument) (string, error) {
	if doc == nil {
		return "", ErrNoDocument
	}

	path := target
	if target == "" {
		path = Filename(doc.Title)
	} else if fi, err := os.Stat(target); err == nil && fi.IsDir() {
		path = filepath.Join(target, Filename(doc.Title))
	}

	if err := os.WriteFile(path, []byte(doc.MarkdownContent), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
