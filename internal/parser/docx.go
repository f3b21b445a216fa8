package parser

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nguyenthenguyen/docx"
)

var (
	markupPolicy = bluemonday.StrictPolicy()

	// paragraph and line breaks of WordprocessingML become newlines
	breakReplacer = strings.NewReplacer(
		"</w:p>", "\n",
		"<w:br/>", "\n",
		"<w:cr/>", "\n",
		"<w:tab/>", " ",
	)
)

// parseDOCX extracts the text of a DOCX document, one paragraph per line.
func parseDOCX(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer doc.Close()

	raw := breakReplacer.Replace(doc.Editable().GetContent())
	text := html.UnescapeString(markupPolicy.Sanitize(raw))

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	content := strings.TrimSpace(strings.Join(lines, "\n"))
	if content == "" {
		return "", fmt.Errorf("no text content found in DOCX")
	}
	return content, nil
}
