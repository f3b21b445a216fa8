package ai

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var textPolicy = bluemonday.StrictPolicy()

// StripCodeFences removes optional markdown code block wrappers around a
// model answer.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop the language tag on the opening fence line
		if i := strings.IndexAny(s, "\n{["); i >= 0 && !strings.ContainsAny(s[:i], "{[\"") {
			s = s[i:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeObject parses a model answer into v after stripping code fences.
// Anything that is not a JSON object is reported as domain.ErrMalformedResponse.
func DecodeObject(raw string, v any) error {
	body := StripCodeFences(raw)
	if !strings.HasPrefix(body, "{") {
		return fmt.Errorf("%w: expected JSON object", domain.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// CleanText strips markup from generated text and trims it.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
