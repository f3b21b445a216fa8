// Package domain holds the fridge vocabulary model shared by every layer.
package domain

import (
	"sort"
	"strings"
	"time"
)

// Concept is a single learnable food item keyed by its canonical English label.
type Concept struct {
	ID               int64     `json:"id"`
	Label            string    `json:"label_en"`
	NativeDefinition string    `json:"native_definition"`
	ImagePath        string    `json:"image_path,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// DisplayText is the learner-facing text for the concept: the native
// definition once enrichment has filled it in, the English label otherwise.
func (c Concept) DisplayText() string {
	if strings.TrimSpace(c.NativeDefinition) != "" {
		return c.NativeDefinition
	}
	return c.Label
}

// Translation is the target-language rendering of a Concept.
type Translation struct {
	ID              int64     `json:"id"`
	ConceptID       int64     `json:"concept_id"`
	LanguageCode    string    `json:"language_code"`
	TranslatedWord  string    `json:"translated_word"`
	ExampleSentence string    `json:"example_sentence"`
	Emoji           string    `json:"emoji"`
	CreatedAt       time.Time `json:"created_at"`
}

// ConceptDetails is a concept with all of its translations loaded.
type ConceptDetails struct {
	Concept
	Translations []Translation `json:"translations"`
}

// TranslationFor returns the translation for lang. Legacy duplicates are
// resolved by the most recently created row.
func (d ConceptDetails) TranslationFor(lang string) (Translation, bool) {
	lang = NormalizeLanguage(lang)
	var (
		best  Translation
		found bool
	)
	for _, t := range d.Translations {
		if NormalizeLanguage(t.LanguageCode) != lang {
			continue
		}
		if !found || newer(t, best) {
			best, found = t, true
		}
	}
	return best, found
}

// LatestTranslation returns the most recently created translation in any language.
func (d ConceptDetails) LatestTranslation() (Translation, bool) {
	if len(d.Translations) == 0 {
		return Translation{}, false
	}
	ts := make([]Translation, len(d.Translations))
	copy(ts, d.Translations)
	sort.Slice(ts, func(i, j int) bool { return newer(ts[i], ts[j]) })
	return ts[0], true
}

func newer(a, b Translation) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// NormalizeLabel trims and collapses inner whitespace of a detector label.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(label), " ")
}

// LabelKey is the case-insensitive uniqueness key of a label.
func LabelKey(label string) string {
	return strings.ToLower(NormalizeLabel(label))
}

// NormalizeLanguage lower-cases a language code.
func NormalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
