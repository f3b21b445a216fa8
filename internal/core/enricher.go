package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fridgelingo/fridgelingo/internal/ai"
	"github.com/fridgelingo/fridgelingo/internal/domain"
)

// Placeholders substituted for missing enrichment fields.
const (
	FallbackSentence = "No example available."
	FallbackEmoji    = "📦"
)

const contextWordLimit = 3

// EnrichmentResult is the repaired content of one enrichment call.
type EnrichmentResult struct {
	TranslatedWord   string `json:"translated_word"`
	NativeDefinition string `json:"native_definition"`
	ExampleSentence  string `json:"example_sentence"`
	Emoji            string `json:"emoji"`
}

type enrichmentPayload struct {
	TranslatedWord   string `json:"translatedWord"`
	NativeDefinition string `json:"nativeDefinition"`
	ExampleSentence  string `json:"exampleSentence"`
	Sentence         string `json:"sentence"`
	Emoji            string `json:"emoji"`
}

// ContentEnricher fills in a concept's translation, definition, example
// sentence and emoji for one target language, at most once.
type ContentEnricher struct {
	vocab *VocabularyStore
	gen   ai.Generator
	log   *slog.Logger
}

// NewContentEnricher creates a ContentEnricher. gen may be nil, which
// disables enrichment.
func NewContentEnricher(vocab *VocabularyStore, gen ai.Generator, logger *slog.Logger) *ContentEnricher {
	return &ContentEnricher{
		vocab: vocab,
		gen:   gen,
		log:   logger.With("component", "enricher"),
	}
}

// Enrich generates and stores content for concept in targetLang. A nil
// result means nothing was enriched: the translation already exists, the
// provider failed, or a concurrent request stored it first. Only store
// failures are returned as errors.
func (e *ContentEnricher) Enrich(ctx context.Context, concept domain.Concept, targetLang, nativeLang string) (*EnrichmentResult, error) {
	targetLang = domain.NormalizeLanguage(targetLang)
	nativeLang = domain.NormalizeLanguage(nativeLang)
	if targetLang == "" || nativeLang == "" {
		return nil, fmt.Errorf("%w: target and native language are required", domain.ErrInvalidInput)
	}

	has, err := e.vocab.HasTranslation(ctx, concept.ID, targetLang)
	if err != nil {
		return nil, fmt.Errorf("check translation: %w", err)
	}
	if has {
		return nil, nil
	}

	if e.gen == nil {
		e.log.WarnContext(ctx, "no content generator configured, skipping enrichment",
			slog.Int64("concept_id", concept.ID),
		)
		return nil, nil
	}

	contextWords, err := e.vocab.ContextWords(ctx, concept.ID, contextWordLimit)
	if err != nil {
		return nil, err
	}

	raw, err := e.gen.Generate(ctx, ai.BuildEnrichmentPrompt(ai.EnrichmentRequest{
		Word:         concept.Label,
		TargetLang:   targetLang,
		NativeLang:   nativeLang,
		ContextWords: contextWords,
	}))
	if err != nil {
		e.log.WarnContext(ctx, "content generator unavailable, leaving concept unenriched",
			slog.Int64("concept_id", concept.ID),
			slog.String("lang", targetLang),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	result, err := parseEnrichment(raw, concept.Label)
	if err != nil {
		e.log.WarnContext(ctx, "content generator returned malformed output",
			slog.Int64("concept_id", concept.ID),
			slog.String("lang", targetLang),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	_, err = e.vocab.AttachTranslation(ctx, domain.Translation{
		ConceptID:       concept.ID,
		LanguageCode:    targetLang,
		TranslatedWord:  result.TranslatedWord,
		ExampleSentence: result.ExampleSentence,
		Emoji:           result.Emoji,
	}, result.NativeDefinition)
	if errors.Is(err, domain.ErrAlreadyExists) {
		e.log.InfoContext(ctx, "translation stored by a concurrent request",
			slog.Int64("concept_id", concept.ID),
			slog.String("lang", targetLang),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "concept enriched",
		slog.Int64("concept_id", concept.ID),
		slog.String("lang", targetLang),
		slog.String("translated_word", result.TranslatedWord),
	)
	return result, nil
}

// parseEnrichment decodes a generator answer and fills in missing fields.
func parseEnrichment(raw, label string) (*EnrichmentResult, error) {
	var p enrichmentPayload
	if err := ai.DecodeObject(raw, &p); err != nil {
		return nil, err
	}

	res := &EnrichmentResult{
		TranslatedWord:   ai.CleanText(p.TranslatedWord),
		NativeDefinition: ai.CleanText(p.NativeDefinition),
		ExampleSentence:  ai.CleanText(p.ExampleSentence),
		Emoji:            ai.CleanText(p.Emoji),
	}
	if res.TranslatedWord == "" {
		res.TranslatedWord = label
	}
	if res.ExampleSentence == "" {
		res.ExampleSentence = ai.CleanText(p.Sentence)
	}
	if res.ExampleSentence == "" {
		res.ExampleSentence = FallbackSentence
	}
	if res.Emoji == "" {
		res.Emoji = FallbackEmoji
	}
	return res, nil
}
