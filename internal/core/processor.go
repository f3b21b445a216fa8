package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fridgelingo/fridgelingo/internal/domain"
	"github.com/fridgelingo/fridgelingo/internal/images"
	"github.com/fridgelingo/fridgelingo/internal/parser"
	"github.com/fridgelingo/fridgelingo/internal/vision"
)

// Placeholders shown when a concept has no translation to display.
const (
	MissingWord         = "???"
	MissingSentence     = "No data"
	MissingItemSentence = "No data."
	MissingLanguage     = "en"
)

const (
	reviewedMessage  = "Reviewed successfully!"
	defaultImportCap = 4
)

type imageStore interface {
	Save(data []byte) (string, error)
	Remove(name string) error
}

// Settings are the pipeline defaults.
type Settings struct {
	TargetLang        string
	NativeLang        string
	ImportConcurrency int
}

// Deps are the collaborators of a Processor. Detector and Images may be nil.
type Deps struct {
	Detector vision.LabelDetector
	Resolver *LabelResolver
	Vocab    *VocabularyStore
	Enricher *ContentEnricher
	Progress *ProgressTracker
	Quizzes  *QuizGenerator
	Stats    *StatsAggregator
	Images   imageStore
}

// Processor orchestrates the vocabulary acquisition pipeline
type Processor struct {
	detector vision.LabelDetector
	resolver *LabelResolver
	vocab    *VocabularyStore
	enricher *ContentEnricher
	progress *ProgressTracker
	quizzes  *QuizGenerator
	stats    *StatsAggregator
	images   imageStore
	settings Settings
	log      *slog.Logger
}

// NewProcessor creates a new Processor instance
func NewProcessor(deps Deps, settings Settings, logger *slog.Logger) *Processor {
	if settings.ImportConcurrency <= 0 {
		settings.ImportConcurrency = defaultImportCap
	}
	if deps.Stats == nil {
		deps.Stats = NewStatsAggregator()
	}
	return &Processor{
		detector: deps.Detector,
		resolver: deps.Resolver,
		vocab:    deps.Vocab,
		enricher: deps.Enricher,
		progress: deps.Progress,
		quizzes:  deps.Quizzes,
		stats:    deps.Stats,
		images:   deps.Images,
		settings: settings,
		log:      logger.With("component", "processor"),
	}
}

// EnrichedQuestion is the flashcard produced for a submitted item.
type EnrichedQuestion struct {
	ConceptID      int64  `json:"word_id"`
	LabelEn        string `json:"label_en"`
	FrontWord      string `json:"front_word"`
	BackWord       string `json:"back_word"`
	BackSentence   string `json:"back_sentence"`
	Emoji          string `json:"emoji"`
	TargetLangCode string `json:"target_lang_code"`
	ImagePath      string `json:"image_path,omitempty"`
}

// FridgeItem is one learned item with its derived freshness.
type FridgeItem struct {
	WordID           int64            `json:"word_id"`
	LabelEn          string           `json:"label_en"`
	ProficiencyLevel int              `json:"proficiency_level"`
	ReviewCount      int              `json:"review_count"`
	Freshness        domain.Freshness `json:"freshness"`
	DaysSinceReview  int              `json:"days_since_review"`
	DueForReview     bool             `json:"due_for_review"`
	NativeDefinition string           `json:"native_definition"`
	LanguageCode     string           `json:"language_code"`
	TranslatedWord   string           `json:"translated_word"`
	ExampleSentence  string           `json:"example_sentence"`
	Emoji            string           `json:"emoji"`
	ImagePath        string           `json:"image_path,omitempty"`
}

// ReviewAck confirms a review and reports the new state.
type ReviewAck struct {
	Message          string `json:"message"`
	WordID           int64  `json:"word_id"`
	ProficiencyLevel int    `json:"proficiency_level"`
	ReviewCount      int    `json:"review_count"`
}

// ImportResult contains the results of importing a grocery list
type ImportResult struct {
	New       int                `json:"new"`
	Existing  int                `json:"existing"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Questions []EnrichedQuestion `json:"questions"`
}

// SubmitImage runs the acquisition pipeline for one photo. The result is
// empty when no food label could be resolved. Detector failures and invalid
// images are returned as errors; label choice and enrichment failures only
// degrade the result.
func (p *Processor) SubmitImage(ctx context.Context, image []byte, targetLang, nativeLang string) ([]EnrichedQuestion, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	if !images.IsImage(image) {
		return nil, fmt.Errorf("%w: unsupported image format %s", domain.ErrInvalidInput, images.DetectContentType(image))
	}
	if p.detector == nil {
		return nil, fmt.Errorf("%w: no label detector configured", domain.ErrUpstreamUnavailable)
	}
	targetLang, nativeLang = p.languages(targetLang, nativeLang)

	labels, err := p.detector.DetectLabels(ctx, image)
	if err != nil {
		p.log.ErrorContext(ctx, "label detection failed", slog.String("error", err.Error()))
		if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, fmt.Errorf("detect labels: %w", err)
		}
		return nil, fmt.Errorf("%w: detect labels: %v", domain.ErrUpstreamUnavailable, err)
	}

	label, ok := p.resolver.Resolve(ctx, labels)
	if !ok {
		p.log.InfoContext(ctx, "no food label resolved", slog.Any("labels", labels))
		return []EnrichedQuestion{}, nil
	}

	q, _, err := p.acquire(ctx, label, image, targetLang, nativeLang)
	if err != nil {
		return nil, err
	}
	return []EnrichedQuestion{q}, nil
}

// acquire gets or creates the concept for label, makes sure it has progress
// and tries to enrich it for targetLang.
func (p *Processor) acquire(ctx context.Context, label string, image []byte, targetLang, nativeLang string) (EnrichedQuestion, bool, error) {
	imageName := ""
	if len(image) > 0 && p.images != nil {
		_, found, err := p.vocab.Lookup(ctx, label)
		if err != nil {
			return EnrichedQuestion{}, false, err
		}
		if !found {
			if imageName, err = p.images.Save(image); err != nil {
				p.log.WarnContext(ctx, "failed to store image", slog.String("error", err.Error()))
				imageName = ""
			}
		}
	}

	concept, created, err := p.vocab.GetOrCreateConcept(ctx, label, imageName)
	if err != nil {
		p.removeImage(ctx, imageName)
		return EnrichedQuestion{}, false, err
	}
	if !created {
		p.removeImage(ctx, imageName)
	}

	if _, _, err := p.progress.Initialize(ctx, concept.ID); err != nil {
		return EnrichedQuestion{}, false, err
	}

	if _, err := p.enricher.Enrich(ctx, concept, targetLang, nativeLang); err != nil {
		return EnrichedQuestion{}, false, err
	}

	details, err := p.vocab.LoadConcept(ctx, concept.ID)
	if err != nil {
		return EnrichedQuestion{}, false, err
	}
	return newEnrichedQuestion(details, targetLang), created, nil
}

// removeImage deletes an image whose concept insert lost a race.
func (p *Processor) removeImage(ctx context.Context, name string) {
	if name == "" || p.images == nil {
		return
	}
	if err := p.images.Remove(name); err != nil {
		p.log.WarnContext(ctx, "failed to remove image", slog.String("image", name), slog.String("error", err.Error()))
	}
}

func (p *Processor) languages(targetLang, nativeLang string) (string, string) {
	targetLang = domain.NormalizeLanguage(targetLang)
	nativeLang = domain.NormalizeLanguage(nativeLang)
	if targetLang == "" {
		targetLang = domain.NormalizeLanguage(p.settings.TargetLang)
	}
	if nativeLang == "" {
		nativeLang = domain.NormalizeLanguage(p.settings.NativeLang)
	}
	return targetLang, nativeLang
}

// ImportDocument reads a PDF or DOCX grocery list and acquires every listed
// item that is not on the denylist. Items are processed concurrently; a
// failing item is counted and does not stop the others.
func (p *Processor) ImportDocument(ctx context.Context, r io.Reader, filename, targetLang, nativeLang string) (*ImportResult, error) {
	text, err := parser.ParseReader(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	targetLang, nativeLang = p.languages(targetLang, nativeLang)

	result := &ImportResult{}
	var candidates []string
	for _, item := range parser.ExtractItems(text) {
		if p.resolver.Denied(item) {
			result.Skipped++
			continue
		}
		candidates = append(candidates, item)
	}

	questions := make([]*EnrichedQuestion, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.ImportConcurrency)
	for i, item := range candidates {
		g.Go(func() error {
			q, created, err := p.acquire(gctx, item, nil, targetLang, nativeLang)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.log.WarnContext(gctx, "import item failed", slog.String("item", item), slog.String("error", err.Error()))
				result.Failed++
			case created:
				result.New++
				questions[i] = &q
			default:
				result.Existing++
				questions[i] = &q
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import %s: %w", filename, err)
	}

	result.Questions = make([]EnrichedQuestion, 0, len(questions))
	for _, q := range questions {
		if q != nil {
			result.Questions = append(result.Questions, *q)
		}
	}

	p.log.InfoContext(ctx, "grocery list imported",
		slog.String("file", filename),
		slog.Int("new", result.New),
		slog.Int("existing", result.Existing),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// ListFridge returns every item, least recently reviewed first.
func (p *Processor) ListFridge(ctx context.Context) ([]FridgeItem, error) {
	entries, err := p.progress.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fridge: %w", err)
	}

	now := p.progress.Now()
	items := make([]FridgeItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, newFridgeItem(e, now))
	}
	return items, nil
}

// GetItem returns one fridge item.
func (p *Processor) GetItem(ctx context.Context, wordID int64) (FridgeItem, error) {
	e, err := p.progress.Entry(ctx, wordID)
	if err != nil {
		return FridgeItem{}, err
	}
	return newFridgeItem(e, p.progress.Now()), nil
}

// DeleteItem removes an item with its translations, progress and photo.
func (p *Processor) DeleteItem(ctx context.Context, wordID int64) error {
	concept, err := p.vocab.GetConcept(ctx, wordID)
	if err != nil {
		return err
	}
	if err := p.vocab.DeleteConcept(ctx, wordID); err != nil {
		return err
	}
	p.removeImage(ctx, concept.ImagePath)
	return nil
}

// ReviewItem records a review of the item.
func (p *Processor) ReviewItem(ctx context.Context, wordID int64) (ReviewAck, error) {
	state, err := p.progress.Review(ctx, wordID)
	if err != nil {
		return ReviewAck{}, err
	}
	return ReviewAck{
		Message:          reviewedMessage,
		WordID:           wordID,
		ProficiencyLevel: state.ProficiencyLevel,
		ReviewCount:      state.ReviewCount,
	}, nil
}

// GetQuiz builds a multiple-choice question for the item.
func (p *Processor) GetQuiz(ctx context.Context, wordID int64) (domain.Quiz, error) {
	return p.quizzes.Generate(ctx, wordID)
}

// GetStats summarizes the whole fridge.
func (p *Processor) GetStats(ctx context.Context) (domain.Stats, error) {
	entries, err := p.progress.List(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return p.stats.Compute(entries, p.progress.Now()), nil
}

func newEnrichedQuestion(d domain.ConceptDetails, targetLang string) EnrichedQuestion {
	q := EnrichedQuestion{
		ConceptID: d.ID,
		LabelEn:   d.Label,
		FrontWord: d.DisplayText(),
		ImagePath: d.ImagePath,
	}
	if t, ok := d.TranslationFor(targetLang); ok {
		q.BackWord = t.TranslatedWord
		q.BackSentence = t.ExampleSentence
		q.Emoji = t.Emoji
		q.TargetLangCode = t.LanguageCode
	} else {
		q.BackWord = MissingWord
		q.BackSentence = MissingSentence
		q.Emoji = FallbackEmoji
		q.TargetLangCode = MissingLanguage
	}
	return q
}

func newFridgeItem(e domain.FridgeEntry, now time.Time) FridgeItem {
	item := FridgeItem{
		WordID:           e.Concept.ID,
		LabelEn:          e.Concept.Label,
		ProficiencyLevel: e.Progress.ProficiencyLevel,
		ReviewCount:      e.Progress.ReviewCount,
		Freshness:        Classify(e.Progress, now),
		DaysSinceReview:  DaysSince(e.Progress, now),
		DueForReview:     IsDue(e.Progress, now),
		NativeDefinition: e.Concept.DisplayText(),
		ImagePath:        e.Concept.ImagePath,
	}
	if t, ok := e.Concept.LatestTranslation(); ok {
		item.LanguageCode = t.LanguageCode
		item.TranslatedWord = t.TranslatedWord
		item.ExampleSentence = t.ExampleSentence
		item.Emoji = t.Emoji
		if item.Emoji == "" {
			item.Emoji = FallbackEmoji
		}
	} else {
		item.LanguageCode = MissingLanguage
		item.TranslatedWord = MissingWord
		item.ExampleSentence = MissingItemSentence
		item.Emoji = FallbackEmoji
	}
	return item
}
