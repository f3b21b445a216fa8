package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

const distractorCount = domain.QuizOptionCount - 1

// QuizGenerator builds multiple-choice questions from the stored concepts.
type QuizGenerator struct {
	vocab    *VocabularyStore
	progress *ProgressTracker
	shuffle  func(n int, swap func(i, j int))
	log      *slog.Logger
}

// NewQuizGenerator creates a QuizGenerator.
func NewQuizGenerator(vocab *VocabularyStore, progress *ProgressTracker, logger *slog.Logger) *QuizGenerator {
	return &QuizGenerator{
		vocab:    vocab,
		progress: progress,
		shuffle:  rand.Shuffle,
		log:      logger.With("component", "quiz"),
	}
}

// Generate returns a four-option question for the concept. It fails with
// domain.ErrNotFound when the concept or its progress is unknown, or when
// fewer than three other concepts exist to serve as distractors.
func (g *QuizGenerator) Generate(ctx context.Context, conceptID int64) (domain.Quiz, error) {
	concept, err := g.vocab.GetConcept(ctx, conceptID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz concept: %w", err)
	}
	if _, err := g.progress.Get(ctx, conceptID); err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz progress: %w", err)
	}

	others, err := g.vocab.RandomOthers(ctx, conceptID, distractorCount)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz distractors: %w", err)
	}
	if len(others) < distractorCount {
		g.log.DebugContext(ctx, "catalog too small for a quiz",
			slog.Int64("concept_id", conceptID),
			slog.Int("others", len(others)),
		)
		return domain.Quiz{}, fmt.Errorf("%w: need %d other items for a quiz, have %d",
			domain.ErrNotFound, distractorCount, len(others))
	}

	options := make([]domain.QuizOption, 0, domain.QuizOptionCount)
	options = append(options, domain.QuizOption{ID: concept.ID, Text: concept.DisplayText()})
	for _, o := range others[:distractorCount] {
		options = append(options, domain.QuizOption{ID: o.ID, Text: o.DisplayText()})
	}
	g.shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return domain.Quiz{
		CorrectID: concept.ID,
		Question:  concept.Label,
		Options:   options,
	}, nil
}
