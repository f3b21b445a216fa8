package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

// maxCreateAttempts bounds the optimistic lookup-or-insert loop.
const maxCreateAttempts = 3

type conceptRepo interface {
	FindConceptByLabel(ctx context.Context, label string) (domain.Concept, error)
	GetConcept(ctx context.Context, id int64) (domain.Concept, error)
	InsertConcept(ctx context.Context, label, imagePath string, now time.Time) (domain.Concept, error)
	LoadConcept(ctx context.Context, id int64) (domain.ConceptDetails, error)
	UpdateNativeDefinition(ctx context.Context, id int64, definition string) error
	RecentConcepts(ctx context.Context, excludeID int64, limit int) ([]domain.Concept, error)
	RandomConcepts(ctx context.Context, excludeID int64, limit int) ([]domain.Concept, error)
	DeleteConcept(ctx context.Context, id int64) error
	HasTranslation(ctx context.Context, conceptID int64, lang string) (bool, error)
	AttachTranslation(ctx context.Context, t domain.Translation, now time.Time) (domain.Translation, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// VocabularyStore owns lookup-or-create of concepts and the write path of
// their translations.
type VocabularyStore struct {
	repo  conceptRepo
	tx    txManager
	clock Clock
	log   *slog.Logger
}

// NewVocabularyStore creates a VocabularyStore.
func NewVocabularyStore(repo conceptRepo, tx txManager, clock Clock, logger *slog.Logger) *VocabularyStore {
	return &VocabularyStore{
		repo:  repo,
		tx:    tx,
		clock: clock.orDefault(),
		log:   logger.With("component", "vocabulary"),
	}
}

// GetOrCreateConcept returns the concept for label, creating it when it has
// never been seen. created is true only for the caller whose insert won.
// A racing insert of the same label is resolved by re-reading the winner.
func (s *VocabularyStore) GetOrCreateConcept(ctx context.Context, label, imagePath string) (domain.Concept, bool, error) {
	label = domain.NormalizeLabel(label)
	if label == "" {
		return domain.Concept{}, false, fmt.Errorf("%w: label is required", domain.ErrInvalidInput)
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		existing, err := s.repo.FindConceptByLabel(ctx, label)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Concept{}, false, fmt.Errorf("find concept: %w", err)
		}

		created, err := s.repo.InsertConcept(ctx, label, imagePath, s.clock())
		if err == nil {
			s.log.InfoContext(ctx, "concept created",
				slog.String("label", created.Label),
				slog.Int64("concept_id", created.ID),
			)
			return created, true, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Concept{}, false, fmt.Errorf("insert concept: %w", err)
		}

		s.log.DebugContext(ctx, "concept insert lost race, re-reading",
			slog.String("label", label),
			slog.Int("attempt", attempt),
		)
	}

	return domain.Concept{}, false, fmt.Errorf("get or create concept %q: gave up after %d attempts", label, maxCreateAttempts)
}

// Lookup finds a concept by label without creating it.
func (s *VocabularyStore) Lookup(ctx context.Context, label string) (domain.Concept, bool, error) {
	c, err := s.repo.FindConceptByLabel(ctx, label)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Concept{}, false, nil
	}
	if err != nil {
		return domain.Concept{}, false, fmt.Errorf("find concept: %w", err)
	}
	return c, true, nil
}

// GetConcept returns a concept by ID.
func (s *VocabularyStore) GetConcept(ctx context.Context, id int64) (domain.Concept, error) {
	return s.repo.GetConcept(ctx, id)
}

// LoadConcept returns a concept with all of its translations.
func (s *VocabularyStore) LoadConcept(ctx context.Context, id int64) (domain.ConceptDetails, error) {
	return s.repo.LoadConcept(ctx, id)
}

// HasTranslation reports whether the concept has a translation for lang,
// ignoring case.
func (s *VocabularyStore) HasTranslation(ctx context.Context, conceptID int64, lang string) (bool, error) {
	return s.repo.HasTranslation(ctx, conceptID, lang)
}

// AttachTranslation stores t and, when nativeDefinition is not blank, makes
// it the concept's canonical definition. Both writes commit together.
// A translation already present for the language yields domain.ErrAlreadyExists
// and leaves the concept untouched.
func (s *VocabularyStore) AttachTranslation(ctx context.Context, t domain.Translation, nativeDefinition string) (domain.Translation, error) {
	var saved domain.Translation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		saved, err = s.repo.AttachTranslation(ctx, t, s.clock())
		if err != nil {
			return err
		}
		if def := strings.TrimSpace(nativeDefinition); def != "" {
			return s.repo.UpdateNativeDefinition(ctx, t.ConceptID, def)
		}
		return nil
	})
	if err != nil {
		return domain.Translation{}, fmt.Errorf("attach translation: %w", err)
	}
	return saved, nil
}

// ContextWords returns the labels of up to limit most recently created
// concepts other than excludeID.
func (s *VocabularyStore) ContextWords(ctx context.Context, excludeID int64, limit int) ([]string, error) {
	recent, err := s.repo.RecentConcepts(ctx, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent concepts: %w", err)
	}
	words := make([]string, 0, len(recent))
	for _, c := range recent {
		words = append(words, c.Label)
	}
	return words, nil
}

// RandomOthers returns up to limit random concepts other than excludeID.
func (s *VocabularyStore) RandomOthers(ctx context.Context, excludeID int64, limit int) ([]domain.Concept, error) {
	return s.repo.RandomConcepts(ctx, excludeID, limit)
}

// DeleteConcept removes a concept together with its translations and progress.
func (s *VocabularyStore) DeleteConcept(ctx context.Context, id int64) error {
	if err := s.repo.DeleteConcept(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "concept deleted", slog.Int64("concept_id", id))
	return nil
}
