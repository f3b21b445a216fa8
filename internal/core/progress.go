package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

// DefaultReviewInterval is the gap between a review and the next due date.
const DefaultReviewInterval = 24 * time.Hour

// Freshness boundaries in whole elapsed days.
const (
	warningAfterDays = 2
	rottenAfterDays  = 4
)

type progressRepo interface {
	GetProgressByConcept(ctx context.Context, conceptID int64) (domain.ProgressState, error)
	InsertProgress(ctx context.Context, p domain.ProgressState) (domain.ProgressState, error)
	AdvanceProgress(ctx context.Context, conceptID int64, now time.Time, interval time.Duration) (domain.ProgressState, error)
	ListFridgeEntries(ctx context.Context) ([]domain.FridgeEntry, error)
	GetFridgeEntry(ctx context.Context, conceptID int64) (domain.FridgeEntry, error)
}

// ProgressTracker creates and advances the learning state of concepts.
type ProgressTracker struct {
	repo     progressRepo
	interval time.Duration
	clock    Clock
	log      *slog.Logger
}

// NewProgressTracker creates a ProgressTracker. A non-positive interval
// means DefaultReviewInterval.
func NewProgressTracker(repo progressRepo, interval time.Duration, clock Clock, logger *slog.Logger) *ProgressTracker {
	if interval <= 0 {
		interval = DefaultReviewInterval
	}
	return &ProgressTracker{
		repo:     repo,
		interval: interval,
		clock:    clock.orDefault(),
		log:      logger.With("component", "progress"),
	}
}

// Now returns the tracker's current time.
func (t *ProgressTracker) Now() time.Time {
	return t.clock()
}

// Initialize creates the learning state of a concept unless it already has
// one. created is true only when this call inserted the state.
func (t *ProgressTracker) Initialize(ctx context.Context, conceptID int64) (domain.ProgressState, bool, error) {
	existing, err := t.repo.GetProgressByConcept(ctx, conceptID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ProgressState{}, false, fmt.Errorf("get progress: %w", err)
	}

	now := t.clock()
	state, err := t.repo.InsertProgress(ctx, domain.ProgressState{
		ConceptID:        conceptID,
		ProficiencyLevel: domain.MinProficiency,
		ReviewCount:      0,
		LastReviewedAt:   now,
		NextReviewAt:     now.Add(t.interval),
		CreatedAt:        now,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		existing, err := t.repo.GetProgressByConcept(ctx, conceptID)
		if err != nil {
			return domain.ProgressState{}, false, fmt.Errorf("get progress after conflict: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return domain.ProgressState{}, false, fmt.Errorf("insert progress: %w", err)
	}

	t.log.DebugContext(ctx, "progress initialized", slog.Int64("concept_id", conceptID))
	return state, true, nil
}

// Review records that the learner reviewed a concept: one more review,
// proficiency up by one capped at the maximum, last review now.
func (t *ProgressTracker) Review(ctx context.Context, conceptID int64) (domain.ProgressState, error) {
	state, err := t.repo.AdvanceProgress(ctx, conceptID, t.clock(), t.interval)
	if err != nil {
		return domain.ProgressState{}, fmt.Errorf("review concept %d: %w", conceptID, err)
	}

	t.log.InfoContext(ctx, "concept reviewed",
		slog.Int64("concept_id", conceptID),
		slog.Int("level", state.ProficiencyLevel),
		slog.Int("review_count", state.ReviewCount),
	)
	return state, nil
}

// Get returns the progress state of a concept.
func (t *ProgressTracker) Get(ctx context.Context, conceptID int64) (domain.ProgressState, error) {
	return t.repo.GetProgressByConcept(ctx, conceptID)
}

// List returns every fridge entry, least recently reviewed first.
func (t *ProgressTracker) List(ctx context.Context) ([]domain.FridgeEntry, error) {
	return t.repo.ListFridgeEntries(ctx)
}

// Entry returns the fridge entry of one concept.
func (t *ProgressTracker) Entry(ctx context.Context, conceptID int64) (domain.FridgeEntry, error) {
	return t.repo.GetFridgeEntry(ctx, conceptID)
}

// DaysSince returns the whole days elapsed since the last review.
// A review in the future counts as zero days.
func DaysSince(state domain.ProgressState, now time.Time) int {
	elapsed := now.Sub(state.LastReviewedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// Classify derives the freshness of an item from its last review.
func Classify(state domain.ProgressState, now time.Time) domain.Freshness {
	switch days := DaysSince(state, now); {
	case days < warningAfterDays:
		return domain.FreshnessFresh
	case days < rottenAfterDays:
		return domain.FreshnessWarning
	default:
		return domain.FreshnessRotten
	}
}

// IsDue reports whether the item is due for review at now.
func IsDue(state domain.ProgressState, now time.Time) bool {
	return !now.Before(state.NextReviewAt)
}
