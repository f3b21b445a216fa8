package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var progressColumns = []string{
	"p.id", "p.concept_id", "p.proficiency_level", "p.review_count",
	"p.last_reviewed_at", "p.next_review_at", "p.created_at",
}

func scanProgress(row rowScanner, extra ...any) (domain.ProgressState, error) {
	var p domain.ProgressState
	dest := append([]any{
		&p.ID, &p.ConceptID, &p.ProficiencyLevel, &p.ReviewCount,
		&p.LastReviewedAt, &p.NextReviewAt, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	p.LastReviewedAt = p.LastReviewedAt.UTC()
	p.NextReviewAt = p.NextReviewAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// GetProgressByConcept returns the learning state of a concept.
func (db *Database) GetProgressByConcept(ctx context.Context, conceptID int64) (domain.ProgressState, error) {
	query, args, err := db.sb.Select(progressColumns...).
		From("progress p").
		Where(squirrel.Eq{"p.concept_id": conceptID}).
		ToSql()
	if err != nil {
		return domain.ProgressState{}, fmt.Errorf("build query: %w", err)
	}

	p, err := scanProgress(db.q(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.ProgressState{}, mapError(err, "progress", conceptID)
	}
	return p, nil
}

// InsertProgress creates the initial learning state of a concept.
// A concept that already has one yields domain.ErrAlreadyExists.
func (db *Database) InsertProgress(ctx context.Context, p domain.ProgressState) (domain.ProgressState, error) {
	p.LastReviewedAt = dbTime(p.LastReviewedAt)
	p.NextReviewAt = dbTime(p.NextReviewAt)
	p.CreatedAt = dbTime(p.CreatedAt)

	query, args, err := db.sb.Insert("progress").
		Columns("concept_id", "proficiency_level", "review_count", "last_reviewed_at", "next_review_at", "created_at").
		Values(p.ConceptID, p.ProficiencyLevel, p.ReviewCount, p.LastReviewedAt, p.NextReviewAt, p.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.ProgressState{}, fmt.Errorf("build query: %w", err)
	}

	if err := db.q(ctx).QueryRowContext(ctx, query, args...).Scan(&p.ID); err != nil {
		return domain.ProgressState{}, mapError(err, "progress", p.ConceptID)
	}
	return p, nil
}

// AdvanceProgress records one review of a concept in a single UPDATE:
// review count +1, proficiency +1 capped at the maximum, last review at now
// and next review at now+interval.
func (db *Database) AdvanceProgress(ctx context.Context, conceptID int64, now time.Time, interval time.Duration) (domain.ProgressState, error) {
	now = dbTime(now)

	query, args, err := db.sb.Update("progress").
		Set("review_count", squirrel.Expr("review_count + 1")).
		Set("proficiency_level", squirrel.Expr(
			"CASE WHEN proficiency_level >= ? THEN ? ELSE proficiency_level + 1 END",
			domain.MaxProficiency, domain.MaxProficiency,
		)).
		Set("last_reviewed_at", now).
		Set("next_review_at", dbTime(now.Add(interval))).
		Where(squirrel.Eq{"concept_id": conceptID}).
		ToSql()
	if err != nil {
		return domain.ProgressState{}, fmt.Errorf("build query: %w", err)
	}

	var out domain.ProgressState
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		res, err := db.q(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			return mapError(err, "progress", conceptID)
		}
		if err := requireAffected(res, "progress", conceptID); err != nil {
			return err
		}
		out, err = db.GetProgressByConcept(ctx, conceptID)
		return err
	})
	return out, err
}

// ListFridgeEntries returns every progress state with its concept and
// translations, oldest review first, ties broken by concept id.
func (db *Database) ListFridgeEntries(ctx context.Context) ([]domain.FridgeEntry, error) {
	return db.fridgeEntries(ctx, nil)
}

// GetFridgeEntry returns the fridge entry of a single concept.
func (db *Database) GetFridgeEntry(ctx context.Context, conceptID int64) (domain.FridgeEntry, error) {
	entries, err := db.fridgeEntries(ctx, squirrel.Eq{"p.concept_id": conceptID})
	if err != nil {
		return domain.FridgeEntry{}, err
	}
	if len(entries) == 0 {
		return domain.FridgeEntry{}, fmt.Errorf("fridge entry %d: %w", conceptID, domain.ErrNotFound)
	}
	return entries[0], nil
}

func (db *Database) fridgeEntries(ctx context.Context, where squirrel.Sqlizer) ([]domain.FridgeEntry, error) {
	b := db.sb.Select(progressColumns...).
		Columns("c.id", "c.label", "c.native_definition", "c.image_path", "c.created_at").
		From("progress p").
		Join("concepts c ON c.id = p.concept_id").
		OrderBy("p.last_reviewed_at ASC", "p.concept_id ASC")
	if where != nil {
		b = b.Where(where)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fridge: %w", err)
	}
	defer rows.Close()

	var (
		entries []domain.FridgeEntry
		ids     []int64
	)
	for rows.Next() {
		var c domain.Concept
		p, err := scanProgress(rows, &c.ID, &c.Label, &c.NativeDefinition, &c.ImagePath, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fridge entry: %w", err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		entries = append(entries, domain.FridgeEntry{Progress: p, Concept: domain.ConceptDetails{Concept: c}})
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	byConcept, err := db.translationsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Concept.Translations = byConcept[entries[i].Concept.ID]
	}
	return entries, nil
}
