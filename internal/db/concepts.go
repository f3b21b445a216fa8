package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var conceptColumns = []string{"id", "label", "native_definition", "image_path", "created_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConcept(row rowScanner) (domain.Concept, error) {
	var c domain.Concept
	err := row.Scan(&c.ID, &c.Label, &c.NativeDefinition, &c.ImagePath, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

// FindConceptByLabel looks a concept up by its case-insensitive label.
func (db *Database) FindConceptByLabel(ctx context.Context, label string) (domain.Concept, error) {
	key := domain.LabelKey(label)
	query, args, err := db.sb.Select(conceptColumns...).
		From("concepts").
		Where(squirrel.Eq{"label_key": key}).
		ToSql()
	if err != nil {
		return domain.Concept{}, fmt.Errorf("build query: %w", err)
	}

	c, err := scanConcept(db.q(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Concept{}, mapError(err, "concept", key)
	}
	return c, nil
}

// GetConcept retrieves a concept by ID.
func (db *Database) GetConcept(ctx context.Context, id int64) (domain.Concept, error) {
	query, args, err := db.sb.Select(conceptColumns...).
		From("concepts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Concept{}, fmt.Errorf("build query: %w", err)
	}

	c, err := scanConcept(db.q(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Concept{}, mapError(err, "concept", id)
	}
	return c, nil
}

// InsertConcept adds a concept whose native definition starts as its label.
// A concept with the same label key yields domain.ErrAlreadyExists.
func (db *Database) InsertConcept(ctx context.Context, label, imagePath string, now time.Time) (domain.Concept, error) {
	label = domain.NormalizeLabel(label)
	if label == "" {
		return domain.Concept{}, fmt.Errorf("%w: label is required", domain.ErrInvalidInput)
	}

	query, args, err := db.sb.Insert("concepts").
		Columns("label_key", "label", "native_definition", "image_path", "created_at").
		Values(domain.LabelKey(label), label, label, imagePath, dbTime(now)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Concept{}, fmt.Errorf("build query: %w", err)
	}

	var id int64
	if err := db.q(ctx).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return domain.Concept{}, mapError(err, "concept", domain.LabelKey(label))
	}

	return domain.Concept{
		ID:               id,
		Label:            label,
		NativeDefinition: label,
		ImagePath:        imagePath,
		CreatedAt:        dbTime(now),
	}, nil
}

// UpdateNativeDefinition overwrites the canonical native definition of a concept.
func (db *Database) UpdateNativeDefinition(ctx context.Context, id int64, definition string) error {
	query, args, err := db.sb.Update("concepts").
		Set("native_definition", definition).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "concept", id)
	}
	return requireAffected(res, "concept", id)
}

// RecentConcepts returns up to limit concepts, newest first, skipping excludeID.
func (db *Database) RecentConcepts(ctx context.Context, excludeID int64, limit int) ([]domain.Concept, error) {
	return db.listConcepts(ctx, db.sb.Select(conceptColumns...).
		From("concepts").
		Where(squirrel.NotEq{"id": excludeID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(max(limit, 0))))
}

// RandomConcepts returns up to limit concepts in random order, skipping excludeID.
func (db *Database) RandomConcepts(ctx context.Context, excludeID int64, limit int) ([]domain.Concept, error) {
	return db.listConcepts(ctx, db.sb.Select(conceptColumns...).
		From("concepts").
		Where(squirrel.NotEq{"id": excludeID}).
		OrderBy("RANDOM()").
		Limit(uint64(max(limit, 0))))
}

func (db *Database) listConcepts(ctx context.Context, b squirrel.SelectBuilder) ([]domain.Concept, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	defer rows.Close()

	var items []domain.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concept: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}

// LoadConcept returns the concept with all of its translations.
func (db *Database) LoadConcept(ctx context.Context, id int64) (domain.ConceptDetails, error) {
	c, err := db.GetConcept(ctx, id)
	if err != nil {
		return domain.ConceptDetails{}, err
	}

	byConcept, err := db.translationsFor(ctx, []int64{id})
	if err != nil {
		return domain.ConceptDetails{}, err
	}

	return domain.ConceptDetails{Concept: c, Translations: byConcept[id]}, nil
}

// DeleteConcept removes a concept; translations and progress cascade.
func (db *Database) DeleteConcept(ctx context.Context, id int64) error {
	query, args, err := db.sb.Delete("concepts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := db.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "concept", id)
	}
	return requireAffected(res, "concept", id)
}

func requireAffected(res sql.Result, entity string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return mapError(sql.ErrNoRows, entity, key)
	}
	return nil
}
