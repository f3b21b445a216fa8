package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var translationColumns = []string{"id", "concept_id", "language_code", "translated_word", "example_sentence", "emoji", "created_at"}

// HasTranslation reports whether the concept already has a translation for lang.
func (db *Database) HasTranslation(ctx context.Context, conceptID int64, lang string) (bool, error) {
	query, args, err := db.sb.Select("COUNT(*)").
		From("translations").
		Where(squirrel.Eq{"concept_id": conceptID, "language_code": domain.NormalizeLanguage(lang)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := db.q(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check translation: %w", err)
	}
	return count > 0, nil
}

// AttachTranslation stores a translation of a concept. A second translation
// for the same language yields domain.ErrAlreadyExists.
func (db *Database) AttachTranslation(ctx context.Context, t domain.Translation, now time.Time) (domain.Translation, error) {
	t.LanguageCode = domain.NormalizeLanguage(t.LanguageCode)
	if t.LanguageCode == "" {
		return domain.Translation{}, fmt.Errorf("%w: language code is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(t.TranslatedWord) == "" {
		return domain.Translation{}, fmt.Errorf("%w: translated word is required", domain.ErrInvalidInput)
	}
	t.CreatedAt = dbTime(now)

	query, args, err := db.sb.Insert("translations").
		Columns("concept_id", "language_code", "translated_word", "example_sentence", "emoji", "created_at").
		Values(t.ConceptID, t.LanguageCode, t.TranslatedWord, t.ExampleSentence, t.Emoji, t.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Translation{}, fmt.Errorf("build query: %w", err)
	}

	if err := db.q(ctx).QueryRowContext(ctx, query, args...).Scan(&t.ID); err != nil {
		return domain.Translation{}, mapError(err, "translation", fmt.Sprintf("%d/%s", t.ConceptID, t.LanguageCode))
	}
	return t, nil
}

// translationsFor loads the translations of the given concepts, grouped by concept.
func (db *Database) translationsFor(ctx context.Context, conceptIDs []int64) (map[int64][]domain.Translation, error) {
	out := make(map[int64][]domain.Translation, len(conceptIDs))
	if len(conceptIDs) == 0 {
		return out, nil
	}

	query, args, err := db.sb.Select(translationColumns...).
		From("translations").
		Where(squirrel.Eq{"concept_id": conceptIDs}).
		OrderBy("concept_id", "created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Translation
		if err := rows.Scan(&t.ID, &t.ConceptID, &t.LanguageCode, &t.TranslatedWord, &t.ExampleSentence, &t.Emoji, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out[t.ConceptID] = append(out[t.ConceptID], t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
