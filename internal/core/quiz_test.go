package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

func seedConcepts(t *testing.T, vocab *VocabularyStore, tracker *ProgressTracker, labels ...string) []domain.Concept {
	t.Helper()
	ctx := context.Background()

	out := make([]domain.Concept, 0, len(labels))
	for _, label := range labels {
		c, _, err := vocab.GetOrCreateConcept(ctx, label, "")
		require.NoError(t, err)
		_, _, err = tracker.Initialize(ctx, c.ID)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestGenerateQuiz(t *testing.T) {
	tracker, vocab, _ := newTestTracker(t)
	concepts := seedConcepts(t, vocab, tracker, "Milk", "Eggs", "Bread", "Apple", "Pear", "Cabbage")
	quizzes := NewQuizGenerator(vocab, tracker, testLogger())
	ctx := context.Background()

	target := concepts[0]
	_, err := vocab.AttachTranslation(ctx, domain.Translation{ConceptID: target.ID, LanguageCode: "es", TranslatedWord: "Leche"}, "우유")
	require.NoError(t, err)

	positions := map[int]bool{}
	for range 50 {
		quiz, err := quizzes.Generate(ctx, target.ID)
		require.NoError(t, err)

		assert.Equal(t, target.ID, quiz.CorrectID)
		assert.Equal(t, "Milk", quiz.Question)
		require.Len(t, quiz.Options, domain.QuizOptionCount)

		seen := map[int64]bool{}
		correct := 0
		for i, o := range quiz.Options {
			assert.False(t, seen[o.ID], "duplicate option %d", o.ID)
			seen[o.ID] = true
			if o.ID == target.ID {
				correct++
				positions[i] = true
				assert.Equal(t, "우유", o.Text)
			}
		}
		assert.Equal(t, 1, correct)
	}
	assert.Greater(t, len(positions), 1, "correct answer never moved")
}

func TestGenerateQuiz_DeterministicShuffle(t *testing.T) {
	tracker, vocab, _ := newTestTracker(t)
	concepts := seedConcepts(t, vocab, tracker, "Milk", "Eggs", "Bread", "Apple")
	quizzes := NewQuizGenerator(vocab, tracker, testLogger())
	quizzes.shuffle = func(n int, swap func(i, j int)) { swap(0, n-1) }

	quiz, err := quizzes.Generate(context.Background(), concepts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, concepts[0].ID, quiz.Options[domain.QuizOptionCount-1].ID)
}

func TestGenerateQuiz_CatalogTooSmall(t *testing.T) {
	for n := 1; n < domain.QuizOptionCount; n++ {
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			tracker, vocab, _ := newTestTracker(t)
			labels := []string{"Milk", "Eggs", "Bread"}[:n]
			concepts := seedConcepts(t, vocab, tracker, labels...)
			quizzes := NewQuizGenerator(vocab, tracker, testLogger())

			_, err := quizzes.Generate(context.Background(), concepts[0].ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestGenerateQuiz_Unknown(t *testing.T) {
	tracker, vocab, _ := newTestTracker(t)
	seedConcepts(t, vocab, tracker, "Milk", "Eggs", "Bread", "Apple")
	quizzes := NewQuizGenerator(vocab, tracker, testLogger())

	_, err := quizzes.Generate(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
