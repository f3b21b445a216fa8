package core

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fridgelingo/fridgelingo/internal/db"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: testNow} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockGenerator answers prompts with GenerateFunc and counts calls per kind.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu          sync.Mutex
	labelCalls  int
	enrichCalls int
	prompts     []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	if isLabelPrompt(prompt) {
		m.labelCalls++
	} else {
		m.enrichCalls++
	}
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, prompt)
}

func (m *mockGenerator) EnrichCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrichCalls
}

func (m *mockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func isLabelPrompt(prompt string) bool {
	return strings.Contains(prompt, `"foodLabel"`)
}

// scriptedGenerator returns label for chooser prompts and enrichment for the rest.
func scriptedGenerator(label, enrichment string) *mockGenerator {
	return &mockGenerator{
		GenerateFunc: func(_ context.Context, prompt string) (string, error) {
			if isLabelPrompt(prompt) {
				return label, nil
			}
			return enrichment, nil
		},
	}
}

type mockDetector struct {
	DetectLabelsFunc func(ctx context.Context, image []byte) ([]string, error)
}

func (m *mockDetector) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	return m.DetectLabelsFunc(ctx, image)
}

func staticDetector(labels ...string) *mockDetector {
	return &mockDetector{
		DetectLabelsFunc: func(context.Context, []byte) ([]string, error) { return labels, nil },
	}
}

// pngImage is enough for content sniffing
var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.NewDatabase(context.Background(), db.DriverSQLite, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// setupFileDB creates a file-backed database that allows concurrent connections
func setupFileDB(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.NewDatabase(context.Background(), db.DriverSQLite, filepath.Join(t.TempDir(), "fridge.db"), 8)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// pipeline wires every component over database the way the application does.
type pipeline struct {
	clock     *fakeClock
	vocab     *VocabularyStore
	progress  *ProgressTracker
	enricher  *ContentEnricher
	resolver  *LabelResolver
	quizzes   *QuizGenerator
	processor *Processor
}

func newPipeline(t *testing.T, database *db.Database, gen *mockGenerator, detector *mockDetector, images imageStore) *pipeline {
	t.Helper()
	return newPipelineWithRepo(t, database, database, gen, detector, images)
}

func newPipelineWithRepo(t *testing.T, database *db.Database, repo conceptRepo, gen *mockGenerator, detector *mockDetector, images imageStore) *pipeline {
	t.Helper()

	clock := newFakeClock()
	log := testLogger()

	p := &pipeline{clock: clock}
	p.vocab = NewVocabularyStore(repo, database, clock.Now, log)
	p.progress = NewProgressTracker(database, 24*time.Hour, clock.Now, log)

	deps := Deps{
		Vocab:    p.vocab,
		Progress: p.progress,
		Stats:    NewStatsAggregator(),
		Images:   images,
	}
	// a nil *mockGenerator must stay a nil interface
	if gen != nil {
		p.enricher = NewContentEnricher(p.vocab, gen, log)
		p.resolver = NewLabelResolver(gen, DefaultDenylist(), log)
	} else {
		p.enricher = NewContentEnricher(p.vocab, nil, log)
		p.resolver = NewLabelResolver(nil, DefaultDenylist(), log)
	}
	if detector != nil {
		deps.Detector = detector
	}
	p.quizzes = NewQuizGenerator(p.vocab, p.progress, log)

	deps.Enricher = p.enricher
	deps.Resolver = p.resolver
	deps.Quizzes = p.quizzes
	p.processor = NewProcessor(deps, Settings{TargetLang: "es", NativeLang: "ko", ImportConcurrency: 4}, log)
	return p
}
