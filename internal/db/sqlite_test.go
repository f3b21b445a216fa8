package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// TestInitializeDatabase tests database initialization
func TestInitializeDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := NewDatabase(context.Background(), DriverSQLite, dbPath, 4)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Check if database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Verify table exists by attempting to insert
	if _, err := db.InsertConcept(context.Background(), "Apple", "", testNow); err != nil {
		t.Errorf("Table creation failed: %v", err)
	}
	db.Close()

	// Reopening applies no migration twice
	db, err = NewDatabase(context.Background(), DriverSQLite, dbPath, 4)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	if _, err := db.FindConceptByLabel(context.Background(), "apple"); err != nil {
		t.Errorf("Data should survive reopen: %v", err)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewDatabase(context.Background(), "mysql", "x", 1); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn, memory := sqliteDSN(":memory:")
	if !memory || !strings.HasPrefix(dsn, "file::memory:?") || !strings.Contains(dsn, "_foreign_keys=on") {
		t.Errorf("Unexpected memory dsn %q", dsn)
	}
	if strings.Contains(dsn, "WAL") {
		t.Error("In-memory database should not use WAL")
	}

	dsn, memory = sqliteDSN("fridge.db?cache=shared")
	if memory {
		t.Error("File database reported as memory")
	}
	if !strings.HasPrefix(dsn, "fridge.db?cache=shared&") || !strings.Contains(dsn, "_journal_mode=WAL") {
		t.Errorf("Unexpected file dsn %q", dsn)
	}
}

// TestInsertConcept tests inserting a new concept
func TestInsertConcept(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c, err := db.InsertConcept(ctx, "  Green   apple ", "uploads/a.jpg", testNow)
	if err != nil {
		t.Fatalf("Failed to insert concept: %v", err)
	}
	if c.ID <= 0 {
		t.Error("Expected positive ID after insert")
	}
	if c.Label != "Green apple" {
		t.Errorf("Expected normalized label, got %q", c.Label)
	}

	retrieved, err := db.GetConcept(ctx, c.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve inserted concept: %v", err)
	}
	if retrieved.Label != "Green apple" || retrieved.NativeDefinition != "Green apple" {
		t.Errorf("Native definition should default to label, got %+v", retrieved)
	}
	if retrieved.ImagePath != "uploads/a.jpg" {
		t.Errorf("Expected image path, got %q", retrieved.ImagePath)
	}
	if !retrieved.CreatedAt.Equal(testNow) {
		t.Errorf("Expected created_at %v, got %v", testNow, retrieved.CreatedAt)
	}

	if _, err := db.InsertConcept(ctx, "   ", "", testNow); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank label, got %v", err)
	}
}

// TestInsertDuplicate tests that labels are unique regardless of case
func TestInsertDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertConcept(ctx, "Cabbage", "", testNow); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	_, err := db.InsertConcept(ctx, "cabbage", "", testNow)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	found, err := db.FindConceptByLabel(ctx, "CABBAGE")
	if err != nil {
		t.Fatalf("Failed to find by label: %v", err)
	}
	if found.Label != "Cabbage" {
		t.Errorf("Expected first label to win, got %q", found.Label)
	}
}

// TestGetNonexistent tests lookups of missing rows
func TestGetNonexistent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetConcept(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := db.FindConceptByLabel(ctx, "Nothing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := db.LoadConcept(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetProgressByConcept(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetFridgeEntry(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := db.UpdateNativeDefinition(ctx, 9999, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := db.DeleteConcept(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestSQLInjection tests that parameterized queries prevent SQL injection
func TestSQLInjection(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	maliciousText := "'; DROP TABLE concepts; --"
	c, err := db.InsertConcept(ctx, maliciousText, "", testNow)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	retrieved, err := db.GetConcept(ctx, c.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if retrieved.Label != maliciousText {
		t.Errorf("Text was modified, possible injection: got '%s'", retrieved.Label)
	}

	if _, err := db.RecentConcepts(ctx, 0, 10); err != nil {
		t.Error("Table was dropped, SQL injection vulnerability exists!")
	}
}

func TestTranslations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pear := mustInsert(t, db, "Pear")

	has, err := db.HasTranslation(ctx, pear.ID, "fr")
	if err != nil || has {
		t.Fatalf("Expected no translation yet, got %v, %v", has, err)
	}

	tr, err := db.AttachTranslation(ctx, domain.Translation{
		ConceptID:       pear.ID,
		LanguageCode:    "FR",
		TranslatedWord:  "Poire",
		ExampleSentence: "Je mange une poire.",
		Emoji:           "🍐",
	}, testNow)
	if err != nil {
		t.Fatalf("Failed to attach translation: %v", err)
	}
	if tr.ID <= 0 || tr.LanguageCode != "fr" {
		t.Errorf("Unexpected translation %+v", tr)
	}

	for _, lang := range []string{"fr", "FR", " Fr "} {
		has, err := db.HasTranslation(ctx, pear.ID, lang)
		if err != nil || !has {
			t.Errorf("HasTranslation(%q) = %v, %v; want true", lang, has, err)
		}
	}
	if has, _ := db.HasTranslation(ctx, pear.ID, "es"); has {
		t.Error("Spanish translation should not exist")
	}

	_, err = db.AttachTranslation(ctx, domain.Translation{
		ConceptID: pear.ID, LanguageCode: "fr", TranslatedWord: "Poire", Emoji: "🍐",
	}, testNow.Add(time.Minute))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists for second fr translation, got %v", err)
	}

	_, err = db.AttachTranslation(ctx, domain.Translation{
		ConceptID: 9999, LanguageCode: "fr", TranslatedWord: "Rien",
	}, testNow)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown concept, got %v", err)
	}

	_, err = db.AttachTranslation(ctx, domain.Translation{ConceptID: pear.ID, LanguageCode: "de"}, testNow)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank word, got %v", err)
	}
}

func TestLoadConcept(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pear := mustInsert(t, db, "Pear")
	mustInsert(t, db, "Milk")

	for i, lang := range []string{"fr", "es"} {
		_, err := db.AttachTranslation(ctx, domain.Translation{
			ConceptID: pear.ID, LanguageCode: lang, TranslatedWord: "w-" + lang, Emoji: "🍐",
		}, testNow.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("Failed to attach %s: %v", lang, err)
		}
	}
	if err := db.UpdateNativeDefinition(ctx, pear.ID, "배"); err != nil {
		t.Fatalf("Failed to update definition: %v", err)
	}

	details, err := db.LoadConcept(ctx, pear.ID)
	if err != nil {
		t.Fatalf("Failed to load concept: %v", err)
	}
	if details.NativeDefinition != "배" {
		t.Errorf("Expected updated definition, got %q", details.NativeDefinition)
	}
	if len(details.Translations) != 2 {
		t.Fatalf("Expected 2 translations, got %d", len(details.Translations))
	}
	latest, _ := details.LatestTranslation()
	if latest.LanguageCode != "es" {
		t.Errorf("Expected es as latest translation, got %s", latest.LanguageCode)
	}
}

func TestRecentAndRandomConcepts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for i, label := range []string{"Apple", "Bread", "Cheese", "Dates", "Eggs"} {
		c, err := db.InsertConcept(ctx, label, "", testNow.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("Failed to insert %s: %v", label, err)
		}
		ids = append(ids, c.ID)
	}

	recent, err := db.RecentConcepts(ctx, ids[4], 3)
	if err != nil {
		t.Fatalf("RecentConcepts failed: %v", err)
	}
	var got []string
	for _, c := range recent {
		got = append(got, c.Label)
	}
	if strings.Join(got, ",") != "Dates,Cheese,Bread" {
		t.Errorf("Expected newest first excluding Eggs, got %v", got)
	}

	random, err := db.RandomConcepts(ctx, ids[0], 3)
	if err != nil {
		t.Fatalf("RandomConcepts failed: %v", err)
	}
	if len(random) != 3 {
		t.Fatalf("Expected 3 random concepts, got %d", len(random))
	}
	seen := map[int64]bool{}
	for _, c := range random {
		if c.ID == ids[0] {
			t.Error("Random concepts should exclude the target")
		}
		if seen[c.ID] {
			t.Error("Random concepts should not repeat")
		}
		seen[c.ID] = true
	}

	all, err := db.RandomConcepts(ctx, ids[0], 10)
	if err != nil || len(all) != 4 {
		t.Errorf("Expected all 4 other concepts, got %d, %v", len(all), err)
	}
}

func TestProgressLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	apple := mustInsert(t, db, "Apple")

	initial := domain.ProgressState{
		ConceptID:        apple.ID,
		ProficiencyLevel: domain.MinProficiency,
		LastReviewedAt:   testNow,
		NextReviewAt:     testNow.Add(24 * time.Hour),
		CreatedAt:        testNow,
	}
	p, err := db.InsertProgress(ctx, initial)
	if err != nil {
		t.Fatalf("InsertProgress failed: %v", err)
	}
	if p.ID <= 0 {
		t.Error("Expected positive progress ID")
	}

	if _, err := db.InsertProgress(ctx, initial); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists for second progress, got %v", err)
	}

	reviewAt := testNow.Add(3 * 24 * time.Hour)
	var advanced domain.ProgressState
	for i := 0; i < 6; i++ {
		advanced, err = db.AdvanceProgress(ctx, apple.ID, reviewAt, 24*time.Hour)
		if err != nil {
			t.Fatalf("AdvanceProgress failed: %v", err)
		}
		if i == 0 && advanced.ProficiencyLevel != 2 {
			t.Errorf("Expected level 2 after first review, got %d", advanced.ProficiencyLevel)
		}
	}
	if advanced.ProficiencyLevel != domain.MaxProficiency {
		t.Errorf("Expected level capped at %d, got %d", domain.MaxProficiency, advanced.ProficiencyLevel)
	}
	if advanced.ReviewCount != 6 {
		t.Errorf("Expected 6 reviews, got %d", advanced.ReviewCount)
	}
	if !advanced.LastReviewedAt.Equal(reviewAt) || !advanced.NextReviewAt.Equal(reviewAt.Add(24*time.Hour)) {
		t.Errorf("Unexpected review times %v / %v", advanced.LastReviewedAt, advanced.NextReviewAt)
	}
	if !advanced.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt should not change, got %v", advanced.CreatedAt)
	}

	if _, err := db.AdvanceProgress(ctx, 9999, reviewAt, time.Hour); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown concept, got %v", err)
	}
}

func TestListFridgeEntries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Milk reviewed earliest, Apple and Bread tie
	reviewed := map[string]time.Time{
		"Bread": testNow,
		"Apple": testNow,
		"Milk":  testNow.Add(-72 * time.Hour),
	}
	for _, label := range []string{"Bread", "Apple", "Milk", "Unsurfaced"} {
		c := mustInsert(t, db, label)
		at, ok := reviewed[label]
		if !ok {
			continue
		}
		if _, err := db.InsertProgress(ctx, domain.ProgressState{
			ConceptID: c.ID, ProficiencyLevel: 1, LastReviewedAt: at, NextReviewAt: at.Add(24 * time.Hour), CreatedAt: at,
		}); err != nil {
			t.Fatalf("InsertProgress failed: %v", err)
		}
		if label == "Apple" {
			if _, err := db.AttachTranslation(ctx, domain.Translation{
				ConceptID: c.ID, LanguageCode: "es", TranslatedWord: "Manzana", Emoji: "🍎",
			}, testNow); err != nil {
				t.Fatalf("AttachTranslation failed: %v", err)
			}
		}
	}

	entries, err := db.ListFridgeEntries(ctx)
	if err != nil {
		t.Fatalf("ListFridgeEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	var order []string
	for _, e := range entries {
		order = append(order, e.Concept.Label)
	}
	// Bread was inserted before Apple, so it has the lower id
	if strings.Join(order, ",") != "Milk,Bread,Apple" {
		t.Errorf("Unexpected order %v", order)
	}
	if tr, ok := entries[2].Concept.TranslationFor("es"); !ok || tr.TranslatedWord != "Manzana" {
		t.Errorf("Expected materialized translation, got %+v", entries[2].Concept.Translations)
	}

	one, err := db.GetFridgeEntry(ctx, entries[0].Concept.ID)
	if err != nil || one.Concept.Label != "Milk" {
		t.Errorf("GetFridgeEntry = %+v, %v", one, err)
	}
}

func TestDeleteConceptCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pear := mustInsert(t, db, "Pear")
	if _, err := db.AttachTranslation(ctx, domain.Translation{
		ConceptID: pear.ID, LanguageCode: "fr", TranslatedWord: "Poire",
	}, testNow); err != nil {
		t.Fatalf("AttachTranslation failed: %v", err)
	}
	if _, err := db.InsertProgress(ctx, domain.ProgressState{
		ConceptID: pear.ID, ProficiencyLevel: 1, LastReviewedAt: testNow, NextReviewAt: testNow, CreatedAt: testNow,
	}); err != nil {
		t.Fatalf("InsertProgress failed: %v", err)
	}

	if err := db.DeleteConcept(ctx, pear.ID); err != nil {
		t.Fatalf("DeleteConcept failed: %v", err)
	}

	if has, _ := db.HasTranslation(ctx, pear.ID, "fr"); has {
		t.Error("Translation should be deleted with its concept")
	}
	if _, err := db.GetProgressByConcept(ctx, pear.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Progress should be deleted with its concept, got %v", err)
	}
}

func TestRunInTxRollback(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := db.InsertConcept(ctx, "Ghost", "", testNow); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected callback error, got %v", err)
	}
	if _, err := db.FindConceptByLabel(ctx, "Ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Insert should be rolled back, got %v", err)
	}

	err = db.RunInTx(ctx, func(ctx context.Context) error {
		c, err := db.InsertConcept(ctx, "Kept", "", testNow)
		if err != nil {
			return err
		}
		// nested call joins the outer transaction
		return db.RunInTx(ctx, func(ctx context.Context) error {
			return db.UpdateNativeDefinition(ctx, c.ID, "kept")
		})
	})
	if err != nil {
		t.Fatalf("RunInTx failed: %v", err)
	}
	kept, err := db.FindConceptByLabel(ctx, "Kept")
	if err != nil || kept.NativeDefinition != "kept" {
		t.Errorf("Expected committed concept, got %+v, %v", kept, err)
	}
}

// TestConcurrentInserts tests that racing inserts of one label create one row
func TestConcurrentInserts(t *testing.T) {
	db := setupFileDB(t)
	ctx := context.Background()

	const numGoroutines = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		failures []error
	)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.InsertConcept(ctx, "Onion", "", testNow)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case !errors.Is(err, domain.ErrAlreadyExists):
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("Concurrent inserts failed with %d errors: %v", len(failures), failures[0])
	}
	if winners != 1 {
		t.Errorf("Expected exactly one successful insert, got %d", winners)
	}
}

func mustInsert(t *testing.T, db *Database, label string) domain.Concept {
	t.Helper()
	c, err := db.InsertConcept(context.Background(), label, "", testNow)
	if err != nil {
		t.Fatalf("Failed to insert %s: %v", label, err)
	}
	return c
}

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), DriverSQLite, ":memory:", 1)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupFileDB creates a file-backed database that allows concurrent connections
func setupFileDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "fridge.db"), 8)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
