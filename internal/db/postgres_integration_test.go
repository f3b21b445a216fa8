//go:build integration

package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// setupPostgres starts a shared PostgreSQL container (once for the entire
// test run) and returns a migrated Database connected to it.
func setupPostgres(t *testing.T) *Database {
	t.Helper()

	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Fatalf("failed to setup postgres: %v", pgErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDatabase(ctx, DriverPostgres, pgDSN, 10)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.conn.Exec("TRUNCATE concepts RESTART IDENTITY CASCADE")
		db.Close()
	})
	return db
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()), nil
}

func TestPostgres_ConceptAndTranslation(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 30, 0, 123456000, time.UTC)

	c, err := db.InsertConcept(ctx, "Pear", "", now)
	require.NoError(t, err)

	_, err = db.InsertConcept(ctx, "PEAR", "", now)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = db.AttachTranslation(ctx, domain.Translation{
		ConceptID: c.ID, LanguageCode: "fr", TranslatedWord: "Poire", ExampleSentence: "Une poire.", Emoji: "🍐",
	}, now)
	require.NoError(t, err)

	_, err = db.AttachTranslation(ctx, domain.Translation{
		ConceptID: c.ID, LanguageCode: "FR", TranslatedWord: "Poire",
	}, now)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	details, err := db.LoadConcept(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, details.Translations, 1)
	assert.True(t, details.CreatedAt.Equal(now))
}

func TestPostgres_ProgressAndCascade(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	c, err := db.InsertConcept(ctx, "Milk", "", now)
	require.NoError(t, err)

	_, err = db.InsertProgress(ctx, domain.ProgressState{
		ConceptID: c.ID, ProficiencyLevel: 5, LastReviewedAt: now, NextReviewAt: now, CreatedAt: now,
	})
	require.NoError(t, err)

	p, err := db.AdvanceProgress(ctx, c.ID, now.Add(time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 5, p.ProficiencyLevel)
	assert.Equal(t, 1, p.ReviewCount)

	entries, err := db.ListFridgeEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, db.DeleteConcept(ctx, c.ID))
	_, err = db.GetProgressByConcept(ctx, c.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPostgres_ConcurrentInsert(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.InsertConcept(ctx, "Onion", "", time.Now())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, domain.ErrAlreadyExists)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
