package domain

import "time"

// Proficiency bounds.
const (
	MinProficiency = 1
	MaxProficiency = 5
)

// Freshness is the decay classification of an item derived from the time
// since it was last reviewed.
type Freshness string

const (
	FreshnessFresh   Freshness = "FRESH"
	FreshnessWarning Freshness = "WARNING"
	FreshnessRotten  Freshness = "ROTTEN"
)

// ProgressState is the learning state of one concept.
type ProgressState struct {
	ID               int64     `json:"id"`
	ConceptID        int64     `json:"concept_id"`
	ProficiencyLevel int       `json:"proficiency_level"`
	ReviewCount      int       `json:"review_count"`
	LastReviewedAt   time.Time `json:"last_reviewed_at"`
	NextReviewAt     time.Time `json:"next_review_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// FridgeEntry is a progress state joined with its fully loaded concept.
type FridgeEntry struct {
	Progress ProgressState
	Concept  ConceptDetails
}
