package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultDay is the day-of-week sentinel for the fallback goal that applies
// when no day-specific goal exists. Specific days are 0 (Sunday) through 6.
const DefaultDay = -1

// Goal holds the macro targets for one day of the week. At most one goal may
// exist per day value, locally and remotely; the sync engine restores this
// invariant when duplicates appear.
type Goal struct {
	ID          uuid.UUID `json:"id"`
	RemoteID    string    `json:"remote_id,omitempty"`
	ProteinGoal float64   `json:"protein_goal"`
	CarbGoal    float64   `json:"carb_goal"`
	FatGoal     float64   `json:"fat_goal"`
	DayOfWeek   int       `json:"day_of_week"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewGoal creates a locally-originated goal that has never been synced.
func NewGoal(protein, carbs, fat float64, dayOfWeek int) (Goal, error) {
	now := time.Now().UTC()
	g := Goal{
		ID:          uuid.New(),
		ProteinGoal: protein,
		CarbGoal:    carbs,
		FatGoal:     fat,
		DayOfWeek:   dayOfWeek,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.Validate(); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// Validate checks the kind-specific field invariants.
func (g *Goal) Validate() error {
	if g.ProteinGoal <= 0 || g.CarbGoal <= 0 || g.FatGoal <= 0 {
		return fmt.Errorf("goal targets must be positive")
	}
	if g.DayOfWeek < DefaultDay || g.DayOfWeek > 6 {
		return fmt.Errorf("day of week must be -1 or 0..6, got %d", g.DayOfWeek)
	}
	return nil
}

// IsDefault reports whether this is the fallback goal.
func (g *Goal) IsDefault() bool { return g.DayOfWeek == DefaultDay }

// Synced reports whether the goal has ever been written to the remote zone.
func (g *Goal) Synced() bool { return g.RemoteID != "" }

// Touch bumps UpdatedAt to now.
func (g *Goal) Touch() { g.UpdatedAt = time.Now().UTC() }

// MarkDirty clears the remote identity so the next push re-uploads the goal.
func (g *Goal) MarkDirty() {
	g.RemoteID = ""
	g.Touch()
}
