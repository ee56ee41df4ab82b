// Package domain contains the entity model shared by the local store and the
// sync engine: entries, goals, and presets.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxNotesLength is the upper bound on entry notes.
const MaxNotesLength = 100

// Entry is a single logged meal or snack. Date is the occurrence day, which
// may differ from the day the entry was created.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Date      time.Time `json:"date"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntry creates a locally-originated entry that has never been synced.
func NewEntry(date time.Time, protein, carbs, fat float64, notes string) (Entry, error) {
	now := time.Now().UTC()
	e := Entry{
		ID:        uuid.New(),
		Date:      date,
		Protein:   protein,
		Carbs:     carbs,
		Fat:       fat,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks the kind-specific field invariants.
func (e *Entry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("entry date is required")
	}
	if e.Protein < 0 || e.Carbs < 0 || e.Fat < 0 {
		return fmt.Errorf("entry macros must be non-negative")
	}
	if len(e.Notes) > MaxNotesLength {
		return fmt.Errorf("entry notes exceed %d characters", MaxNotesLength)
	}
	return nil
}

// Calories derives total calories from the macro split.
func (e *Entry) Calories() float64 {
	return e.Protein*4 + e.Carbs*4 + e.Fat*9
}

// Synced reports whether the entry has ever been written to the remote zone.
func (e *Entry) Synced() bool { return e.RemoteID != "" }

// Touch bumps UpdatedAt to now.
func (e *Entry) Touch() { e.UpdatedAt = time.Now().UTC() }

// MarkDirty clears the remote identity so the next push re-uploads the entry.
// Edited entries follow the clear-on-edit policy: the edit becomes a new
// remote record and the stale one is removed by the pull dedup pass.
func (e *Entry) MarkDirty() {
	e.RemoteID = ""
	e.Touch()
}
