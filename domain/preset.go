package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Preset is a reusable named macro combination for quick logging.
type Preset struct {
	ID        uuid.UUID `json:"id"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Name      string    `json:"name"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPreset creates a locally-originated preset that has never been synced.
func NewPreset(name string, protein, carbs, fat float64) (Preset, error) {
	now := time.Now().UTC()
	p := Preset{
		ID:        uuid.New(),
		Name:      name,
		Protein:   protein,
		Carbs:     carbs,
		Fat:       fat,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Validate checks the kind-specific field invariants.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if p.Protein < 0 || p.Carbs < 0 || p.Fat < 0 {
		return fmt.Errorf("preset macros must be non-negative")
	}
	return nil
}

// Synced reports whether the preset has ever been written to the remote zone.
func (p *Preset) Synced() bool { return p.RemoteID != "" }

// Touch bumps UpdatedAt to now. Presets keep their remote identity on edit;
// every push pass re-uploads all presets in place.
func (p *Preset) Touch() { p.UpdatedAt = time.Now().UTC() }
