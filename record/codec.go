package record

import (
	"fmt"
	"time"

	"github.com/i4ali/macrosnap/domain"
)

// EncodeEntry converts an entry to its remote record shape. The record ID is
// the entry's remote identity; it is empty for never-synced entries, in which
// case the remote service assigns one on save.
func EncodeEntry(e domain.Entry) Record {
	return Record{
		Type: domain.KindEntry.RecordType(),
		ID:   e.RemoteID,
		Fields: Fields{
			FieldDate:      e.Date,
			FieldProtein:   e.Protein,
			FieldCarbs:     e.Carbs,
			FieldFat:       e.Fat,
			FieldNotes:     e.Notes,
			FieldCreatedAt: e.CreatedAt,
			FieldUpdatedAt: e.UpdatedAt,
		},
	}
}

// DecodeEntry converts a fetched record into the remote view of an entry.
// The returned entry has no local ID; the caller assigns one when creating a
// new local row. now supplies the merge time for records missing both
// timestamps.
func DecodeEntry(r Record, now time.Time) (domain.Entry, error) {
	if r.Type != domain.KindEntry.RecordType() {
		return domain.Entry{}, fmt.Errorf("expected %s record, got %q", domain.KindEntry.RecordType(), r.Type)
	}
	date, ok := r.Fields.Time(FieldDate)
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry record %s is missing date", r.ID)
	}

	e := domain.Entry{
		RemoteID: r.ID,
		Date:     date,
	}
	e.Protein, _ = r.Fields.Float(FieldProtein)
	e.Carbs, _ = r.Fields.Float(FieldCarbs)
	e.Fat, _ = r.Fields.Float(FieldFat)
	e.Notes, _ = r.Fields.String(FieldNotes)
	e.CreatedAt, _ = r.Fields.Time(FieldCreatedAt)

	updated, ok := r.Fields.UpdatedAt()
	if !ok {
		updated = now
	}
	e.UpdatedAt = updated

	if err := e.Validate(); err != nil {
		return domain.Entry{}, fmt.Errorf("entry record %s: %w", r.ID, err)
	}
	return e, nil
}

// EncodeGoal converts a goal to its remote record shape.
func EncodeGoal(g domain.Goal) Record {
	return Record{
		Type: domain.KindGoal.RecordType(),
		ID:   g.RemoteID,
		Fields: Fields{
			FieldProteinGoal: g.ProteinGoal,
			FieldCarbGoal:    g.CarbGoal,
			FieldFatGoal:     g.FatGoal,
			FieldDayOfWeek:   int64(g.DayOfWeek),
			FieldCreatedAt:   g.CreatedAt,
			FieldUpdatedAt:   g.UpdatedAt,
		},
	}
}

// DecodeGoal converts a fetched record into the remote view of a goal.
// A missing dayOfWeek falls back to the default-goal sentinel, matching
// records written before per-day goals existed.
func DecodeGoal(r Record, now time.Time) (domain.Goal, error) {
	if r.Type != domain.KindGoal.RecordType() {
		return domain.Goal{}, fmt.Errorf("expected %s record, got %q", domain.KindGoal.RecordType(), r.Type)
	}

	g := domain.Goal{RemoteID: r.ID, DayOfWeek: domain.DefaultDay}
	if day, ok := r.Fields.Int(FieldDayOfWeek); ok {
		g.DayOfWeek = int(day)
	}
	if g.DayOfWeek < domain.DefaultDay || g.DayOfWeek > 6 {
		return domain.Goal{}, fmt.Errorf("goal record %s has invalid day of week %d", r.ID, g.DayOfWeek)
	}
	g.ProteinGoal, _ = r.Fields.Float(FieldProteinGoal)
	g.CarbGoal, _ = r.Fields.Float(FieldCarbGoal)
	g.FatGoal, _ = r.Fields.Float(FieldFatGoal)
	g.CreatedAt, _ = r.Fields.Time(FieldCreatedAt)

	updated, ok := r.Fields.UpdatedAt()
	if !ok {
		updated = now
	}
	g.UpdatedAt = updated

	if err := g.Validate(); err != nil {
		return domain.Goal{}, fmt.Errorf("goal record %s: %w", r.ID, err)
	}
	return g, nil
}

// EncodePreset converts a preset to its remote record shape.
func EncodePreset(p domain.Preset) Record {
	return Record{
		Type: domain.KindPreset.RecordType(),
		ID:   p.RemoteID,
		Fields: Fields{
			FieldName:      p.Name,
			FieldProtein:   p.Protein,
			FieldCarbs:     p.Carbs,
			FieldFat:       p.Fat,
			FieldCreatedAt: p.CreatedAt,
			FieldUpdatedAt: p.UpdatedAt,
		},
	}
}

// DecodePreset converts a fetched record into the remote view of a preset.
func DecodePreset(r Record, now time.Time) (domain.Preset, error) {
	if r.Type != domain.KindPreset.RecordType() {
		return domain.Preset{}, fmt.Errorf("expected %s record, got %q", domain.KindPreset.RecordType(), r.Type)
	}
	name, ok := r.Fields.String(FieldName)
	if !ok || name == "" {
		return domain.Preset{}, fmt.Errorf("preset record %s is missing name", r.ID)
	}

	p := domain.Preset{RemoteID: r.ID, Name: name}
	p.Protein, _ = r.Fields.Float(FieldProtein)
	p.Carbs, _ = r.Fields.Float(FieldCarbs)
	p.Fat, _ = r.Fields.Float(FieldFat)
	p.CreatedAt, _ = r.Fields.Time(FieldCreatedAt)

	updated, ok := r.Fields.UpdatedAt()
	if !ok {
		updated = now
	}
	p.UpdatedAt = updated

	if err := p.Validate(); err != nil {
		return domain.Preset{}, fmt.Errorf("preset record %s: %w", r.ID, err)
	}
	return p, nil
}
