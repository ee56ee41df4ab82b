// Package record defines the flat field-map representation used by the remote
// record service, and codecs between it and the domain entities. All boundary
// validation between remote payloads and local state happens here.
package record

import (
	"fmt"
	"time"
)

// Field names shared with the remote schema.
const (
	FieldDate      = "date"
	FieldProtein   = "protein"
	FieldCarbs     = "carbs"
	FieldFat       = "fat"
	FieldNotes     = "notes"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"

	FieldProteinGoal = "proteinGoal"
	FieldCarbGoal    = "carbGoal"
	FieldFatGoal     = "fatGoal"
	FieldDayOfWeek   = "dayOfWeek"

	FieldName = "name"
)

// Fields is a flat string→scalar map. Permitted scalar types are string,
// float64, int64, and time.Time; anything else is rejected by Validate.
type Fields map[string]interface{}

// Record is one remote record: a type, a zone-scoped identifier, and fields.
type Record struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Validate rejects records holding non-scalar field values.
func (r Record) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("record type is required")
	}
	for k, v := range r.Fields {
		switch v.(type) {
		case string, float64, int64, int, time.Time:
		default:
			return fmt.Errorf("field %q holds unsupported type %T", k, v)
		}
	}
	return nil
}

// String returns the named field as a string if present and typed correctly.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

// Float returns the named field as a float64, accepting integer values too.
func (f Fields) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns the named field as an int64, accepting float values with no
// fractional part.
func (f Fields) Int(key string) (int64, bool) {
	switch v := f[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Time returns the named field as a time.Time.
func (f Fields) Time(key string) (time.Time, bool) {
	v, ok := f[key].(time.Time)
	return v, ok
}

// UpdatedAt resolves the record's authoritative modification time using the
// legacy-record fallback chain: updatedAt, then createdAt. The second return
// is false when neither is present; callers substitute their own merge time
// exactly once so repeated pulls of the same legacy record stay stable.
func (f Fields) UpdatedAt() (time.Time, bool) {
	if t, ok := f.Time(FieldUpdatedAt); ok {
		return t, true
	}
	if t, ok := f.Time(FieldCreatedAt); ok {
		return t, true
	}
	return time.Time{}, false
}
