package domain

// Kind identifies one of the three syncable entity kinds.
type Kind string

const (
	KindEntry  Kind = "entry"
	KindGoal   Kind = "goal"
	KindPreset Kind = "preset"
)

// Kinds lists every syncable kind in the order full sync processes them.
func Kinds() []Kind {
	return []Kind{KindEntry, KindGoal, KindPreset}
}

// RecordType returns the remote record type name for the kind.
func (k Kind) RecordType() string {
	switch k {
	case KindEntry:
		return "MacroEntry"
	case KindGoal:
		return "Goal"
	case KindPreset:
		return "Preset"
	default:
		return string(k)
	}
}

func (k Kind) String() string { return string(k) }
