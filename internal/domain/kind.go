package domain

import (
	"errors"
	"fmt"
)

// Kind is a canonical daily activity identifier. Only the values listed in
// AllKinds are valid; anything else must be dropped before counting.
type Kind string

const (
	KindWakeUp        Kind = "wake_up"
	KindSleep         Kind = "sleep"
	KindWorship       Kind = "worship"
	KindHealthyEating Kind = "healthy_eating"
	KindExercise      Kind = "exercise"
	KindSchool        Kind = "school"
	KindLearning      Kind = "learning"
	KindSocializing   Kind = "socializing"
)

var ErrUnknownKind = errors.New("unknown activity kind")

var allKinds = []Kind{
	KindWakeUp,
	KindSleep,
	KindWorship,
	KindHealthyEating,
	KindExercise,
	KindSchool,
	KindLearning,
	KindSocializing,
}

// AllKinds returns the closed set of canonical kinds in display order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k belongs to the closed enum.
func (k Kind) Valid() bool {
	for _, c := range allKinds {
		if c == k {
			return true
		}
	}
	return false
}

// Timed reports whether k is recorded in the time_records collection.
func (k Kind) Timed() bool {
	return k == KindWakeUp || k == KindSleep
}

// ParseKind validates s against the closed enum. No label normalization is
// applied; use the Normalize* helpers for raw record values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// ParseKinds parses a list of kinds, rejecting unknown values and duplicates.
func ParseKinds(ss []string) ([]Kind, error) {
	seen := make(map[Kind]struct{}, len(ss))
	out := make([]Kind, 0, len(ss))
	for _, s := range ss {
		k, err := ParseKind(normalizeLabel(s))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("duplicate activity kind %q", k)
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, errors.New("empty activity kind set")
	}
	return out, nil
}

// Raw record_type values written by the mobile client into time_records.
const (
	RecordTypeWakeUp = "bangun_pagi"
	RecordTypeSleep  = "tidur_cepat"
)

var timedAliases = map[string]Kind{
	RecordTypeWakeUp: KindWakeUp,
	RecordTypeSleep:  KindSleep,
	"wake_up":        KindWakeUp,
	"sleep":          KindSleep,
}

// Legacy labels stored by older app versions for categorical activities.
var categoricalAliases = map[string]Kind{
	"worship":        KindWorship,
	"healthy_eating": KindHealthyEating,
	"exercise":       KindExercise,
	"school":         KindSchool,
	"learning":       KindLearning,
	"socializing":    KindSocializing,
	"beribadah":      KindWorship,
	"makan_sehat":    KindHealthyEating,
	"olahraga":       KindExercise,
	"sekolah":        KindSchool,
	"gemar_belajar":  KindLearning,
	"bermasyarakat":  KindSocializing,
}

// NormalizeTimed maps a time record's record_type to wake_up or sleep.
func NormalizeTimed(recordType string) (Kind, bool) {
	k, ok := timedAliases[normalizeLabel(recordType)]
	return k, ok
}

// NormalizeCategorical maps an activity's activity_type to one of the six
// categorical kinds. Display labels such as "Healthy Eating" are accepted.
func NormalizeCategorical(activityType string) (Kind, bool) {
	k, ok := categoricalAliases[normalizeLabel(activityType)]
	return k, ok
}

// TimedRecordType returns the raw record_type stored for a timed kind.
func TimedRecordType(k Kind) (string, bool) {
	switch k {
	case KindWakeUp:
		return RecordTypeWakeUp, true
	case KindSleep:
		return RecordTypeSleep, true
	default:
		return "", false
	}
}
