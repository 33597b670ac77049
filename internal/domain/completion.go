package domain

import "sort"

// CompletionState is the set of distinct canonical kinds a user recorded
// within one day window. It is derived on every evaluation and never stored.
type CompletionState struct {
	UserID string
	Day    DayWindow
	kinds  map[Kind]struct{}
}

// NewCompletionState returns an empty state for the user and day.
func NewCompletionState(userID string, day DayWindow) CompletionState {
	return CompletionState{UserID: userID, Day: day, kinds: make(map[Kind]struct{}, len(allKinds))}
}

// Add inserts k. Kinds outside the closed enum are rejected so the
// cardinality can never exceed the number of canonical kinds.
func (s *CompletionState) Add(k Kind) bool {
	if !k.Valid() {
		return false
	}
	if s.kinds == nil {
		s.kinds = make(map[Kind]struct{}, len(allKinds))
	}
	s.kinds[k] = struct{}{}
	return true
}

// AddRecord normalizes r and adds its kind when it is known.
func (s *CompletionState) AddRecord(r *ActivityRecord) bool {
	k, ok := r.Kind()
	if !ok {
		return false
	}
	return s.Add(k)
}

// Has reports whether k was observed.
func (s CompletionState) Has(k Kind) bool {
	_, ok := s.kinds[k]
	return ok
}

// Count is the number of distinct kinds observed.
func (s CompletionState) Count() int {
	return len(s.kinds)
}

// Kinds returns the observed kinds sorted alphabetically.
func (s CompletionState) Kinds() []Kind {
	out := make([]Kind, 0, len(s.kinds))
	for k := range s.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Missing returns the required kinds not yet observed, in required order.
func (s CompletionState) Missing(required []Kind) []Kind {
	var out []Kind
	for _, k := range required {
		if !s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// IsComplete reports whether every required kind was observed. With the
// default required set this equals Count() >= len(AllKinds()).
func (s CompletionState) IsComplete(required []Kind) bool {
	if len(required) == 0 {
		return false
	}
	return len(s.Missing(required)) == 0
}
