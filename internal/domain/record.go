package domain

import (
	"fmt"
	"time"
)

// Collection names a record collection in the document store.
type Collection string

const (
	CollectionTimeRecords Collection = "time_records"
	CollectionActivities  Collection = "activities"
)

// ParseCollection validates a collection name coming from a trigger.
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case CollectionTimeRecords, CollectionActivities:
		return c, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// ActivityRecord is an immutable record created by a student. Time records
// carry RecordType, activities carry ActivityType.
type ActivityRecord struct {
	ID           string
	UserID       string
	Collection   Collection
	RecordType   string
	ActivityType string
	CreatedAt    time.Time // UTC
}

// RawType returns the shape-specific kind field of the record.
func (r *ActivityRecord) RawType() string {
	if r.Collection == CollectionTimeRecords {
		return r.RecordType
	}
	return r.ActivityType
}

// Kind normalizes the record. ok is false for unknown kinds, which must not
// count towards completion.
func (r *ActivityRecord) Kind() (k Kind, ok bool) {
	switch r.Collection {
	case CollectionTimeRecords:
		return NormalizeTimed(r.RecordType)
	case CollectionActivities:
		return NormalizeCategorical(r.ActivityType)
	}
	return "", false
}

// RecordQuery filters a record collection. Empty UserID and Type match any
// value; From and To bound created_at inclusively.
type RecordQuery struct {
	Collection Collection
	UserID     string
	Type       string
	From       time.Time
	To         time.Time
}

// QueryForWindow builds a query over the given day window.
func QueryForWindow(c Collection, userID string, w DayWindow) RecordQuery {
	return RecordQuery{Collection: c, UserID: userID, From: w.Start, To: w.End}
}
