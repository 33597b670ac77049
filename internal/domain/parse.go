package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidOffset = errors.New("invalid utc offset")
	ErrUnknownRole   = errors.New("unknown role")
)

var offsetRe = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)

// maxOffsetMinutes is the widest UTC offset in use (+14:00).
const maxOffsetMinutes = 14 * 60

// ParseOffset parses a fixed UTC offset like "+07:00", "-0330" or "Z" into a
// location. Named IANA zones are rejected: the day boundary must not move
// with daylight saving rules.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "Z", "UTC", "+00:00", "-00:00":
		return time.FixedZone("UTC+00:00", 0), nil
	}
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	h, _ := strconv.Atoi(m[2])
	mins, _ := strconv.Atoi(m[3])
	if mins > 59 || h*60+mins > maxOffsetMinutes {
		return nil, fmt.Errorf("%w: %q out of range", ErrInvalidOffset, s)
	}
	secs := h*3600 + mins*60
	if m[1] == "-" {
		secs = -secs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", m[1], h, mins), secs), nil
}

// ParseRole accepts canonical role names and the legacy labels
// (siswa, guru, ortu) found in older user documents.
func ParseRole(s string) (Role, error) {
	switch normalizeLabel(s) {
	case "student", "siswa":
		return RoleStudent, nil
	case "teacher", "guru":
		return RoleTeacher, nil
	case "guardian", "parent", "ortu":
		return RoleGuardian, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// normalizeLabel turns display labels ("Makan Sehat") into snake_case keys.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}
