// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// objectIDRegex matches the 24 hex digit identifiers issued by the API.
var objectIDRegex = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// IsObjectID reports whether s has the API identifier format.
func IsObjectID(s string) bool {
	return objectIDRegex.MatchString(s)
}

// NormalizeID trims an identifier so that ids read from different responses
// compare equal.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// SameID compares two identifiers after normalization. Empty ids never match.
func SameID(a, b string) bool {
	na, nb := NormalizeID(a), NormalizeID(b)
	return na != "" && na == nb
}

// Ref is a reference to another entity as it appears on the wire.
// The API sends references either as a plain string or as an embedded
// object carrying "_id" or "id"; Ref accepts both and keeps only the id.
type Ref string

// String returns the normalized identifier.
func (r Ref) String() string {
	return NormalizeID(string(r))
}

// IsEmpty reports whether the reference points nowhere.
func (r Ref) IsEmpty() bool {
	return r.String() == ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		*r = Ref(NormalizeID(s))
		return nil
	case '{':
		var obj struct {
			MongoID Ref `json:"_id"`
			ID      Ref `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		if !obj.ID.IsEmpty() {
			*r = obj.ID
		} else {
			*r = obj.MongoID
		}
		return nil
	default:
		return fmt.Errorf("ref: unsupported JSON value %s: %w", string(data), ErrInvalidFormat)
	}
}

// MarshalJSON implements json.Marshaler. References are always sent as strings.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// RefList is a list of references, as found in a class roster.
type RefList []Ref

// Strings returns the non-empty normalized ids in order.
func (l RefList) Strings() []string {
	out := make([]string, 0, len(l))
	for _, r := range l {
		if !r.IsEmpty() {
			out = append(out, r.String())
		}
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Numeric Value Objects
// ═══════════════════════════════════════════════════════════════════════════

const (
	// MinScore is the lowest score a criterion can receive.
	MinScore = 1.0
	// MaxScore is the highest score a criterion can receive.
	MaxScore = 5.0
	// ScoreStep is the granularity of a score.
	ScoreStep = 0.5
	// DefaultScore pre-fills a new evaluation form.
	DefaultScore = 3.0
)

// IsValidScore reports whether v lies in [1,5] on a half-point step.
func IsValidScore(v float64) bool {
	if math.IsNaN(v) || v < MinScore || v > MaxScore {
		return false
	}
	steps := (v - MinScore) / ScoreStep
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

// Round2 rounds v to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ═══════════════════════════════════════════════════════════════════════════
// Grade
// ═══════════════════════════════════════════════════════════════════════════

// Grade is a school year level shared by students and classes.
type Grade string

const (
	Grade1 Grade = "1º Ano"
	Grade2 Grade = "2º Ano"
	Grade3 Grade = "3º Ano"
	Grade4 Grade = "4º Ano"
	Grade5 Grade = "5º Ano"
	Grade6 Grade = "6º Ano"
	Grade7 Grade = "7º Ano"
	Grade8 Grade = "8º Ano"
	Grade9 Grade = "9º Ano"

	// DefaultGrade pre-fills new student and class forms.
	DefaultGrade = Grade5
)

var allGrades = []Grade{Grade1, Grade2, Grade3, Grade4, Grade5, Grade6, Grade7, Grade8, Grade9}

// Grades returns every grade in ascending order.
func Grades() []Grade {
	out := make([]Grade, len(allGrades))
	copy(out, allGrades)
	return out
}

// Index returns the position of g in the grade order, or -1 if unknown.
func (g Grade) Index() int {
	for i, v := range allGrades {
		if v == g {
			return i
		}
	}
	return -1
}

// IsValid reports whether g is one of the nine grades.
func (g Grade) IsValid() bool {
	return g.Index() >= 0
}

// String returns the display label.
func (g Grade) String() string {
	return string(g)
}

// ParseGrade accepts either the full label ("7º Ano") or the bare year number ("7").
func ParseGrade(s string) (Grade, error) {
	s = strings.TrimSpace(s)
	if g := Grade(s); g.IsValid() {
		return g, nil
	}
	for _, g := range allGrades {
		if strings.HasPrefix(string(g), s+"º") {
			return g, nil
		}
	}
	return "", ErrInvalidGrade
}
