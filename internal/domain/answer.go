package domain

import (
	"strings"
	"time"
)

// QuestionAnswer is a cached operator answer keyed by (ATS, normalized question).
type QuestionAnswer struct {
	ATSType   ATSType
	Question  string // normalized
	Answer    string
	CreatedAt time.Time
}

// NormalizeQuestion lowercases, collapses whitespace and drops trailing
// punctuation and required-field markers so "Why us? *" and "why us" share a key.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(strings.Join(strings.Fields(q), " "))
	q = strings.TrimRight(q, " *:?.")
	return strings.TrimSpace(q)
}
