// Package search matches user input against entity names.
//
// Despite the name, FuzzyMatch is regular-expression containment, not an
// edit-distance search: "an" matches "Sandy" and nothing matches "Sndy".
package search

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrEmptyPattern = errors.New("search: empty pattern")

// PatternError wraps a query that does not compile as a regular expression.
type PatternError struct {
	Query string
	Err   error
}

func (e *PatternError) Error() string { return fmt.Sprintf("search: bad pattern %q: %v", e.Query, e.Err) }

func (e *PatternError) Unwrap() error { return e.Err }

type Named interface {
	GetName() string
}

// FuzzyMatch returns the candidates whose name contains a match for query,
// in input order.
func FuzzyMatch[T Named](query string, candidates []T) ([]T, error) {
	if query == "" {
		return nil, ErrEmptyPattern
	}
	re, err := regexp.Compile(query)
	if err != nil {
		return nil, &PatternError{Query: query, Err: err}
	}
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if re.MatchString(c.GetName()) {
			out = append(out, c)
		}
	}
	return out, nil
}
