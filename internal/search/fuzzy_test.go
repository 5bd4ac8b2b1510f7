package search_test

import (
	"errors"
	"testing"

	"hotelbook/internal/domain"
	"hotelbook/internal/search"
)

func names[T search.Named](in []T) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		out = append(out, e.GetName())
	}
	return out
}

func TestFuzzyMatch(t *testing.T) {
	hotels := []*domain.Hotel{
		{Name: "Sandy"},
		{Name: "Oak"},
		{Name: "Grand Plaza"},
		{Name: "The Lafayette"},
	}

	cases := []struct {
		query string
		want  []string
	}{
		{"an", []string{"Sandy", "Grand Plaza"}},
		{"^O", []string{"Oak"}},
		{"a.*e", []string{"The Lafayette"}},
		{"zzz", []string{}},
		{"(?i)the", []string{"The Lafayette"}},
	}
	for _, tc := range cases {
		got, err := search.FuzzyMatch(tc.query, hotels)
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", tc.query, err)
		}
		gotNames := names(got)
		if len(gotNames) != len(tc.want) {
			t.Fatalf("%q: got %v, want %v", tc.query, gotNames, tc.want)
		}
		for i := range gotNames {
			if gotNames[i] != tc.want[i] {
				t.Fatalf("%q: got %v, want %v", tc.query, gotNames, tc.want)
			}
		}
	}
}

func TestFuzzyMatch_ReturnsSameInstances(t *testing.T) {
	g := &domain.Guest{ID: 1, Name: "Raha", HotelID: 1}
	got, err := search.FuzzyMatch("ah", []*domain.Guest{g, {Name: "Tal"}})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0] != g {
		t.Fatalf("expected the same guest pointer, got %+v", got)
	}
}

func TestFuzzyMatch_CallerErrors(t *testing.T) {
	if _, err := search.FuzzyMatch("", []*domain.Hotel{{Name: "Oak"}}); !errors.Is(err, search.ErrEmptyPattern) {
		t.Fatalf("expected ErrEmptyPattern, got %v", err)
	}

	_, err := search.FuzzyMatch("([", []*domain.Hotel{{Name: "Oak"}})
	var pe *search.PatternError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PatternError, got %v", err)
	}
	if pe.Query != "([" {
		t.Fatalf("unexpected query in error: %q", pe.Query)
	}
}
