package model

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// LetterSet is an insertion-ordered set of attempted letters.
// The zero value is an empty set ready to use.
type LetterSet struct {
	order []rune
	index map[rune]struct{}
}

// NewLetterSet builds a set from the given letters, dropping duplicates
func NewLetterSet(letters ...rune) LetterSet {
	var s LetterSet
	for _, l := range letters {
		s.Add(l)
	}
	return s
}

// Add inserts a letter. Returns false if it was already present.
func (s *LetterSet) Add(letter rune) bool {
	if s.Contains(letter) {
		return false
	}
	if s.index == nil {
		s.index = make(map[rune]struct{})
	}
	s.index[letter] = struct{}{}
	s.order = append(s.order, letter)
	return true
}

// Contains reports membership
func (s LetterSet) Contains(letter rune) bool {
	_, ok := s.index[letter]
	return ok
}

// Len returns the number of distinct letters
func (s LetterSet) Len() int {
	return len(s.order)
}

// Letters returns the letters in insertion order
func (s LetterSet) Letters() []rune {
	out := make([]rune, len(s.order))
	copy(out, s.order)
	return out
}

// Strings returns the letters as single-character strings in insertion order
func (s LetterSet) Strings() []string {
	out := make([]string, len(s.order))
	for i, l := range s.order {
		out[i] = string(l)
	}
	return out
}

// Join renders the letters separated by sep
func (s LetterSet) Join(sep string) string {
	return strings.Join(s.Strings(), sep)
}

// Clone returns an independent copy
func (s LetterSet) Clone() LetterSet {
	return NewLetterSet(s.order...)
}

// MarshalJSON encodes the set as an ordered array of one-letter strings
func (s LetterSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array of one-letter strings
func (s *LetterSet) UnmarshalJSON(data []byte) error {
	var letters []string
	if err := json.Unmarshal(data, &letters); err != nil {
		return err
	}
	*s = LetterSet{}
	for _, l := range letters {
		r, size := utf8.DecodeRuneInString(l)
		if size == 0 || size != len(l) {
			return ErrInvalidLetter
		}
		s.Add(r)
	}
	return nil
}
