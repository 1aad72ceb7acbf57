// Package floor implements the floor labelling scheme used throughout the
// elevator bank: regular floors are numbered 1..999 and basement floors
// B1..B99. There is no floor 0.
package floor

import (
	"errors"
	"fmt"
	"strconv"
)

// Label is a floor in numeric form. Basement floors are negative, so "B2"
// is -2 and "5" is 5. Zero is never a valid Label.
type Label int

// Bounds of the labelling scheme as a whole. Individual cars travel a
// narrower Range.
const (
	Lowest  Label = -99
	Highest Label = 999
)

var ErrInvalidLabel = errors.New("invalid floor label")

// Valid reports whether l denotes an existing floor.
func (l Label) Valid() bool {
	return l >= Lowest && l <= Highest && l != 0
}

// String renders the label in its textual form: decimal digits for regular
// floors, a "B" prefix for basements.
func (l Label) String() string {
	if l < 0 {
		return "B" + strconv.Itoa(int(-l))
	}
	return strconv.Itoa(int(l))
}

// Parse is the exact inverse of String. A leading lowercase 'b' is accepted
// for basements; anything else that String would not produce is rejected.
func Parse(s string) (Label, error) {
	text := s
	basement := false
	if len(s) > 0 && (s[0] == 'B' || s[0] == 'b') {
		basement = true
		s = s[1:]
	}
	if len(s) == 0 || len(s) > 3 || s[0] == '0' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
		}
		n = n*10 + int(c-'0')
	}
	l := Label(n)
	if basement {
		l = -l
	}
	if !l.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
	}
	return l, nil
}

// Step returns the floor adjacent to l in the given direction (+1 for up,
// -1 for down). Stepping onto the nonexistent floor 0 or past the B99/999
// bounds fails.
func (l Label) Step(delta int) (Label, error) {
	next := l + Label(delta)
	if !next.Valid() {
		return 0, fmt.Errorf("%w: no floor adjacent to %s", ErrInvalidLabel, l)
	}
	return next, nil
}

// Toward returns the floor one closer to dest, skipping floor 0. If l
// already equals dest it is returned unchanged.
func (l Label) Toward(dest Label) Label {
	switch {
	case l < dest:
		if l == -1 {
			return 1
		}
		return l + 1
	case l > dest:
		if l == 1 {
			return -1
		}
		return l - 1
	}
	return l
}

// Distance is the number of single-floor hops between a and b, accounting
// for the missing floor 0.
func Distance(a, b Label) int {
	d := int(b - a)
	if d < 0 {
		d = -d
	}
	if (a < 0) != (b < 0) {
		d--
	}
	return d
}

// Range is the travel range of one car, inclusive at both ends.
type Range struct {
	Lowest  Label
	Highest Label
}

// Valid reports whether both ends are real floors in the right order.
func (r Range) Valid() bool {
	return r.Lowest.Valid() && r.Highest.Valid() && r.Lowest <= r.Highest
}

// Contains reports whether l lies within the range.
func (r Range) Contains(l Label) bool {
	return l.Valid() && l >= r.Lowest && l <= r.Highest
}

func (r Range) String() string {
	return r.Lowest.String() + ".." + r.Highest.String()
}

// ParseRange builds a Range from two textual labels.
func ParseRange(lowest, highest string) (Range, error) {
	lo, err := Parse(lowest)
	if err != nil {
		return Range{}, err
	}
	hi, err := Parse(highest)
	if err != nil {
		return Range{}, err
	}
	r := Range{Lowest: lo, Highest: hi}
	if !r.Valid() {
		return Range{}, fmt.Errorf("%w: range %s..%s", ErrInvalidLabel, lowest, highest)
	}
	return r, nil
}
