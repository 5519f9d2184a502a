package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PinSet is a set of standing pins 1-10, stored as a bitmask.
type PinSet uint16

// FullRack is all ten pins standing.
const FullRack PinSet = 0b11111111110

// NewPinSet builds a set from pin numbers. Values outside 1-10 are dropped,
// matching the normalization applied before any table lookup or comparison.
func NewPinSet(pins ...int) PinSet {
	var p PinSet
	for _, pin := range pins {
		if pin >= 1 && pin <= 10 {
			p |= 1 << uint(pin)
		}
	}
	return p
}

// Has reports whether the pin is standing.
func (p PinSet) Has(pin int) bool {
	if pin < 1 || pin > 10 {
		return false
	}
	return p&(1<<uint(pin)) != 0
}

// With returns the set with the pin added.
func (p PinSet) With(pin int) PinSet {
	if pin < 1 || pin > 10 {
		return p
	}
	return p | 1<<uint(pin)
}

// Without returns the set with the pin removed.
func (p PinSet) Without(pin int) PinSet {
	if pin < 1 || pin > 10 {
		return p
	}
	return p &^ (1 << uint(pin))
}

// Count returns the number of standing pins.
func (p PinSet) Count() int {
	n := 0
	for pin := 1; pin <= 10; pin++ {
		if p.Has(pin) {
			n++
		}
	}
	return n
}

// Pins returns the standing pins in ascending order.
func (p PinSet) Pins() []int {
	out := make([]int, 0, 10)
	for pin := 1; pin <= 10; pin++ {
		if p.Has(pin) {
			out = append(out, pin)
		}
	}
	return out
}

// String renders the set as a comma-separated pin list, e.g. "7, 10".
func (p PinSet) String() string {
	pins := p.Pins()
	parts := make([]string, len(pins))
	for i, pin := range pins {
		parts[i] = strconv.Itoa(pin)
	}
	return strings.Join(parts, ", ")
}

// ParsePinSet parses a comma- or space-separated pin list. An empty string is
// the empty set. Tokens that are not integers 1-10 are an error.
func ParsePinSet(s string) (PinSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	var p PinSet
	for _, tok := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, fmt.Errorf("invalid pin %q", tok)
		}
		if v < 1 || v > 10 {
			return 0, fmt.Errorf("pin %d out of range", v)
		}
		p = p.With(v)
	}
	return p, nil
}
