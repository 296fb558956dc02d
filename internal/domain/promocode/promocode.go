package promocode

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalid is returned when a code is not on the allow-list.
var ErrInvalid = errors.New("invalid promocode")

// Rate is the share of the items total discounted by any valid code.
var Rate = decimal.RequireFromString("0.10")

const (
	filterCapacity = 1024
	filterFPR      = 0.001
)

// Set is a case-insensitive allow-list of promocodes. A bloom filter sits in
// front of the exact lookup so misses are answered without touching the map.
type Set struct {
	filter *bloom.BloomFilter
	codes  map[string]struct{}
}

// NewSet builds a Set from the given codes.
func NewSet(codes ...string) *Set {
	s := &Set{
		filter: bloom.NewWithEstimates(filterCapacity, filterFPR),
		codes:  make(map[string]struct{}, len(codes)),
	}
	for _, c := range codes {
		n := Normalize(c)
		if n == "" {
			continue
		}
		s.codes[n] = struct{}{}
		s.filter.AddString(n)
	}
	return s
}

// Contains reports whether code is on the allow-list, ignoring case and
// surrounding whitespace.
func (s *Set) Contains(code string) bool {
	n := Normalize(code)
	if n == "" || !s.filter.TestString(n) {
		return false
	}
	_, ok := s.codes[n]
	return ok
}

// Len returns the number of distinct codes.
func (s *Set) Len() int {
	return len(s.codes)
}

// Default is the storefront's fixed allow-list.
var Default = NewSet("kosnica10", "med10", "promo")

// IsValid reports whether code is accepted by the storefront.
func IsValid(code string) bool {
	return Default.Contains(code)
}

// Normalize returns the canonical (trimmed, lower-case) form of code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
