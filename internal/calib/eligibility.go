package calib

import (
	"sort"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/logger"
)

// DefaultEligibleIDs are the stations fitted with calibrated sensors.
var DefaultEligibleIDs = []int{
	1, 3, 5, 7, 8, 10, 12, 14, 16, 17, 20, 22, 24, 27, 29, 30, 31, 34, 36, 37,
	38, 41, 43, 45, 47, 50, 51, 53, 55, 57, 59, 61, 63, 65, 67, 68, 71, 73, 75, 77,
	79, 81, 82, 84, 86, 88, 90, 92, 94, 96, 98, 100, 102, 104, 106, 108, 110, 111, 113, 115,
	117, 119, 122, 124, 126, 128, 130, 132, 134, 136, 138, 141, 142, 143, 146, 148, 149, 151, 153, 156,
	160, 162, 165, 167,
}

// EligibilitySet is the set of device ids allowed to receive calibration files.
type EligibilitySet map[int]struct{}

// NewEligibilitySet builds a set from ids.
func NewEligibilitySet(ids []int) EligibilitySet {
	s := make(EligibilitySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// DefaultEligibility returns the built-in station set.
func DefaultEligibility() EligibilitySet {
	return NewEligibilitySet(DefaultEligibleIDs)
}

// ParseEligibility builds a set from scope-style tokens ("1", "5-9", "3,4").
// An empty token list selects the built-in stations.
func ParseEligibility(tokens []string, log logger.Logger) EligibilitySet {
	if len(tokens) == 0 {
		return DefaultEligibility()
	}
	return NewEligibilitySet(device.ParseScope(tokens, log))
}

// Contains reports whether id may receive calibration.
func (s EligibilitySet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s EligibilitySet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
