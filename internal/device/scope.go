package device

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/logger"
)

// maxRangeSpan bounds a single min-max token so a typo cannot expand into millions of ids.
const maxRangeSpan = 10000

// ParseScope turns scope tokens into the sorted, deduplicated id list.
//
// Each token is a single id ("3") or an inclusive range in either order
// ("5-7", "7-5"). A token may hold several comma-separated entries ("1,4-6").
// Malformed entries are logged and skipped.
func ParseScope(tokens []string, log logger.Logger) []int {
	if log == nil {
		log = logger.Noop()
	}

	set := make(map[int]struct{})
	for _, token := range tokens {
		for _, entry := range strings.Split(token, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			lo, hi, err := ParseScopeEntry(entry)
			if err != nil {
				log.Warn("ignoring scope element %q: %s", entry, errors.Brief(err))
				continue
			}
			for id := lo; id <= hi; id++ {
				set[id] = struct{}{}
			}
		}
	}

	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ParseScopeEntry parses one "n" or "a-b" entry into an inclusive [lo, hi] range.
func ParseScopeEntry(entry string) (lo, hi int, err error) {
	parts := strings.Split(entry, "-")
	switch len(parts) {
	case 1:
		n, err := parseID(parts[0])
		if err != nil {
			return 0, 0, err
		}
		return n, n, nil
	case 2:
		a, err := parseID(parts[0])
		if err != nil {
			return 0, 0, err
		}
		b, err := parseID(parts[1])
		if err != nil {
			return 0, 0, err
		}
		lo, hi = min(a, b), max(a, b)
		if hi-lo >= maxRangeSpan {
			return 0, 0, errors.New(errors.ErrScope,
				fmt.Sprintf("range %s spans more than %d ids", entry, maxRangeSpan),
				"Split the range into smaller pieces.")
		}
		return lo, hi, nil
	default:
		return 0, 0, errors.New(errors.ErrScope,
			fmt.Sprintf("%q is neither an id nor a min-max range", entry),
			"Use ids like 3 or ranges like 5-7.")
	}
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrScope,
			fmt.Sprintf("%q is not a device id", s),
			"Device ids are non-negative integers.")
	}
	return n, nil
}
