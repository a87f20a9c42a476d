package lastresults

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned for malformed result numbers.
var ErrInvalidNumber = errors.New("invalid result number")

// maxRangeSize bounds a single range so a typo cannot expand to millions.
const maxRangeSize = 1000

// ParseNumbers parses result numbers: "3", "1,3,5", "2-4" or a mix such
// as "1,3-5". Spaces separate like commas. Duplicates are dropped and the
// first-seen order kept.
func ParseNumbers(input string) ([]int, error) {
	var out []int
	seen := make(map[int]bool)
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, part := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parsePositive(lo)
		if err != nil {
			return nil, err
		}
		if !isRange {
			add(start)
			continue
		}
		end, err := parsePositive(hi)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("%w: range %s ends before it starts", ErrInvalidNumber, part)
		}
		if end-start+1 > maxRangeSize {
			return nil, fmt.Errorf("%w: range %s is too large (max %d)", ErrInvalidNumber, part, maxRangeSize)
		}
		for n := start; n <= end; n++ {
			add(n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no numbers in %q", ErrInvalidNumber, input)
	}
	return out, nil
}

// ParseNumberArgs parses several arguments as one list.
func ParseNumberArgs(args []string) ([]int, error) {
	return ParseNumbers(strings.Join(args, ","))
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidNumber, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidNumber, n)
	}
	return n, nil
}
