package css

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	complexNthRegexp = regexp.MustCompile(`^\s*([+-]?\d*)?n\s*([+-]\s*\d+)?\s*$`)
	simpleNthRegexp  = regexp.MustCompile(`^\s*([+-]?\d+)\s*$`)
	whitespaceRegexp = regexp.MustCompile(`\s`)
)

// ParseNth parses An+B microsyntax (including the keywords odd and even)
// into a and b.
func ParseNth(args string) (int, int, error) {
	if args = strings.ToLower(strings.TrimSpace(args)); args == "odd" {
		return 2, 1, nil
	} else if args == "even" {
		return 2, 0, nil
	} else if m := simpleNthRegexp.FindStringSubmatch(args); m != nil {
		b, err := atoi(m[1], "0")
		return 0, b, err
	} else if m := complexNthRegexp.FindStringSubmatch(args); m != nil {
		a, err := atoi(m[1], "1")
		if err != nil {
			return 0, 0, err
		}
		b, err := atoi(m[2], "0")
		if err != nil {
			return 0, 0, err
		}
		return a, b, nil
	}
	return 0, 0, fmt.Errorf("bad nth arguments: %q", args)
}

func atoi(s, fallback string) (int, error) {
	s = whitespaceRegexp.ReplaceAllString(s, "")
	if s == "" || s == "+" || s == "-" {
		s = s + fallback
	}
	return strconv.Atoi(s)
}
