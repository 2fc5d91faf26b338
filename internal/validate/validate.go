package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[A-Za-z0-9 :_'\-]{1,60}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePrice = regexp.MustCompile(`^[0-9]{1,7}(\.[0-9]{1,2})?$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 60 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search term: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true // empty search is "no filter", not an error
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s, reQ.MatchString(s)
}

// ID validates a backend resource identifier (game/category/order/line ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Price validates a free-typed price bound. Empty means "no bound".
func Price(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, rePrice.MatchString(s)
}

// Rating parses a 1..5 rating filter; 0 and empty mean "no filter".
func Rating(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 5 {
		return 0, false
	}
	return n, true
}

// Page parses a 1-based page number, clamping garbage to 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ReviewText bounds a free-text review body.
func ReviewText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 2000 {
		return "", false
	}
	return s, true
}

// Password only checks the length window the backend enforces; the backend
// owns real credential policy.
func Password(s string) bool {
	return len(s) >= 8 && len(s) <= 64
}
