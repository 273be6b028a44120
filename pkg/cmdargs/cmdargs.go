// Package cmdargs holds the small argument grammars shared by command
// handlers: "X <keyword> Y" phrases and integer arguments.
package cmdargs

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrKeywordMissing  = errors.New("keyword missing")
	ErrKeywordRepeated = errors.New("keyword appears more than once")
	ErrEmptySide       = errors.New("nothing on one side of the keyword")
	ErrNotInteger      = errors.New("not an integer")
)

// SplitKeyword splits args around a single reserved keyword token, e.g.
// "give crystal ball to seisatsu" with keyword "to". The keyword is matched
// case-insensitively as a whole token; both sides must be non-empty.
func SplitKeyword(args []string, keyword string) (before, after string, err error) {
	at := -1
	for i, a := range args {
		if !strings.EqualFold(a, keyword) {
			continue
		}
		if at >= 0 {
			return "", "", ErrKeywordRepeated
		}
		at = i
	}
	if at < 0 {
		return "", "", ErrKeywordMissing
	}
	before = strings.Join(args[:at], " ")
	after = strings.Join(args[at+1:], " ")
	if before == "" || after == "" {
		return "", "", ErrEmptySide
	}
	return before, after, nil
}

// Int parses a base-10 integer argument.
func Int(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// IsInt reports whether s parses as an integer.
func IsInt(s string) bool {
	_, err := Int(s)
	return err == nil
}
