// Package parse normalizes catalog identifiers.
package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	isbnPrefixRe = regexp.MustCompile(`(?i)^\s*ISBN(?:-1[03])?\s*:?\s*`)
	isbnSepRe    = regexp.MustCompile(`[\s\-]+`)
	isbn10Re     = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Re     = regexp.MustCompile(`^97[89]\d{10}$`)
)

// ISBN validates raw as an ISBN-10 or ISBN-13 and returns it as a bare
// ISBN-13. Hyphens, spaces and an "ISBN" prefix are accepted.
func ISBN(raw string) (string, error) {
	s := isbnPrefixRe.ReplaceAllString(raw, "")
	s = strings.ToUpper(isbnSepRe.ReplaceAllString(s, ""))

	switch {
	case isbn13Re.MatchString(s):
		if isbn13Check(s[:12]) != s[12] {
			return "", fmt.Errorf("invalid ISBN-13 check digit: %q", raw)
		}
		return s, nil
	case isbn10Re.MatchString(s):
		if isbn10Check(s[:9]) != s[9] {
			return "", fmt.Errorf("invalid ISBN-10 check digit: %q", raw)
		}
		body := "978" + s[:9]
		return body + string(isbn13Check(body)), nil
	}
	return "", fmt.Errorf("unable to parse ISBN: %q", raw)
}

// isbn13Check returns the check digit for the first 12 digits.
func isbn13Check(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

// isbn10Check returns the check digit for the first 9 digits.
func isbn10Check(body string) byte {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (10 - i) * int(body[i]-'0')
	}
	c := (11 - sum%11) % 11
	if c == 10 {
		return 'X'
	}
	return byte('0' + c)
}
