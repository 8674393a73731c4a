// Package template renders transport-encoded campaign message templates:
// decode, substitute contact placeholders, resolve randomized variation
// groups, re-encode.
package template

import (
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

// Error is a malformed-template fault. The worker logs it and skips the
// text sub-step; it never aborts a contact on its own.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "template: " + e.Reason }

var (
	placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)
	groupRe       = regexp.MustCompile(`\[([^\[\]]*)\]`)
)

// Render expands an encoded template for one contact. The input and output
// are both percent-encoded with '+' for space (the channel's wire form).
//
// Output is intentionally not reproducible: every variation group draws a
// fresh uniform random alternative.
func Render(encoded string, c domain.Contact) (string, error) {
	plain, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", &Error{Reason: "malformed transport encoding: " + err.Error()}
	}

	substituted, err := substitute(plain, c)
	if err != nil {
		return "", err
	}

	resolved, err := resolveVariations(substituted)
	if err != nil {
		return "", err
	}

	return url.QueryEscape(resolved), nil
}

// substitute replaces the fixed placeholder set with contact attributes.
// Any other placeholder name is an error the caller must see, not a silent
// pass-through.
func substitute(text string, c domain.Contact) (string, error) {
	var unknown string
	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		switch name {
		case "name":
			return c.Name
		case "sender":
			return c.Sender
		case "course":
			return c.Course
		}
		if unknown == "" {
			unknown = name
		}
		return m
	})
	if unknown != "" {
		return "", &Error{Reason: "unknown placeholder {" + unknown + "}"}
	}
	return out, nil
}

// resolveVariations replaces every bracketed, pipe-delimited group with one
// alternative chosen uniformly at random, re-scanning until none remain.
// Nested groups are rejected up front so they can never be misparsed.
func resolveVariations(text string) (string, error) {
	depth := 0
	for _, r := range text {
		switch r {
		case '[':
			depth++
			if depth > 1 {
				return "", &Error{Reason: "nested variation group"}
			}
		case ']':
			if depth > 0 {
				depth--
			}
		}
	}

	for groupRe.MatchString(text) {
		text = groupRe.ReplaceAllStringFunc(text, func(m string) string {
			options := strings.Split(m[1:len(m)-1], "|")
			return strings.TrimSpace(options[rand.IntN(len(options))])
		})
	}
	return text, nil
}

// Encode converts plain text into the channel's wire form. Exposed for the
// encoder CLI command.
func Encode(plain string) string {
	return url.QueryEscape(plain)
}
