// Package render fills {{name}} placeholders in uploaded HTML templates.
//
// Templates are operator-supplied HTML, so html/template is not used: its actions would
// reinterpret any literal braces and escape values the operator meant verbatim.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedTemplate is returned by Validate for a "{{" that does not open a valid placeholder.
var ErrMalformedTemplate = errors.New("malformed template")

// Recipient-scoped variable names.
const (
	VarEmail = "email"
	VarName  = "name"
	VarID    = "id"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render replaces every {{identifier}} with vars[identifier]. Placeholders without a
// value are left as they are.
func Render(content string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(content, "{{") {
		return content
	}
	return placeholderRe.ReplaceAllStringFunc(content, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// Validate checks that every "{{" in content opens a placeholder Render can fill.
// Extra opening braces are allowed, so "{{{name}}}" renders as "{" + name + "}".
// Rejected: "{{" with no closing "}}", whitespace inside the braces ("{{ name }}") and
// names outside [A-Za-z0-9_] ("{{first-name}}"); Render would leave all of these in
// the sent email unchanged.
func Validate(content string) error {
	offset := 0
	for {
		i := strings.Index(content[offset:], "{{")
		if i < 0 {
			return nil
		}
		pos := offset + i
		if pos+2 < len(content) && content[pos+2] == '{' {
			offset = pos + 1
			continue
		}
		loc := placeholderRe.FindStringIndex(content[pos:])
		if loc == nil || loc[0] != 0 {
			return fmt.Errorf("%w: unterminated or invalid placeholder at byte %d", ErrMalformedTemplate, pos)
		}
		offset = pos + loc[1]
	}
}

// Placeholders returns the distinct placeholder names in order of first appearance.
func Placeholders(content string) []string {
	matches := placeholderRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// RecipientVars builds the variables for one recipient. Unknown name or id are omitted
// so their placeholders stay visible.
func RecipientVars(email, name, id string) map[string]string {
	vars := map[string]string{VarEmail: email}
	if name != "" {
		vars[VarName] = name
	}
	if id != "" {
		vars[VarID] = id
	}
	return vars
}
