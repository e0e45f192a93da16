// Package template resolves $NAME and ${NAME} build macros in configured
// command lines.
package template

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnterminated indicates a ${ reference without a closing brace.
	ErrUnterminated = errors.New("unterminated variable reference")

	// ErrBadReference indicates an empty braced reference or a character
	// that cannot appear in a variable name.
	ErrBadReference = errors.New("malformed variable reference")
)

// Expand replaces $NAME and ${NAME} references in input with values from
// vars. References to unknown variables are left untouched so they can be
// resolved later by the shell. A $$ sequence yields a literal dollar sign.
// Variable names consist of letters, digits and underscores; a malformed or
// unterminated braced reference is an error.
func Expand(input string, vars map[string]string) (string, error) {
	var out strings.Builder

	out.Grow(len(input))

	for i := 0; i < len(input); {
		if input[i] != '$' {
			out.WriteByte(input[i])
			i++

			continue
		}

		if i+1 >= len(input) {
			out.WriteByte('$')

			break
		}

		switch next := input[i+1]; {
		case next == '$':
			out.WriteByte('$')

			i += 2
		case next == '{':
			end, err := scanBracedName(input, i)
			if err != nil {
				return "", err
			}

			name := input[i+2 : end]
			if value, ok := vars[name]; ok {
				out.WriteString(value)
			} else {
				out.WriteString(input[i : end+1])
			}

			i = end + 1
		case isNameByte(next):
			end := i + 1
			for end < len(input) && isNameByte(input[end]) {
				end++
			}

			name := input[i+1 : end]
			if value, ok := vars[name]; ok {
				out.WriteString(value)
			} else {
				out.WriteString(input[i:end])
			}

			i = end
		default:
			out.WriteByte('$')

			i++
		}
	}

	return out.String(), nil
}

// scanBracedName returns the index of the closing brace of the ${NAME}
// reference starting at start.
func scanBracedName(input string, start int) (int, error) {
	end := start + 2
	for end < len(input) && isNameByte(input[end]) {
		end++
	}

	if end >= len(input) {
		return 0, fmt.Errorf("%w at offset %d", ErrUnterminated, start)
	}

	if input[end] != '}' || end == start+2 {
		return 0, fmt.Errorf("%w at offset %d", ErrBadReference, start)
	}

	return end, nil
}

func isNameByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
