// Package command launches workspace script files through the platform
// shell.
package command

import (
	"strings"
	"unicode"
)

// Command is a tokenized script-file command line: the script path followed
// by its parameters.
type Command struct {
	ScriptPath string
	Parameters []string
}

// Parse tokenizes a resolved command line. Tokens are separated by
// whitespace; single or double quotes group characters, including
// whitespace, into one token. The first token is the script path.
func Parse(line string) *Command {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return &Command{}
	}

	return &Command{ScriptPath: tokens[0], Parameters: tokens[1:]}
}

func tokenize(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		open    bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			open = true
		case unicode.IsSpace(r):
			if open {
				tokens = append(tokens, current.String())
				current.Reset()

				open = false
			}
		default:
			current.WriteRune(r)

			open = true
		}
	}

	if open {
		tokens = append(tokens, current.String())
	}

	return tokens
}
