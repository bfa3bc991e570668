// ABOUTME: Read-only SQL guard and identifier validation for caller-supplied SQL fragments.
// ABOUTME: A small lexer skips literals and quoted identifiers so keywords inside strings are not flagged.

package query

import (
	"errors"
	"fmt"
	"strings"
)

// Guard errors.
var (
	ErrEmptyQuery        = errors.New("query is empty")
	ErrNotReadOnly       = errors.New("only read-only SELECT queries are allowed")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// forbiddenKeywords may not appear as bare words in a read-only statement.
var forbiddenKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true, "UPSERT": true,
	"REPLACE": true, "DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true,
	"RENAME": true, "GRANT": true, "REVOKE": true, "EXEC": true, "EXECUTE": true,
	"CALL": true, "ATTACH": true, "DETACH": true, "PRAGMA": true, "VACUUM": true,
	"REINDEX": true, "COPY": true, "INTO": true,
}

// CheckReadOnly accepts a single SELECT or WITH statement. A trailing
// semicolon is allowed; comments and further statements are not.
func CheckReadOnly(sql string) error {
	s := strings.TrimSpace(sql)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return ErrEmptyQuery
	}

	words, err := scanWords(s)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return ErrNotReadOnly
	}
	if first := words[0].text; first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: statement starts with %s", ErrNotReadOnly, first)
	}
	return checkKeywords(words)
}

// CheckPredicate accepts a WHERE-clause fragment. It applies the same
// keyword and statement rules as CheckReadOnly without requiring a SELECT.
func CheckPredicate(expr string) error {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil
	}
	words, err := scanWords(s)
	if err != nil {
		return err
	}
	return checkKeywords(words)
}

func checkKeywords(words []word) error {
	for _, w := range words {
		if forbiddenKeywords[w.text] && !w.call {
			return fmt.Errorf("%w: %s is not permitted", ErrNotReadOnly, w.text)
		}
	}
	return nil
}

// word is a bare keyword or identifier found outside literals.
type word struct {
	text string // upper-cased
	call bool   // immediately followed by '(' e.g. REPLACE(...)
}

// scanWords lexes s into bare words, skipping string literals and quoted
// identifiers. Statement separators and comments are rejected.
func scanWords(s string) ([]word, error) {
	var words []word
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end, ok := skipQuoted(s, i)
			if !ok {
				return nil, fmt.Errorf("%w: unterminated quoted text", ErrNotReadOnly)
			}
			i = end
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated bracketed identifier", ErrNotReadOnly)
			}
			i += end + 1
		case c == ';':
			return nil, fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
		case c == '-' && i+1 < len(s) && s[i+1] == '-',
			c == '/' && i+1 < len(s) && s[i+1] == '*',
			c == '#':
			return nil, fmt.Errorf("%w: comments are not allowed", ErrNotReadOnly)
		case isIdentStart(c):
			j := i
			for j < len(s) && (isIdentChar(s[j]) || s[j] == '$') {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			words = append(words, word{
				text: strings.ToUpper(s[i:j]),
				call: k < len(s) && s[k] == '(',
			})
			i = j
		default:
			i++
		}
	}
	return words, nil
}

// skipQuoted returns the offset just past the quoted run starting at start.
// A doubled quote character is an escaped quote.
func skipQuoted(s string, start int) (int, bool) {
	q := s[start]
	i := start + 1
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1, true
		}
		i++
	}
	return 0, false
}

// SanitizeIdentifier validates a table or column name. Letters, digits,
// underscores and a dot separating a schema are allowed.
func SanitizeIdentifier(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	for i := 0; i < len(identifier); i++ {
		c := identifier[i]
		if !isIdentChar(c) && c != '.' {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
		}
	}
	if strings.HasPrefix(identifier, ".") || strings.HasSuffix(identifier, ".") || strings.Contains(identifier, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return identifier, nil
}

// ParseOrderBy validates a comma-separated sort clause such as
// "name asc, createdon DESC" and returns one clause per column.
func ParseOrderBy(orderBy string) ([]string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return nil, nil
	}

	var clauses []string
	for _, part := range strings.Split(orderBy, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("%w: order by %q", ErrInvalidIdentifier, strings.TrimSpace(part))
		}
		col, err := SanitizeIdentifier(fields[0])
		if err != nil {
			return nil, err
		}
		clause := col
		if len(fields) == 2 {
			dir := strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return nil, fmt.Errorf("%w: sort direction %q", ErrInvalidIdentifier, fields[1])
			}
			clause += " " + dir
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}
