// ABOUTME: Free-text search parser with field-prefix, "contains" and fallback tiers.
// ABOUTME: Field prefixes are recognised by a small hand-written scanner rather than a regex.

package query

import (
	"strings"
)

// Mode records which tier produced a SearchQuery.
type Mode int

const (
	// ModeFallback searches the whole input across the default columns.
	ModeFallback Mode = iota
	// ModeFieldPrefix came from prefix:term pairs.
	ModeFieldPrefix
	// ModeContains came from a "<subject> contains <term>" phrase.
	ModeContains
)

func (m Mode) String() string {
	switch m {
	case ModeFieldPrefix:
		return "field-prefix"
	case ModeContains:
		return "contains"
	default:
		return "fallback"
	}
}

// FieldTerm is one term bound to one column.
type FieldTerm struct {
	Prefix string
	Column string
	Term   string
}

// SearchQuery is the parsed form of a free-text query.
type SearchQuery struct {
	Mode Mode
	// Terms is empty in fallback mode.
	Terms []FieldTerm
	// Residual is the text left after removing field terms. In fallback mode
	// it is the whole trimmed, unquoted input.
	Residual string
}

// ParseSearch parses input against mapping. It never fails; input that
// matches no structured form falls back to a whole-input search.
func ParseSearch(input string, mapping *FieldMapping) SearchQuery {
	if terms, residual := scanFieldTerms(input, mapping); len(terms) > 0 {
		return SearchQuery{Mode: ModeFieldPrefix, Terms: terms, Residual: residual}
	}

	if term, ok := matchContains(input, mapping); ok {
		return SearchQuery{Mode: ModeContains, Terms: []FieldTerm{term}, Residual: term.Term}
	}

	return SearchQuery{Mode: ModeFallback, Residual: stripOuterQuotes(strings.TrimSpace(input))}
}

// scanFieldTerms walks input looking for identifier ':' term sequences whose
// identifier is a mapped prefix. The first term seen for a column wins.
func scanFieldTerms(input string, mapping *FieldMapping) ([]FieldTerm, string) {
	var (
		terms    []FieldTerm
		used     = make(map[string]bool)
		residual strings.Builder
	)

	i := 0
	for i < len(input) {
		c := input[i]
		if !isIdentStart(c) || (i > 0 && isIdentChar(input[i-1])) {
			residual.WriteByte(c)
			i++
			continue
		}

		j := i
		for j < len(input) && isIdentChar(input[j]) {
			j++
		}
		prefix := input[i:j]

		if j < len(input) && input[j] == ':' {
			if column, ok := mapping.Column(prefix); ok {
				term, end := readTerm(input, j+1)
				if term != "" {
					if !used[column] {
						used[column] = true
						terms = append(terms, FieldTerm{Prefix: strings.ToLower(prefix), Column: column, Term: term})
					}
					residual.WriteByte(' ')
					i = end
					continue
				}
			}
		}

		residual.WriteString(prefix)
		i = j
	}

	return terms, strings.Join(strings.Fields(residual.String()), " ")
}

// readTerm reads the term that starts at or after pos. Quoted terms run to
// the matching quote, or to the end of input when it is never closed. Bare
// terms run to the next whitespace. It returns the trimmed term and the
// offset just past it.
func readTerm(s string, pos int) (string, int) {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}
	if pos >= len(s) {
		return "", pos
	}

	if q := s[pos]; q == '"' || q == '\'' {
		rest := s[pos+1:]
		if end := strings.IndexByte(rest, q); end >= 0 {
			return strings.TrimSpace(rest[:end]), pos + 1 + end + 1
		}
		return strings.TrimSpace(rest), len(s)
	}

	end := pos
	for end < len(s) && !isSpace(s[end]) {
		end++
	}
	return s[pos:end], end
}

// matchContains finds "<subject> contains <term>" where subject is a mapped
// prefix. The term is everything after the keyword, unquoted.
func matchContains(input string, mapping *FieldMapping) (FieldTerm, bool) {
	words := strings.Fields(input)
	for i := 1; i < len(words)-1; i++ {
		if !strings.EqualFold(words[i], "contains") {
			continue
		}
		subject := strings.Trim(words[i-1], `"'`)
		column, ok := mapping.Column(subject)
		if !ok {
			continue
		}

		term := stripOuterQuotes(strings.Join(words[i+1:], " "))
		if q := term; len(q) > 0 && (q[0] == '"' || q[0] == '\'') {
			// quoted term followed by more text
			term, _ = readTerm(q, 0)
		}
		if term == "" {
			continue
		}
		return FieldTerm{Prefix: strings.ToLower(subject), Column: column, Term: term}, true
	}
	return FieldTerm{}, false
}

// stripOuterQuotes removes one matching pair of surrounding quotes.
func stripOuterQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
