package classic

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// tokenDelimiters are the characters spec.md §4.4 stage 1 calls out as
// token delimiters: every occurrence is surrounded with spaces so that
// downstream splitting on whitespace is sufficient.
const tokenDelimiters = "\"(){}[]"

var (
	repeatedWildcardRe = regexp.MustCompile(`\*{2,}`)
	spacesRe           = regexp.MustCompile(`\s+`)
)

// ParserPolicy carries the compile-time-flagged behaviors spec.md §4.4
// step 2 and §9 describe: each hard syntax check can reject instead of
// repair. The zero value is the spec's default policy (repair, not
// reject, per spec.md "the default policy repairs rather than
// rejects").
type ParserPolicy struct {
	RejectUnbalancedParens  bool
	RejectUnbalancedQuotes  bool
	RejectLeadingWildcard   bool
	RejectWildcardOnlyTerms bool
	StripLeadingWildcards   bool
}

// Clean implements stage 1 of spec.md §4.4: strip/normalize unsafe
// characters, collapse doubled quotes, strip backslash-escaped quotes,
// fold fullwidth CJK punctuation/forms down to their halfwidth ASCII
// equivalents (so a fullwidth paren or quote a CJK IME typed is still
// recognized as a token delimiter), fold the ideographic space,
// collapse repeated wildcard-multi characters, surround every token
// delimiter with spaces (respecting backslash escapes), then collapse
// runs of spaces.
func Clean(input string) string {
	s := replaceControlChars(input)
	s = collapseDoubledQuotes(s)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = width.Fold.String(s)
	s = strings.ReplaceAll(s, "　", " ")
	s = repeatedWildcardRe.ReplaceAllString(s, "*")
	s = surroundDelimiters(s)
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func replaceControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return ' '
		}
		if r == '\n' || r == '\t' {
			return ' '
		}
		return r
	}, s)
}

func collapseDoubledQuotes(s string) string {
	for strings.Contains(s, `""`) {
		s = strings.ReplaceAll(s, `""`, `"`)
	}
	return s
}

// surroundDelimiters pads every unescaped token-delimiter character
// with spaces and drops the backslash in front of an escaped one
// (spec.md §4.4 step 1, "Backslash escapes the next character when
// that character is a parser metacharacter"). Escaped wildcard
// metacharacters (*?@%) are deliberately left backslash-prefixed here:
// the build stage's analyzeWildcard needs to see the escape to decide
// the Term.Wildcard flag (spec.md §3 invariant), so their unescaping
// is deferred until a term's text is finalized.
func surroundDelimiters(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && strings.ContainsRune(tokenDelimiters, runes[i+1]) {
			b.WriteRune(runes[i+1])
			i++
			continue
		}
		if strings.ContainsRune(tokenDelimiters, r) {
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// checkSyntax implements stage 2: verify quote and parenthesis
// balance, repairing by default (appending a closing quote/paren) or
// rejecting with a taxonomic error when policy demands it. Brace
// ({...}) spans are atomic and their contents are never inspected for
// balance here.
func checkSyntax(s string, policy ParserPolicy) (string, error) {
	quotes, braced := 0, false
	for _, r := range s {
		switch {
		case r == '{':
			braced = true
		case r == '}':
			braced = false
		case r == '"' && !braced:
			quotes++
		}
	}
	if quotes%2 != 0 {
		if policy.RejectUnbalancedQuotes {
			return "", ErrInvalidQuote
		}
		s += ` "`
	}

	var b strings.Builder
	depth := 0
	inBrace := false
	for _, r := range s {
		switch {
		case r == '{':
			inBrace = true
			b.WriteRune(r)
		case r == '}':
			inBrace = false
			b.WriteRune(r)
		case inBrace:
			b.WriteRune(r)
		case r == '(':
			depth++
			b.WriteRune(r)
		case r == ')':
			if depth == 0 {
				if policy.RejectUnbalancedParens {
					return "", ErrInvalidBracket
				}
				continue
			}
			depth--
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if depth > 0 {
		if policy.RejectUnbalancedParens {
			return "", ErrInvalidBracket
		}
		out += strings.Repeat(" )", depth)
	}
	return out, nil
}
