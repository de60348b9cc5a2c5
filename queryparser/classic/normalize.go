package classic

import "strings"

// misgroupReplacements is the fixed replacement list from stage 4:
// common operator/paren misgroupings are rewritten before the token
// stream is split, e.g. "(not a b)" as typed really means
// "not (a b)". Matching is done on a space-padded copy of the string
// so the patterns anchor at token boundaries.
var misgroupReplacements = [][2]string{
	{" ( not ", " not ( "},
	{" ( and ", " and ( "},
	{" ( or ", " or ( "},
}

// applyReplacements runs the fixed misgrouping replacement list over
// the cleaned, modifier-free search string.
func applyReplacements(s string) string {
	padded := " " + s + " "
	for _, r := range misgroupReplacements {
		padded = strings.ReplaceAll(padded, r[0], r[1])
	}
	return strings.TrimSpace(padded)
}

// splitTokens splits the normalized search string into its
// whitespace-delimited tokens, driving the FastCharStream ring buffer.
// Clean has already collapsed all whitespace runs to single spaces, so
// a space is the only separator left to honor.
func splitTokens(s string) []string {
	cs := newFastCharStream(strings.NewReader(s))
	var tokens []string
	for {
		r, err := cs.readChar()
		if err != nil {
			return tokens
		}
		if r == ' ' {
			continue
		}
		cs.backup(1)
		if _, err := cs.beginToken(); err != nil {
			return tokens
		}
		for {
			r, err := cs.readChar()
			if err != nil {
				tokens = append(tokens, cs.image())
				return tokens
			}
			if r == ' ' {
				cs.backup(1)
				tokens = append(tokens, cs.image())
				cs.readChar()
				break
			}
		}
	}
}
