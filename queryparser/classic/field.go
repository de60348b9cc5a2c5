package classic

import "regexp"

// fieldPrefixRe recognizes a `field<range-op>` prefix attached
// directly to a term token (no space, since "=" and friends are not
// token delimiters): e.g. "title=quick", "price>=10", "lang:en".
var fieldPrefixRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(!=|<=|>=|=|<|>|:)(.*)$`)

// splitFieldPrefix extracts a field name and range operator from tok,
// per spec.md §4.4 step 5's "suffix of scanf-like patterns".
func splitFieldPrefix(tok string) (field string, rangeID RangeID, rest string, ok bool) {
	m := fieldPrefixRe.FindStringSubmatch(tok)
	if m == nil {
		return "", RangeEqual, tok, false
	}
	field = m[1]
	rest = m[3]
	switch m[2] {
	case "!=":
		rangeID = RangeNotEqual
	case "<=":
		rangeID = RangeLessOrEqual
	case ">=":
		rangeID = RangeGreaterOrEqual
	case "<":
		rangeID = RangeLess
	case ">":
		rangeID = RangeGreater
	default: // "=" or ":"
		rangeID = RangeEqual
	}
	return field, rangeID, rest, true
}
