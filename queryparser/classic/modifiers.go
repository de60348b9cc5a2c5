package classic

import (
	"regexp"
	"strconv"
	"strings"
)

var braceRe = regexp.MustCompile(`\{\s*([^{}]*)\s*\}`)

// modifierSpec binds every long and abbreviated name a brace token can
// use (spec.md §6) to a handler that mutates Modifiers from the text
// following the first ':'. The table is declared in a fixed order so
// that an ambiguous abbreviation shared by two modifiers (e.g. "bo" for
// both boolean_operator and boolean_operation, "sr" for both
// search_results and search_report)
// resolves by table order, per SPEC_FULL.md §E's open-question
// decision and spec.md §9.
type modifierSpec struct {
	names   []string
	handler func(rest string, m *Modifiers) error
}

func toggleHandler(on, off string, set func(*Modifiers, ToggleState)) func(string, *Modifiers) error {
	return func(rest string, m *Modifiers) error {
		switch strings.ToLower(strings.TrimSpace(rest)) {
		case on:
			set(m, ToggleEnable)
		case off:
			set(m, ToggleDisable)
		default:
			return ErrInvalidModifier
		}
		return nil
	}
}

func modifierTable() []modifierSpec {
	return []modifierSpec{
		{[]string{"search_results", "sr"}, toggleHandler("return", "suppress", func(m *Modifiers, s ToggleState) { m.SearchResults = s })},
		{[]string{"search_report", "sr"}, toggleHandler("return", "suppress", func(m *Modifiers, s ToggleState) { m.SearchReport = s })},
		{[]string{"search_cache", "sc"}, toggleHandler("enable", "disable", func(m *Modifiers, s ToggleState) { m.SearchCache = s })},
		{[]string{"debug", "d"}, toggleHandler("enable", "disable", func(m *Modifiers, s ToggleState) { m.Debug = s })},
		{[]string{"early_completion", "ec"}, toggleHandler("enable", "disable", func(m *Modifiers, s ToggleState) { m.EarlyCompletion = s })},
		{[]string{"boolean_operator", "bo"}, handleBooleanOperator},
		{[]string{"boolean_operation", "bo"}, handleBooleanOperation},
		{[]string{"operator_case", "oc"}, handleOperatorCase},
		{[]string{"term_case", "tc"}, handleTermCase},
		{[]string{"frequent_terms", "ft"}, handleFrequentTerms},
		{[]string{"search_type", "st"}, handleSearchType},
		{[]string{"sort", "s"}, handleSort},
		{[]string{"unfielded_search_field_names", "usfn"}, handleUnfieldedFieldNames},
		{[]string{"term_weight", "tw"}, floatHandler(func(m *Modifiers, v float64) { m.TermWeight = v }, ErrInvalidTermWeight)},
		{[]string{"feedback_term_weight", "ftw"}, floatHandler(func(m *Modifiers, v float64) { m.FeedbackTermWeight = v }, ErrInvalidFeedbackTermWeight)},
		{[]string{"frequent_term_coverage_threshold", "ftct"}, floatHandler(func(m *Modifiers, v float64) { m.FrequentTermCoverage = v }, ErrInvalidFrequentTermCoverageThreshold)},
		{[]string{"feedback_minimum_term_count", "fmtc"}, intHandler(func(m *Modifiers, v int) { m.FeedbackMinTermCount = v }, ErrInvalidMinimumTermCount)},
		{[]string{"feedback_maximum_term_percentage", "fmtp"}, floatHandler(func(m *Modifiers, v float64) { m.FeedbackMaxPercentage = v }, ErrInvalidFeedbackMaximumTermPercentage)},
		{[]string{"feedback_maximum_term_coverage_threshold", "fmtct"}, floatHandler(func(m *Modifiers, v float64) { m.FeedbackMaxCoverage = v }, ErrInvalidFeedbackMaximumTermCoverage)},
		{[]string{"connection_timeout", "ct"}, intHandler(func(m *Modifiers, v int) { m.ConnectionTimeout = v }, ErrInvalidConnectionTimeout)},
		{[]string{"search_timeout", "st"}, intHandler(func(m *Modifiers, v int) { m.SearchTimeout = v }, ErrInvalidSearchTimeout)},
		{[]string{"retrieval_timeout", "rt"}, intHandler(func(m *Modifiers, v int) { m.RetrievalTimeout = v }, ErrInvalidRetrievalTimeout)},
		{[]string{"information_timeout", "it"}, intHandler(func(m *Modifiers, v int) { m.InformationTimeout = v }, ErrInvalidInformationTimeout)},
		{[]string{"segments_searched_maximum", "ssmx"}, intHandler(func(m *Modifiers, v int) { m.SegmentsSearchedMaximum = v }, ErrInvalidSegmentsSearchedMaximum)},
		{[]string{"segments_searched_minimum", "ssmn"}, intHandler(func(m *Modifiers, v int) { m.SegmentsSearchedMinimum = v }, ErrInvalidSegmentsSearchedMinimum)},
		{[]string{"exclusion_filter", "ef"}, filterHandler(FilterTerms, func(m *Modifiers, f ParserFilter) { m.ExclusionFilters = append(m.ExclusionFilters, f) })},
		{[]string{"inclusion_filter", "if"}, filterHandler(FilterTerms, func(m *Modifiers, f ParserFilter) { m.InclusionFilters = append(m.InclusionFilters, f) })},
		{[]string{"exclusion_list_filter", "elf"}, filterHandler(FilterList, func(m *Modifiers, f ParserFilter) { m.ExclusionFilters = append(m.ExclusionFilters, f) })},
		{[]string{"inclusion_list_filter", "ilf"}, filterHandler(FilterList, func(m *Modifiers, f ParserFilter) { m.InclusionFilters = append(m.InclusionFilters, f) })},
		{[]string{"language", "l"}, handleLanguage},
		{[]string{"tag", "t"}, func(rest string, m *Modifiers) error { m.Tag = strings.TrimSpace(rest); return nil }},
	}
}

func floatHandler(set func(*Modifiers, float64), invalid error) func(string, *Modifiers) error {
	return func(rest string, m *Modifiers) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return invalid
		}
		set(m, v)
		return nil
	}
}

func intHandler(set func(*Modifiers, int), invalid error) func(string, *Modifiers) error {
	return func(rest string, m *Modifiers) error {
		v, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return invalid
		}
		set(m, v)
		return nil
	}
}

func filterHandler(typ FilterType, add func(*Modifiers, ParserFilter)) func(string, *Modifiers) error {
	return func(rest string, m *Modifiers) error {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			if typ == FilterTerms {
				return ErrInvalidExclusionFilter
			}
			return ErrInvalidInclusionFilter
		}
		add(m, ParserFilter{Filter: rest, Type: typ})
		return nil
	}
}

func handleBooleanOperator(rest string, m *Modifiers) error {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "or":
		m.BooleanOperatorID = OpOR
	case "ior":
		m.BooleanOperatorID = OpIOR
	case "xor":
		m.BooleanOperatorID = OpXOR
	case "and":
		m.BooleanOperatorID = OpAND
	case "adj":
		m.BooleanOperatorID = OpADJ
	case "near":
		m.BooleanOperatorID = OpNEAR
	default:
		return ErrInvalidOperator
	}
	m.BooleanOperatorSet = true
	return nil
}

func handleBooleanOperation(rest string, m *Modifiers) error {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "relaxed":
		m.BooleanOperation = BooleanOperationRelaxed
	case "strict":
		m.BooleanOperation = BooleanOperationStrict
	default:
		return ErrInvalidModifier
	}
	return nil
}

func handleOperatorCase(rest string, m *Modifiers) error {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "any":
		m.OperatorCase = OperatorCaseAny
	case "upper":
		m.OperatorCase = OperatorCaseUpper
	case "lower":
		m.OperatorCase = OperatorCaseLower
	default:
		return ErrInvalidModifier
	}
	return nil
}

func handleTermCase(rest string, m *Modifiers) error {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "keep":
		m.TermCase = TermCaseKeep
	case "drop":
		m.TermCase = TermCaseDrop
	default:
		return ErrInvalidModifier
	}
	return nil
}

func handleFrequentTerms(rest string, m *Modifiers) error {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "keep":
		m.FrequentTerms = FrequentTermsKeep
	case "drop":
		m.FrequentTerms = FrequentTermsDrop
	default:
		return ErrInvalidModifier
	}
	return nil
}

func handleSearchType(rest string, m *Modifiers) error {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "boolean":
		m.SearchType = SearchTypeBoolean
	case "freetext":
		m.SearchType = SearchTypeFreetext
	default:
		return ErrInvalidModifier
	}
	return nil
}

func handleSort(rest string, m *Modifiers) error {
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(rest) {
	case "default":
		m.SortMode = SortModeDefault
		return nil
	case "none":
		m.SortMode = SortModeNone
		return nil
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return ErrInvalidSort
	}
	m.SortMode = SortModeField
	m.SortField = parts[0]
	switch strings.ToLower(parts[1]) {
	case "asc":
		m.SortOrder = SortAscending
	case "desc":
		m.SortOrder = SortDescending
	default:
		return ErrInvalidSortOrder
	}
	return nil
}

func handleDate(rest string, m *Modifiers) error {
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := parseDateRestriction(part)
		if err != nil {
			return err
		}
		m.Dates = append(m.Dates, n)
	}
	return nil
}

func handleUnfieldedFieldNames(rest string, m *Modifiers) error {
	for _, name := range strings.Split(rest, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			m.UnfieldedSearchFieldNames = append(m.UnfieldedSearchFieldNames, name)
		}
	}
	return nil
}

func handleLanguage(rest string, m *Modifiers) error {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ErrInvalidLanguage
	}
	for _, code := range strings.Split(rest, ",") {
		code = strings.TrimSpace(code)
		if code != "" {
			m.Languages = append(m.Languages, code)
		}
	}
	return nil
}

// dateRangeOpChars are the characters that can immediately follow the
// "date"/"d" modifier name (spec.md §6, "date (d) |
// <range-op><ansi-date-or-name>[,…]" — unlike every other modifier,
// date's value starts with its range operator rather than a ':'
// separator; a ':' in that position is accepted and read as '=').
const dateRangeOpChars = "=<>!:"

// extractModifiers implements stage 3: brace-wrapped tokens are
// removed from s and parsed into Modifiers. Matching tries the
// colon-keyed table first, in table order, then falls back to the
// date modifier's colon-less `<range-op>` form. This resolves the "d"
// ambiguity between debug and date (SPEC_FULL.md §E): "{d:enable}"
// matches debug's colon form first; "{d>=20200101}" has no colon, so
// it falls through to the date-specific match.
func extractModifiers(s string, m *Modifiers) (string, error) {
	table := modifierTable()
	var parseErr error
	out := braceRe.ReplaceAllStringFunc(s, func(match string) string {
		if parseErr != nil {
			return " "
		}
		content := braceRe.FindStringSubmatch(match)[1]
		key := content
		rest := ""
		if idx := strings.IndexByte(content, ':'); idx >= 0 {
			key = content[:idx]
			rest = content[idx+1:]
		}
		key = strings.ToLower(strings.TrimSpace(key))
		for _, spec := range table {
			for _, name := range spec.names {
				if name == key {
					if err := spec.handler(rest, m); err != nil {
						parseErr = err
					}
					return " "
				}
			}
		}
		if rest, ok := matchDatePrefix(content); ok {
			if err := handleDate(rest, m); err != nil {
				parseErr = err
			}
			return " "
		}
		parseErr = ErrInvalidModifier
		return " "
	})
	if parseErr != nil {
		return "", parseErr
	}
	return out, nil
}

// matchDatePrefix recognizes "date<range-op>..." or "d<range-op>..."
// and returns the remainder starting at the range operator.
func matchDatePrefix(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)
	for _, name := range []string{"date", "d"} {
		if strings.HasPrefix(lower, name) && len(trimmed) > len(name) &&
			strings.ContainsRune(dateRangeOpChars, rune(trimmed[len(name)])) {
			return trimmed[len(name):], true
		}
	}
	return "", false
}
