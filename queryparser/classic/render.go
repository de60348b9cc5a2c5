package classic

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderCanonical rebuilds the normalized query text from root alone
// (spec.md §4.4 step 7, "a canonical normalized-query text... rebuild
// from the tree").
func RenderCanonical(root Child) string {
	if root == nil {
		return ""
	}
	switch v := root.(type) {
	case *Term:
		return renderTerm(v)
	case *TermCluster:
		return renderClusterBody(v, true)
	default:
		return ""
	}
}

func renderClusterBody(cl *TermCluster, isRoot bool) string {
	parts := make([]string, len(cl.Children))
	for i, ch := range cl.Children {
		parts[i] = renderChild(ch)
	}
	body := strings.Join(parts, " "+cl.Operator.String()+" ")
	if isRoot && !cl.Explicit {
		return body
	}
	return "(" + body + ")"
}

func renderChild(c Child) string {
	switch v := c.(type) {
	case *Term:
		return renderTerm(v)
	case *TermCluster:
		return renderClusterBody(v, false)
	default:
		return ""
	}
}

func renderTerm(t *Term) string {
	var b strings.Builder
	if t.Required {
		b.WriteByte('+')
	}
	text := t.Text
	if t.Function != FunctionNone {
		text = t.Function.String() + "[" + text + "]"
	}
	if t.Field != "" {
		b.WriteString(t.Field)
		b.WriteString(t.Range.String())
	}
	b.WriteString(text)
	if t.Weight != 0 {
		b.WriteByte('[')
		b.WriteString(strconv.FormatFloat(t.Weight, 'g', -1, 64))
		b.WriteByte(']')
	}
	return b.String()
}

// RenderNormalized appends modifiers and restrictions to the canonical
// text as brace-tokens, producing the second of the two cached strings
// of spec.md §4.4 step 7. It renders boolean_operator when set;
// boolean_operation, operator_case, term_case, frequent_terms,
// search_type and sort when they differ from their defaults; every
// date restriction; unfielded_search_field_names; term_weight unless
// it is 0 or 1; feedback_term_weight whenever it is non-zero, default
// included; every filter; language; and tag. It does not render
// search_results, search_report, search_cache, debug,
// early_completion, frequent_term_coverage_threshold,
// feedback_minimum_term_count, feedback_maximum_term_percentage,
// feedback_maximum_term_coverage_threshold, the four timeouts or the
// segments_searched bounds.
func RenderNormalized(canonical string, m Modifiers) string {
	tokens := renderModifierTokens(m)
	if len(tokens) == 0 {
		return canonical
	}
	if canonical == "" {
		return strings.Join(tokens, " ")
	}
	return canonical + " " + strings.Join(tokens, " ")
}

func renderModifierTokens(m Modifiers) []string {
	var out []string
	add := func(s string) { out = append(out, s) }

	if m.BooleanOperatorSet {
		add(fmt.Sprintf("{boolean_operator:%s}", strings.ToLower(m.BooleanOperatorID.String())))
	}
	if m.BooleanOperation == BooleanOperationStrict {
		add("{boolean_operation:strict}")
	}
	if m.OperatorCase != OperatorCaseAny {
		add(fmt.Sprintf("{operator_case:%s}", operatorCaseName(m.OperatorCase)))
	}
	if m.TermCase == TermCaseDrop {
		add("{term_case:drop}")
	}
	if m.FrequentTerms == FrequentTermsDrop {
		add("{frequent_terms:drop}")
	}
	if m.SearchType != SearchTypeUnset {
		add(fmt.Sprintf("{search_type:%s}", searchTypeName(m.SearchType)))
	}
	switch m.SortMode {
	case SortModeNone:
		add("{sort:none}")
	case SortModeField:
		add(fmt.Sprintf("{sort:%s:%s}", m.SortField, sortOrderName(m.SortOrder)))
	}
	for _, d := range m.Dates {
		add(fmt.Sprintf("{date%s%014d}", d.Range.String(), d.Value))
	}
	if len(m.UnfieldedSearchFieldNames) > 0 {
		add(fmt.Sprintf("{unfielded_search_field_names:%s}", strings.Join(m.UnfieldedSearchFieldNames, ",")))
	}
	if m.TermWeight != 0 && m.TermWeight != 1.0 {
		add(fmt.Sprintf("{term_weight:%s}", formatFloat(m.TermWeight)))
	}
	if m.FeedbackTermWeight != 0 {
		add(fmt.Sprintf("{feedback_term_weight:%s}", formatFloat(m.FeedbackTermWeight)))
	}
	for _, f := range m.ExclusionFilters {
		add(fmt.Sprintf("{%s:%s}", filterModifierName(f.Type, true), f.Filter))
	}
	for _, f := range m.InclusionFilters {
		add(fmt.Sprintf("{%s:%s}", filterModifierName(f.Type, false), f.Filter))
	}
	if len(m.Languages) > 0 {
		add(fmt.Sprintf("{language:%s}", strings.Join(m.Languages, ",")))
	}
	if m.Tag != "" {
		add(fmt.Sprintf("{tag:%s}", m.Tag))
	}
	return out
}

func filterModifierName(t FilterType, exclusion bool) string {
	switch {
	case exclusion && t == FilterList:
		return "exclusion_list_filter"
	case exclusion:
		return "exclusion_filter"
	case t == FilterList:
		return "inclusion_list_filter"
	default:
		return "inclusion_filter"
	}
}

func operatorCaseName(c OperatorCase) string {
	switch c {
	case OperatorCaseUpper:
		return "upper"
	case OperatorCaseLower:
		return "lower"
	default:
		return "any"
	}
}

func searchTypeName(t SearchType) string {
	if t == SearchTypeFreetext {
		return "freetext"
	}
	return "boolean"
}

func sortOrderName(o SortOrder) string {
	if o == SortDescending {
		return "desc"
	}
	return "asc"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
