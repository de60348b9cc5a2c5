package classic

import "fmt"

// Operator is the boolean/proximity operator carried by a TermCluster
// (spec.md §3). LPAREN/RPAREN are structural only and never survive
// into a built TermCluster.
type Operator int

const (
	OpOR Operator = iota
	OpIOR
	OpXOR
	OpAND
	OpADJ
	OpNEAR
	OpNOT
)

func (o Operator) String() string {
	switch o {
	case OpOR:
		return "OR"
	case OpIOR:
		return "IOR"
	case OpXOR:
		return "XOR"
	case OpAND:
		return "AND"
	case OpADJ:
		return "ADJ"
	case OpNEAR:
		return "NEAR"
	case OpNOT:
		return "NOT"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// RangeID is one of the six range operators a fielded Term may carry
// (spec.md §3). The zero value, RangeEqual, is the default for every
// unfielded term and is never rendered for them.
type RangeID int

const (
	RangeEqual RangeID = iota
	RangeNotEqual
	RangeLess
	RangeGreater
	RangeLessOrEqual
	RangeGreaterOrEqual
)

func (r RangeID) String() string {
	switch r {
	case RangeEqual:
		return "="
	case RangeNotEqual:
		return "!="
	case RangeLess:
		return "<"
	case RangeGreater:
		return ">"
	case RangeLessOrEqual:
		return "<="
	case RangeGreaterOrEqual:
		return ">="
	default:
		return "="
	}
}

// FunctionID is the optional envelope function wrapped around a term's
// text (spec.md §3). FunctionNone means no envelope was present.
type FunctionID int

const (
	FunctionNone FunctionID = iota
	FunctionMetaphone
	FunctionSoundex
	FunctionPhonix
	FunctionTypo
	FunctionRegex
	FunctionLiteral
	FunctionRange
)

func (f FunctionID) String() string {
	switch f {
	case FunctionMetaphone:
		return "metaphone"
	case FunctionSoundex:
		return "soundex"
	case FunctionPhonix:
		return "phonix"
	case FunctionTypo:
		return "typo"
	case FunctionRegex:
		return "regex"
	case FunctionLiteral:
		return "literal"
	case FunctionRange:
		return "range"
	default:
		return ""
	}
}

// Child is implemented by both *Term and *TermCluster, modeling the
// source's union-of-children array as a Go sum type (DESIGN NOTES,
// "Union-of-children TermCluster").
type Child interface {
	isChild()
	// Equal reports whether two children are identical in every
	// attribute, used for the OR/AND duplicate-coalescing invariant
	// (spec.md §3 TermCluster invariant iii).
	Equal(Child) bool
}

// Term is a parser-level leaf node (spec.md §3). It is distinct from
// index.TermEntry, which is the dictionary-level value for an already
// indexed term.
type Term struct {
	Text     string
	Field    string
	Range    RangeID
	Function FunctionID
	Wildcard bool
	Weight   float64
	Required bool
}

func (*Term) isChild() {}

func (t *Term) Equal(other Child) bool {
	o, ok := other.(*Term)
	if !ok {
		return false
	}
	return t.Text == o.Text && t.Field == o.Field && t.Range == o.Range &&
		t.Function == o.Function && t.Wildcard == o.Wildcard &&
		t.Weight == o.Weight && t.Required == o.Required
}

// TermCluster is an internal node of the parsed query tree (spec.md
// §3). Explicit marks whether the cluster was explicitly delimited in
// the source text (by parens, a phrase, or a rewrite like field
// distribution) as opposed to being the synthetic top-level wrapper
// that stage 4 produces by inserting the default operator between bare
// adjacent terms; rendering omits parens only for the latter, and only
// at the root.
type TermCluster struct {
	Operator Operator
	// Distance is the term distance for ADJ/NEAR: its sign conveys
	// order-matters (positive = forward order required, negative =
	// any order allowed but distance-bounded), zero means "any
	// distance". Not meaningful for other operators.
	Distance int
	Children []Child
	Explicit bool
}

func (*TermCluster) isChild() {}

func (c *TermCluster) Equal(other Child) bool {
	o, ok := other.(*TermCluster)
	if !ok || c.Operator != o.Operator || c.Distance != o.Distance || len(c.Children) != len(o.Children) {
		return false
	}
	for i := range c.Children {
		if !c.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// ParserNumber is a numeric restriction (date or language ID) carrying
// a range ID (spec.md §3).
type ParserNumber struct {
	Range RangeID
	Value uint64
}

// FilterType distinguishes an inline comma-separated term list from a
// reference to a named list (spec.md §3).
type FilterType int

const (
	FilterTerms FilterType = iota
	FilterList
)

// ParserFilter is an inclusion/exclusion filter carrying a filter
// string and its type (spec.md §3).
type ParserFilter struct {
	Filter string
	Type   FilterType
}

// SortOrder is the direction of a field sort modifier.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortAscending
	SortDescending
)

// SortMode selects the overall sort behavior: default relevance sort,
// no sort at all, or a named field with an order.
type SortMode int

const (
	SortModeDefault SortMode = iota
	SortModeNone
	SortModeField
)

// ToggleState is a two-valued enable/disable/keep/drop style modifier.
type ToggleState int

const (
	ToggleUnset ToggleState = iota
	ToggleEnable
	ToggleDisable
)

// SearchType selects boolean vs. freetext query-language handling
// (spec.md §4.4 step 4, §6).
type SearchType int

const (
	SearchTypeUnset SearchType = iota
	SearchTypeBoolean
	SearchTypeFreetext
)

// OperatorCase controls case sensitivity when recognizing boolean
// operator tokens in the raw string.
type OperatorCase int

const (
	OperatorCaseAny OperatorCase = iota
	OperatorCaseUpper
	OperatorCaseLower
)

// TermCase controls whether non-operator, non-modifier tokens are
// lowercased during normalization.
type TermCase int

const (
	TermCaseKeep TermCase = iota
	TermCaseDrop
)

// FrequentTermsPolicy controls whether frequent (stop) terms are kept
// or dropped from the built tree.
type FrequentTermsPolicy int

const (
	FrequentTermsKeep FrequentTermsPolicy = iota
	FrequentTermsDrop
)

// Modifiers holds every brace-extracted field from spec.md §6's
// modifier table, plus the sort/date/filter/language restrictions
// spec.md §3 calls ParserNumber/ParserFilter records.
type Modifiers struct {
	SearchResults      ToggleState
	SearchReport       ToggleState
	SearchCache        ToggleState
	Debug              ToggleState
	EarlyCompletion    ToggleState
	BooleanOperatorID  Operator
	BooleanOperatorSet bool
	BooleanOperation   BooleanOperationMode
	OperatorCase       OperatorCase
	TermCase           TermCase
	FrequentTerms      FrequentTermsPolicy
	SearchType         SearchType

	SortMode  SortMode
	SortField string
	SortOrder SortOrder

	// Dates holds every extracted date restriction in extraction
	// order; duplicates/conflicts are passed through unmodified
	// (SPEC_FULL.md §E, "Duplicate/conflicting date restrictions").
	Dates []ParserNumber

	UnfieldedSearchFieldNames []string

	TermWeight            float64
	FeedbackTermWeight    float64
	FrequentTermCoverage  float64
	FeedbackMinTermCount  int
	FeedbackMaxPercentage float64
	FeedbackMaxCoverage   float64

	ConnectionTimeout  int
	SearchTimeout      int
	RetrievalTimeout   int
	InformationTimeout int

	SegmentsSearchedMaximum int
	SegmentsSearchedMinimum int

	ExclusionFilters []ParserFilter
	InclusionFilters []ParserFilter

	Languages []string

	Tag string
}

// BooleanOperationMode selects relaxed vs strict boolean evaluation
// (spec.md §6, "boolean_operation").
type BooleanOperationMode int

const (
	BooleanOperationRelaxed BooleanOperationMode = iota
	BooleanOperationStrict
)

// defaultModifiers returns the zero-value-equivalent defaults a fresh
// Parser loads at construction (spec.md §4.4, "Parser state").
func defaultModifiers() Modifiers {
	return Modifiers{
		BooleanOperatorID:     OpAND,
		FeedbackMinTermCount:  10,
		FeedbackMaxPercentage: 25,
		FeedbackMaxCoverage:   8,
		TermWeight:            1.0,
		FeedbackTermWeight:    0.1,
	}
}

// ParseResult is the normalized output of a single parse() call
// (spec.md §4.4): a TermCluster tree plus every extracted modifier and
// restriction, and the two memoized rendered texts from stage 7.
type ParseResult struct {
	Root      Child
	Modifiers Modifiers

	// CanonicalText rebuilds the normalized query text from Root
	// alone. NormalizedText additionally renders modifiers and
	// restrictions as brace-tokens (spec.md §4.4 step 7); see
	// RenderNormalized for which ones it includes and which it omits.
	CanonicalText  string
	NormalizedText string
}
