package classic


// Parser implements the seven-stage pipeline of spec.md §4.4: it turns
// a raw UTF-8 search string into a TermCluster tree plus extracted
// modifiers and filters, and memoizes the two rendered texts stage 7
// defines. A Parser instance holds its defaults (normally loaded from
// a configuration value at construction, per DESIGN NOTES'
// "Process-wide configuration singleton" guidance — pass it in
// explicitly rather than reading a global), the last parse's result,
// and nothing else; reset() frees the result but keeps the defaults.
type Parser struct {
	policy   ParserPolicy
	defaults Modifiers

	last *ParseResult
}

// NewParser constructs a parser with the given policy and the spec's
// default modifier values (spec.md §4.5, and the modifier table's
// documented defaults: boolean_operator=AND, feedback_minimum_term_count=10,
// feedback_maximum_term_percentage=25, feedback_maximum_term_coverage_threshold=8).
func NewParser(policy ParserPolicy) *Parser {
	return &Parser{policy: policy, defaults: defaultModifiers()}
}

// SetDefaults overrides the modifier defaults a fresh parse starts
// from, e.g. when a caller's configuration sets a non-standard
// boolean_operator or feedback threshold.
func (p *Parser) SetDefaults(m Modifiers) { p.defaults = m }

// Reset frees the last parse's TermCluster and cached texts but keeps
// the configured defaults (spec.md §4.4, "State").
func (p *Parser) Reset() { p.last = nil }

// Free is an alias for Reset, matching spec.md §3's lifecycle
// language ("owned by the parser object until next reset() or
// free()").
func (p *Parser) Free() { p.Reset() }

// LastResult returns the most recent successful parse, or nil if none
// has run since construction or the last Reset.
func (p *Parser) LastResult() *ParseResult { return p.last }

// GetNormalizedSearchText returns the fully-normalized cached text from
// the last parse (spec.md §4.4 step 7), or "" if there is none.
func (p *Parser) GetNormalizedSearchText() string {
	if p.last == nil {
		return ""
	}
	return p.last.NormalizedText
}

// GetCanonicalSearchText returns the canonical (tree-only) cached text
// from the last parse, or "" if there is none.
func (p *Parser) GetCanonicalSearchText() string {
	if p.last == nil {
		return ""
	}
	return p.last.CanonicalText
}

// Parse runs the full seven-stage pipeline over raw (spec.md §4.4). A
// non-recoverable error leaves the parser in a reset-equivalent state:
// the last result and both cached texts are gone, the defaults stay.
func (p *Parser) Parse(raw string) (*ParseResult, error) {
	cleaned := Clean(raw)

	checked, err := checkSyntax(cleaned, p.policy)
	if err != nil {
		p.Reset()
		return nil, err
	}

	mods := p.defaults
	remaining, err := extractModifiers(checked, &mods)
	if err != nil {
		p.Reset()
		return nil, err
	}

	tokens := splitTokens(applyReplacements(remaining))
	root, err := Build(tokens, &mods, p.policy)
	if err != nil {
		p.Reset()
		return nil, err
	}

	canonical := RenderCanonical(root)
	normalized := RenderNormalized(canonical, mods)

	result := &ParseResult{
		Root:           root,
		Modifiers:      mods,
		CanonicalText:  canonical,
		NormalizedText: normalized,
	}
	p.last = result
	return result, nil
}
