package classic

import "errors"

// Parser error kinds (spec.md §7, "Parser"). Each maps to a stable
// human-readable message through errorMessages, mirroring the engine's
// fixed error->message table.
var (
	ErrInvalidRange                         = errors.New("parser: invalid range")
	ErrInvalidOperator                      = errors.New("parser: invalid operator")
	ErrInvalidModifier                      = errors.New("parser: invalid modifier")
	ErrInvalidFunction                      = errors.New("parser: invalid function")
	ErrInvalidToken                         = errors.New("parser: invalid token")
	ErrInvalidBracket                       = errors.New("parser: invalid bracket")
	ErrInvalidQuote                         = errors.New("parser: invalid quote")
	ErrInvalidWildCard                      = errors.New("parser: invalid wildcard")
	ErrInvalidSyntax                        = errors.New("parser: invalid syntax")
	ErrInvalidOperatorDistance              = errors.New("parser: invalid operator distance")
	ErrInvalidNotOperator                   = errors.New("parser: invalid not operator")
	ErrInvalidSort                          = errors.New("parser: invalid sort")
	ErrInvalidSortOrder                     = errors.New("parser: invalid sort order")
	ErrInvalidDate                          = errors.New("parser: invalid date")
	ErrInvalidTermWeight                    = errors.New("parser: invalid term weight")
	ErrInvalidFeedbackTermWeight            = errors.New("parser: invalid feedback term weight")
	ErrInvalidFrequentTermCoverageThreshold = errors.New("parser: invalid frequent term coverage threshold")
	ErrInvalidMinimumTermCount              = errors.New("parser: invalid minimum term count")
	ErrInvalidFeedbackMaximumTermPercentage = errors.New("parser: invalid feedback maximum term percentage")
	ErrInvalidFeedbackMaximumTermCoverage   = errors.New("parser: invalid feedback maximum term coverage threshold")
	ErrInvalidConnectionTimeout             = errors.New("parser: invalid connection timeout")
	ErrInvalidSearchTimeout                 = errors.New("parser: invalid search timeout")
	ErrInvalidRetrievalTimeout              = errors.New("parser: invalid retrieval timeout")
	ErrInvalidInformationTimeout            = errors.New("parser: invalid information timeout")
	ErrInvalidSegmentsSearchedMaximum       = errors.New("parser: invalid segments searched maximum")
	ErrInvalidSegmentsSearchedMinimum       = errors.New("parser: invalid segments searched minimum")
	ErrInvalidExclusionFilter               = errors.New("parser: invalid exclusion filter")
	ErrInvalidInclusionFilter               = errors.New("parser: invalid inclusion filter")
	ErrInvalidLanguage                      = errors.New("parser: invalid language")
	ErrRegexCompileFailed                   = errors.New("parser: regex compile failed")
	ErrCharacterSetConversionFailed         = errors.New("parser: character set conversion failed")
	ErrTokenizationFailed                   = errors.New("parser: tokenization failed")
)

// errorMessages is the fixed error->message table referenced by
// spec.md §7 ("the engine ships a fixed error->message table"). Not
// every error kind needs a bespoke entry; Message falls back to the
// error's own text when one isn't listed here.
var errorMessages = map[error]string{
	ErrInvalidRange:        "Search contains an invalid range",
	ErrInvalidBracket:      "Search contains an uneven number of brackets",
	ErrInvalidQuote:        "Search contains an uneven number of quotes",
	ErrInvalidNotOperator:  "Search contains a 'not' operator with no preceding term",
	ErrInvalidWildCard:     "Search contains an invalid wildcard",
	ErrInvalidOperator:     "Search contains an invalid operator",
	ErrInvalidDate:         "Search contains an invalid date restriction",
}

// Message returns the stable human-readable string for a parser error,
// per spec.md §7 "User-visible behavior".
func Message(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}
