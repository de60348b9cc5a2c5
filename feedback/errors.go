package feedback

import "errors"

// Error kinds for the feedback selector (spec.md §7, "Feedback").
var (
	ErrInvalidSearch         = errors.New("feedback: invalid search")
	ErrInvalidFeedbackText   = errors.New("feedback: invalid feedback text")
	ErrInvalidLanguageID     = errors.New("feedback: invalid language id")
	ErrInvalidDocumentID     = errors.New("feedback: invalid document id")
	ErrCreateTokenizerFailed = errors.New("feedback: create tokenizer failed")
	ErrCreateStemmerFailed   = errors.New("feedback: create stemmer failed")
	ErrCreateTrieFailed      = errors.New("feedback: create trie failed")
	ErrStemmingFailed        = errors.New("feedback: stemming failed")
)
