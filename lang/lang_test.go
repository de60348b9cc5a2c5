package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeSplitsOnNonAlphanumerics(t *testing.T) {
	got := English{}.Tokenize("quick-brown fox, 42 jumps!")
	assert.Equal(t, []string{"quick", "brown", "fox", "42", "jumps"}, got)
}

func TestStemReducesInflectedForms(t *testing.T) {
	s := English{}
	assert.Equal(t, "jump", s.Stem("jumped"))
	assert.Equal(t, "jump", s.Stem("jumping"))
}

func TestIsStop(t *testing.T) {
	s := English{}
	assert.True(t, s.IsStop("the"))
	assert.True(t, s.IsStop("The"))
	assert.False(t, s.IsStop("fox"))
}

func TestNameIDMaps(t *testing.T) {
	id, ok := LanguageID("en")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)

	_, ok = LanguageID("xx")
	assert.False(t, ok)

	_, ok = TokenizerID("default")
	assert.True(t, ok)
	_, ok = StemmerID("snowball-en")
	assert.True(t, ok)
	_, ok = StemmerID("unknown")
	assert.False(t, ok)
}
