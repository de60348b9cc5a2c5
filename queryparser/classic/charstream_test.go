package classic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCharStreamReadsAllRunes(t *testing.T) {
	cs := newFastCharStream(strings.NewReader("abc"))
	var got []rune
	for {
		r, err := cs.readChar()
		if err != nil {
			break
		}
		got = append(got, r)
	}
	assert.Equal(t, "abc", string(got))
}

func TestFastCharStreamBackupAndImage(t *testing.T) {
	cs := newFastCharStream(strings.NewReader("cat dog"))

	r, err := cs.beginToken()
	require.NoError(t, err)
	assert.Equal(t, 'c', r)
	cs.readChar()
	cs.readChar()
	assert.Equal(t, "cat", cs.image())

	r, err = cs.readChar()
	require.NoError(t, err)
	assert.Equal(t, ' ', r)
	cs.backup(1)
	assert.Equal(t, "cat", cs.image())
}

func TestSplitTokens(t *testing.T) {
	assert.Equal(t, []string{"cat", "AND", "dog"}, splitTokens("cat AND dog"))
	assert.Equal(t, []string{"cat"}, splitTokens("  cat  "))
	assert.Nil(t, splitTokens(""))
	assert.Nil(t, splitTokens("   "))
}

func TestSplitTokensLongInputGrowsBuffer(t *testing.T) {
	long := strings.Repeat("x", 5000)
	tokens := splitTokens(long + " y")
	require.Len(t, tokens, 2)
	assert.Equal(t, long, tokens[0])
	assert.Equal(t, "y", tokens[1])
}
