package classic

import (
	"io"
)

type FastCharStream struct {
	buffer []rune

	bufferLength   int
	bufferPosition int

	tokenStart  int
	bufferStart int

	input io.RuneReader // source of chars
}

func newFastCharStream(r io.RuneReader) *FastCharStream {
	return &FastCharStream{input: r}
}

func (cs *FastCharStream) readChar() (rune, error) {
	if cs.bufferPosition >= cs.bufferLength {
		if err := cs.refill(); err != nil {
			return 0, err
		}
	}
	cs.bufferPosition++
	return cs.buffer[cs.bufferPosition-1], nil
}

func (cs *FastCharStream) refill() (err error) {
	newPosition := cs.bufferLength - cs.tokenStart

	if cs.tokenStart == 0 { // token won't fit in buffer
		if cs.buffer == nil { // first time: alloc buffer
			cs.buffer = make([]rune, 2048)
		} else if cs.bufferLength == len(cs.buffer) { // grow buffer
			grown := make([]rune, len(cs.buffer)*2)
			copy(grown, cs.buffer)
			cs.buffer = grown
		}
	} else { // shift token to front
		copy(cs.buffer, cs.buffer[cs.tokenStart:cs.tokenStart+newPosition])
	}

	cs.bufferLength = newPosition // update state
	cs.bufferPosition = newPosition
	cs.bufferStart += cs.tokenStart
	cs.tokenStart = 0

	var charsRead int // fill space in buffer
	limit := len(cs.buffer) - newPosition
	for charsRead < limit {
		r, _, rerr := cs.input.ReadRune()
		if rerr != nil {
			err = rerr
			break
		}
		cs.buffer[newPosition+charsRead] = r
		charsRead++
	}
	if charsRead == 0 {
		if err != nil {
			return err
		}
		return io.EOF
	}
	cs.bufferLength += charsRead
	return nil
}

func (cs *FastCharStream) beginToken() (rune, error) {
	cs.tokenStart = cs.bufferPosition
	return cs.readChar()
}

// backup rewinds the read position by amount runes, so the next
// readChar re-reads characters already seen. Used by lookahead in the
// tokenizer stages built on top of this stream.
func (cs *FastCharStream) backup(amount int) {
	cs.bufferPosition -= amount
}

// image returns the runes consumed since the last beginToken call.
func (cs *FastCharStream) image() string {
	return string(cs.buffer[cs.tokenStart:cs.bufferPosition])
}

// endColumn and endLine are unused by this core's line-free query
// grammar (queries are single-line strings) but are kept for parity
// with the teacher's JavaCC-derived CharStream interface.
func (cs *FastCharStream) endColumn() int {
	return cs.bufferStart + cs.bufferPosition
}

func (cs *FastCharStream) endLine() int {
	return 1
}