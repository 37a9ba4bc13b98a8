package tailer

import "bytes"

const delimiter = '\n'

// Assembler turns an ordered sequence of byte chunks into complete lines.
// The text after the last delimiter is kept until a later chunk completes it.
// Consecutive delimiters produce empty lines, and nothing besides the
// delimiter itself is stripped. The pending fragment is not bounded.
type Assembler struct {
	pending []byte
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Append adds a chunk and returns the lines it completed, in order.
func (a *Assembler) Append(chunk []byte) []string {
	if bytes.IndexByte(chunk, delimiter) < 0 {
		a.pending = append(a.pending, chunk...)
		return nil
	}

	var lines []string
	for {
		i := bytes.IndexByte(chunk, delimiter)
		if i < 0 {
			break
		}
		if len(a.pending) > 0 {
			lines = append(lines, string(a.pending)+string(chunk[:i]))
			a.pending = a.pending[:0]
		} else {
			lines = append(lines, string(chunk[:i]))
		}
		chunk = chunk[i+1:]
	}
	a.pending = append(a.pending, chunk...)
	return lines
}

// Pending returns the unterminated fragment retained so far.
func (a *Assembler) Pending() string {
	return string(a.pending)
}
