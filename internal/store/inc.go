package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/cwbudde/etc1dxt/internal/table"
)

// The .inc format is the C initializer list the transcoder #includes:
// a flat, comma-separated sequence of {lo,hi,err} triples in table order.

// incPerLine is how many triples WriteInc puts on one line.
const incPerLine = 16

// WriteInc writes solutions as a C initializer list.
func WriteInc(w io.Writer, solutions []table.Solution) error {
	bw := bufio.NewWriter(w)
	for i, s := range solutions {
		fmt.Fprintf(bw, "{%d,%d,%d},", s.Lo, s.Hi, s.Err)
		if (i+1)%incPerLine == 0 || i == len(solutions)-1 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// ParseInc reads {lo,hi,err} triples from a C initializer list. Whitespace,
// separating commas and // or /* */ comments are ignored.
func ParseInc(r io.Reader) ([]table.Solution, error) {
	p := &incParser{r: bufio.NewReader(r), line: 1}
	var out []table.Solution
	for {
		c, err := p.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if c == ',' {
			continue
		}
		if c != '{' {
			return nil, errors.Errorf("line %d: unexpected %q, want '{'", p.line, c)
		}

		var v [3]uint64
		for i := range v {
			if v[i], err = p.number(); err != nil {
				return nil, errors.Wrapf(err, "entry %d", len(out))
			}
			want := byte(',')
			if i == len(v)-1 {
				want = '}'
			}
			c, err := p.next()
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", len(out))
			}
			if c != want {
				return nil, errors.Errorf("line %d: entry %d: unexpected %q, want %q", p.line, len(out), c, want)
			}
		}

		if v[0] >= table.NumEndpoints || v[1] >= table.NumEndpoints || v[2] > table.MaxErr {
			return nil, errors.Errorf("line %d: entry %d out of range: {%d,%d,%d}", p.line, len(out), v[0], v[1], v[2])
		}
		out = append(out, table.Solution{Lo: uint8(v[0]), Hi: uint8(v[1]), Err: uint16(v[2])})
	}
}

type incParser struct {
	r    *bufio.Reader
	line int
}

// next returns the next byte that is not whitespace or part of a comment.
func (p *incParser) next() (byte, error) {
	for {
		c, err := p.r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case '\n':
			p.line++
		case ' ', '\t', '\r':
		case '/':
			if err := p.comment(); err != nil {
				return 0, err
			}
		default:
			return c, nil
		}
	}
}

func (p *incParser) comment() error {
	c, err := p.r.ReadByte()
	if err != nil {
		return errors.Errorf("line %d: stray '/'", p.line)
	}
	switch c {
	case '/':
		for {
			c, err := p.r.ReadByte()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if c == '\n' {
				p.line++
				return nil
			}
		}
	case '*':
		prev := byte(0)
		for {
			c, err := p.r.ReadByte()
			if err != nil {
				return errors.Errorf("line %d: unterminated comment", p.line)
			}
			if c == '\n' {
				p.line++
			}
			if prev == '*' && c == '/' {
				return nil
			}
			prev = c
		}
	default:
		return errors.Errorf("line %d: stray '/'", p.line)
	}
}

// number reads an unsigned decimal integer, skipping leading whitespace.
func (p *incParser) number() (uint64, error) {
	c, err := p.next()
	if err != nil {
		return 0, errors.Wrapf(err, "line %d", p.line)
	}
	digits := []byte{}
	for c >= '0' && c <= '9' {
		digits = append(digits, c)
		if c, err = p.r.ReadByte(); err != nil {
			return 0, errors.Errorf("line %d: truncated number", p.line)
		}
	}
	if len(digits) == 0 {
		return 0, errors.Errorf("line %d: unexpected %q, want a number", p.line, c)
	}
	if err := p.r.UnreadByte(); err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(digits), 10, 32)
}
