package soilsense

import "hazardnode-go/errcode"

// Response frames look like "...=DD\n" or "...=DDD\n". Everything up to
// '=' is noise. The parser runs as a small state machine, one byte at a time:
//
//	seek --'='--> digit1 --any--> digit2 --'\n'--> done (1 char)
//	                              digit2 --else--> digit3 --'\n'--> done (2 chars)
//	                                               digit3 --'0'---> done (3 chars, nothing more read)
//	                                               digit3 --else--> digit4 --'\n'--> done (3 chars)
//	                                                                digit4 --else--> malformed
//
// The '0' stop in digit3 matches the sensor's framing of 3-digit readings
// ending in zero, which may arrive without a newline.

type frameState uint8

const (
	stateSeek frameState = iota
	stateDigit1
	stateDigit2
	stateDigit3
	stateDigit4
	stateDone
)

const (
	frameDelim = '='
	frameEnd   = '\n'
)

// Parser decodes one frame. The zero value is ready for use.
type Parser struct {
	state frameState
	chars [3]byte
	n     int
	value int
	err   error
}

// Reset prepares the parser for a new frame.
func (p *Parser) Reset() { *p = Parser{} }

// Done reports whether the current frame is complete.
func (p *Parser) Done() bool { return p.state == stateDone }

// Feed consumes one byte and reports whether the frame is complete. Bytes
// fed after completion are ignored.
func (p *Parser) Feed(b byte) bool {
	switch p.state {
	case stateSeek:
		if b == frameDelim {
			p.state = stateDigit1
		}
	case stateDigit1:
		p.push(b)
		p.state = stateDigit2
	case stateDigit2:
		if b == frameEnd {
			p.finish()
			break
		}
		p.push(b)
		p.state = stateDigit3
	case stateDigit3:
		switch b {
		case frameEnd:
			p.finish()
		case '0':
			p.push(b)
			p.finish()
		default:
			p.push(b)
			p.state = stateDigit4
		}
	case stateDigit4:
		if b == frameEnd {
			p.finish()
			break
		}
		p.err = errcode.MalformedFrame
		p.state = stateDone
	}
	return p.state == stateDone
}

// Result returns the decoded value once Done. A frame that did not
// terminate within four characters yields errcode.MalformedFrame.
func (p *Parser) Result() (int, error) {
	if p.state != stateDone {
		return 0, errcode.MalformedFrame
	}
	return p.value, p.err
}

func (p *Parser) push(b byte) {
	p.chars[p.n] = b
	p.n++
}

// finish converts the collected characters the way C atoi does: leading
// white space is skipped, one sign is accepted, conversion stops at the
// first non-digit and no digits at all reads as 0.
func (p *Parser) finish() {
	p.state = stateDone
	s := p.chars[:p.n]
	for len(s) > 0 && isSpace(s[0]) {
		s = s[1:]
	}
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	v := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int(c-'0')
	}
	if neg {
		v = -v
	}
	p.value = v
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// ParseFrame runs the parser over a complete buffer. It returns the value
// and the number of bytes consumed.
func ParseFrame(buf []byte) (int, int, error) {
	var p Parser
	for i, b := range buf {
		if p.Feed(b) {
			v, err := p.Result()
			return v, i + 1, err
		}
	}
	return 0, len(buf), errcode.MalformedFrame
}
