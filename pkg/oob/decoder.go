package oob

// Command is a decoded telnet negotiation: a verb (DO, DONT, WILL, WONT)
// with its option, or a subnegotiation (Verb == SB) with its payload.
type Command struct {
	Verb    byte
	Option  byte
	Payload []byte
}

// Token is one unit of decoded input: either a complete text line (without
// its line terminator) or a negotiation command. Exactly one is set.
type Token struct {
	Line []byte
	Cmd  *Command
}

type decodeState int

const (
	stData decodeState = iota
	stIAC
	stVerb
	stSBOpt
	stSB
	stSBIAC
)

// DefaultMaxLine is the longest line the decoder keeps. Extra bytes are dropped.
const DefaultMaxLine = 8192

const maxSubneg = 4096

// Decoder splits a telnet byte stream into text lines and negotiation
// commands. It keeps state between Feed calls, so sequences split across
// reads are handled. A Decoder is not safe for concurrent use.
type Decoder struct {
	MaxLine int

	state decodeState
	verb  byte
	sbOpt byte
	sb    []byte
	line  []byte
}

// NewDecoder returns a Decoder with the default line limit.
func NewDecoder() *Decoder {
	return &Decoder{MaxLine: DefaultMaxLine}
}

// Feed decodes p and returns the tokens completed by it, in stream order.
func (d *Decoder) Feed(p []byte) []Token {
	var out []Token
	for _, b := range p {
		switch d.state {
		case stData:
			switch b {
			case IAC:
				d.state = stIAC
			case '\n':
				out = append(out, Token{Line: d.takeLine()})
			case 0:
				// CR NUL from some clients
			default:
				d.appendLine(b)
			}
		case stIAC:
			switch b {
			case IAC:
				d.appendLine(IAC)
				d.state = stData
			case DO, DONT, WILL, WONT:
				d.verb = b
				d.state = stVerb
			case SB:
				d.state = stSBOpt
			default:
				// NOP, GA, AYT and friends carry no data
				d.state = stData
			}
		case stVerb:
			out = append(out, Token{Cmd: &Command{Verb: d.verb, Option: b}})
			d.state = stData
		case stSBOpt:
			d.sbOpt = b
			d.sb = d.sb[:0]
			d.state = stSB
		case stSB:
			if b == IAC {
				d.state = stSBIAC
			} else if len(d.sb) < maxSubneg {
				d.sb = append(d.sb, b)
			}
		case stSBIAC:
			switch b {
			case SE:
				payload := make([]byte, len(d.sb))
				copy(payload, d.sb)
				out = append(out, Token{Cmd: &Command{Verb: SB, Option: d.sbOpt, Payload: payload}})
				d.state = stData
			case IAC:
				if len(d.sb) < maxSubneg {
					d.sb = append(d.sb, IAC)
				}
				d.state = stSB
			default:
				d.state = stSB
			}
		}
	}
	return out
}

func (d *Decoder) appendLine(b byte) {
	limit := d.MaxLine
	if limit <= 0 {
		limit = DefaultMaxLine
	}
	if len(d.line) < limit {
		d.line = append(d.line, b)
	}
}

// takeLine returns the buffered line without a trailing CR and resets the buffer.
func (d *Decoder) takeLine() []byte {
	line := d.line
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	out := make([]byte, len(line))
	copy(out, line)
	d.line = d.line[:0]
	return out
}
