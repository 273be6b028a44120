package oob

// Telnet protocol constants.
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation Begin
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240 // Subnegotiation End

	// Telnet options the server understands
	TeloptTTYPE byte = 24 // Terminal type (MTTS)
	TeloptMSSP  byte = 70 // MUD Server Status Protocol
	TeloptMCCP2 byte = 86 // MUD Client Compression Protocol v2
)

// MSSP subnegotiation type bytes
const (
	MSSPVar byte = 1 // Variable name follows
	MSSPVal byte = 2 // Variable value follows
)

// TTYPE subnegotiation bytes
const (
	TTypeIs   byte = 0
	TTypeSend byte = 1
)

// Will returns IAC WILL <opt>.
func Will(opt byte) []byte { return []byte{IAC, WILL, opt} }

// Do returns IAC DO <opt>.
func Do(opt byte) []byte { return []byte{IAC, DO, opt} }

// Subneg frames payload as IAC SB <opt> payload IAC SE, doubling any IAC
// bytes inside the payload.
func Subneg(opt byte, payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+5)
	buf = append(buf, IAC, SB, opt)
	for _, b := range payload {
		if b == IAC {
			buf = append(buf, IAC)
		}
		buf = append(buf, b)
	}
	return append(buf, IAC, SE)
}

// VerbName returns a readable name for a negotiation verb, for logs.
func VerbName(verb byte) string {
	switch verb {
	case DO:
		return "DO"
	case DONT:
		return "DONT"
	case WILL:
		return "WILL"
	case WONT:
		return "WONT"
	case SB:
		return "SB"
	default:
		return "?"
	}
}
