package oob

// Offers returns the negotiation sent to a new telnet client: the options
// the server is willing to speak plus a request for the terminal type.
func Offers(mccp bool) []byte {
	buf := Will(TeloptMSSP)
	if mccp {
		buf = append(buf, Will(TeloptMCCP2)...)
	}
	return append(buf, Do(TeloptTTYPE)...)
}

// RequestTerminalType asks the client for its (next) terminal type.
func RequestTerminalType() []byte {
	return Subneg(TeloptTTYPE, []byte{TTypeSend})
}
