// Package oob implements the telnet side channel used by MUD clients:
// an in-band IAC decoder, MSSP status reporting, MCCP2 compression and
// MTTS terminal type detection.
package oob

import (
	"strconv"
	"strings"
)

// MTTS bit flags reported by clients through TTYPE.
const (
	MTTSANSI         = 1
	MTTSUTF8         = 4
	MTTS256Colors    = 8
	MTTSScreenReader = 64
)

// Capabilities tracks what a telnet connection has negotiated.
type Capabilities struct {
	MSSP         bool // client asked for MSSP (DO MSSP)
	MCCP         bool // output stream is compressed
	UTF8         bool
	ScreenReader bool
	TerminalType string

	ttypeCount int
	ttypeLast  string
}

// NewCapabilities returns a zero-value Capabilities (nothing negotiated).
func NewCapabilities() *Capabilities {
	return &Capabilities{}
}

// maxTTypeRequests bounds the MTTS cycle (name, terminal, MTTS bits).
const maxTTypeRequests = 3

// TerminalTypeReply records a TTYPE IS payload and reports whether the
// server should ask again for the next entry in the MTTS cycle.
func (c *Capabilities) TerminalTypeReply(payload []byte) (again bool) {
	if len(payload) == 0 || payload[0] != TTypeIs {
		return false
	}
	value := string(payload[1:])
	c.ttypeCount++
	if strings.HasPrefix(value, "MTTS ") {
		if bits, err := strconv.Atoi(strings.TrimPrefix(value, "MTTS ")); err == nil {
			c.UTF8 = bits&MTTSUTF8 != 0
			c.ScreenReader = bits&MTTSScreenReader != 0
		}
		return false
	}
	if c.TerminalType == "" {
		c.TerminalType = value
	}
	if value == c.ttypeLast {
		return false
	}
	c.ttypeLast = value
	return c.ttypeCount < maxTTypeRequests
}
