package oob

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compressor is an MCCP2 output stream. Everything written after Start is
// zlib-compressed and flushed per write so the client sees it immediately.
type Compressor struct {
	zw *zlib.Writer
}

// StartMCCP announces compression on w (IAC SB MCCP2 IAC SE, uncompressed)
// and returns the compressing writer to use from then on.
func StartMCCP(w io.Writer) (*Compressor, error) {
	if _, err := w.Write(Subneg(TeloptMCCP2, nil)); err != nil {
		return nil, fmt.Errorf("oob: mccp start: %w", err)
	}
	zw, err := zlib.NewWriterLevel(w, zlib.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("oob: mccp start: %w", err)
	}
	return &Compressor{zw: zw}, nil
}

// Write compresses p and flushes it to the underlying writer.
func (c *Compressor) Write(p []byte) (int, error) {
	n, err := c.zw.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.zw.Flush()
}

// Close ends the compressed stream. Output after Close must be written
// to the underlying writer directly.
func (c *Compressor) Close() error {
	return c.zw.Close()
}
