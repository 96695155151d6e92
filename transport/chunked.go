package transport

import (
	"fmt"
)

// ChunkWriter frames a response body as HTTP/1.1 chunked transfer
// encoding: each call to WriteChunk emits "<hex-length>\r\n<bytes>\r\n",
// and a zero-length payload writes the terminator "0\r\n\r\n".
type ChunkWriter struct {
	out *Conn
}

// NewChunkWriter wraps out for chunked writes.
func NewChunkWriter(out *Conn) *ChunkWriter {
	return &ChunkWriter{out: out}
}

// WriteChunk frames and sends data. Call it once with a nil/empty slice to
// emit the terminating zero chunk.
func (cw *ChunkWriter) WriteChunk(data []byte) error {
	if len(data) == 0 {
		return cw.out.Send([]byte("0\r\n\r\n"))
	}
	if err := cw.out.Send([]byte(fmt.Sprintf("%x\r\n", len(data)))); err != nil {
		return err
	}
	if err := cw.out.Send(data); err != nil {
		return err
	}
	return cw.out.Send([]byte("\r\n"))
}
