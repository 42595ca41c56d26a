package rtmp

import (
	"io"
)

// countingReader counts the bytes read from the connection, for the
// acknowledgements the peer asks for with its window size.
type countingReader struct {
	reader io.Reader
	n      uint64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += uint64(n)
	return n, err
}

// ReadBytes returns the number of bytes read so far.
func (r *countingReader) ReadBytes() uint64 {
	return r.n
}
