package bytestream

import "strings"

// TokenStatus is the result of ReadNextASCIIToken.
type TokenStatus uint8

const (
	TokenOK TokenStatus = iota
	// TokenSepOK is a single separator character, like '{' or ','.
	TokenSepOK
	// TokenQuotedOK is a string in single or double quotes, quotes included.
	TokenQuotedOK
	// TokenNoData means no complete token is buffered. Nothing is consumed.
	TokenNoData
)

func (t TokenStatus) String() string {
	switch t {
	case TokenOK:
		return "TOKEN_OK"
	case TokenSepOK:
		return "TOKEN_SEP_OK"
	case TokenQuotedOK:
		return "TOKEN_QUOTED_OK"
	case TokenNoData:
		return "TOKEN_NO_DATA"
	}
	return "TOKEN_UNKNOWN"
}

// indexByte returns the offset of the first c in the readable data, or -1.
func (s *Stream) indexByte(c byte) int {
	idx, pos := -1, 0
	s.segments(s.rd, 0, s.size, func(v *view, lo, hi int) bool {
		for i, b := range v.blk.buf[lo:hi] {
			if b == c {
				idx = pos + i
				return false
			}
		}
		pos += hi - lo
		return true
	})
	return idx
}

// ReadLFLine reads a line terminated by '\n', terminator included.
// It returns false, consuming nothing, when no full line is buffered.
func (s *Stream) ReadLFLine() (string, bool) {
	idx := s.indexByte('\n')
	if idx < 0 {
		return "", false
	}
	return s.ReadString(idx + 1), true
}

// ReadLine reads a line terminated by "\n" or "\r\n" and strips the
// terminator.
func (s *Stream) ReadLine() (string, bool) {
	line, ok := s.ReadLFLine()
	if !ok {
		return "", false
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), true
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("_-+.$@/\\", c) >= 0
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// ReadNextASCIIToken reads the next token of an ASCII protocol:
// a run of alphanumerics (and _-+.$@/\), a quoted string with backslash
// escapes, or any other single non-blank character as a separator.
// Blanks between tokens are skipped.
func (s *Stream) ReadNextASCIIToken() (string, TokenStatus) {
	s.MarkerSet()
	var tok []byte
	var quote byte
	escaped := false
	for {
		c, err := s.ReadByte()
		if err != nil {
			break
		}
		switch {
		case quote != 0:
			tok = append(tok, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				s.MarkerClear()
				return string(tok), TokenQuotedOK
			}
		case isTokenChar(c):
			tok = append(tok, c)
		case len(tok) > 0:
			// The character ending a plain token belongs to the next one.
			s.rewindOne()
			s.MarkerClear()
			return string(tok), TokenOK
		case isBlank(c):
		case c == '"' || c == '\'':
			quote = c
			tok = append(tok, c)
		default:
			s.MarkerClear()
			return string(c), TokenSepOK
		}
	}
	if quote == 0 && len(tok) > 0 {
		s.MarkerClear()
		return string(tok), TokenOK
	}
	s.MarkerRestore()
	return "", TokenNoData
}

// rewindOne gives back the last byte read under the current marker.
func (s *Stream) rewindOne() {
	consumed := s.distance(s.markers[len(s.markers)-1].ptr) - s.size
	s.MarkerRestore()
	s.MarkerSet()
	s.advance(consumed - 1)
}
