// Package bytestream implements Stream, an append-only buffer made of
// reference-counted blocks. Data can be appended cheaply (zero-copy for raw
// buffers and for other streams), consumed from the front, and rewound with
// markers, which makes it the input type of every incremental decoder in
// this module: a decoder sets a marker, tries to read a full unit and
// restores the marker when the unit is not complete yet.
//
// A Stream is not safe for concurrent mutation.
package bytestream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// DefaultBlockSize is the size of the blocks allocated by Write.
const DefaultBlockSize = 16 << 10

// block is a piece of storage shared by every view pointing into it.
type block struct {
	buf []byte
	// n is the number of bytes of buf holding data.
	n    int
	refs int
	// full blocks never receive more data (AppendRaw buffers).
	full bool
}

// view is the range [lo, hi) of a block owned by a stream.
type view struct {
	blk *block
	lo  int
	hi  int
}

// pointer addresses a byte of a stream: views[idx].blk.buf[off].
type pointer struct {
	idx int
	off int
}

type marker struct {
	size int
	ptr  pointer
}

type Stream struct {
	blockSize int
	views     []view
	rd        pointer
	size      int
	markers   []marker
	// invalidMarkersSize is set when data is appended while markers are set,
	// so the sizes saved in markers no longer hold.
	invalidMarkersSize bool
}

// New returns an empty stream that allocates blocks of blockSize bytes.
// A blockSize <= 0 selects DefaultBlockSize.
func New(blockSize int) *Stream {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Stream{blockSize: blockSize}
}

// NewFromBytes returns a stream holding a copy of b.
func NewFromBytes(b []byte) *Stream {
	s := New(0)
	s.Write(b)
	return s
}

// Size returns the number of readable bytes.
func (s *Stream) Size() int {
	return s.size
}

func (s *Stream) IsEmpty() bool {
	return s.size == 0
}

func (s *Stream) pushView(v view) {
	if v.hi <= v.lo {
		v.blk.refs--
		return
	}
	if len(s.views) == 0 {
		s.rewind(v.lo)
	}
	s.views = append(s.views, v)
}

// rewind points the read pointer and every marker at the start of the first
// view of a stream that had no views.
func (s *Stream) rewind(off int) {
	s.rd = pointer{0, off}
	for i := range s.markers {
		s.markers[i].ptr = s.rd
	}
}

func (s *Stream) appended(n int) {
	s.size += n
	if len(s.markers) > 0 && n > 0 {
		s.invalidMarkersSize = true
	}
}

// writable returns the last view when it can be extended in place, or a
// fresh one otherwise.
func (s *Stream) writable() *view {
	if l := len(s.views); l > 0 {
		v := &s.views[l-1]
		if !v.blk.full && v.blk.refs == 1 && v.hi == v.blk.n && v.hi < len(v.blk.buf) {
			return v
		}
	}
	blk := &block{buf: make([]byte, s.blockSize), refs: 1}
	if len(s.views) == 0 {
		s.rewind(0)
	}
	s.views = append(s.views, view{blk: blk})
	return &s.views[len(s.views)-1]
}

// Write appends p to the stream. It never fails.
func (s *Stream) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		v := s.writable()
		k := copy(v.blk.buf[v.hi:], p)
		v.hi += k
		v.blk.n = v.hi
		p = p[k:]
	}
	s.appended(n)
	return n, nil
}

func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

func (s *Stream) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// AppendRaw takes ownership of b and appends it without copying.
// The caller must not modify b afterwards.
func (s *Stream) AppendRaw(b []byte) {
	if len(b) == 0 {
		return
	}
	s.pushView(view{blk: &block{buf: b, n: len(b), refs: 1, full: true}, hi: len(b)})
	s.appended(len(b))
}

// segments calls fn for consecutive readable pieces starting offset bytes
// after p, for at most n bytes. fn returns false to stop.
func (s *Stream) segments(p pointer, offset, n int, fn func(v *view, lo, hi int) bool) {
	for i := p.idx; i < len(s.views) && n > 0; i++ {
		v := &s.views[i]
		lo := v.lo
		if i == p.idx {
			lo = p.off
		}
		if avail := v.hi - lo; offset >= avail {
			offset -= avail
			continue
		}
		lo += offset
		offset = 0
		hi := v.hi
		if hi-lo > n {
			hi = lo + n
		}
		n -= hi - lo
		if !fn(v, lo, hi) {
			return
		}
	}
}

// AppendStream moves n bytes from the front of other to the end of s,
// sharing the underlying blocks. A negative n moves everything.
// It returns the number of bytes moved.
func (s *Stream) AppendStream(other *Stream, n int) int {
	if other == s {
		return 0
	}
	n = s.AppendStreamNonDestructive(other, 0, n)
	other.advance(n)
	return n
}

// AppendStreamNonDestructive appends n bytes of other, starting offset bytes
// after its read position, without consuming them from other. Blocks are
// shared. A negative n appends everything after offset.
func (s *Stream) AppendStreamNonDestructive(other *Stream, offset, n int) int {
	if other == s || offset < 0 || offset >= other.size {
		return 0
	}
	if n < 0 || n > other.size-offset {
		n = other.size - offset
	}
	other.segments(other.rd, offset, n, func(v *view, lo, hi int) bool {
		v.blk.refs++
		s.pushView(view{blk: v.blk, lo: lo, hi: hi})
		return true
	})
	s.appended(n)
	return n
}

// Peek copies up to len(p) bytes into p without consuming them.
func (s *Stream) Peek(p []byte) int {
	return s.peekAt(0, p)
}

func (s *Stream) peekAt(offset int, p []byte) int {
	n := 0
	s.segments(s.rd, offset, len(p), func(v *view, lo, hi int) bool {
		n += copy(p[n:], v.blk.buf[lo:hi])
		return true
	})
	return n
}

// PeekByte returns the next byte without consuming it.
func (s *Stream) PeekByte() (byte, bool) {
	var b [1]byte
	if s.Peek(b[:]) == 0 {
		return 0, false
	}
	return b[0], true
}

func (s *Stream) PeekString(n int) string {
	if n > s.size {
		n = s.size
	}
	b := make([]byte, n)
	return string(b[:s.Peek(b)])
}

// Read consumes up to len(p) bytes into p. It returns io.EOF only when the
// stream is empty and p is not.
func (s *Stream) Read(p []byte) (int, error) {
	if s.size == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	n := s.Peek(p)
	s.advance(n)
	return n, nil
}

func (s *Stream) ReadByte() (byte, error) {
	b, ok := s.PeekByte()
	if !ok {
		return 0, io.EOF
	}
	s.advance(1)
	return b, nil
}

func (s *Stream) ReadString(n int) string {
	str := s.PeekString(n)
	s.advance(len(str))
	return str
}

// Skip consumes up to n bytes and returns how many were skipped.
func (s *Stream) Skip(n int) int {
	if n <= 0 {
		return 0
	}
	return s.advance(n)
}

// WriteTo drains the stream into w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for s.size > 0 {
		var chunk []byte
		s.segments(s.rd, 0, s.size, func(v *view, lo, hi int) bool {
			chunk = v.blk.buf[lo:hi]
			return false
		})
		n, err := w.Write(chunk)
		total += int64(n)
		s.advance(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

func (s *Stream) advance(n int) int {
	done := 0
	for done < n && s.rd.idx < len(s.views) {
		v := &s.views[s.rd.idx]
		avail := v.hi - s.rd.off
		if avail == 0 {
			if s.rd.idx == len(s.views)-1 {
				break
			}
			s.rd.idx++
			s.rd.off = s.views[s.rd.idx].lo
			continue
		}
		if avail > n-done {
			avail = n - done
		}
		s.rd.off += avail
		done += avail
	}
	s.size -= done
	s.release()
	return done
}

// release drops the consumed views. Nothing is released while markers are
// set, since MarkerRestore may move the read pointer back into them.
func (s *Stream) release() {
	if len(s.markers) > 0 || len(s.views) == 0 {
		return
	}
	for s.rd.idx > 0 || (s.rd.off == s.views[0].hi && len(s.views) > 1) {
		s.views[0].blk.refs--
		s.views[0] = view{}
		s.views = s.views[1:]
		if s.rd.idx > 0 {
			s.rd.idx--
		} else {
			s.rd.off = s.views[0].lo
		}
	}
	s.views[0].lo = s.rd.off
}

// Clear drops all data and markers.
func (s *Stream) Clear() {
	for i := range s.views {
		s.views[i].blk.refs--
	}
	s.views = nil
	s.rd = pointer{}
	s.size = 0
	s.markers = nil
	s.invalidMarkersSize = false
}

// MarkerSet remembers the current read position.
func (s *Stream) MarkerSet() {
	s.markers = append(s.markers, marker{size: s.size, ptr: s.rd})
}

// MarkerRestore moves the read position back to the last marker and pops it.
func (s *Stream) MarkerRestore() {
	l := len(s.markers)
	if l == 0 {
		return
	}
	m := s.markers[l-1]
	s.markers = s.markers[:l-1]
	s.rd = m.ptr
	if s.invalidMarkersSize {
		s.size = s.distance(m.ptr)
	} else {
		s.size = m.size
	}
	s.markersPopped()
}

// MarkerClear pops the last marker, keeping the current read position.
func (s *Stream) MarkerClear() {
	l := len(s.markers)
	if l == 0 {
		return
	}
	s.markers = s.markers[:l-1]
	s.markersPopped()
}

// HasMarker reports whether at least one marker is set.
func (s *Stream) HasMarker() bool {
	return len(s.markers) > 0
}

func (s *Stream) markersPopped() {
	if len(s.markers) == 0 {
		s.invalidMarkersSize = false
		s.release()
	}
}

func (s *Stream) distance(p pointer) int {
	d := 0
	for i := p.idx; i < len(s.views); i++ {
		lo := s.views[i].lo
		if i == p.idx {
			lo = p.off
		}
		d += s.views[i].hi - lo
	}
	return d
}

// Bytes returns a copy of the readable content.
func (s *Stream) Bytes() []byte {
	b := make([]byte, s.size)
	s.Peek(b)
	return b
}

// Equal compares the readable content of two streams.
func (s *Stream) Equal(other *Stream) bool {
	if s.size != other.size {
		return false
	}
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// DumpContent returns the readable content as a string.
func (s *Stream) DumpContent() string {
	return string(s.Bytes())
}

// DumpContentHex returns a hex dump of the readable content.
func (s *Stream) DumpContentHex() string {
	return spew.Sdump(s.Bytes())
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream{size: %d, views: %d, markers: %d}", s.size, len(s.views), len(s.markers))
}
