package bytestream

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/torresjeff/go-rtmp/internal/binary24"
)

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestStream_WriteRead(t *testing.T) {
	blockSizes := []int{1, 3, 7, 64, DefaultBlockSize}
	for _, bs := range blockSizes {
		s := New(bs)
		data := sequence(1000)
		s.Write(data[:400])
		s.AppendRaw(append([]byte(nil), data[400:700]...))
		s.Write(data[700:])
		if s.Size() != len(data) {
			t.Fatalf("blockSize %d: got size %v, want %v", bs, s.Size(), len(data))
		}
		got := make([]byte, 0, len(data))
		buf := make([]byte, 13)
		for {
			n, err := s.Read(buf)
			if err == io.EOF {
				break
			}
			got = append(got, buf[:n]...)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("blockSize %d: content mismatch", bs)
		}
		if !s.IsEmpty() {
			t.Errorf("blockSize %d: expected empty stream, got size %v", bs, s.Size())
		}
	}
}

func TestStream_PeekSkip(t *testing.T) {
	s := New(4)
	s.WriteString("0123456789")

	if got := s.PeekString(3); got != "012" {
		t.Errorf("got %q, want %q", got, "012")
	}
	if got := s.Skip(4); got != 4 {
		t.Errorf("got %v, want 4", got)
	}
	if got := s.ReadString(3); got != "456" {
		t.Errorf("got %q, want %q", got, "456")
	}
	if got := s.Skip(100); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
	if got := s.ReadString(1); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
	if _, ok := s.PeekByte(); ok {
		t.Errorf("expected no byte to peek")
	}
}

func TestStream_AppendStream(t *testing.T) {
	src := New(5)
	src.WriteString("hello, world")

	dst := New(5)
	dst.WriteString(">")
	if n := dst.AppendStream(src, 5); n != 5 {
		t.Errorf("got %v, want 5", n)
	}
	if got := dst.DumpContent(); got != ">hello" {
		t.Errorf("got %q, want %q", got, ">hello")
	}
	if got := src.DumpContent(); got != ", world" {
		t.Errorf("got %q, want %q", got, ", world")
	}

	dst.AppendStream(src, -1)
	if !src.IsEmpty() {
		t.Errorf("expected source to be drained")
	}
	// Writing into the source after the move must not show up in dst.
	src.WriteString("XYZ")
	dst.WriteString("!")
	if got := dst.DumpContent(); got != ">hello, world!" {
		t.Errorf("got %q, want %q", got, ">hello, world!")
	}
	if got := src.DumpContent(); got != "XYZ" {
		t.Errorf("got %q, want %q", got, "XYZ")
	}
}

func TestStream_AppendStreamNonDestructive(t *testing.T) {
	src := New(3)
	src.WriteString("abcdefghij")

	tests := []struct {
		name   string
		offset int
		n      int
		want   string
	}{
		{"all", 0, -1, "abcdefghij"},
		{"middle", 2, 5, "cdefg"},
		{"tail", 7, -1, "hij"},
		{"clamped", 8, 100, "ij"},
		{"outOfRange", 10, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := New(3)
			dst.AppendStreamNonDestructive(src, tt.offset, tt.n)
			if got := dst.DumpContent(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			// Shared blocks are never written in place.
			dst.WriteString("#")
			if src.DumpContent() != "abcdefghij" {
				t.Errorf("source was modified: %q", src.DumpContent())
			}
		})
	}
}

func TestStream_Markers(t *testing.T) {
	s := New(4)
	s.WriteString("0123456789")

	s.MarkerSet()
	s.Skip(3)
	s.MarkerSet()
	s.ReadString(5)
	s.MarkerRestore()
	if got := s.PeekString(10); got != "3456789" {
		t.Errorf("got %q, want %q", got, "3456789")
	}
	s.MarkerRestore()
	if s.Size() != 10 {
		t.Errorf("got size %v, want 10", s.Size())
	}

	s.MarkerSet()
	s.Skip(6)
	s.MarkerClear()
	if got := s.DumpContent(); got != "6789" {
		t.Errorf("got %q, want %q", got, "6789")
	}
	if s.HasMarker() {
		t.Errorf("expected no marker")
	}
}

func TestStream_MarkerRestoreAfterAppend(t *testing.T) {
	s := New(4)
	s.WriteString("abcdef")
	s.MarkerSet()
	s.Skip(5)
	s.WriteString("ghij")
	other := NewFromBytes([]byte("klm"))
	s.AppendStream(other, -1)
	s.MarkerRestore()
	if s.Size() != 13 {
		t.Errorf("got size %v, want 13", s.Size())
	}
	if got := s.DumpContent(); got != "abcdefghijklm" {
		t.Errorf("got %q, want %q", got, "abcdefghijklm")
	}
}

func TestStream_MarkerOnEmptyStream(t *testing.T) {
	src := New(4)
	src.WriteString("xxabc")
	src.Skip(2)

	s := New(4)
	s.MarkerSet()
	s.AppendStreamNonDestructive(src, 0, -1)
	s.Skip(2)
	s.MarkerRestore()
	if got := s.DumpContent(); got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}

// Random operation sequences between a marker set and restore must leave
// the stream unchanged.
func TestStream_MarkerLaw(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		s := New(1 + r.Intn(17))
		s.Write(sequence(r.Intn(300)))
		s.Skip(r.Intn(20))
		before := s.Bytes()

		s.MarkerSet()
		for op := 0; op < 10; op++ {
			switch r.Intn(4) {
			case 0:
				s.Skip(r.Intn(30))
			case 1:
				s.ReadString(r.Intn(30))
			case 2:
				s.MarkerSet()
				s.Skip(r.Intn(10))
				s.MarkerClear()
			case 3:
				var b [9]byte
				s.Peek(b[:])
			}
		}
		s.MarkerRestore()

		if s.Size() != len(before) {
			t.Fatalf("round %d: got size %v, want %v", round, s.Size(), len(before))
		}
		if !bytes.Equal(s.Bytes(), before) {
			t.Fatalf("round %d: content changed after restore", round)
		}
	}
}

// Data pushed through a chain of streams in random pieces comes out intact.
func TestStream_Pipe(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	data := sequence(50000)
	in, mid, out := New(1627), New(2591), New(512)
	var got []byte
	for pos := 0; pos < len(data) || in.Size() > 0 || mid.Size() > 0; {
		if pos < len(data) {
			n := 1 + r.Intn(4663)
			if pos+n > len(data) {
				n = len(data) - pos
			}
			if r.Intn(2) == 0 {
				in.Write(data[pos : pos+n])
			} else {
				in.AppendRaw(append([]byte(nil), data[pos:pos+n]...))
			}
			pos += n
		}
		mid.AppendStream(in, r.Intn(5303))
		out.AppendStreamNonDestructive(mid, 0, r.Intn(3943))
		mid.Skip(out.Size())
		buf := make([]byte, r.Intn(2048))
		n, _ := out.Read(buf)
		got = append(got, buf[:n]...)
		if out.Size() > 0 {
			got = append(got, out.Bytes()...)
			out.Clear()
		}
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %v bytes, want %v bytes (content mismatch)", len(got), len(data))
	}
}

func TestStream_WriteTo(t *testing.T) {
	s := New(3)
	s.WriteString("abcdefgh")
	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 8 || buf.String() != "abcdefgh" {
		t.Errorf("got %v %q, want 8 %q", n, buf.String(), "abcdefgh")
	}
	if !s.IsEmpty() {
		t.Errorf("expected stream to be drained")
	}
}

func TestStream_ReadLine(t *testing.T) {
	s := New(12)
	s.WriteString("1234567890\r\n abcdef\r\n123456789012345\nabcdefg\r\n\r\nabcd")

	want := []string{"1234567890", " abcdef", "123456789012345", "abcdefg", ""}
	for _, w := range want {
		line, ok := s.ReadLine()
		if !ok {
			t.Fatalf("expected line %q", w)
		}
		if line != w {
			t.Errorf("got %q, want %q", line, w)
		}
	}
	if _, ok := s.ReadLine(); ok {
		t.Errorf("expected no complete line")
	}
	if got := s.DumpContent(); got != "abcd" {
		t.Errorf("got %q, want %q", got, "abcd")
	}
	s.WriteString("\r\n")
	if line, ok := s.ReadLFLine(); !ok || line != "abcd\r\n" {
		t.Errorf("got %q %v, want %q true", line, ok, "abcd\r\n")
	}
}

func TestStream_ReadNextASCIIToken(t *testing.T) {
	s := New(12)
	s.WriteString("{ ala bala \"porto'ca\\nla}\" xbuc'  \n  \\t' *")

	tests := []struct {
		tok    string
		status TokenStatus
	}{
		{"{", TokenSepOK},
		{"ala", TokenOK},
		{"bala", TokenOK},
		{"\"porto'ca\\nla}\"", TokenQuotedOK},
		{"xbuc", TokenOK},
		{"'  \n  \\t'", TokenQuotedOK},
		{"*", TokenSepOK},
		{"", TokenNoData},
	}
	for _, tt := range tests {
		tok, st := s.ReadNextASCIIToken()
		if st != tt.status || tok != tt.tok {
			t.Errorf("got %q %v, want %q %v", tok, st, tt.tok, tt.status)
		}
	}
}

func TestStream_UnterminatedQuote(t *testing.T) {
	s := New(0)
	s.WriteString("  'abc")
	if _, st := s.ReadNextASCIIToken(); st != TokenNoData {
		t.Errorf("got %v, want %v", st, TokenNoData)
	}
	if s.Size() != 6 {
		t.Errorf("got size %v, want 6", s.Size())
	}
	s.WriteString("d'")
	if tok, st := s.ReadNextASCIIToken(); st != TokenQuotedOK || tok != "'abcd'" {
		t.Errorf("got %q %v, want %q %v", tok, st, "'abcd'", TokenQuotedOK)
	}
}

func TestNumStreamer(t *testing.T) {
	orders := []binary24.ByteOrder{binary24.BigEndian, binary24.LittleEndian}
	for _, order := range orders {
		t.Run(order.String(), func(t *testing.T) {
			s := New(3)
			WriteUint8(s, 0xab)
			WriteInt16(s, int16(-0x5433), order)
			WriteUint24(s, 0x1234abcd, order)
			WriteInt32(s, -123456789, order)
			WriteInt64(s, -1234567890123, order)
			WriteFloat64(s, 3.25, order)
			WriteFloat32(s, -1.5, order)
			if s.Size() != 1+2+3+4+8+8+4 {
				t.Fatalf("got size %v, want 30", s.Size())
			}

			if got := ReadUint8(s); got != 0xab {
				t.Errorf("got %#x, want 0xab", got)
			}
			if got := ReadUint16(s, order); got != 0xabcd {
				t.Errorf("got %#x, want 0xabcd", got)
			}
			if got := PeekUint24(s, order); got != 0x34abcd {
				t.Errorf("got %#x, want 0x34abcd", got)
			}
			if got := ReadUint24(s, order); got != 0x34abcd {
				t.Errorf("got %#x, want 0x34abcd", got)
			}
			if got := ReadInt32(s, order); got != -123456789 {
				t.Errorf("got %v, want -123456789", got)
			}
			if got := ReadInt64(s, order); got != -1234567890123 {
				t.Errorf("got %v, want -1234567890123", got)
			}
			if got := ReadFloat64(s, order); got != 3.25 {
				t.Errorf("got %v, want 3.25", got)
			}
			if got := ReadFloat32(s, order); got != -1.5 {
				t.Errorf("got %v, want -1.5", got)
			}
			if !s.IsEmpty() {
				t.Errorf("expected empty stream")
			}
		})
	}
}

func TestNumStreamer_ShortRead(t *testing.T) {
	s := NewFromBytes([]byte{0x01, 0x02})
	if got := ReadUint32(s, binary24.BigEndian); got != 0x01020000 {
		t.Errorf("got %#x, want 0x01020000", got)
	}
	if !s.IsEmpty() {
		t.Errorf("expected empty stream")
	}
}
