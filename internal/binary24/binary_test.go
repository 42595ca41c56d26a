package binary24

import "testing"

func TestUint24(t *testing.T) {
	tests := []struct {
		name  string
		order ByteOrder
		in    uint32
		bytes [3]byte
	}{
		{"bigEndian", BigEndian, 0x34abcd, [3]byte{0x34, 0xab, 0xcd}},
		{"littleEndian", LittleEndian, 0x34abcd, [3]byte{0xcd, 0xab, 0x34}},
		{"bigEndianTruncates", BigEndian, 0x1234abcd, [3]byte{0x34, 0xab, 0xcd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b [3]byte
			tt.order.PutUint24(b[:], tt.in)
			if b != tt.bytes {
				t.Errorf("got %x, want %x", b, tt.bytes)
			}
			if got := tt.order.Uint24(b[:]); got != tt.in&0xffffff {
				t.Errorf("got %#x, want %#x", got, tt.in&0xffffff)
			}
		})
	}
}

func TestInt24(t *testing.T) {
	if got := Int24(0xffffff); got != -1 {
		t.Errorf("got %v, want -1", got)
	}
	if got := Int24(0x7fffff); got != 0x7fffff {
		t.Errorf("got %v, want %v", got, 0x7fffff)
	}
	if got := Int24(0x800000); got != -0x800000 {
		t.Errorf("got %v, want %v", got, -0x800000)
	}
}
