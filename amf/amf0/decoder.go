package amf0

import (
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/internal/binary24"
	"github.com/torresjeff/go-rtmp/status"
)

var bigEndian = binary24.BigEndian

// ReadNext decodes the next value from in.
//
// On error nothing is consumed. status.NoData means the value is not fully
// buffered; the other errors carry status.CorruptedData,
// status.StructTooLong, status.NotImplemented or
// status.UnsupportedReferences.
func ReadNext(in *bytestream.Stream) (Value, error) {
	in.MarkerSet()
	v, err := readNext(in)
	if err != nil {
		in.MarkerRestore()
		return nil, err
	}
	in.MarkerClear()
	return v, nil
}

func readNext(in *bytestream.Stream) (Value, error) {
	marker, ok := in.PeekByte()
	if !ok {
		return nil, status.NoData
	}
	switch marker {
	case TypeNumber:
		if in.Size() < 9 {
			return nil, status.NoData
		}
		in.Skip(1)
		return Number(bytestream.ReadFloat64(in, bigEndian)), nil
	case TypeBoolean:
		if in.Size() < 2 {
			return nil, status.NoData
		}
		in.Skip(1)
		switch b := bytestream.ReadUint8(in); b {
		case 0:
			return Boolean(false), nil
		case 1:
			return Boolean(true), nil
		default:
			return nil, status.Errorf(status.CorruptedData, "amf0: invalid boolean value %d", b)
		}
	case TypeString, TypeLongString:
		s, err := readString(in)
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case TypeNull, TypeUndefined:
		in.Skip(1)
		return Null{}, nil
	case TypeObject:
		in.Skip(1)
		obj := NewObject()
		if err := readProperties(in, &obj.properties); err != nil {
			return nil, err
		}
		return obj, nil
	case TypeECMAArray:
		if in.Size() < 5 {
			return nil, status.NoData
		}
		in.Skip(1)
		// The associative count is only a hint, properties end with an empty key.
		bytestream.ReadUint32(in, bigEndian)
		arr := NewECMAArray()
		if err := readProperties(in, &arr.properties); err != nil {
			return nil, err
		}
		return arr, nil
	case TypeStrictArray:
		return readStrictArray(in)
	case TypeDate:
		if in.Size() < 11 {
			return nil, status.NoData
		}
		in.Skip(1)
		d := Date{}
		d.Millis = bytestream.ReadFloat64(in, bigEndian)
		d.Timezone = int16(bytestream.ReadUint16(in, bigEndian))
		return d, nil
	case TypeTypedObject:
		in.Skip(1)
		name, err := readString(in)
		if err != nil {
			return nil, err
		}
		switch name {
		case recordSetName:
			return RecordSet{}, nil
		case recordSetPageName:
			return RecordSetPage{}, nil
		}
		return nil, status.Errorf(status.NotImplemented, "amf0: class object %q", name)
	case TypeReference:
		return nil, status.Errorf(status.UnsupportedReferences, "amf0: reference")
	case TypeMovieClip, TypeRecordSet, TypeUnsupported, TypeXMLDocument, TypeAMF3Object:
		return nil, status.Errorf(status.NotImplemented, "amf0: type 0x%02x", marker)
	case TypeObjectEnd:
		return nil, status.Errorf(status.CorruptedData, "amf0: unexpected object end")
	}
	return nil, status.Errorf(status.CorruptedData, "amf0: unknown type 0x%02x", marker)
}

func readStrictArray(in *bytestream.Stream) (Value, error) {
	if in.Size() < 5 {
		return nil, status.NoData
	}
	in.Skip(1)
	n := bytestream.ReadUint32(in, bigEndian)
	if n > MaxArrayLength {
		return nil, status.Errorf(status.StructTooLong, "amf0: array of %d elements", n)
	}
	// The declared count is untrusted; grow with the elements actually read.
	capacity := int(n)
	if capacity > in.Size() {
		capacity = in.Size()
	}
	if capacity > arrayPrealloc {
		capacity = arrayPrealloc
	}
	arr := make(StrictArray, 0, capacity)
	for i := uint32(0); i < n; i++ {
		v, err := readNext(in)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

func readProperties(in *bytestream.Stream, p *properties) error {
	for {
		key, err := PickString(in)
		if err != nil {
			return err
		}
		if key == "" {
			end, ok := in.PeekByte()
			if !ok {
				return status.NoData
			}
			if end != TypeObjectEnd {
				return status.Errorf(status.CorruptedData, "amf0: expected object end, got 0x%02x", end)
			}
			in.Skip(1)
			return nil
		}
		v, err := readNext(in)
		if err != nil {
			return err
		}
		p.Set(key, v)
	}
}

func readString(in *bytestream.Stream) (string, error) {
	marker, ok := in.PeekByte()
	if !ok {
		return "", status.NoData
	}
	var n uint32
	switch marker {
	case TypeString:
		if in.Size() < 3 {
			return "", status.NoData
		}
		in.Skip(1)
		n = uint32(bytestream.ReadUint16(in, bigEndian))
	case TypeLongString:
		if in.Size() < 5 {
			return "", status.NoData
		}
		in.Skip(1)
		n = bytestream.ReadUint32(in, bigEndian)
	default:
		return "", status.Errorf(status.CorruptedData, "amf0: illegal string type 0x%02x", marker)
	}
	if n > MaxStringLength {
		return "", status.Errorf(status.StructTooLong, "amf0: string of %d bytes", n)
	}
	if in.Size() < int(n) {
		return "", status.NoData
	}
	return in.ReadString(int(n)), nil
}

// ReadString reads a string or long string value.
func ReadString(in *bytestream.Stream) (string, error) {
	in.MarkerSet()
	s, err := readString(in)
	if err != nil {
		in.MarkerRestore()
		return "", err
	}
	in.MarkerClear()
	return s, nil
}

// PickString reads a bare string: a 16 bit length and the bytes, without a
// type marker. Object keys are written this way.
func PickString(in *bytestream.Stream) (string, error) {
	if in.Size() < 2 {
		return "", status.NoData
	}
	n := int(bytestream.PeekUint16(in, bigEndian))
	if in.Size() < 2+n {
		return "", status.NoData
	}
	in.Skip(2)
	return in.ReadString(n), nil
}

// ReadAll decodes values until in is empty.
func ReadAll(in *bytestream.Stream) ([]Value, error) {
	var values []Value
	for !in.IsEmpty() {
		v, err := ReadNext(in)
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}
