// Package amf0 implements the AMF0 object model carried by RTMP Invoke,
// Notify, FlexMessage and shared object bodies, and by FLV metadata tags.
// Values are read from and written to a bytestream.Stream.
package amf0

import (
	"fmt"
	"time"

	"github.com/torresjeff/go-rtmp/bytestream"
)

const (
	TypeNumber      byte = 0x00
	TypeBoolean     byte = 0x01
	TypeString      byte = 0x02
	TypeObject      byte = 0x03
	TypeMovieClip   byte = 0x04 // reserved, not supported
	TypeNull        byte = 0x05
	TypeUndefined   byte = 0x06
	TypeReference   byte = 0x07
	TypeECMAArray   byte = 0x08
	TypeObjectEnd   byte = 0x09
	TypeStrictArray byte = 0x0A
	TypeDate        byte = 0x0B
	TypeLongString  byte = 0x0C
	TypeUnsupported byte = 0x0D
	TypeRecordSet   byte = 0x0E // reserved, not supported
	TypeXMLDocument byte = 0x0F
	TypeTypedObject byte = 0x10
	TypeAMF3Object  byte = 0x11
)

// Bounds on declared lengths, checked before anything is allocated.
const (
	MaxStringLength = 4 << 20
	MaxArrayLength  = 1 << 16
)

// arrayPrealloc bounds the capacity reserved for a strict array up front.
const arrayPrealloc = 64

// Strings of this length or longer are written as long strings.
const longStringThreshold = 65535

// Value is an AMF0 value.
type Value interface {
	// Marker returns the type marker written in front of the value.
	Marker() byte
	// Size returns the exact number of bytes Encode writes.
	Size() int
	Encode(out *bytestream.Stream)
	Equal(other Value) bool
	String() string
}

type Number float64

func (Number) Marker() byte { return TypeNumber }
func (Number) Size() int    { return 9 }

func (v Number) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeNumber)
	bytestream.WriteFloat64(out, float64(v), bigEndian)
}

func (v Number) Equal(other Value) bool {
	o, ok := other.(Number)
	return ok && o == v
}

func (v Number) String() string { return fmt.Sprintf("Number(%v)", float64(v)) }

type Boolean bool

func (Boolean) Marker() byte { return TypeBoolean }
func (Boolean) Size() int    { return 2 }

func (v Boolean) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeBoolean)
	if v {
		bytestream.WriteUint8(out, 1)
	} else {
		bytestream.WriteUint8(out, 0)
	}
}

func (v Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && o == v
}

func (v Boolean) String() string { return fmt.Sprintf("Boolean(%v)", bool(v)) }

// String is written as a string or, when 65535 bytes or longer, as a long
// string.
type String string

func (v String) Marker() byte {
	if len(v) >= longStringThreshold {
		return TypeLongString
	}
	return TypeString
}

func (v String) Size() int {
	if len(v) >= longStringThreshold {
		return 5 + len(v)
	}
	return 3 + len(v)
}

func (v String) Encode(out *bytestream.Stream) {
	WriteString(out, string(v))
}

func (v String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == v
}

func (v String) String() string { return fmt.Sprintf("String(%q)", string(v)) }

// Null is also what Undefined decodes to.
type Null struct{}

func (Null) Marker() byte { return TypeNull }
func (Null) Size() int    { return 1 }

func (Null) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeNull)
}

func (Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (Null) String() string { return "Null" }

// Date is a point in time in milliseconds since the epoch and a timezone
// offset in minutes.
type Date struct {
	Millis   float64
	Timezone int16
}

// NewDate converts t to a Date in UTC.
func NewDate(t time.Time) Date {
	return Date{Millis: float64(t.UnixNano() / int64(time.Millisecond))}
}

func (Date) Marker() byte { return TypeDate }
func (Date) Size() int    { return 11 }

func (v Date) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeDate)
	bytestream.WriteFloat64(out, v.Millis, bigEndian)
	bytestream.WriteInt16(out, v.Timezone, bigEndian)
}

func (v Date) Time() time.Time {
	return time.Unix(0, int64(v.Millis)*int64(time.Millisecond))
}

func (v Date) Equal(other Value) bool {
	o, ok := other.(Date)
	return ok && o == v
}

func (v Date) String() string {
	return fmt.Sprintf("Date(%v, tz: %d)", v.Time().UTC().Format(time.RFC3339Nano), v.Timezone)
}

type StrictArray []Value

func (StrictArray) Marker() byte { return TypeStrictArray }

func (v StrictArray) Size() int {
	n := 5
	for _, e := range v {
		n += e.Size()
	}
	return n
}

func (v StrictArray) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeStrictArray)
	bytestream.WriteUint32(out, uint32(len(v)), bigEndian)
	for _, e := range v {
		e.Encode(out)
	}
}

func (v StrictArray) Equal(other Value) bool {
	o, ok := other.(StrictArray)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if !v[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (v StrictArray) String() string { return fmt.Sprintf("StrictArray%v", []Value(v)) }

// RecordSet and RecordSetPage are the two Flash remoting class objects that
// are recognized. They carry no data.
type RecordSet struct{}

func (RecordSet) Marker() byte { return TypeTypedObject }
func (RecordSet) Size() int    { return 1 + String(recordSetName).Size() }

func (RecordSet) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeTypedObject)
	WriteString(out, recordSetName)
}

func (RecordSet) Equal(other Value) bool {
	_, ok := other.(RecordSet)
	return ok
}

func (RecordSet) String() string { return "RecordSet" }

type RecordSetPage struct{}

func (RecordSetPage) Marker() byte { return TypeTypedObject }
func (RecordSetPage) Size() int    { return 1 + String(recordSetPageName).Size() }

func (RecordSetPage) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeTypedObject)
	WriteString(out, recordSetPageName)
}

func (RecordSetPage) Equal(other Value) bool {
	_, ok := other.(RecordSetPage)
	return ok
}

func (RecordSetPage) String() string { return "RecordSetPage" }

const (
	recordSetName     = "RecordSet"
	recordSetPageName = "RecordSetPage"
)

// From converts plain Go values into AMF0 values. Numbers of any width become
// Number, maps become Objects with sorted keys, slices become StrictArrays.
func From(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int32:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case uint32:
		return Number(t), nil
	case bool:
		return Boolean(t), nil
	case string:
		return String(t), nil
	case time.Time:
		return NewDate(t), nil
	case map[string]interface{}:
		obj := NewObject()
		for _, k := range sortedKeys(t) {
			e, err := From(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, e)
		}
		return obj, nil
	case []interface{}:
		arr := make(StrictArray, 0, len(t))
		for _, e := range t {
			ev, err := From(e)
			if err != nil {
				return nil, err
			}
			arr = append(arr, ev)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("amf0: cannot convert type %T", v)
}

// MustFrom is From for values known to be convertible.
func MustFrom(v interface{}) Value {
	r, err := From(v)
	if err != nil {
		panic(err)
	}
	return r
}
