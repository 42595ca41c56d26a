package amf0

import (
	"fmt"
	"sort"
	"strings"

	"github.com/torresjeff/go-rtmp/bytestream"
)

// Property is a key/value pair of an Object or ECMAArray.
type Property struct {
	Key   string
	Value Value
}

// properties keeps insertion order, which is the order they are written in.
type properties struct {
	props []Property
}

func (p *properties) Len() int {
	return len(p.props)
}

// Get returns the value for key, or nil.
func (p *properties) Get(key string) Value {
	for _, e := range p.props {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Set replaces the value for key or appends a new property.
func (p *properties) Set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	for i := range p.props {
		if p.props[i].Key == key {
			p.props[i].Value = v
			return
		}
	}
	p.props = append(p.props, Property{key, v})
}

func (p *properties) Delete(key string) bool {
	for i := range p.props {
		if p.props[i].Key == key {
			p.props = append(p.props[:i], p.props[i+1:]...)
			return true
		}
	}
	return false
}

func (p *properties) Properties() []Property {
	return p.props
}

// GetString returns the value for key when it is a String.
func (p *properties) GetString(key string) (string, bool) {
	s, ok := p.Get(key).(String)
	return string(s), ok
}

// GetNumber returns the value for key when it is a Number.
func (p *properties) GetNumber(key string) (float64, bool) {
	n, ok := p.Get(key).(Number)
	return float64(n), ok
}

// bodySize is the size of the properties plus the end of object marker.
func (p *properties) bodySize() int {
	n := 3
	for _, e := range p.props {
		n += 2 + len(e.Key) + e.Value.Size()
	}
	return n
}

func (p *properties) encodeBody(out *bytestream.Stream) {
	for _, e := range p.props {
		PutString(out, e.Key)
		e.Value.Encode(out)
	}
	// empty key followed by the object end marker
	PutString(out, "")
	bytestream.WriteUint8(out, TypeObjectEnd)
}

// equal ignores ordering.
func (p *properties) equal(o *properties) bool {
	if len(p.props) != len(o.props) {
		return false
	}
	for _, e := range p.props {
		ov := o.Get(e.Key)
		if ov == nil || !e.Value.Equal(ov) {
			return false
		}
	}
	return true
}

func (p *properties) string(name string) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString("{")
	for i, e := range p.props {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", e.Key, e.Value)
	}
	sb.WriteString("}")
	return sb.String()
}

// Object is an anonymous AMF0 object.
type Object struct {
	properties
}

func NewObject() *Object {
	return &Object{}
}

func (*Object) Marker() byte { return TypeObject }

func (o *Object) Size() int {
	return 1 + o.bodySize()
}

func (o *Object) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeObject)
	o.encodeBody(out)
}

func (o *Object) Equal(other Value) bool {
	t, ok := other.(*Object)
	return ok && o.equal(&t.properties)
}

func (o *Object) String() string {
	return o.string("Object")
}

// ECMAArray is an associative array, the "mixed map" used by onMetaData.
type ECMAArray struct {
	properties
}

func NewECMAArray() *ECMAArray {
	return &ECMAArray{}
}

func (*ECMAArray) Marker() byte { return TypeECMAArray }

func (a *ECMAArray) Size() int {
	return 5 + a.bodySize()
}

func (a *ECMAArray) Encode(out *bytestream.Stream) {
	bytestream.WriteUint8(out, TypeECMAArray)
	// Associative count
	bytestream.WriteUint32(out, uint32(a.Len()), bigEndian)
	a.encodeBody(out)
}

func (a *ECMAArray) Equal(other Value) bool {
	t, ok := other.(*ECMAArray)
	return ok && a.equal(&t.properties)
}

func (a *ECMAArray) String() string {
	return a.string("ECMAArray")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
