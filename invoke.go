package rtmp

import (
	"fmt"
	"strings"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/status"
)

// Call is a remote procedure call carried by an Invoke: "service.method",
// a transaction id, a connection parameters value and the arguments.
type Call struct {
	ServiceName string
	MethodName  string
	InvokeID    uint32
	// ConnectionParams is the first value after the invoke id. It is an
	// object for "connect" and Null for most other calls.
	ConnectionParams amf0.Value
	Arguments        []amf0.Value
}

// NewCall splits action on its last dot into a service and a method name.
func NewCall(action string, invokeID uint32, params amf0.Value, args ...amf0.Value) *Call {
	c := &Call{InvokeID: invokeID, ConnectionParams: params, Arguments: args}
	c.SetAction(action)
	return c
}

func (c *Call) SetAction(action string) {
	if i := strings.LastIndexByte(action, '.'); i >= 0 {
		c.ServiceName, c.MethodName = action[:i], action[i+1:]
	} else {
		c.ServiceName, c.MethodName = "", action
	}
}

func (c *Call) Action() string {
	if c.ServiceName == "" {
		return c.MethodName
	}
	return c.ServiceName + "." + c.MethodName
}

// Argument returns the i-th argument, or nil.
func (c *Call) Argument(i int) amf0.Value {
	if i < 0 || i >= len(c.Arguments) {
		return nil
	}
	return c.Arguments[i]
}

func (c *Call) read(in *bytestream.Stream) error {
	action, err := amf0.ReadString(in)
	if err != nil {
		return err
	}
	c.SetAction(action)

	c.InvokeID = 0
	in.MarkerSet()
	if v, err := amf0.ReadNext(in); err == nil {
		if n, ok := v.(amf0.Number); ok {
			c.InvokeID = uint32(n)
			in.MarkerClear()
		} else {
			in.MarkerRestore()
		}
	} else {
		in.MarkerRestore()
	}

	c.ConnectionParams = nil
	c.Arguments = nil
	first := true
	for !in.IsEmpty() {
		v, err := amf0.ReadNext(in)
		if err != nil {
			return err
		}
		if first {
			c.ConnectionParams = v
			first = false
		} else {
			c.Arguments = append(c.Arguments, v)
		}
	}
	return nil
}

func (c *Call) write(out *bytestream.Stream, writeInvokeID bool) {
	amf0.WriteString(out, c.Action())
	if writeInvokeID {
		amf0.Number(c.InvokeID).Encode(out)
	}
	if c.ConnectionParams != nil {
		c.ConnectionParams.Encode(out)
	} else {
		amf0.Null{}.Encode(out)
	}
	amf0.WriteAll(out, c.Arguments...)
}

func (c *Call) Equal(o *Call) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.ServiceName == o.ServiceName && c.MethodName == o.MethodName &&
		c.InvokeID == o.InvokeID && valueEqual(c.ConnectionParams, o.ConnectionParams) &&
		valuesEqual(c.Arguments, o.Arguments)
}

func (c *Call) String() string {
	if c == nil {
		return "Call{nil}"
	}
	return fmt.Sprintf("service: %s, method: %s, invoke_id: %d, connection_params: %v%s",
		c.ServiceName, c.MethodName, c.InvokeID, c.ConnectionParams, valuesString(c.Arguments))
}

// valueEqual treats a missing value as Null.
func valueEqual(a, b amf0.Value) bool {
	if a == nil {
		a = amf0.Null{}
	}
	if b == nil {
		b = amf0.Null{}
	}
	return a.Equal(b)
}

// Invoke is a remote procedure call or the result of one.
type Invoke struct {
	eventHeader
	Call *Call
}

func NewInvoke(h Header, call *Call) *Invoke {
	return &Invoke{eventHeader: headerFor(h, EventInvoke), Call: call}
}

func (e *Invoke) DecodeBody(in *bytestream.Stream) error {
	e.Call = &Call{}
	return e.Call.read(in)
}

func (e *Invoke) EncodeBody(out *bytestream.Stream) error {
	if e.Call == nil {
		return status.Errorf(status.CorruptedData, "rtmp: invoke without a call")
	}
	e.Call.write(out, true)
	return nil
}

func (e *Invoke) Equal(other Event) bool {
	o, ok := other.(*Invoke)
	return ok && e.Call.Equal(o.Call)
}

func (e *Invoke) String() string {
	return eventString(e, "%v", e.Call)
}

// Notify is a one way call, such as "@setDataFrame" or "onMetaData": a name
// followed by values.
type Notify struct {
	eventHeader
	Name   string
	Values []amf0.Value
}

func NewNotify(h Header, name string, values ...amf0.Value) *Notify {
	return &Notify{eventHeader: headerFor(h, EventNotify), Name: name, Values: values}
}

func (e *Notify) DecodeBody(in *bytestream.Stream) error {
	name, err := amf0.ReadString(in)
	if err != nil {
		return err
	}
	e.Name = name
	e.Values = nil
	for !in.IsEmpty() {
		v, err := amf0.ReadNext(in)
		if err != nil {
			return err
		}
		e.Values = append(e.Values, v)
	}
	return nil
}

func (e *Notify) EncodeBody(out *bytestream.Stream) error {
	amf0.WriteString(out, e.Name)
	amf0.WriteAll(out, e.Values...)
	return nil
}

func (e *Notify) Equal(other Event) bool {
	o, ok := other.(*Notify)
	return ok && o.Name == e.Name && valuesEqual(o.Values, e.Values)
}

func (e *Notify) String() string {
	return eventString(e, "name: %s%s", e.Name, valuesString(e.Values))
}
