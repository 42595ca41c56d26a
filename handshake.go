package rtmp

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/torresjeff/go-rtmp/rand"
)

var ErrUnsupportedRTMPVersion = errors.New("rtmp: the version of RTMP is not supported")
var ErrWrongC2Message = errors.New("server handshake: s1 and c2 handshake messages do not match")
var ErrWrongS2Message = errors.New("client handshake: c1 and s2 handshake messages do not match")

const RtmpVersion3 = 3

// handshakeSize is the size of C1, C2, S1 and S2.
const handshakeSize = 1536

type Flusher interface {
	Flush() error
}

type WriteFlusher interface {
	io.Writer
	Flusher
}

// Handshaker runs the opening exchange of a connection before any chunk is
// sent.
type Handshaker interface {
	Handshake(reader io.Reader, writer WriteFlusher) error
}

// PlainHandshaker is the unencrypted version 3 handshake. Strict rejects a
// C2 that does not echo S1; many encoders send garbage there.
type PlainHandshaker struct {
	Strict bool
}

func (h PlainHandshaker) Handshake(reader io.Reader, writer WriteFlusher) error {
	c1, err := readC0C1(reader)
	if err != nil {
		return err
	}
	s1, err := sendS0S1S2(writer, c1)
	if err != nil {
		return err
	}
	c2, err := readC2(reader)
	if err != nil {
		return err
	}
	if h.Strict && !bytes.Equal(s1, c2) {
		return ErrWrongC2Message
	}
	return nil
}

// ClientHandshake runs the client side of the plain handshake.
func ClientHandshake(reader io.Reader, writer WriteFlusher) error {
	c1, err := sendC0C1(writer)
	if err != nil {
		return err
	}
	s1, s2, err := readS0S1S2(reader)
	if err != nil {
		return err
	}
	if !bytes.Equal(c1, s2) {
		return ErrWrongS2Message
	}
	return send(writer, s1)
}

// Returns s1 and s2
func readS0S1S2(reader io.Reader) ([]byte, []byte, error) {
	var s0s1s2 [1 + 2*handshakeSize]byte
	if _, err := io.ReadFull(reader, s0s1s2[:]); err != nil {
		return nil, nil, errors.Wrap(err, "client handshake: reading s0s1s2")
	}
	if s0s1s2[0] != RtmpVersion3 {
		return nil, nil, ErrUnsupportedRTMPVersion
	}
	return s0s1s2[1 : 1+handshakeSize], s0s1s2[1+handshakeSize:], nil
}

// Returns the C1 message that was sent
func sendC0C1(writer WriteFlusher) ([]byte, error) {
	var c0c1 [1 + handshakeSize]byte
	c0c1[0] = RtmpVersion3
	if err := generateRandomData(c0c1[1:]); err != nil {
		return nil, err
	}
	if err := send(writer, c0c1[:]); err != nil {
		return nil, err
	}
	return c0c1[1:], nil
}

// If successful returns the C1 handshake data (random data sent by the client), it does not return c0 + c1.
func readC0C1(reader io.Reader) ([]byte, error) {
	var c0c1 [1 + handshakeSize]byte
	if _, err := io.ReadFull(reader, c0c1[:1]); err != nil {
		return nil, errors.Wrap(err, "server handshake: reading c0")
	}
	if c0c1[0] != RtmpVersion3 {
		return nil, ErrUnsupportedRTMPVersion
	}
	if _, err := io.ReadFull(reader, c0c1[1:]); err != nil {
		return nil, errors.Wrap(err, "server handshake: reading c1")
	}
	return c0c1[1:], nil
}

func readC2(reader io.Reader) ([]byte, error) {
	var c2 [handshakeSize]byte
	if _, err := io.ReadFull(reader, c2[:]); err != nil {
		return nil, errors.Wrap(err, "server handshake: reading c2")
	}
	return c2[:], nil
}

// Sends the s0, s1, and s2 sequence and returns the s1 message that was generated
func sendS0S1S2(writer WriteFlusher, c1 []byte) ([]byte, error) {
	var s0s1s2 [1 + 2*handshakeSize]byte
	s0s1s2[0] = RtmpVersion3
	if err := generateRandomData(s0s1s2[1 : 1+handshakeSize]); err != nil {
		return nil, err
	}
	// s2 echoes c1
	copy(s0s1s2[1+handshakeSize:], c1)
	if err := send(writer, s0s1s2[:]); err != nil {
		return nil, err
	}
	return s0s1s2[1 : 1+handshakeSize], nil
}

// The time and zero fields are left at 0.
func generateRandomData(b []byte) error {
	return rand.Fill(b[8:])
}

func send(writer WriteFlusher, b []byte) error {
	if _, err := writer.Write(b); err != nil {
		return err
	}
	return writer.Flush()
}
