// Package status holds the read/write status shared by the RTMP coder, the
// AMF0 codec and the tag splitters.
//
// A nil error means OK. NoData is the normal "come back with more bytes"
// answer and is always returned unwrapped; every other status is fatal to the
// stream it was produced for and is usually wrapped with some context.
package status

import (
	"github.com/pkg/errors"
)

type Status uint8

const (
	OK Status = iota
	// NoData means not enough bytes are buffered. Nothing was consumed.
	NoData
	// Skip is returned by splitters that consumed input without producing a tag.
	Skip
	// EOF means the input ended and no more tags will be produced.
	EOF
	CorruptedData
	OversizedTag
	StructTooLong
	TooManyChannels
	OOM
	NotImplemented
	UnsupportedReferences
)

// CorruptedFail is the name the splitters use for CorruptedData.
const CorruptedFail = CorruptedData

var names = map[Status]string{
	OK:                    "OK",
	NoData:                "NO_DATA",
	Skip:                  "SKIP",
	EOF:                   "EOF",
	CorruptedData:         "CORRUPTED_DATA",
	OversizedTag:          "OVERSIZED_TAG",
	StructTooLong:         "STRUCT_TOO_LONG",
	TooManyChannels:       "TOO_MANY_CHANNELS",
	OOM:                   "OOM",
	NotImplemented:        "NOT_IMPLEMENTED",
	UnsupportedReferences: "UNSUPPORTED_REFERENCES",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "UNKNOWN_STATUS"
}

func (s Status) Error() string {
	return "status: " + s.String()
}

// Fatal reports whether s should end the connection or stream.
func (s Status) Fatal() bool {
	switch s {
	case OK, NoData, Skip, EOF:
		return false
	}
	return true
}

// Of extracts the Status carried by err. A nil error is OK and an error that
// carries no Status is reported as CorruptedData.
func Of(err error) Status {
	if err == nil {
		return OK
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return CorruptedData
}

// Is reports whether err carries status s.
func Is(err error, s Status) bool {
	return Of(err) == s
}

// IsFatal reports whether err carries a fatal status.
func IsFatal(err error) bool {
	return Of(err).Fatal()
}

// Errorf wraps s with a formatted message.
func Errorf(s Status, format string, args ...interface{}) error {
	return errors.Wrapf(s, format, args...)
}
