package audio

import "fmt"

// Sound flags as stored in the first byte of an FLV audio tag:
// format (4 bits), rate (2 bits), size (1 bit), channels (1 bit).

type Format uint8

const (
	LinearPCMPlatformEndian Format = 0
	ADPCM                   Format = 1
	MP3                     Format = 2
	LinearPCMLittleEndian   Format = 3
	Nellymoser16KHzMono     Format = 4
	Nellymoser8KHzMono      Format = 5
	Nellymoser              Format = 6
	G711AlawLogPCM          Format = 7
	G711MulawLogPCM         Format = 8
	AAC                     Format = 10
	Speex                   Format = 11
	MP38KHz                 Format = 14
	DeviceSpecificSound     Format = 15
)

var formatNames = map[Format]string{
	LinearPCMPlatformEndian: "RAW",
	ADPCM:                   "ADPCM",
	MP3:                     "MP3",
	LinearPCMLittleEndian:   "RAW_LE",
	Nellymoser16KHzMono:     "NELLYMOSER_16_KHZ",
	Nellymoser8KHzMono:      "NELLYMOSER_8_KHZ",
	Nellymoser:              "NELLYMOSER",
	G711AlawLogPCM:          "G711_ALAW",
	G711MulawLogPCM:         "G711_MULAW",
	AAC:                     "AAC",
	Speex:                   "SPEEX",
	MP38KHz:                 "MP3_8_KHZ",
	DeviceSpecificSound:     "DEVICE_SPECIFIC",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FORMAT_UNKNOWN(%d)", uint8(f))
}

type SampleRate uint8

const (
	Rate5p5KHz SampleRate = 0
	Rate11KHz  SampleRate = 1
	Rate22KHz  SampleRate = 2
	Rate44KHz  SampleRate = 3
)

func (r SampleRate) String() string {
	switch r {
	case Rate5p5KHz:
		return "5.5_KHZ"
	case Rate11KHz:
		return "11_KHZ"
	case Rate22KHz:
		return "22_KHZ"
	case Rate44KHz:
		return "44_KHZ"
	}
	return "RATE_UNKNOWN"
}

// Hz returns the sampling rate in Hz.
func (r SampleRate) Hz() uint32 {
	switch r {
	case Rate5p5KHz:
		return 5512
	case Rate11KHz:
		return 11025
	case Rate22KHz:
		return 22050
	case Rate44KHz:
		return 44100
	}
	return 0
}

type SampleSize uint8

const (
	Size8Bit  SampleSize = 0
	Size16Bit SampleSize = 1
)

func (s SampleSize) String() string {
	if s == Size16Bit {
		return "16_BIT"
	}
	return "8_BIT"
}

type Channel uint8

const (
	Mono   Channel = 0
	Stereo Channel = 1
)

func (c Channel) String() string {
	if c == Stereo {
		return "STEREO"
	}
	return "MONO"
}

type AACPacketType uint8

const (
	AACSequenceHeader AACPacketType = 0
	AACRaw            AACPacketType = 1
)

func (t AACPacketType) String() string {
	if t == AACSequenceHeader {
		return "AAC_SEQUENCE_HEADER"
	}
	return "AAC_RAW"
}

// Flags is the decoded first byte of an audio tag.
type Flags struct {
	Format     Format
	Rate       SampleRate
	SampleSize SampleSize
	Channels   Channel
}

func ParseFlags(b byte) Flags {
	return Flags{
		Format:     Format(b >> 4),
		Rate:       SampleRate((b >> 2) & 0x03),
		SampleSize: SampleSize((b >> 1) & 0x01),
		Channels:   Channel(b & 0x01),
	}
}

func (f Flags) Byte() byte {
	return byte(f.Format)<<4 | byte(f.Rate&0x03)<<2 | byte(f.SampleSize&0x01)<<1 | byte(f.Channels&0x01)
}

func (f Flags) String() string {
	return fmt.Sprintf("%s %s %s %s", f.Format, f.Rate, f.SampleSize, f.Channels)
}
