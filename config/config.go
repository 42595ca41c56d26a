package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPort = "1935"

const BufioSize = 1024 * 64

const DefaultClientWindowSize uint32 = 2500000
const DefaultPublishStream uint32 = 0

// DefaultChunkSize is the chunk size both sides of a connection start with.
const DefaultChunkSize = 128

// MaxChunkSize is the largest chunk size a peer may announce.
const MaxChunkSize = 65536

// ServerChunkSize is the default chunk size announced to clients right after
// connect.
const ServerChunkSize = 4096

const FlashMediaServerVersion string = "FMS/3,5,7,7009"

const Capabilities int = 31

const Mode int = 1

const DefaultStreamID int = 1

const (
	DefaultMemoryLimit = 4 << 20
	DefaultMaxTagSize  = 5 << 20
)

// Config is the configuration of the rtmpstream server.
type Config struct {
	Listen         string    `yaml:"listen"`
	MemoryLimit    int       `yaml:"memory_limit"`
	ReadChunkSize  int       `yaml:"read_chunk_size"`
	WriteChunkSize int       `yaml:"write_chunk_size"`
	RecordDir      string    `yaml:"record_dir"`
	FLV            FLVConfig `yaml:"flv"`
	Log            LogConfig `yaml:"log"`
}

// FLVConfig configures the recordings.
type FLVConfig struct {
	MaxTagSize int `yaml:"max_tag_size"`
	// WriteHeader is a pointer so an explicit false survives the defaults.
	WriteHeader *bool `yaml:"write_header"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Load reads the configuration from a YAML file. Unknown fields are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	return Parse(data)
}

// Parse decodes a YAML document, applies the defaults and validates the
// result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Listen == "" {
		c.Listen = ":" + DefaultPort
	}
	if c.MemoryLimit == 0 {
		c.MemoryLimit = DefaultMemoryLimit
	}
	if c.ReadChunkSize == 0 {
		c.ReadChunkSize = DefaultChunkSize
	}
	if c.WriteChunkSize == 0 {
		c.WriteChunkSize = ServerChunkSize
	}
	if c.RecordDir == "" {
		c.RecordDir = "."
	}
	if c.FLV.MaxTagSize == 0 {
		c.FLV.MaxTagSize = DefaultMaxTagSize
	}
	if c.FLV.WriteHeader == nil {
		writeHeader := true
		c.FLV.WriteHeader = &writeHeader
	}
}

// Validate returns an error describing the first invalid value.
func (c *Config) Validate() error {
	if c.MemoryLimit < 0 {
		return errors.Errorf("memory_limit must be positive, got %d", c.MemoryLimit)
	}
	if c.ReadChunkSize < 1 || c.ReadChunkSize > MaxChunkSize {
		return errors.Errorf("read_chunk_size must be between 1 and %d, got %d", MaxChunkSize, c.ReadChunkSize)
	}
	if c.WriteChunkSize < 1 || c.WriteChunkSize > MaxChunkSize {
		return errors.Errorf("write_chunk_size must be between 1 and %d, got %d", MaxChunkSize, c.WriteChunkSize)
	}
	if c.FLV.MaxTagSize < 1 || c.FLV.MaxTagSize >= 1<<24 {
		return errors.Errorf("flv.max_tag_size must be between 1 and %d, got %d", 1<<24-1, c.FLV.MaxTagSize)
	}
	if fi, err := os.Stat(c.RecordDir); err != nil {
		return errors.Wrap(err, "record_dir")
	} else if !fi.IsDir() {
		return errors.Errorf("record_dir %s is not a directory", c.RecordDir)
	}
	return nil
}
