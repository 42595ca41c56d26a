package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`
listen: 127.0.0.1:19350
memory_limit: 1048576
write_chunk_size: 4096
record_dir: ` + dir + `
flv:
  write_header: false
log:
  debug: true
`)
	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"listen", cfg.Listen, "127.0.0.1:19350"},
		{"memoryLimit", cfg.MemoryLimit, 1048576},
		{"readChunkSize", cfg.ReadChunkSize, DefaultChunkSize},
		{"writeChunkSize", cfg.WriteChunkSize, 4096},
		{"recordDir", cfg.RecordDir, dir},
		{"maxTagSize", cfg.FLV.MaxTagSize, DefaultMaxTagSize},
		{"writeHeader", *cfg.FLV.WriteHeader, false},
		{"debug", cfg.Log.Debug, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":1935" {
		t.Errorf("got %v, want %v", cfg.Listen, ":1935")
	}
	if !*cfg.FLV.WriteHeader {
		t.Errorf("got %v, want %v", *cfg.FLV.WriteHeader, true)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		doc  string
	}{
		{"unknownField", "listen: :1935\nport: 1935\n"},
		{"chunkSizeTooLarge", "read_chunk_size: 65537\n"},
		{"negativeChunkSize", "write_chunk_size: -1\n"},
		{"negativeMemoryLimit", "memory_limit: -5\n"},
		{"maxTagSizeTooLarge", "flv:\n  max_tag_size: 16777216\n"},
		{"missingRecordDir", "record_dir: " + filepath.Join(file, "missing") + "\n"},
		{"recordDirIsAFile", "record_dir: " + file + "\n"},
		{"notYAML", "listen: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Errorf("got %v, want an error", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtmpstream.yaml")
	if err := os.WriteFile(path, []byte("listen: :1936\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != ":1936" {
		t.Errorf("got %v, want %v", cfg.Listen, ":1936")
	}
	if _, err := Load(path + ".missing"); err == nil {
		t.Errorf("got %v, want an error", err)
	}
}
