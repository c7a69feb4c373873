package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/creatornet/pkg/errors"
)

// Format is a payload file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads a payload from a JSON or YAML file.
func ReadFile(path string) (Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Payload{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "network file %s not found", path)
		}
		return Payload{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// Read decodes a payload from r.
func Read(r io.Reader, format Format) (Payload, error) {
	var p Payload
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&p); err != nil && err != io.EOF {
			return Payload{}, errors.Wrap(errors.ErrCodeInvalidNetwork, err, "decode yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return Payload{}, errors.Wrap(errors.ErrCodeInvalidNetwork, err, "decode json")
		}
	}
	return p, nil
}

// Unmarshal decodes a JSON payload.
func Unmarshal(data []byte) (Payload, error) {
	return Read(bytes.NewReader(data), FormatJSON)
}

// Marshal encodes p as indented JSON.
func Marshal(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(p, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes p to path in the format implied by its extension.
func WriteFile(p Payload, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(p, f, FormatFromPath(path))
}

// Write encodes p to w.
func Write(p Payload, w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}
