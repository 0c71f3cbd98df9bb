package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harun/scribe/pkg/resource"
)

var (
	// ErrMalformed is returned for snapshot documents that cannot be decoded or fail validation
	ErrMalformed = errors.New("malformed snapshot")

	// ErrHashMismatch is returned when a snapshot's hash disagrees with its content or file name.
	// It wraps ErrMalformed.
	ErrHashMismatch = fmt.Errorf("%w: hash mismatch", ErrMalformed)
)

// Snapshot is the on-disk form of a resource
type Snapshot struct {
	Tags    []string `json:"tags" yaml:"tags" jsonschema:"description=Tags attached to the resource"`
	Content string   `json:"content" yaml:"content" jsonschema:"description=Resource body"`
	Hash    string   `json:"hash" yaml:"hash" jsonschema:"pattern=^[0-9a-f]{40}$,description=Lowercase hex SHA-1 of content"`
}

// FromResource captures the persisted fields of r
func FromResource(r *resource.Resource) Snapshot {
	return Snapshot{
		Tags:    r.Tags(),
		Content: r.Content(),
		Hash:    r.Hash(),
	}
}

// Resource rebuilds the resource held by the snapshot.
// The stored hash must match the content.
func (s Snapshot) Resource() (*resource.Resource, error) {
	if want := resource.Hash(s.Content); s.Hash != want {
		return nil, fmt.Errorf("%w: stored %s, content hashes to %s", ErrHashMismatch, s.Hash, want)
	}
	return resource.Restore(s.Hash, s.Content, s.Tags), nil
}

// Format is a snapshot file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a configured format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown snapshot format %q", name)
}

// Ext returns the file extension written for the format
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// FormatFromPath returns the format implied by a file extension.
// The second result is false for files that are not snapshots.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Encode serializes s in the given format
func Encode(s Snapshot, format Format) ([]byte, error) {
	if s.Tags == nil {
		s.Tags = []string{}
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("failed to encode yaml snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml snapshot: %w", err)
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("failed to encode json snapshot: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Decode parses and validates a snapshot document.
// YAML documents are converted to JSON before validation, so both formats obey the same schema.
func Decode(data []byte, format Format) (Snapshot, error) {
	doc := data
	if format == FormatYAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		doc = converted
	}

	if !json.Valid(doc) {
		return Snapshot{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	if err := Validate(doc); err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	if err := json.Unmarshal(doc, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}
