package canvas

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a canvas file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension. Unknown extensions are YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads a canvas file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to open canvas: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read canvas %s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Save writes a canvas file, choosing the format from the extension.
func Save(path string, doc *Document) error {
	f, err := os.Create(path) //nolint:gosec // path comes from the user
	if err != nil {
		return fmt.Errorf("failed to create canvas file: %w", err)
	}
	if err := Encode(f, FormatFromPath(path), doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Decode parses a canvas document and normalizes its joins.
// Edge endpoints are not checked here; the scheduler reports them as malformed.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid canvas json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("invalid canvas yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported canvas format %q", format)
	}

	if err := doc.Normalize(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Encode writes a canvas document.
func Encode(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode canvas: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported canvas format %q", format)
	}
}
