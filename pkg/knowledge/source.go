// Package knowledge serves the product knowledge document injected into the
// conversation on inquiries. The whole document is returned on every fetch.
package knowledge

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"salesagent/pkg/logx"
)

//go:embed knowledge_base.json
var defaultDocument []byte

// DefaultDocument returns a copy of the embedded AutoStream knowledge base.
func DefaultDocument() []byte {
	return bytes.Clone(defaultDocument)
}

// Format identifies how a knowledge document is encoded.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the decoder from the file extension. Unknown extensions are treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a knowledge document. An empty document is an error.
func Decode(data []byte, format Format) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("knowledge document is empty")
	}

	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML knowledge document: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON knowledge document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported knowledge format %q", format)
	}
	return doc, nil
}

// FileSource reads its document from disk on every fetch, so edits are
// picked up without a restart.
type FileSource struct {
	path   string
	format Format
	logger *logx.Logger
}

// NewFileSource creates a source for path; the format follows the extension.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		format: FormatForPath(path),
		logger: logx.NewLogger("knowledge"),
	}
}

// Path returns the backing file path.
func (s *FileSource) Path() string {
	return s.path
}

// Fetch implements sales.KnowledgeSource.
func (s *FileSource) Fetch(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", s.path, err)
	}
	doc, err := Decode(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	logx.Debug(ctx, "knowledge", "loaded %d bytes from %s", len(data), s.path)
	return doc, nil
}

// StaticSource serves a document decoded once at construction.
type StaticSource struct {
	doc any
}

// NewStaticSource decodes data once. Use DefaultDocument for the built-in knowledge base.
func NewStaticSource(data []byte, format Format) (*StaticSource, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return &StaticSource{doc: doc}, nil
}

// Fetch implements sales.KnowledgeSource.
func (s *StaticSource) Fetch(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// Source is the whole-document fetch the sales agent consumes.
type Source interface {
	Fetch(ctx context.Context) (any, error)
}

// NewSource returns a FileSource for path, or the embedded default document when path is empty.
func NewSource(path string) (Source, error) {
	if strings.TrimSpace(path) == "" {
		logx.Infof("knowledge: no knowledge file configured, using built-in document")
		return NewStaticSource(DefaultDocument(), FormatJSON)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("knowledge file %s: %w", path, err)
	}
	return NewFileSource(path), nil
}
