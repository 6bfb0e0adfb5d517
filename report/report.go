// Package report renders evaluation snapshots as JSON, YAML or Markdown.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/content-quality/analyzer"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names an output rendering.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or a common alias. An empty name is JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ContentType is the HTTP media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Snapshot is an evaluation stamped with an ID, a timestamp and its inputs.
type Snapshot struct {
	ID          uuid.UUID            `json:"id"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Source      string               `json:"source,omitempty"`
	Keywords    []string             `json:"keywords"`
	Evaluation  *analyzer.Evaluation `json:"evaluation"`
}

// NewSnapshot stamps ev with a fresh ID and the current UTC time.
func NewSnapshot(source string, keywords []string, ev *analyzer.Evaluation) *Snapshot {
	if keywords == nil {
		keywords = []string{}
	}
	return &Snapshot{
		ID:          uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Keywords:    keywords,
		Evaluation:  ev,
	}
}

// Writer renders snapshots to one destination.
type Writer interface {
	// Write renders the snapshot and returns the number of bytes written.
	Write(snapshot *Snapshot) (int, error)
}

// NewWriter returns the writer for the named format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatYAML:
		return NewYAMLWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	}
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
