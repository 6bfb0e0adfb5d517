package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter renders snapshots as block-style YAML with the same field names
// as the JSON rendering.
type YAMLWriter struct {
	baseWriter
}

// NewYAMLWriter creates a YAMLWriter.
func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{baseWriter: newBaseWriter(output)}
}

func (w *YAMLWriter) Write(snapshot *Snapshot) (int, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return 0, err
	}

	// JSON is a YAML subset; decoding into a node keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	blockStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return 0, fmt.Errorf("encode yaml: %w", err)
	}
	return w.output.Write(out)
}

// blockStyle clears the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
