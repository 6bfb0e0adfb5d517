package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/content-quality/analyzer"
)

const sampleDocument = `<html lang="en"><head>
<title>Writing maintainable Go services</title>
<meta name="description" content="Short description.">
</head><body>
<h1>Maintainable Go services</h1>
<p>Go services stay maintainable when packages are small. Click here to read more.</p>
<img src="a.png">
</body></html>`

func sampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	ev, err := analyzer.Evaluate(sampleDocument, []string{"go services"}, nil)
	require.NoError(t, err)
	return NewSnapshot("https://example.com/go", []string{"go services"}, ev)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter("yaml", &buf)
	require.NoError(t, err)
	assert.IsType(t, &YAMLWriter{}, w)

	_, err = NewWriter("xml", &buf)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONWriter(t *testing.T) {
	snapshot := sampleSnapshot(t)

	var buf bytes.Buffer
	n, err := NewJSONWriter(&buf).Write(snapshot)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.NotContains(t, buf.String()[:buf.Len()-1], "\n")

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, snapshot.ID, decoded.ID)
	assert.Equal(t, snapshot.Evaluation.OverallScore, decoded.Evaluation.OverallScore)

	buf.Reset()
	_, err = NewJSONWriter(&buf, WithPrettyPrint()).Write(snapshot)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\n  \"evaluation\": {")
}

func TestYAMLWriter(t *testing.T) {
	snapshot := sampleSnapshot(t)

	var buf bytes.Buffer
	_, err := NewYAMLWriter(&buf).Write(snapshot)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "overallScore: ")
	assert.Contains(t, out, "source: https://example.com/go")
	assert.NotContains(t, out, "{")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, snapshot.ID.String(), decoded["id"])
}

func TestMarkdownWriter(t *testing.T) {
	snapshot := sampleSnapshot(t)

	var buf bytes.Buffer
	_, err := NewMarkdownWriter(&buf).Write(snapshot)
	require.NoError(t, err)

	out := buf.String()
	for _, want := range []string{
		"# Content Quality Report",
		"## Scores",
		"## Recommendations",
		"### High Priority",
		"Add alt attributes",
		"### Readability",
		"https://example.com/go",
	} {
		assert.Contains(t, out, want)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "日本語日本語日...", truncateString("日本語日本語日本語日本語", 10))
}
