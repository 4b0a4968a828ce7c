package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Candidates(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithOutput(&buf)

	err := w.Candidates([]string{"feat: add caching layer", "fix: handle empty input"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "feat: add caching layer")
	assert.Contains(t, out, "fix: handle empty input")
	// Numbering starts at 1 and matches what the selection loop accepts.
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "2")

	firstIdx := strings.Index(out, "feat: add caching layer")
	secondIdx := strings.Index(out, "fix: handle empty input")
	assert.Less(t, firstIdx, secondIdx, "candidates must render in order")
}

func TestWriter_Message(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithOutput(&buf)

	require.NoError(t, w.Message("all done"))
	assert.Equal(t, "all done\n", buf.String())
}

func TestWriter_Warning(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithOutput(&buf)

	require.NoError(t, w.Warning("model response was not well-formed"))
	assert.Contains(t, buf.String(), "warning: model response was not well-formed")
}

func TestWriter_Prompt(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterWithOutput(&buf)

	require.NoError(t, w.Prompt("Pick 1-5: "))
	assert.Equal(t, "Pick 1-5: ", buf.String(), "prompts must not append a newline")
}

func TestNewWriter_DefaultsToStdout(t *testing.T) {
	w := NewWriter()
	assert.NotNil(t, w.out)
}
