package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("📚", "Loading corpus...")

	// Then: output contains icon and message
	assert.Equal(t, "📚 Loading corpus...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")

	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_Messages(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		icon  string
		text  string
	}{
		{"success", func(w *Writer) { w.Successf("Snapshot written to %s", "cat.db") }, "✅", "Snapshot written to cat.db"},
		{"warning", func(w *Writer) { w.Warningf("%d corpus issues", 3) }, "⚠️", "3 corpus issues"},
		{"error", func(w *Writer) { w.Errorf("failed: %s", "boom") }, "❌", "failed: boom"},
		{"statusf", func(w *Writer) { w.Statusf("🔍", "Found %d names", 42) }, "🔍", "Found 42 names"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.write(New(buf))

			assert.Contains(t, buf.String(), tt.icon)
			assert.Contains(t, buf.String(), tt.text)
		})
	}
}

func TestWriter_NonTerminal_HasNoEscapes(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Header("Countries")
	w.Success("done")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriter_KeyValue_AlignsLabels(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewPlain(buf)

	w.KeyValue([2]string{"key", "point.potsdam"}, [2]string{"junction", "yes"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  key:      point.potsdam", lines[0])
	assert.Equal(t, "  junction: yes", lines[1])
}

func TestWriter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewPlain(buf)

	w.Table([]string{"KEY", "NAME"}, [][]string{
		{"line.de.001", "Stammbahn"},
		{"line.de.10", "Ostbahn"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  KEY          NAME", lines[0])
	assert.Equal(t, "  line.de.001  Stammbahn", lines[1])
	assert.Equal(t, "  line.de.10   Ostbahn", lines[2])
}

func TestWriter_EmptyTableAndList(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewPlain(buf)

	w.Table([]string{"KEY"}, nil)
	w.List(nil)

	assert.Equal(t, "  (none)\n  (none)\n", buf.String())
}

func TestWriter_List(t *testing.T) {
	buf := &bytes.Buffer{}
	NewPlain(buf).List([]string{"a", "b"})

	assert.Equal(t, "  - a\n  - b\n", buf.String())
}

func TestWriter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, NewPlain(buf).JSON(map[string]int{"lines": 3}))

	assert.Equal(t, "{\n  \"lines\": 3\n}\n", buf.String())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestGetStyles_NoColorRendersPlain(t *testing.T) {
	styles := GetStyles(true)

	assert.Equal(t, "plain", styles.Header.Render("plain"))
}
