package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyeo/internal/engine"
	"pyeo/internal/rules"
)

var results = []engine.FileResult{
	{Path: "app.py", Diagnostics: []engine.Diagnostic{
		{Line: 2, Column: 0, Code: rules.CodeErSuffix, Message: `PEO300 "er" suffix forbidden`, Origin: "pyeo/lint"},
		{Line: 6, Column: 4, Code: rules.CodeStaticMethod, Message: "PEO400 Staticmethod is forbidden", Origin: "pyeo/lint"},
	}},
	{Path: "clean.py"},
	{Path: "shapes.py", Diagnostics: []engine.Diagnostic{
		{Line: 4, Column: 0, Code: rules.CodeNotFinal, Message: "PEO201 Elegant object must be final", Origin: "pyeo/typecheck"},
	}},
}

func TestReporter_Text(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewReporter(&buf, FormatText, true).Write(results)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, `app.py:2:1: PEO300 "er" suffix forbidden
app.py:6:5: PEO400 Staticmethod is forbidden
shapes.py:4:1: PEO201 Elegant object must be final
`, buf.String())
}

func TestReporter_JSON(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewReporter(&buf, FormatJSON, false).Write(results)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, Entry{
		Path:    "app.py",
		Line:    6,
		Column:  5,
		Code:    rules.CodeStaticMethod,
		Message: "Staticmethod is forbidden",
		Origin:  "pyeo/lint",
	}, got[1])
	assert.Equal(t, "pyeo/typecheck", got[2].Origin)
}

func TestReporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewReporter(&buf, FormatJSON, true).Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	_, err = NewReporter(&buf, FormatText, true).Write(nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestReporter_UnknownFormat(t *testing.T) {
	_, err := NewReporter(&bytes.Buffer{}, Format("xml"), true).Write(results)
	assert.Error(t, err)
}

func TestWriteRules(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRules(&buf, rules.Catalogue()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, len(rules.Catalogue())+1)
	assert.True(t, bytes.HasPrefix(lines[0], []byte("CODE")))
	assert.True(t, bytes.HasPrefix(lines[1], []byte("PEO101")))
	assert.Contains(t, buf.String(), "no-er-suffix")
}
