package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	exporter := NewCSVExporter()
	body, err := exporter.Render(Dataset{
		Headers: []string{"id", "action", "details"},
		Rows: []map[string]string{
			{"id": "a1", "action": "LOGIN", "details": `user "alice" logged in`},
			{"id": "a2", "action": "COURSE_LIST", "details": "GET /api/v1/courses"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,action,details", lines[0])
	// Quotes inside a field are CSV-escaped by doubling.
	assert.Contains(t, lines[1], `"user ""alice"" logged in"`)
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	exporter := NewPDFExporter()
	body, err := exporter.Render(Dataset{
		Headers: []string{"id", "action"},
		Rows:    []map[string]string{{"id": "a1", "action": "LOGIN"}},
	}, "audit trail")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}
