package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	return Dataset{
		Title:   "Calificaciones 5to básica A",
		Caption: []string{"Asignatura: Matemáticas", "Trimestre: trimestre1"},
		Headers: []string{"Estudiante", "Nota"},
		Rows: []map[string]string{
			{"Estudiante": "Ana Núñez", "Nota": "95.5"},
			{"Estudiante": "Luis Pérez"},
		},
	}
}

func TestCSVRendersRowsInHeaderOrder(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(out), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Estudiante,Nota", lines[0])
	assert.Equal(t, "Ana Núñez,95.5", lines[1])
	assert.Equal(t, "Luis Pérez,", lines[2])
}

func TestPDFProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())

	_, err = ForFormat("xlsx")
	assert.Error(t, err)
}
