package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterPrefixesByteOrderMark(t *testing.T) {
	data := Dataset{
		Headers: []string{"school_of_origin", "score"},
		Rows: []map[string]string{
			{"school_of_origin": "בית ספר יסודי", "score": "91.2"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, utf8BOM, out[:3])
	assert.Contains(t, string(out[3:]), "בית ספר יסודי")
}

func TestCSVExporterRejectsEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
