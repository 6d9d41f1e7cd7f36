package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "conversations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSXDetectsColumns(t *testing.T) {
	t.Parallel()
	path := writeXLSX(t, [][]string{
		{"Conversation ID", "Agent Recording URL", "Customer Recording URL", "Notes"},
		{"conv-1", "http://a/1.wav", "http://c/1.wav", "ok"},
		{"conv-2", "not-a-url", "http://c/2.wav", "skip"},
		{"", "http://a/3.wav", "http://c/3.wav", "skip"},
	})

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "conv-1", rows[0].ConversationID)
	assert.Equal(t, "http://a/1.wav", rows[0].AgentURL)
	assert.Equal(t, "http://c/1.wav", rows[0].CustomerURL)
}

func TestReadXLSXMissingColumns(t *testing.T) {
	t.Parallel()
	path := writeXLSX(t, [][]string{
		{"foo", "bar"},
		{"x", "y"},
	})
	_, err := ReadXLSX(path)
	assert.Error(t, err)
}
