package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportLedger(t *testing.T) *Ledger {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, store.Save(sampleRecords()))
	return New(store)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()
	led := exportLedger(t)
	out := filepath.Join(t.TempDir(), "export.csv")

	n, err := led.ExportCSV(out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "conv-1", rows[1][0])
	assert.Equal(t, "/a.wav", rows[1][2])
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()
	led := exportLedger(t)
	out := filepath.Join(t.TempDir(), "export.xlsx")

	n, err := led.ExportXLSX(out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "conversation_id", rows[0][0])
	assert.Equal(t, "conv-1", rows[1][0])
}
