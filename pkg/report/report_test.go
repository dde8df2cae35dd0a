package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")

	err := WriteXLSX(path, []Row{
		{GraphName: "Graph1", Result: "Normal"},
		{GraphName: "Graph2", Result: "Unknown"},
	})
	require.NoError(t, err)

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Graph Name", "Result"}, rows[0])
	assert.Equal(t, []string{"Graph1", "Normal"}, rows[1])
	assert.Equal(t, []string{"Graph2", "Unknown"}, rows[2])
}

func TestWriteXLSXEmptyRunKeepsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, WriteXLSX(path, nil))

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Graph Name", "Result"}, rows[0])
}

func TestWriteXLSXOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")

	require.NoError(t, WriteXLSX(path, []Row{{GraphName: "Old", Result: "Normal"}}))
	require.NoError(t, WriteXLSX(path, []Row{{GraphName: "New", Result: "Abnormal"}}))

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"New", "Abnormal"}, rows[1])
}
