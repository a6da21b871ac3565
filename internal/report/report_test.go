package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ecvt-build/internal/types"
)

func TestNewRunID_IsUUID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestWriteRead(t *testing.T) {
	start := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	units := types.Plan("build", []string{"default"}, []string{"assembly", "base"}, "stl")

	run := Run{
		ID:        "3f2b5c1e-0000-4000-8000-000000000001",
		ToolPath:  "openscad",
		StartTime: start,
		EndTime:   start.Add(4 * time.Second),
		Results: []types.UnitResult{
			{Unit: units[0], StartTime: start, EndTime: start.Add(2 * time.Second)},
			{Unit: units[1], StartTime: start, EndTime: start.Add(time.Second), ExitCode: 1, Error: errors.New("exit status 1")},
		},
		Error: errors.New("openscad failed"),
	}

	path := filepath.Join(t.TempDir(), "reports", "build.xlsx")
	require.NoError(t, Write(path, run))

	id, rows, err := readReport(path)
	require.NoError(t, err)
	assert.Equal(t, run.ID, id)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"1", "default", "assembly", units[0].OutputPath, "ok", "0", "2"}, rows[0])
	assert.Equal(t, "failed", rows[1][4])
	assert.Equal(t, "1", rows[1][5])
	assert.Equal(t, "exit status 1", rows[1][7])
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, "SUCCESS", Run{}.Status())
	assert.Equal(t, "FAILED", Run{Error: errors.New("x")}.Status())
}

func TestReadReport_MissingFile(t *testing.T) {
	_, _, err := readReport(filepath.Join(t.TempDir(), "none.xlsx"))
	assert.Error(t, err)
}

// readReport returns the run ID and unit rows of a workbook written by Write.
func readReport(path string) (string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return "", nil, err
	}
	if len(rows) < headerRow || len(rows[0]) < 2 {
		return "", nil, fmt.Errorf("report %s has no header", path)
	}
	return rows[0][1], rows[headerRow:], nil
}
