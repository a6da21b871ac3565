// =============================================================================
// ecvt-build - Build Report
// =============================================================================
//
// Writes an XLSX workbook describing one build run: a header block with the
// run ID and tool, then one row per attempted build unit. The report is
// written after the run whether it succeeded or not, so a failed batch still
// shows which renders completed before the failure.
//
// SHEET LAYOUT ("Build"):
//   Row 1-5 : Run ID, Status, OpenSCAD, Started, Duration
//   Row 7   : column headers
//   Row 8+  : one row per unit in plan order
//
// =============================================================================

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ecvt-build/internal/types"
)

// SheetName is the worksheet holding the report.
const SheetName = "Build"

// headerRow is the row number of the unit table header.
const headerRow = 7

// Columns of the unit table.
var Columns = []string{
	"#",
	"Parameter Set",
	"Part",
	"Output",
	"Status",
	"Exit Code",
	"Duration (s)",
	"Error",
}

// Run describes one build run.
type Run struct {
	ID        string
	ToolPath  string
	StartTime time.Time
	EndTime   time.Time
	Results   []types.UnitResult
	Error     error
}

// NewRunID returns a fresh identifier for a build run.
func NewRunID() string {
	return uuid.New().String()
}

// Status returns "SUCCESS" or "FAILED".
func (r Run) Status() string {
	if r.Error != nil {
		return "FAILED"
	}
	return "SUCCESS"
}

// Write saves the report for run at path.
func Write(path string, run Run) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1".
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	header := [][]any{
		{"Run ID", run.ID},
		{"Status", run.Status()},
		{"OpenSCAD", run.ToolPath},
		{"Started", run.StartTime.Format(time.RFC3339)},
		{"Duration (s)", run.EndTime.Sub(run.StartTime).Seconds()},
	}
	for i, row := range header {
		if err := setRow(f, i+1, row); err != nil {
			return err
		}
	}

	columns := make([]any, len(Columns))
	for i, c := range Columns {
		columns[i] = c
	}
	if err := setRow(f, headerRow, columns); err != nil {
		return err
	}

	for i, res := range run.Results {
		status := "ok"
		errText := ""
		if !res.Success() {
			status = "failed"
			errText = res.Error.Error()
		}
		row := []any{
			res.Unit.Index + 1,
			res.Unit.ParameterSet,
			res.Unit.Part,
			res.Unit.OutputPath,
			status,
			res.ExitCode,
			res.Duration().Seconds(),
			errText,
		}
		if err := setRow(f, headerRow+1+i, row); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write report row %d: %w", row, err)
	}
	return nil
}
