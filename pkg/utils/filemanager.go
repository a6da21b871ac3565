// =============================================================================
// ecvt-build - File Manager Utility
// =============================================================================
//
// This module provides the filesystem side of a build run:
//   - Clean-slate reset of the build folder
//   - Output discovery and verification
//   - Plain-text run summary
//
// CLEAN-SLATE POLICY:
//   - The build folder is removed recursively at the start of every run,
//     with no confirmation and no backup
//   - It is recreated with one subdirectory per parameter set
//   - Only OpenSCAD writes into it afterwards, so a successful run leaves
//     exactly one mesh per (parameter set, part) and nothing else
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/internal/types"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager owns the build folder of a run.
type FileManager struct {
	// BuildDir is the folder wiped and recreated on every run.
	BuildDir string
}

// NewFileManager creates a new FileManager for buildDir.
func NewFileManager(buildDir string) *FileManager {
	return &FileManager{BuildDir: buildDir}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// ResetBuildTree deletes the build folder if it exists, recreates it, and
// creates one subdirectory per parameter set.
//
// RETURNS:
//   - A Filesystem error if anything cannot be removed or created.
func (fm *FileManager) ResetBuildTree(sets []string) error {
	if err := fm.removeBuildDir(); err != nil {
		return err
	}

	if err := os.Mkdir(fm.BuildDir, 0755); err != nil {
		return builderr.Wrap(err, builderr.KindFilesystem, "failed to create build folder %s", fm.BuildDir)
	}

	for _, set := range sets {
		dir := filepath.Join(fm.BuildDir, set)
		if err := os.Mkdir(dir, 0755); err != nil {
			return builderr.Wrap(err, builderr.KindFilesystem, "failed to create directory %s", dir)
		}
	}

	return nil
}

// removeBuildDir removes the build folder and everything below it.
func (fm *FileManager) removeBuildDir() error {
	info, err := os.Lstat(fm.BuildDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return builderr.Wrap(err, builderr.KindFilesystem, "failed to inspect build folder %s", fm.BuildDir)
	}
	if !info.IsDir() {
		return builderr.New(builderr.KindFilesystem, "build folder %s exists and is not a directory", fm.BuildDir)
	}

	if err := os.RemoveAll(fm.BuildDir); err != nil {
		return builderr.Wrap(err, builderr.KindFilesystem, "failed to remove build folder %s", fm.BuildDir)
	}
	return nil
}

// =============================================================================
// OUTPUT DISCOVERY
// =============================================================================

// ListOutputs returns every regular file below the build folder, sorted.
func (fm *FileManager) ListOutputs() ([]string, error) {
	var files []string

	err := filepath.WalkDir(fm.BuildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk build folder: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// VerifyOutputs returns the output paths of units whose mesh is missing or
// empty.
func (fm *FileManager) VerifyOutputs(units []types.BuildUnit) []string {
	var missing []string
	for _, unit := range units {
		info, err := os.Stat(unit.OutputPath)
		if err != nil || info.IsDir() || info.Size() == 0 {
			missing = append(missing, unit.OutputPath)
		}
	}
	return missing
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// BuildSummary contains summary information about a build run.
type BuildSummary struct {
	RunID      string
	StartTime  time.Time
	EndTime    time.Time
	ToolPath   string
	TotalUnits int
	Results    []types.UnitResult
	Error      error
}

// Succeeded returns the number of units that rendered successfully.
func (s BuildSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Success() {
			n++
		}
	}
	return n
}

// WriteSummaryLog writes a build summary to a text file in outputDir.
//
// PARAMETERS:
//   - summary: The build summary.
//   - outputDir: The directory to write the summary file. It must not be
//     the build folder.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary BuildSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("build_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	status := "SUCCESS"
	if summary.Error != nil {
		status = "FAILED"
	}

	fmt.Fprintf(writer, "ecvt-build - Build Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Status:         %s\n"+
		"  OpenSCAD:       %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Planned Units:  %d\n"+
		"  Attempted:      %d\n"+
		"  Succeeded:      %d\n\n",
		summary.RunID,
		status,
		summary.ToolPath,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalUnits,
		len(summary.Results),
		summary.Succeeded())

	if len(summary.Results) > 0 {
		writer.WriteString("Units:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, r := range summary.Results {
			mark := "ok"
			if !r.Success() {
				mark = "FAILED"
			}
			fmt.Fprintf(writer, "  [%3d] %-6s %s (%s)\n", r.Unit.Index+1, mark, r.Unit.OutputPath, r.Duration())
		}
		writer.WriteString("\n")
	}

	if summary.Error != nil {
		fmt.Fprintf(writer, "Error:\n  %v\n\n", summary.Error)
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// IsWithin reports whether path lies inside dir (or is dir itself).
func IsWithin(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
