package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/internal/types"
)

func TestResetBuildTree_CreatesSetDirectories(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	fm := NewFileManager(build)

	require.NoError(t, fm.ResetBuildTree([]string{"default", "small"}))

	entries, err := os.ReadDir(build)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "default", entries[0].Name())
	assert.Equal(t, "small", entries[1].Name())
	for _, e := range entries {
		assert.True(t, e.IsDir())
	}
}

func TestResetBuildTree_RemovesStaleContent(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.MkdirAll(filepath.Join(build, "old_set", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(build, "old_set", "deep", "stale.stl"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(build, "notes.txt"), []byte("x"), 0o644))

	fm := NewFileManager(build)
	require.NoError(t, fm.ResetBuildTree([]string{"default"}))

	entries, err := os.ReadDir(build)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "default", entries[0].Name())

	files, err := fm.ListOutputs()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResetBuildTree_Idempotent(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	fm := NewFileManager(build)

	require.NoError(t, fm.ResetBuildTree([]string{"a", "b"}))
	require.NoError(t, fm.ResetBuildTree([]string{"a", "b"}))

	entries, err := os.ReadDir(build)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestResetBuildTree_BuildPathIsAFile(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.WriteFile(build, []byte("x"), 0o644))

	err := NewFileManager(build).ResetBuildTree([]string{"default"})
	require.Error(t, err)
	assert.Equal(t, builderr.KindFilesystem, builderr.KindOf(err))
}

func TestResetBuildTree_MissingParent(t *testing.T) {
	build := filepath.Join(t.TempDir(), "missing", "build")

	err := NewFileManager(build).ResetBuildTree([]string{"default"})
	require.Error(t, err)
	assert.Equal(t, builderr.KindFilesystem, builderr.KindOf(err))
}

func TestVerifyOutputs(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	fm := NewFileManager(build)
	units := types.Plan(build, []string{"default"}, []string{"base", "carrier", "gear"}, "stl")
	require.NoError(t, fm.ResetBuildTree([]string{"default"}))

	require.NoError(t, os.WriteFile(units[0].OutputPath, []byte("solid x"), 0o644))
	require.NoError(t, os.WriteFile(units[1].OutputPath, nil, 0o644))

	assert.Equal(t, []string{units[1].OutputPath, units[2].OutputPath}, fm.VerifyOutputs(units))
}

func TestListOutputs_Sorted(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	fm := NewFileManager(build)
	require.NoError(t, fm.ResetBuildTree([]string{"b", "a"}))
	require.NoError(t, os.WriteFile(filepath.Join(build, "b", "x_b.stl"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(build, "a", "x_a.stl"), []byte("1"), 0o644))

	files, err := fm.ListOutputs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(build, "a", "x_a.stl"),
		filepath.Join(build, "b", "x_b.stl"),
	}, files)
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	units := types.Plan("build", []string{"default"}, []string{"base", "carrier"}, "stl")

	summary := BuildSummary{
		RunID:      "run-1",
		StartTime:  start,
		EndTime:    start.Add(3 * time.Second),
		ToolPath:   "openscad",
		TotalUnits: 2,
		Results: []types.UnitResult{
			{Unit: units[0], StartTime: start, EndTime: start.Add(time.Second)},
			{Unit: units[1], StartTime: start, EndTime: start.Add(2 * time.Second), ExitCode: 1, Error: errors.New("exit status 1")},
		},
		Error: errors.New("openscad failed"),
	}

	path, err := WriteSummaryLog(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "build_summary_20260301_100000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Run ID:         run-1")
	assert.Contains(t, text, "Status:         FAILED")
	assert.Contains(t, text, "Succeeded:      1")
	assert.Contains(t, text, "FAILED")
	assert.True(t, strings.HasSuffix(text, "End of Summary\n"))
}

func TestIsWithin(t *testing.T) {
	base := t.TempDir()
	build := filepath.Join(base, "build")

	assert.True(t, IsWithin(build, build))
	assert.True(t, IsWithin(filepath.Join(build, "report.xlsx"), build))
	assert.False(t, IsWithin(filepath.Join(base, "report.xlsx"), build))
	assert.False(t, IsWithin(filepath.Join(base, "build2", "report.xlsx"), build))
	assert.True(t, IsWithin(filepath.Join(base, "..x"), base), "a child named ..x is still inside")
}

