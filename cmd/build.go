// =============================================================================
// ecvt-build - Build Pipeline
// =============================================================================
//
// runBuild orchestrates a complete build run.
//
// PROCESSING PIPELINE:
//   1. Load build settings and apply flag overrides
//   2. Load the parameter file
//   3. Validate the build plan
//   4. Locate OpenSCAD
//   5. Reset the build folder
//   6. Render every (parameter set, part) pair, stopping at the first failure
//   7. Write the optional report and summary, print the result
//
// Steps 1-4 never touch the build folder, so configuration errors and a
// missing OpenSCAD leave the previous build intact.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/internal/config"
	"github.com/ginjaninja78/ecvt-build/internal/locator"
	"github.com/ginjaninja78/ecvt-build/internal/logging"
	"github.com/ginjaninja78/ecvt-build/internal/params"
	"github.com/ginjaninja78/ecvt-build/internal/render"
	"github.com/ginjaninja78/ecvt-build/internal/report"
	"github.com/ginjaninja78/ecvt-build/internal/types"
	"github.com/ginjaninja78/ecvt-build/internal/validation"
	"github.com/ginjaninja78/ecvt-build/pkg/utils"
)

// =============================================================================
// OPTIONS AND DEPENDENCIES
// =============================================================================

// buildOptions are the command-line inputs of a build.
type buildOptions struct {
	ConfigFile     string
	ConfigRequired bool
	OpenSCADPath   string
	Jobs           *int
	ReportPath     string
	Verbose        bool
}

// buildDeps are the side-effecting collaborators of a build. Tests replace
// the prober and runner with fakes.
type buildDeps struct {
	Stdout io.Writer
	Stderr io.Writer
	Prober locator.Prober
	Runner render.Runner
	CPUs   int
	Now    func() time.Time
}

// defaultDeps wires the real process launcher to the command's streams.
// OpenSCAD's own output goes straight to the terminal.
func defaultDeps(cmd *cobra.Command) buildDeps {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	return buildDeps{
		Stdout: stdout,
		Stderr: stderr,
		Prober: locator.ExecProber{Stdout: stdout, Stderr: stderr},
		Runner: render.ExecRunner{Stdout: stdout, Stderr: stderr},
		CPUs:   runtime.NumCPU(),
		Now:    time.Now,
	}
}

// =============================================================================
// MAIN BUILD FUNCTION
// =============================================================================

// runBuild is the main function that orchestrates the build pipeline.
func runBuild(ctx context.Context, opts buildOptions, deps buildDeps) error {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	startTime := now()

	// =========================================================================
	// STEP 1: LOAD BUILD SETTINGS
	// =========================================================================

	cfg, err := config.Load(opts.ConfigFile, opts.ConfigRequired)
	if err != nil {
		return builderr.Wrap(err, builderr.KindConfiguration, "failed to load build settings")
	}
	applyOverrides(cfg, opts)

	logger, err := logging.New(deps.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return builderr.Wrap(err, builderr.KindConfiguration, "failed to configure logging")
	}
	ctx = logging.WithLogger(ctx, logger)

	// =========================================================================
	// STEP 2: LOAD PARAMETER SETS
	// =========================================================================

	doc, err := params.Load(cfg.ParamsFile)
	if err != nil {
		return builderr.Wrap(err, builderr.KindConfiguration, "failed to load parameter sets")
	}
	logger.Debug("loaded parameter sets", "file", doc.Path, "sets", doc.Names)
	for _, name := range doc.Names {
		logger.Debug("parameter set", "name", name, "definition", string(doc.Sets[name]))
	}

	// =========================================================================
	// STEP 3: VALIDATE THE PLAN
	// =========================================================================

	plan := validation.Plan{
		ParameterSets: doc.Names,
		Parts:         cfg.Parts,
		ModelFile:     cfg.ModelFile,
		ParamsFile:    cfg.ParamsFile,
		BuildFolder:   cfg.BuildFolder,
		ReportPaths:   []string{cfg.ReportPath, cfg.SummaryDir},
	}
	if err := validation.Validate(plan).Err(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: LOCATE OPENSCAD
	// =========================================================================

	candidates := cfg.OpenSCADCandidates
	if len(candidates) == 0 {
		candidates = locator.HostCandidates()
	}
	tool, err := locator.Locate(ctx, cfg.OpenSCADPath, candidates, deps.Prober)
	if err != nil {
		return err
	}
	logger.Info("using openscad", "path", tool.Path, "explicit", tool.Explicit)

	// =========================================================================
	// STEP 5: RESET THE BUILD FOLDER
	// =========================================================================

	fm := utils.NewFileManager(cfg.BuildFolder)
	if err := fm.ResetBuildTree(doc.Names); err != nil {
		return err
	}

	// =========================================================================
	// STEP 6: RENDER
	// =========================================================================

	units := types.Plan(cfg.BuildFolder, doc.Names, cfg.Parts, cfg.MeshExtension)
	workers := render.EffectiveJobs(cfg.JobCount(), deps.CPUs)
	logger.Info("starting build",
		"parameter_sets", len(doc.Names),
		"parts", len(cfg.Parts),
		"units", len(units),
		"jobs", workers,
	)

	driver := &render.Driver{
		Command: render.Command{
			Tool:         tool.Path,
			ModelFile:    cfg.ModelFile,
			ParamsFile:   cfg.ParamsFile,
			PartVariable: cfg.PartVariable,
			UseManifold:  cfg.Manifold(),
			HardWarnings: cfg.HardWarnings,
		},
		Runner: deps.Runner,
		Jobs:   workers,
		OnResult: func(r types.UnitResult) {
			if r.Success() {
				fmt.Fprintf(deps.Stdout, "  ✓ %s (%s)\n", r.Unit.OutputPath, r.Duration().Round(time.Millisecond))
			} else {
				fmt.Fprintf(deps.Stdout, "  ✗ %s\n", r.Unit.OutputPath)
			}
		},
	}
	results, buildErr := driver.Run(ctx, units)

	if buildErr == nil {
		if missing := fm.VerifyOutputs(units); len(missing) > 0 {
			logger.Warn("openscad reported success but some outputs are missing or empty", "files", missing)
		}
	}

	// =========================================================================
	// STEP 7: REPORT
	// =========================================================================

	endTime := now()
	writeReports(ctx, cfg, tool.Path, startTime, endTime, len(units), results, buildErr)

	if buildErr != nil {
		return buildErr
	}

	fmt.Fprintf(deps.Stdout, "\nDone: %d file(s) in %s (%s)\n",
		len(results), cfg.BuildFolder, endTime.Sub(startTime).Round(time.Millisecond))
	return nil
}

// applyOverrides copies command-line values over the settings file.
func applyOverrides(cfg *config.BuildConfig, opts buildOptions) {
	if opts.OpenSCADPath != "" {
		cfg.OpenSCADPath = opts.OpenSCADPath
	}
	if opts.Jobs != nil {
		jobs := *opts.Jobs
		cfg.Jobs = &jobs
	}
	if opts.ReportPath != "" {
		cfg.ReportPath = opts.ReportPath
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
}

// writeReports writes the XLSX report and text summary when configured.
// Failures are logged; they never replace the build's own outcome.
func writeReports(ctx context.Context, cfg *config.BuildConfig, toolPath string, start, end time.Time, planned int, results []types.UnitResult, buildErr error) {
	if cfg.ReportPath == "" && cfg.SummaryDir == "" {
		return
	}
	logger := logging.FromContext(ctx)
	runID := report.NewRunID()

	if cfg.ReportPath != "" {
		run := report.Run{
			ID:        runID,
			ToolPath:  toolPath,
			StartTime: start,
			EndTime:   end,
			Results:   results,
			Error:     buildErr,
		}
		if err := report.Write(cfg.ReportPath, run); err != nil {
			logger.Error("failed to write build report", "path", cfg.ReportPath, "error", err)
		} else {
			logger.Info("wrote build report", "path", filepath.Clean(cfg.ReportPath), "run_id", runID)
		}
	}

	if cfg.SummaryDir != "" {
		summary := utils.BuildSummary{
			RunID:      runID,
			StartTime:  start,
			EndTime:    end,
			ToolPath:   toolPath,
			TotalUnits: planned,
			Results:    results,
			Error:      buildErr,
		}
		if path, err := utils.WriteSummaryLog(summary, cfg.SummaryDir); err != nil {
			logger.Error("failed to write build summary", "dir", cfg.SummaryDir, "error", err)
		} else {
			logger.Info("wrote build summary", "path", path)
		}
	}
}
