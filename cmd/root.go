// =============================================================================
// ecvt-build - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Running the root
// command performs a build: every part of ecvt.scad is rendered for every
// parameter set in ecvt.json.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ecvt-build)        - render all parts
//   └── versionCmd (version)    - print version information
//
// EXIT STATUS:
//   0  success
//   2  configuration error (settings, parameter file, validation)
//   3  OpenSCAD not found
//   4  build folder could not be reset
//   5  an OpenSCAD render failed
//   1  anything else
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the build settings file.
var cfgFile string

// openscadPath overrides OpenSCAD discovery.
var openscadPath string

// jobs is the number of concurrent renders.
var jobs int

// reportPath is where the XLSX build report is written.
var reportPath string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command. Without a subcommand it builds.
var rootCmd = &cobra.Command{
	Use:   "ecvt-build",
	Short: "Render every ecvt part for every parameter set with OpenSCAD",
	Long: `ecvt-build renders the parts of the ecvt model to STL files.

For each parameter set in the parameter file (ecvt.json) and each part name,
OpenSCAD is invoked once and writes:

  build/<parameter-set>/<part>_<parameter-set>.stl

The build folder is deleted and recreated on every run. The first failed
render stops the build; its output, and that of any render killed with it,
is removed. A parameter file with no parameter sets leaves the build folder
empty.

Example Usage:
  ecvt-build                                     # discover OpenSCAD and build
  ecvt-build --openscad_path /opt/openscad/bin/openscad
  ecvt-build --jobs 4 --report reports/build.xlsx`,

	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		opts := buildOptions{
			ConfigFile:     cfgFile,
			ConfigRequired: cmd.Flags().Changed("config"),
			OpenSCADPath:   openscadPath,
			ReportPath:     reportPath,
			Verbose:        verbose,
		}
		if cmd.Flags().Changed("jobs") {
			opts.Jobs = &jobs
		}
		return runBuild(cmd.Context(), opts, defaultDeps(cmd))
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits with the status matching the
// error kind. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(builderr.ExitCode(err))
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the command-line flags.
func init() {
	flags := rootCmd.Flags()

	flags.StringVar(
		&openscadPath,
		"openscad_path",
		"",
		"Path to the OpenSCAD executable (skips auto-discovery)",
	)

	flags.StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the build settings file (optional unless given explicitly)",
	)

	flags.IntVarP(
		&jobs,
		"jobs",
		"j",
		1,
		"Number of OpenSCAD processes to run at once (0 = one per CPU)",
	)

	flags.StringVar(
		&reportPath,
		"report",
		"",
		"Write an XLSX build report to this path",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
