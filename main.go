// =============================================================================
// ecvt-build - Main Entry Point
// =============================================================================
//
// This is the main entry point for the ecvt-build CLI. It renders every part
// of the ecvt OpenSCAD model for every parameter set in ecvt.json.
//
// USAGE:
//   ecvt-build                         - Render all parts for all parameter sets
//   ecvt-build --openscad_path <path>  - Use a specific OpenSCAD executable
//   ecvt-build version                 - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra) and the build pipeline
//   - internal/  : settings, parameter file, locator, render driver, reports
//   - pkg/       : build folder management
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ecvt-build/cmd"
)

// main delegates to the cmd package, which runs the Cobra CLI and sets the
// exit status.
func main() {
	cmd.Execute()
}
