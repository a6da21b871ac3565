// =============================================================================
// ecvt-build - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - render
//   - report
//   - utils (file manager)
//
// =============================================================================

package types

import (
	"fmt"
	"path/filepath"
	"time"
)

// =============================================================================
// BUILD UNIT
// =============================================================================

// BuildUnit is one (parameter set, part) pair. Each unit maps to exactly one
// OpenSCAD invocation and one output mesh file.
type BuildUnit struct {
	// Index is the position of the unit in the build plan (0-indexed).
	Index int

	// ParameterSet is the name of the parameter set selected with -P.
	ParameterSet string

	// Part is the value assigned to the part selector variable with -D.
	Part string

	// OutputPath is where OpenSCAD writes the mesh for this unit.
	OutputPath string
}

// String returns a short human-readable label, e.g. "carrier/default".
func (u BuildUnit) String() string {
	return fmt.Sprintf("%s/%s", u.Part, u.ParameterSet)
}

// OutputPath returns <buildFolder>/<set>/<part>_<set>.<ext>.
func OutputPath(buildFolder, set, part, ext string) string {
	return filepath.Join(buildFolder, set, fmt.Sprintf("%s_%s.%s", part, set, ext))
}

// Plan expands the Cartesian product of parameter sets and parts. Parameter
// sets form the outer loop and parts the inner loop, so the plan order follows
// the order of both input slices.
func Plan(buildFolder string, sets, parts []string, ext string) []BuildUnit {
	units := make([]BuildUnit, 0, len(sets)*len(parts))
	for _, set := range sets {
		for _, part := range parts {
			units = append(units, BuildUnit{
				Index:        len(units),
				ParameterSet: set,
				Part:         part,
				OutputPath:   OutputPath(buildFolder, set, part, ext),
			})
		}
	}
	return units
}

// =============================================================================
// UNIT RESULT
// =============================================================================

// UnitResult records the outcome of a single OpenSCAD invocation.
type UnitResult struct {
	Unit BuildUnit

	// StartTime and EndTime bracket the child process.
	StartTime time.Time
	EndTime   time.Time

	// ExitCode is the child's exit status, or -1 if it never started.
	ExitCode int

	// Error is nil when the unit succeeded.
	Error error
}

// Success reports whether the unit produced its output without error.
func (r UnitResult) Success() bool {
	return r.Error == nil
}

// Duration returns the wall-clock time spent on the unit.
func (r UnitResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
