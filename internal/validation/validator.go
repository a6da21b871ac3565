// =============================================================================
// ecvt-build - Plan Validation
// =============================================================================
//
// Validation runs after the settings and parameter file are loaded and
// before OpenSCAD is located or the build folder is touched. It catches
// inputs that would otherwise fail halfway through a batch:
//
//   - Parameter-set names become directory names and -P values, so they
//     must be non-empty path segments.
//   - Part names become file names and the body of an OpenSCAD string
//     literal, so they may not contain quotes, backslashes or separators.
//   - The model and parameter files must exist.
//   - Report files must not be written inside the build folder, which has
//     to contain nothing but meshes.
//
// Errors are collected rather than returned one at a time, so a single run
// lists every problem.
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/pkg/utils"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single problem with the build plan.
type ValidationError struct {
	// Field names the input, e.g. "parameter set" or "part".
	Field string

	// Value is the offending value.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

// ValidationResult contains the results of validation.
type ValidationResult struct {
	Errors []*ValidationError
}

// IsValid is true if no problems were found.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Err converts the result into a Configuration error, or nil when valid.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	lines := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		lines = append(lines, "  - "+e.Error())
	}
	return builderr.New(builderr.KindConfiguration,
		"build plan is invalid (%d problem(s)):\n%s", len(r.Errors), strings.Join(lines, "\n"))
}

func (r *ValidationResult) add(field, value, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// =============================================================================
// PLAN INPUT
// =============================================================================

// Plan is everything validation looks at.
type Plan struct {
	ParameterSets []string
	Parts         []string
	ModelFile     string
	ParamsFile    string
	BuildFolder   string

	// ReportPaths are files or directories written next to the build.
	ReportPaths []string
}

// Validate checks the plan and returns every problem found.
func Validate(p Plan) *ValidationResult {
	result := &ValidationResult{}

	validateNames(result, "parameter set", p.ParameterSets, false)
	if len(p.Parts) == 0 {
		result.add("parts", "", "at least one part is required")
	}
	validateNames(result, "part", p.Parts, true)

	validateFile(result, "model file", p.ModelFile)
	validateFile(result, "parameter file", p.ParamsFile)

	if p.BuildFolder == "" {
		result.add("build folder", "", "must not be empty")
	}
	for _, path := range p.ReportPaths {
		if path != "" && p.BuildFolder != "" && utils.IsWithin(path, p.BuildFolder) {
			result.add("report path", path, "must not be inside the build folder %s", p.BuildFolder)
		}
	}

	return result
}

// validateNames checks a list of names used as path segments. Parts are
// also embedded in an OpenSCAD string literal.
func validateNames(result *ValidationResult, field string, names []string, literal bool) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			result.add(field, name, "is listed more than once")
			continue
		}
		seen[name] = true

		switch {
		case strings.TrimSpace(name) == "":
			result.add(field, name, "must not be empty")
		case name == "." || name == "..":
			result.add(field, name, "is not a usable directory or file name")
		case strings.ContainsAny(name, `/\`):
			result.add(field, name, "must not contain path separators")
		case strings.ContainsFunc(name, unicode.IsControl):
			result.add(field, name, "must not contain control characters")
		case literal && strings.Contains(name, `"`):
			result.add(field, name, "must not contain double quotes")
		}
	}
}

func validateFile(result *ValidationResult, field, path string) {
	if path == "" {
		result.add(field, path, "must not be empty")
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		result.add(field, path, "cannot be read: %v", err)
		return
	}
	if info.IsDir() {
		result.add(field, path, "is a directory")
	}
}
