// =============================================================================
// ecvt-build - OpenSCAD Command Line
// =============================================================================
//
// One render is one OpenSCAD invocation:
//
//   openscad -o <output> -p <params.json> -P <set> -D selected_part="<part>"
//            [--backend=manifold] [--hardwarnings] <model.scad>
//
// The argument vector is handed straight to the child process, never to a
// shell. The -D value is a single element; its quotes belong to OpenSCAD's
// expression syntax and make the part name a string literal.
//
// =============================================================================

package render

import (
	"fmt"

	"github.com/ginjaninja78/ecvt-build/internal/types"
)

// Flags understood by OpenSCAD.
const (
	FlagOutput       = "-o"
	FlagParamFile    = "-p"
	FlagParamSet     = "-P"
	FlagDefine       = "-D"
	FlagManifold     = "--backend=manifold"
	FlagHardWarnings = "--hardwarnings"
)

// Command holds everything that is the same for every render of a run.
type Command struct {
	// Tool is the OpenSCAD executable (argv[0]).
	Tool string

	// ModelFile is the shared parametric model, always the last argument.
	ModelFile string

	// ParamsFile is passed with -p.
	ParamsFile string

	// PartVariable is the model variable assigned with -D.
	PartVariable string

	// UseManifold adds --backend=manifold.
	UseManifold bool

	// HardWarnings adds --hardwarnings.
	HardWarnings bool
}

// Define returns the -D assignment selecting part, e.g. selected_part="base".
func (c Command) Define(part string) string {
	return fmt.Sprintf(`%s="%s"`, c.PartVariable, part)
}

// Args returns the arguments (without argv[0]) rendering unit.
func (c Command) Args(unit types.BuildUnit) []string {
	args := []string{
		FlagOutput, unit.OutputPath,
		FlagParamFile, c.ParamsFile,
		FlagParamSet, unit.ParameterSet,
		FlagDefine, c.Define(unit.Part),
	}
	if c.UseManifold {
		args = append(args, FlagManifold)
	}
	if c.HardWarnings {
		args = append(args, FlagHardWarnings)
	}
	return append(args, c.ModelFile)
}

// Argv returns the full argument vector including the tool.
func (c Command) Argv(unit types.BuildUnit) []string {
	return append([]string{c.Tool}, c.Args(unit)...)
}
