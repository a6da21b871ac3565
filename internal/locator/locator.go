// =============================================================================
// ecvt-build - OpenSCAD Locator
// =============================================================================
//
// The locator decides which OpenSCAD executable a build run uses.
//
// RESOLUTION ORDER:
//   1. An explicit path (--openscad_path or openscad_path in the settings
//      file) is used verbatim. It is not probed; a bad path surfaces at the
//      first render.
//   2. Otherwise each candidate is launched with --version, in order. The
//      first one that starts wins. A candidate that starts but exits non-zero
//      still counts as found: only a failure to launch moves on to the next.
//   3. If nothing launches the run aborts with a ToolNotFound error before
//      the build folder is touched.
//
// =============================================================================

package locator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"runtime"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/internal/logging"
)

// VersionFlag is the harmless argument used to probe a candidate.
const VersionFlag = "--version"

// =============================================================================
// CANDIDATES
// =============================================================================

// DefaultCandidates returns the discovery list for the given GOOS.
func DefaultCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			"openscad",
			`C:\Program Files\OpenSCAD (Nightly)\openscad.exe`,
			`C:\Program Files\OpenSCAD\openscad.exe`,
		}
	case "darwin":
		return []string{
			"openscad",
			"/Applications/OpenSCAD.app/Contents/MacOS/OpenSCAD",
		}
	default:
		return []string{
			"openscad",
			"/usr/bin/openscad",
			"/usr/local/bin/openscad",
			"/snap/bin/openscad",
		}
	}
}

// HostCandidates returns the discovery list for the running platform.
func HostCandidates() []string {
	return DefaultCandidates(runtime.GOOS)
}

// =============================================================================
// PROBING
// =============================================================================

// ProbeResult is the outcome of probing one candidate.
type ProbeResult int

const (
	// ProbeNotFound means the candidate could not be launched.
	ProbeNotFound ProbeResult = iota
	// ProbeFound means the candidate started, whatever its exit status.
	ProbeFound
)

func (r ProbeResult) String() string {
	if r == ProbeFound {
		return "found"
	}
	return "not found"
}

// Prober launches a candidate executable.
// Errors other than "could not launch" are returned and abort discovery.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// ExecProber probes candidates by running them with --version.
type ExecProber struct {
	// Stdout and Stderr receive the candidate's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Probe implements Prober.
func (p ExecProber) Probe(ctx context.Context, path string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, path, VersionFlag)
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	err := cmd.Run()
	if err == nil {
		return ProbeFound, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ProbeFound, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ProbeNotFound, ctxErr
	}
	if isLaunchFailure(err) {
		return ProbeNotFound, nil
	}
	return ProbeNotFound, err
}

// isLaunchFailure reports whether err means the executable could not be
// started at all.
func isLaunchFailure(err error) bool {
	if errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolution describes the executable chosen for a run.
type Resolution struct {
	// Path is passed as argv[0] to every render.
	Path string

	// Explicit is true when Path was supplied rather than discovered.
	Explicit bool

	// Tried lists the candidates probed before Path was found.
	Tried []string
}

// Locate resolves the OpenSCAD executable.
func Locate(ctx context.Context, explicit string, candidates []string, prober Prober) (Resolution, error) {
	logger := logging.FromContext(ctx)

	if explicit != "" {
		logger.Debug("using explicit openscad path", "path", explicit)
		return Resolution{Path: explicit, Explicit: true}, nil
	}

	var tried []string
	for _, candidate := range candidates {
		result, err := prober.Probe(ctx, candidate)
		if err != nil {
			return Resolution{}, fmt.Errorf("probing %s: %w", candidate, err)
		}
		logger.Debug("probed openscad candidate", "path", candidate, "result", result)
		if result == ProbeFound {
			return Resolution{Path: candidate, Tried: tried}, nil
		}
		tried = append(tried, candidate)
	}

	return Resolution{Tried: tried}, builderr.New(builderr.KindToolNotFound,
		"OpenSCAD is not found! Please provide the OpenSCAD path using --openscad_path").
		WithContext("tried", len(tried))
}
