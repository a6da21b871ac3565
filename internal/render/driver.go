// =============================================================================
// ecvt-build - Render Driver
// =============================================================================
//
// The driver runs one OpenSCAD process per build unit and stops at the first
// failure. No retry, no skip-and-continue: a failed render invalidates the
// whole batch.
//
// EXECUTION MODES:
//   Jobs <= 1 : units run one after another in plan order. When unit k fails,
//               units after k are never started.
//   Jobs > 1  : units are dispatched in plan order to at most Jobs concurrent
//               processes. The first failure cancels the shared context, so
//               nothing new is dispatched and running renders are killed.
//
// A unit that fails or is killed has its output file removed, so the build
// folder only ever holds meshes from renders that exited 0.
//
// Output paths never collide, so units need no coordination beyond the
// result collector.
//
// =============================================================================

package render

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/ecvt-build/internal/builderr"
	"github.com/ginjaninja78/ecvt-build/internal/logging"
	"github.com/ginjaninja78/ecvt-build/internal/types"
)

// Driver renders build units.
type Driver struct {
	Command Command
	Runner  Runner

	// Jobs is the maximum number of concurrent renders. Values below 2 run
	// sequentially.
	Jobs int

	// OnResult, if set, is called once per finished unit. Calls are
	// serialized.
	OnResult func(types.UnitResult)

	// now is replaced in tests.
	now func() time.Time

	mu      sync.Mutex
	results []types.UnitResult
}

// EffectiveJobs clamps a requested worker count to [1, cpus]. A request of
// zero or less means one worker per CPU.
func EffectiveJobs(requested, cpus int) int {
	if cpus < 1 {
		cpus = 1
	}
	if requested <= 0 || requested > cpus {
		return cpus
	}
	return requested
}

// Run renders units and returns the results of every unit that was started,
// ordered by plan index. The error is the first BuildUnit failure, or the
// context's error if the run was cancelled.
func (d *Driver) Run(ctx context.Context, units []types.BuildUnit) ([]types.UnitResult, error) {
	d.mu.Lock()
	d.results = make([]types.UnitResult, 0, len(units))
	d.mu.Unlock()

	var err error
	if d.Jobs > 1 && len(units) > 1 {
		err = d.runParallel(ctx, units)
	} else {
		err = d.runSequential(ctx, units)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	results := d.results
	sort.Slice(results, func(i, j int) bool { return results[i].Unit.Index < results[j].Unit.Index })
	return results, err
}

func (d *Driver) runSequential(ctx context.Context, units []types.BuildUnit) error {
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := d.render(ctx, unit, len(units))
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (d *Driver) runParallel(ctx context.Context, units []types.BuildUnit) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Jobs)

	for _, unit := range units {
		// g.Go blocks while Jobs renders are in flight, so this check runs
		// right before each dispatch.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return d.render(gctx, unit, len(units)).Error
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// render runs a single unit and records its result.
func (d *Driver) render(ctx context.Context, unit types.BuildUnit, total int) types.UnitResult {
	logger := logging.FromContext(ctx)
	now := d.now
	if now == nil {
		now = time.Now
	}

	logger.Info("rendering",
		"unit", unit.Index+1,
		"of", total,
		"part", unit.Part,
		"parameter_set", unit.ParameterSet,
	)
	logger.Debug("openscad command", "argv", d.Command.Argv(unit))

	res := types.UnitResult{Unit: unit, StartTime: now()}
	code, err := d.Runner.Run(ctx, d.Command.Tool, d.Command.Args(unit))
	res.EndTime = now()
	res.ExitCode = code

	if err != nil {
		res.Error = builderr.Wrap(err, builderr.KindBuildUnit,
			"openscad failed for part %q of parameter set %q", unit.Part, unit.ParameterSet).
			WithContext("exit_code", code).
			WithContext("output", unit.OutputPath)
		if rmErr := os.Remove(unit.OutputPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warn("failed to remove partial output", "path", unit.OutputPath, "error", rmErr)
		}
	}

	d.mu.Lock()
	d.results = append(d.results, res)
	if d.OnResult != nil {
		d.OnResult(res)
	}
	d.mu.Unlock()

	return res
}
