// Package toolpath triggers engine-wide toolpath regeneration and verifies
// the outcome per setup.
package toolpath

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campipe/internal/fault"
	"campipe/internal/host"
	"campipe/internal/result"
)

// RegenerateAll regenerates toolpaths for every setup in the CAM product
// with a single engine trigger, then verifies each setup. The returned error
// is non-nil only for engine-level faults (generation error or timeout);
// per-setup verification failures are reported through the results and the
// overall success flag.
func RegenerateAll(ctx context.Context, cam host.CamContext, timeout time.Duration) (bool, string, []result.Result, error) {
	setups := cam.Setups()
	if len(setups) == 0 {
		return false, "No CAM setups found in document", nil,
			fault.New(fault.SetupNotFound, "no CAM setups found in document")
	}
	return regenerate(ctx, cam, setups, timeout)
}

// RegenerateSelected regenerates with the same single engine trigger but
// verifies only the named setups. Every name must exist; an unknown name
// fails the whole call before the engine runs.
func RegenerateSelected(ctx context.Context, cam host.CamContext, names []string, timeout time.Duration) (bool, string, []result.Result, error) {
	verify, err := SelectSetups(cam, names)
	if err != nil {
		return false, fault.MessageOf(err), nil, err
	}
	return regenerate(ctx, cam, verify, timeout)
}

// SelectSetups resolves setup names against the CAM product, preserving the
// requested order. Every name must exist; an unknown name fails the whole
// call with a SetupNotFound fault naming both the missing setups and the
// ones that exist.
func SelectSetups(cam host.CamContext, names []string) ([]host.Setup, error) {
	all := cam.Setups()
	available := make([]string, 0, len(all))
	byName := make(map[string]host.Setup, len(all))
	for _, s := range all {
		available = append(available, s.Name())
		byName[s.Name()] = s
	}

	var missing []string
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fault.New(fault.SetupNotFound, "Setup(s) not found: %s. Available: %s",
			strings.Join(missing, ", "), strings.Join(available, ", "))
	}

	selected := make([]host.Setup, 0, len(names))
	for _, name := range names {
		selected = append(selected, byName[name])
	}
	return selected, nil
}

func regenerate(ctx context.Context, gen host.ToolpathGenerator, verify []host.Setup, timeout time.Duration) (bool, string, []result.Result, error) {
	genCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := gen.Generate(genCtx); err != nil {
		var msg string
		var ferr error
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			msg = fmt.Sprintf("Generation timed out after %s", timeout)
			ferr = fault.Wrap(fault.GenerateTimeout, err, "toolpath generation exceeded %s", timeout)
		} else {
			msg = fmt.Sprintf("Generation failed: %v", err)
			ferr = fault.Wrap(fault.RegenerateFailed, err, "toolpath generation failed")
		}

		results := make([]result.Result, 0, len(verify))
		names := make([]string, 0, len(verify))
		for _, s := range verify {
			results = append(results, result.Fail(s.Name(), msg))
			names = append(names, s.Name())
		}
		summary := fmt.Sprintf("Toolpath regeneration failed for setup(s): %s", strings.Join(names, ", "))
		return false, summary, results, ferr
	}

	results := make([]result.Result, 0, len(verify))
	var failed []string
	for _, s := range verify {
		r := verifySetup(s)
		results = append(results, r)
		if !r.Success {
			failed = append(failed, r.Name)
		}
	}

	if len(failed) == 0 {
		return true, fmt.Sprintf("All toolpaths regenerated successfully for %d setup(s)", len(verify)), results, nil
	}
	summary := fmt.Sprintf("Toolpath regeneration failed for setup(s): %s", strings.Join(failed, ", "))
	return false, summary, results, nil
}

// verifySetup classifies one setup after a generation pass. A setup passes
// when at least one operation carries a toolpath, or when every operation
// without one is either suppressed or was already broken before the pass.
func verifySetup(setup host.Setup) result.Result {
	var total, suppressed, withToolpaths, newlyBroken int
	for _, op := range setup.Operations() {
		total++
		if op.IsSuppressed() {
			suppressed++
			continue
		}
		if op.HasToolpath() {
			withToolpaths++
		} else if op.Error() == "" {
			newlyBroken++
		}
	}

	if withToolpaths > 0 {
		msg := fmt.Sprintf("Regenerated %d/%d toolpaths", withToolpaths, total)
		if failed := total - withToolpaths; failed > 0 {
			msg += fmt.Sprintf(" (%d operation(s) have errors - not regenerated)", failed)
		}
		return result.Ok(setup.Name(), msg)
	}

	if total > 0 && newlyBroken == 0 {
		if active := total - suppressed; active > 0 {
			return result.Ok(setup.Name(), fmt.Sprintf("All %d operation(s) have errors - none regenerated", active))
		}
		return result.Ok(setup.Name(), "All operations suppressed - nothing to regenerate")
	}
	return result.Fail(setup.Name(), fmt.Sprintf("No operations regenerated (%d total)", total))
}
