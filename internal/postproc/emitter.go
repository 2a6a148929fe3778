package postproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"campipe/internal/host"
	"campipe/internal/result"
)

// Emitter writes numbered NC programs through a host's post processing
// engine and verifies every claimed output on disk.
type Emitter struct {
	// Source allocates program numbers; shared across emitters so numbering
	// stays monotonic process-wide.
	Source ProgramSource
	// OutputDir receives the emitted .nc files.
	OutputDir string
	// PostConfig names the post processor configuration to use.
	PostConfig string
	// Timeout bounds a single post processing call; zero means unbounded.
	Timeout time.Duration
}

// EmitSetup posts one setup as <program>.nc. The setup must have at least
// one non-suppressed operation with a toolpath. After the engine returns,
// the output file must exist with non-zero size; an engine that claims
// success without producing output is reported as a verification failure.
func (e *Emitter) EmitSetup(ctx context.Context, engine host.PostProcessEngine, setup host.Setup, program int, opts map[string]any) result.PostResult {
	name := setup.Name()

	postable := false
	for _, op := range setup.Operations() {
		if op.HasToolpath() && !op.IsSuppressed() {
			postable = true
			break
		}
	}
	if !postable {
		return result.PostResult{
			Result: result.Fail(name, fmt.Sprintf("Setup '%s' has no valid toolpaths to post", name)),
		}
	}

	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return result.PostResult{
			Result: result.Fail(name, fmt.Sprintf("Post processing failed: %v", err)),
		}
	}

	programName := strconv.Itoa(program)
	filename := programName + ".nc"
	outPath := filepath.Join(e.OutputDir, filename)

	postCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		postCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	err := engine.PostProcess(postCtx, host.PostRequest{
		Setup:       setup,
		ProgramName: programName,
		OutputDir:   e.OutputDir,
		PostConfig:  e.PostConfig,
		Options:     opts,
	})
	if err != nil {
		msg := fmt.Sprintf("Post processing failed: %v", err)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			msg = fmt.Sprintf("Post processing timed out after %s", e.Timeout)
		}
		return result.PostResult{Result: result.Fail(name, msg)}
	}

	info, statErr := os.Stat(outPath)
	if statErr != nil {
		return result.PostResult{
			Result: result.Fail(name, fmt.Sprintf("Post process completed but file not found: %s", filename)),
		}
	}
	if info.Size() == 0 {
		return result.PostResult{
			Result: result.Fail(name, fmt.Sprintf("Post process completed but file is empty: %s", filename)),
		}
	}

	return result.PostResult{
		Result:     result.Ok(name, fmt.Sprintf("Generated %s (%d bytes)", filename, info.Size())),
		OutputFile: outPath,
	}
}

// EmitAll posts the given setups in order, allocating one program number per
// setup. The allocation happens before each attempt, so numbers are consumed
// even when an emission then fails. Emissions are independent; the batch
// succeeds when at least one setup posts.
func (e *Emitter) EmitAll(ctx context.Context, engine host.PostProcessEngine, setups []host.Setup, opts map[string]any) (bool, string, []result.PostResult) {
	results := make([]result.PostResult, 0, len(setups))
	successes := 0

	for _, setup := range setups {
		program, err := e.Source.Next()
		if err != nil {
			results = append(results, result.PostResult{
				Result: result.Fail(setup.Name(), fmt.Sprintf("Failed to allocate program number: %v", err)),
			})
			continue
		}

		res := e.EmitSetup(ctx, engine, setup, program, opts)
		results = append(results, res)
		if res.Success {
			successes++
		}
	}

	switch {
	case len(setups) > 0 && successes == len(setups):
		return true, fmt.Sprintf("All %d setup(s) post processed successfully", len(setups)), results
	case successes > 0:
		return true, fmt.Sprintf("%d/%d setup(s) post processed successfully", successes, len(setups)), results
	default:
		return false, fmt.Sprintf("Post processing failed for all %d setup(s)", len(setups)), results
	}
}
