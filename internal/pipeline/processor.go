// Package pipeline runs manufacturing orders end to end: load and validate
// the order document, then per component resolve the model document, apply
// parameters, regenerate toolpaths and post process setups into numbered NC
// programs. Components run strictly in sequence; one component's failure
// never stops the ones after it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"campipe/internal/db"
	"campipe/internal/fault"
	"campipe/internal/host"
	"campipe/internal/notify"
	"campipe/internal/order"
	"campipe/internal/params"
	"campipe/internal/postproc"
	"campipe/internal/result"
	"campipe/internal/telemetry"
	"campipe/internal/toolpath"

	"github.com/google/uuid"
)

// Options carries the run-level knobs a Processor applies to every order.
type Options struct {
	// OutputDir receives emitted NC programs; an order-level outputConfig
	// can override it.
	OutputDir string
	// IncludeTimestamp routes programs into a per-run <orderId>_<timestamp>
	// subdirectory of OutputDir.
	IncludeTimestamp bool
	// PostConfig names the post processor configuration, e.g. "richauto.cps".
	PostConfig string
	// GenerateTimeout bounds toolpath regeneration per component; zero
	// means unbounded.
	GenerateTimeout time.Duration
	// PostTimeout bounds a single post processing call; zero means
	// unbounded.
	PostTimeout time.Duration
}

// Processor wires the host capabilities to the run-level side channels.
// Journal, Notifier and Metrics are optional: a nil journal records
// nothing, a nil notifier tells nobody and nil metrics count nothing.
type Processor struct {
	Source  host.DocumentSource
	Counter postproc.ProgramSource
	Options Options

	Journal  db.Store
	Notifier *notify.Manager
	Metrics  *telemetry.Metrics

	// now is stubbed in tests for stable output directory names.
	now func() time.Time
}

// New builds a Processor over the given document source and program
// counter. Side channels are optional fields; leave them nil to run
// without them.
func New(source host.DocumentSource, counter postproc.ProgramSource, opts Options) *Processor {
	return &Processor{Source: source, Counter: counter, Options: opts}
}

func (p *Processor) timeNow() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// ProcessOrder runs the order file at path end to end and always returns a
// structured Report; it never returns an error. The run aborts before any
// side effect only when the order cannot be loaded or fails validation;
// after that every component is attempted, whatever happened to the ones
// before it.
func (p *Processor) ProcessOrder(ctx context.Context, path string) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		OrderFile: path,
		StartedAt: p.timeNow(),
	}
	logger := telemetry.WithRun(report.RunID)

	logger.Info("Loading order", "file", path)
	ord, validation, err := order.Load(path)
	if err != nil {
		report.ValidationErrors = validation.Errors
		report.Status = StatusFailed
		if fault.Is(err, fault.OrderInvalid) {
			report.Message = fmt.Sprintf("Order validation failed:\n%s", strings.Join(validation.Errors, "\n"))
		} else {
			report.Message = fmt.Sprintf("Failed to load order file: %s", fault.MessageOf(err))
		}
		report.FinishedAt = p.timeNow()
		logger.Error("Order rejected", "file", path, "error", err)
		if p.Metrics != nil {
			p.Metrics.OrdersProcessed.WithLabelValues(StatusFailed).Inc()
		}
		p.Notifier.Notify(ctx, notify.EventOrderFailure, report.Message)
		return report
	}

	report.OrderID = ord.OrderID
	report.Total = len(ord.Components)
	report.OutputDir = p.resolveOutputDir(ord)

	logger.Info("Processing order", "order_id", ord.OrderID,
		"components", report.Total, "output_dir", report.OutputDir)
	p.Notifier.Notify(ctx, notify.EventOrderStart,
		fmt.Sprintf("Processing order %s with %d component(s)", ord.OrderID, report.Total))
	p.journalStart(logger, report)

	emitter := &postproc.Emitter{
		Source:     p.Counter,
		OutputDir:  report.OutputDir,
		PostConfig: p.Options.PostConfig,
		Timeout:    p.Options.PostTimeout,
	}

	for i, comp := range ord.Components {
		outcome := p.processComponent(ctx, logger, emitter, comp, i+1, report.Total)
		report.Components = append(report.Components, outcome)
		if outcome.Success {
			report.Succeeded++
		} else {
			p.Notifier.Notify(ctx, notify.EventComponentFailure, outcome.Message)
		}
		if p.Metrics != nil {
			p.Metrics.ComponentsProcessed.WithLabelValues(componentStatus(outcome.Success)).Inc()
		}
		p.journalComponent(logger, report.RunID, outcome)
	}

	event := notify.EventOrderPartial
	if report.Succeeded == report.Total {
		report.Status = StatusCompleted
		report.Message = fmt.Sprintf("Order %s completed successfully!\n\nProcessed %d component(s)",
			ord.OrderID, report.Total)
		event = notify.EventOrderSuccess
	} else {
		report.Status = StatusPartial
		var b strings.Builder
		fmt.Fprintf(&b, "Order %s partially completed.\n\n", ord.OrderID)
		fmt.Fprintf(&b, "%d/%d components successful\n\n", report.Succeeded, report.Total)
		b.WriteString("Failed components:\n")
		for i, c := range report.Components {
			if !c.Success {
				fmt.Fprintf(&b, "  Component %d: %s\n", i+1, c.Message)
			}
		}
		report.Message = b.String()
	}
	report.FinishedAt = p.timeNow()

	p.journalFinish(logger, report)
	if p.Metrics != nil {
		p.Metrics.OrdersProcessed.WithLabelValues(report.Status).Inc()
	}
	p.Notifier.Notify(ctx, event, report.Message)

	logger.Info("Order processing complete", "order_id", ord.OrderID,
		"status", report.Status, "succeeded", report.Succeeded, "total", report.Total)
	return report
}

// processComponent walks one component through the full chain: completeness
// check, document resolution, parameter batch, toolpath regeneration and
// program emission. Every return path carries a human-readable message in
// the outcome; side effects stop at the first failing stage.
func (p *Processor) processComponent(ctx context.Context, logger *slog.Logger, emitter *postproc.Emitter, comp order.Component, num, total int) ComponentOutcome {
	started := time.Now()

	id := comp.ComponentID
	if id == "" {
		id = fmt.Sprintf("Component%d", num)
	}
	outcome := ComponentOutcome{ComponentID: id}

	fail := func(format string, args ...any) ComponentOutcome {
		outcome.Message = fmt.Sprintf(format, args...)
		outcome.Duration = time.Since(started)
		logger.Error("Component failed", "component_id", id, "message", outcome.Message)
		return outcome
	}

	logger.Info("Processing component", "component_id", id,
		"position", fmt.Sprintf("%d/%d", num, total),
		"model", comp.FusionModelPath, "parameters", len(comp.Parameters))

	if comp.FusionModelPath == "" {
		return fail("%s: No fusionModelPath specified", id)
	}
	if len(comp.Parameters) == 0 {
		return fail("%s: No parameters specified", id)
	}

	doc, err := p.resolveDocument(logger, comp.FusionModelPath)
	if err != nil {
		return fail("%s: Failed to open document: %s", id, fault.MessageOf(err))
	}

	store, err := doc.Design()
	if err != nil {
		return fail("%s: No design found in document", id)
	}

	logger.Info("Applying parameters", "component_id", id, "count", len(comp.Parameters))
	outcome.Parameters = params.ApplyBatch(store, comp.Parameters)
	for _, r := range outcome.Parameters {
		if p.Metrics != nil {
			p.Metrics.ParametersApplied.WithLabelValues(componentStatus(r.Success)).Inc()
		}
		if r.Success {
			logger.Debug("Parameter updated", "component_id", id, "detail", r.Message)
		} else {
			logger.Error("Parameter update failed", "component_id", id, "detail", r.Message)
		}
	}
	if failures := result.Failures(outcome.Parameters); len(failures) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "%s: Some parameters failed to update:\n", id)
		for _, f := range failures {
			fmt.Fprintf(&b, "  %s\n", f.Message)
		}
		return fail("%s", b.String())
	}

	cam, err := doc.Cam()
	if err != nil {
		return fail("%s: CAM access failed: %s", id, fault.MessageOf(err))
	}

	logger.Info("Regenerating toolpaths", "component_id", id)
	regenStart := time.Now()
	regenOK, regenMsg, regenResults, regenErr := toolpath.RegenerateAll(ctx, cam, p.Options.GenerateTimeout)
	if p.Metrics != nil {
		p.Metrics.RegenDuration.Observe(time.Since(regenStart).Seconds())
	}
	outcome.Setups = regenResults
	for _, r := range regenResults {
		if r.Success {
			logger.Info("Setup regenerated", "component_id", id, "setup", r.Name, "detail", r.Message)
		} else {
			logger.Error("Setup regeneration failed", "component_id", id, "setup", r.Name, "detail", r.Message)
		}
	}
	if fault.Is(regenErr, fault.SetupNotFound) {
		return fail("%s: No CAM setups found in document", id)
	}
	if !regenOK {
		return fail("%s: Toolpath regeneration failed: %s", id, regenMsg)
	}

	// setupNames narrows emission only; regeneration always covers every
	// setup because parameter changes can affect any of them.
	setups := cam.Setups()
	if len(comp.SetupNames) > 0 {
		selected, err := toolpath.SelectSetups(cam, comp.SetupNames)
		if err != nil {
			return fail("%s: %s", id, fault.MessageOf(err))
		}
		setups = selected
	}

	logger.Info("Post processing setups", "component_id", id, "setups", len(setups))
	postStart := time.Now()
	postOK, postMsg, postResults := emitter.EmitAll(ctx, cam, setups, comp.PostProcessorConfig)
	if p.Metrics != nil {
		p.Metrics.PostDuration.Observe(time.Since(postStart).Seconds())
	}
	outcome.Programs = postResults
	for _, r := range postResults {
		if r.Success {
			logger.Info("Program emitted", "component_id", id, "setup", r.Name, "file", r.OutputFile)
			if p.Metrics != nil {
				p.Metrics.ProgramsEmitted.Inc()
			}
		} else {
			logger.Error("Post processing failed", "component_id", id, "setup", r.Name, "detail", r.Message)
		}
	}
	if !postOK {
		return fail("%s: Post processing failed: %s", id, postMsg)
	}

	outcome.Success = true
	outcome.Message = fmt.Sprintf("%s: Complete - %d NC file(s) generated", id, outcome.ProgramCount())
	outcome.Duration = time.Since(started)
	logger.Info("Component complete", "component_id", id,
		"programs", outcome.ProgramCount(), "duration", outcome.Duration)
	return outcome
}

// resolveDocument reuses an already-open document whose name matches the
// model path's base name, with or without its extension, before asking the
// host to open the file. The base name is taken the same way for slash and
// backslash separated paths.
func (p *Processor) resolveDocument(logger *slog.Logger, path string) (host.Document, error) {
	base := filepath.Base(strings.ReplaceAll(path, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, doc := range p.Source.OpenDocuments() {
		if doc.Name() == base || doc.Name() == stem {
			logger.Info("Using already open document", "document", doc.Name())
			return doc, nil
		}
	}

	logger.Info("Opening document", "path", path)
	doc, err := p.Source.Open(path)
	if err != nil {
		logger.Error("Failed to open document", "path", path, "error", err)
		return nil, err
	}
	logger.Info("Document opened", "document", doc.Name())
	return doc, nil
}

// resolveOutputDir applies the order-level output overrides. With a
// timestamp requested by either the run options or the order, programs land
// in a per-run <orderId>_<timestamp> subdirectory.
func (p *Processor) resolveOutputDir(ord *order.Order) string {
	dir := p.Options.OutputDir
	stamp := p.Options.IncludeTimestamp
	if oc := ord.OutputConfig; oc != nil {
		if oc.BaseDirectory != "" {
			dir = oc.BaseDirectory
		}
		if oc.IncludeTimestamp {
			stamp = true
		}
	}
	if dir == "" {
		dir = "output"
	}
	if stamp {
		dir = filepath.Join(dir, fmt.Sprintf("%s_%s", ord.OrderID, p.timeNow().Format("20060102_150405")))
	}
	return dir
}

func (p *Processor) journalStart(logger *slog.Logger, report *Report) {
	if p.Journal == nil {
		return
	}
	run := db.Run{
		ID:         report.RunID,
		OrderID:    report.OrderID,
		OrderFile:  report.OrderFile,
		Status:     "running",
		Components: report.Total,
		StartedAt:  report.StartedAt,
	}
	if err := p.Journal.CreateRun(run); err != nil {
		logger.Error("Failed to journal run start", "error", err)
	}
}

func (p *Processor) journalComponent(logger *slog.Logger, runID string, outcome ComponentOutcome) {
	if p.Journal == nil {
		return
	}
	rec := db.ComponentRecord{
		RunID:       runID,
		ComponentID: outcome.ComponentID,
		Status:      componentStatus(outcome.Success),
		Message:     outcome.Message,
		Programs:    outcome.ProgramCount(),
		DurationMS:  outcome.Duration.Milliseconds(),
	}
	if err := p.Journal.SaveComponent(rec); err != nil {
		logger.Error("Failed to journal component", "component_id", outcome.ComponentID, "error", err)
	}

	for _, prog := range outcome.Programs {
		if !prog.Success || prog.OutputFile == "" {
			continue
		}
		var size int64
		if info, err := os.Stat(prog.OutputFile); err == nil {
			size = info.Size()
		}
		rec := db.ProgramRecord{
			RunID:         runID,
			ComponentID:   outcome.ComponentID,
			SetupName:     prog.Name,
			ProgramNumber: programNumber(prog.OutputFile),
			OutputFile:    prog.OutputFile,
			SizeBytes:     size,
		}
		if err := p.Journal.SaveProgram(rec); err != nil {
			logger.Error("Failed to journal program", "file", prog.OutputFile, "error", err)
		}
	}
}

func (p *Processor) journalFinish(logger *slog.Logger, report *Report) {
	if p.Journal == nil {
		return
	}
	if err := p.Journal.FinishRun(report.RunID, report.Status, report.Message, report.Succeeded); err != nil {
		logger.Error("Failed to journal run finish", "error", err)
	}
}

func componentStatus(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// programNumber recovers the allocated program number from an emitted file
// path; emitted files are named <number>.nc.
func programNumber(path string) int {
	base := filepath.Base(path)
	n, _ := strconv.Atoi(strings.TrimSuffix(base, filepath.Ext(base)))
	return n
}
