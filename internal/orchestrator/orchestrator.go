// Package orchestrator drives one built run through its fixed stage
// sequence: optional relaxation, concurrent property sub-workflows,
// per-plugin inspection, result projection, and termination cleanup.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PNOGillespie/aiidalab-qe/internal/builder"
	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/engine"
	"github.com/PNOGillespie/aiidalab-qe/internal/registry"
	"github.com/PNOGillespie/aiidalab-qe/internal/storage/workdir"
)

// RelaxWorkChain is the process type of the relaxation sub-workflow.
const RelaxWorkChain = "quantumespresso.pw.relax"

// Stage enumerates the fixed outline of one run. Every stage that submits
// work is a suspension point; the engine runs the sub-workflow out of
// process and the orchestrator resumes once it has terminated.
type Stage string

const (
	StageSetup          Stage = "setup"
	StageRunRelax       Stage = "run_relax"
	StageInspectRelax   Stage = "inspect_relax"
	StageRunPlugins     Stage = "run_plugins"
	StageInspectPlugins Stage = "inspect_plugins"
	StageResults        Stage = "results"
	StageTerminated     Stage = "terminated"
)

// RunContext is the per-run scratch state. It is owned by exactly one
// orchestrator invocation and discarded at termination.
type RunContext struct {
	Stage Stage
	// CurrentStructure starts as the input structure and is replaced by the
	// relaxed structure when relaxation produces one.
	CurrentStructure any
	// CurrentNumberOfBands is carried from the relaxation outputs so later
	// stages can seed their band counts.
	CurrentNumberOfBands int
	RunRelax             bool
	RunPlugin            map[string]bool

	handles map[string]engine.Process
}

// Result is the terminal report of one run.
type Result struct {
	ExitCode domain.ExitCode
	Outputs  domain.Namespace
	// CleanedProcesses lists the descendant process identifiers whose
	// remote working directories were removed during termination cleanup.
	CleanedProcesses []string
}

// Orchestrator executes built runs against one engine and one registry.
type Orchestrator struct {
	reg    *registry.Registry
	eng    engine.Engine
	store  workdir.Store
	logger *slog.Logger
}

type Option func(*Orchestrator)

// WithWorkdirStore enables remote working directory cleanup at
// termination. Without a store the clean_workdir flag is a no-op.
func WithWorkdirStore(store workdir.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func New(reg *registry.Registry, eng engine.Engine, opts ...Option) (*Orchestrator, error) {
	if reg == nil {
		return nil, errors.New("plugin registry is required")
	}
	if eng == nil {
		return nil, errors.New("execution engine is required")
	}
	o := &Orchestrator{reg: reg, eng: eng}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run drives b through every stage and returns the terminal result. A
// failed sub-workflow is not an error: it is reported through the result's
// exit code. Run only fails when a sub-workflow cannot be submitted or
// observed at all. Termination cleanup executes on every path.
func (o *Orchestrator) Run(ctx context.Context, b *builder.Builder) (*Result, error) {
	if o == nil || o.eng == nil {
		return nil, errors.New("orchestrator not initialized")
	}
	if b == nil {
		return nil, errors.New("builder is required")
	}

	rc := o.setup(b)
	result := &Result{ExitCode: domain.ExitOK, Outputs: domain.Namespace{}}
	defer func() {
		rc.Stage = StageTerminated
		result.CleanedProcesses = o.cleanup(ctx, b, rc)
	}()

	if rc.RunRelax {
		if err := o.runRelax(ctx, b, rc); err != nil {
			return nil, err
		}
		if done := o.inspectRelax(rc, result); done {
			return result, nil
		}
	}

	if err := o.runPlugins(ctx, b, rc); err != nil {
		return nil, err
	}
	if done := o.inspectPlugins(rc, result); done {
		return result, nil
	}

	o.results(rc, result)
	return result, nil
}

func (o *Orchestrator) setup(b *builder.Builder) *RunContext {
	rc := &RunContext{
		Stage:            StageSetup,
		CurrentStructure: b.Structure,
		RunPlugin:        make(map[string]bool),
		handles:          make(map[string]engine.Process),
	}
	selected := make(map[string]struct{}, len(b.Properties))
	for _, name := range b.Properties {
		selected[name] = struct{}{}
	}
	_, rc.RunRelax = selected["relax"]
	for _, entry := range o.reg.All() {
		_, wanted := selected[entry.Name]
		rc.RunPlugin[entry.Name] = wanted && b.HasPlugin(entry.Name)
	}
	return rc
}

func (o *Orchestrator) runRelax(ctx context.Context, b *builder.Builder, rc *RunContext) error {
	rc.Stage = StageRunRelax
	inputs := b.Relax.Clone()
	if inputs == nil {
		inputs = domain.Namespace{}
	}
	inputs["structure"] = rc.CurrentStructure

	proc, err := o.eng.Submit(ctx, engine.ProcessSpec{
		WorkChain: RelaxWorkChain,
		CallLink:  "relax",
		Label:     "structural relaxation",
		Inputs:    inputs,
	})
	if err != nil {
		return fmt.Errorf("submit relaxation: %w", err)
	}
	rc.handles["relax"] = proc
	return proc.Wait(ctx)
}

// inspectRelax reports true when the run is over, either because
// relaxation failed or because nothing else was requested downstream.
func (o *Orchestrator) inspectRelax(rc *RunContext, result *Result) bool {
	rc.Stage = StageInspectRelax
	proc := rc.handles["relax"]
	if !proc.FinishedOK() {
		o.log().Warn("relaxation failed",
			"process_id", proc.ID(),
			"exit_status", proc.ExitStatus())
		result.ExitCode = domain.ExitRelaxFailed
		result.Outputs = nil
		return true
	}

	outputs := proc.Outputs()
	if structure, ok := outputs["structure"]; ok {
		rc.CurrentStructure = structure
		result.Outputs["structure"] = structure
	}
	if bands, ok := outputs.Lookup("output_parameters.number_of_bands"); ok {
		switch v := bands.(type) {
		case int:
			rc.CurrentNumberOfBands = v
		case float64:
			rc.CurrentNumberOfBands = int(v)
		}
	}
	return false
}

// runPlugins fans out every requested sub-workflow before suspending, then
// waits for all of them in one aggregated resumption.
func (o *Orchestrator) runPlugins(ctx context.Context, b *builder.Builder, rc *RunContext) error {
	rc.Stage = StageRunPlugins
	entries := o.reg.All()
	submitted := make([]*registry.Entry, 0, len(entries))
	for _, entry := range entries {
		if !rc.RunPlugin[entry.Name] {
			continue
		}
		inputs := b.Plugins[entry.Name].Clone()
		if inputs == nil {
			inputs = domain.Namespace{}
		}
		inputs["structure"] = rc.CurrentStructure
		if rc.CurrentNumberOfBands > 0 {
			inputs["nbands"] = rc.CurrentNumberOfBands
		}

		proc, err := o.eng.Submit(ctx, engine.ProcessSpec{
			WorkChain: entry.WorkChain,
			CallLink:  entry.Name,
			Label:     entry.Name + " sub-workflow",
			Inputs:    inputs,
		})
		if err != nil {
			return fmt.Errorf("submit plugin %s: %w", entry.Name, err)
		}
		rc.handles[entry.Name] = proc
		submitted = append(submitted, entry)
	}

	for _, entry := range submitted {
		if err := rc.handles[entry.Name].Wait(ctx); err != nil {
			return fmt.Errorf("await plugin %s: %w", entry.Name, err)
		}
	}
	return nil
}

// inspectPlugins walks the submitted plugins in registration order. The
// first failure aborts the run with that plugin's exit code; later plugins
// are neither inspected nor aggregated.
func (o *Orchestrator) inspectPlugins(rc *RunContext, result *Result) bool {
	rc.Stage = StageInspectPlugins
	for _, entry := range o.reg.All() {
		proc, ok := rc.handles[entry.Name]
		if !ok {
			continue
		}
		if !proc.FinishedOK() {
			o.log().Warn("plugin sub-workflow failed",
				"plugin", entry.Name,
				"process_id", proc.ID(),
				"exit_status", proc.ExitStatus())
			result.ExitCode = entry.ExitCode
			return true
		}
		result.Outputs[entry.Outputs] = proc.Outputs().Clone()
	}
	return false
}

// results surfaces the notable sub-outputs of the well-known plugins as
// flattened top-level outputs, in addition to the namespaced copies.
func (o *Orchestrator) results(rc *RunContext, result *Result) {
	rc.Stage = StageResults

	if bands := result.Outputs.Child("bands"); bands != nil {
		if v, ok := bands.Lookup("band_parameters"); ok {
			result.Outputs["band_parameters"] = v
		}
		if v, ok := bands.Lookup("band_structure"); ok {
			result.Outputs["band_structure"] = v
		}
	}

	if pdos := result.Outputs.Child("pdos"); pdos != nil {
		if v, ok := pdos.Lookup("nscf.output_parameters"); ok {
			result.Outputs["nscf_parameters"] = v
		}
		if v, ok := pdos.Lookup("dos.output_dos"); ok {
			result.Outputs["dos"] = v
		}
		if v, ok := pdos.Lookup("projwfc.projections"); ok {
			result.Outputs["projections"] = v
		}
		if v, ok := pdos.Lookup("projwfc.projections_up"); ok {
			result.Outputs["projections_up"] = v
		}
		if v, ok := pdos.Lookup("projwfc.projections_down"); ok {
			result.Outputs["projections_down"] = v
		}
	}
}

// cleanup releases every remote working directory left behind by the run's
// descendants. Failures are swallowed per descendant; only the identifiers
// that were actually cleaned are reported.
func (o *Orchestrator) cleanup(ctx context.Context, b *builder.Builder, rc *RunContext) []string {
	if !b.CleanWorkdir || o.store == nil {
		return nil
	}

	var cleaned []string
	for _, entry := range append([]*registry.Entry{nil}, o.reg.All()...) {
		name := "relax"
		if entry != nil {
			name = entry.Name
		}
		proc, ok := rc.handles[name]
		if !ok {
			continue
		}
		for _, descendant := range proc.CalledDescendants() {
			if descendant.RemoteFolder == nil {
				continue
			}
			if err := o.store.Clean(ctx, *descendant.RemoteFolder); err != nil {
				o.log().Debug("workdir cleanup skipped",
					"process_id", descendant.ProcessID,
					"error", err)
				continue
			}
			cleaned = append(cleaned, descendant.ProcessID)
		}
	}
	if len(cleaned) > 0 {
		o.log().Info("cleaned remote working directories", "count", len(cleaned))
	}
	return cleaned
}

func (o *Orchestrator) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}
