package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/registry"
	"github.com/rs/zerolog"
)

// Initializer makes configuration available to the modules after bootstrap
type Initializer func(ctx context.Context) error

// Option configures a Pipeline
type Option func(*Pipeline)

// WithInitializer sets the call made once the bootstrap module has passed
func WithInitializer(init Initializer) Option {
	return func(p *Pipeline) { p.initialize = init }
}

// WithObserver registers a progress observer
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger overrides the pipeline logger
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// Pipeline executes descriptors sequentially
type Pipeline struct {
	descriptors []Descriptor
	modules     registry.Registry[Descriptor]
	initialize  Initializer
	observer    Observer
	logger      zerolog.Logger
}

// New validates the static order and returns a pipeline. Every dependency
// must name a module registered earlier, and at most one module may be
// marked Bootstrap.
func New(descriptors []Descriptor, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		modules: registry.New[Descriptor](),
		logger:  logging.GetLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	bootstrap := ""
	for _, d := range descriptors {
		if d.Run == nil {
			return nil, errors.Newf(errors.ErrInvalidInput, "module %q has no run function", d.Name)
		}
		for _, dep := range d.DependsOn {
			if !p.modules.Has(dep) {
				return nil, errors.Newf(errors.ErrInvalidInput,
					"module %q depends on %q, which is not registered before it", d.Name, dep)
			}
		}
		if d.Bootstrap {
			if bootstrap != "" {
				return nil, errors.Newf(errors.ErrInvalidInput,
					"modules %q and %q are both marked as bootstrap", bootstrap, d.Name)
			}
			bootstrap = d.Name
		}
		if err := p.modules.Register(d.Name, d); err != nil {
			return nil, err
		}
	}

	p.descriptors = append([]Descriptor(nil), descriptors...)
	return p, nil
}

// Descriptors returns the modules in run order
func (p *Pipeline) Descriptors() []Descriptor {
	return append([]Descriptor(nil), p.descriptors...)
}

// Has reports whether a module is registered
func (p *Pipeline) Has(name string) bool {
	return p.modules.Has(name)
}

// Run executes the pipeline and returns its report. It never returns early
// without an entry for every module.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) *Report {
	start := time.Now()
	report := &Report{
		Entries: make([]Entry, 0, len(p.descriptors)),
		DryRun:  opts.DryRun,
	}

	p.logger.Info().
		Int("modules", len(p.descriptors)).
		Bool("dry_run", opts.DryRun).
		Str("only", opts.OnlyModule).
		Int("skip", len(opts.SkipModules)).
		Msg("Starting pipeline")

	// Configuration is initialized lazily, before the first selected module
	// that comes after the bootstrap module.
	pastBootstrap := !p.hasBootstrap()
	initialized := p.initialize == nil
	stopReason := SkipReason("")

	for _, d := range p.descriptors {
		if stopReason == "" && ctx.Err() != nil {
			stopReason = Interrupted
			report.Interrupted = true
		}
		if stopReason != "" {
			p.record(report, skippedEntry(d, stopReason))
			continue
		}

		if reason, skip := selection(d, opts); skip {
			p.logger.Debug().Str("module", d.Name).Str("reason", string(reason)).Msg("Skipping module")
			p.record(report, skippedEntry(d, reason))
			if d.Bootstrap {
				pastBootstrap = true
			}
			continue
		}

		if pastBootstrap && !initialized {
			initialized = true
			if err := p.runInitializer(ctx); err != nil {
				report.Aborted = true
				report.InitErr = err
				stopReason = Aborted
				p.record(report, skippedEntry(d, stopReason))
				continue
			}
		}

		entry := p.runModule(ctx, d)
		p.record(report, entry)

		if d.Bootstrap {
			pastBootstrap = true
			if entry.Outcome == Failure {
				p.logger.Error().
					Err(entry.Err).
					Str("module", d.Name).
					Msg("Bootstrap module failed, aborting run")
				report.Aborted = true
				stopReason = Aborted
			}
		}
	}

	report.Elapsed = time.Since(start)
	succeeded, failed, skipped := report.Counts()
	p.logger.Info().
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("skipped", skipped).
		Bool("aborted", report.Aborted).
		Dur("elapsed", report.Elapsed).
		Msg("Pipeline finished")

	return report
}

func (p *Pipeline) runModule(ctx context.Context, d Descriptor) (entry Entry) {
	if p.observer != nil {
		p.observer.ModuleStarted(d)
	}
	p.logger.Info().Str("module", d.Name).Msg("Running module")

	start := time.Now()
	entry = Entry{Module: d.Name, DisplayName: d.Label()}

	defer func() {
		if r := recover(); r != nil {
			entry.Outcome = Failure
			entry.Err = errors.Newf(errors.ErrInternal, "module %s panicked: %v", d.Name, r)
			entry.Duration = time.Since(start)
		}
	}()

	err := d.Run(ctx)
	entry.Duration = time.Since(start)
	if err != nil {
		entry.Outcome = Failure
		entry.Err = errors.Wrapf(err, errors.ErrModuleFailed, "module %s failed", d.Name)
		p.logger.Warn().Err(err).Str("module", d.Name).Msg("Module failed")
		return entry
	}

	entry.Outcome = Success
	p.logger.Debug().Str("module", d.Name).Dur("duration", entry.Duration).Msg("Module finished")
	return entry
}

func (p *Pipeline) hasBootstrap() bool {
	for _, d := range p.descriptors {
		if d.Bootstrap {
			return true
		}
	}
	return false
}

func (p *Pipeline) runInitializer(ctx context.Context) error {
	if p.initialize == nil {
		return nil
	}
	if err := p.initialize(ctx); err != nil {
		p.logger.Error().Err(err).Msg("Configuration initialization failed, aborting run")
		return err
	}
	p.logger.Debug().Msg("Configuration initialized")
	return nil
}

func (p *Pipeline) record(report *Report, e Entry) {
	report.Entries = append(report.Entries, e)
	if p.observer != nil && e.Outcome != Skipped {
		p.observer.ModuleFinished(e)
	}
}

func skippedEntry(d Descriptor, reason SkipReason) Entry {
	return Entry{
		Module:      d.Name,
		DisplayName: d.Label(),
		Outcome:     Skipped,
		Reason:      reason,
	}
}

func selection(d Descriptor, opts RunOptions) (SkipReason, bool) {
	if opts.OnlyModule != "" {
		if opts.OnlyModule != d.Name {
			return NotSelected, true
		}
		return "", false
	}
	if _, skip := opts.SkipModules[d.Name]; skip {
		return SkipFlag, true
	}
	return "", false
}

// ValidateSelection checks the selection against the registered modules. An
// unknown OnlyModule is an error; unknown skip names are returned as warnings.
func (p *Pipeline) ValidateSelection(opts RunOptions) ([]string, error) {
	if opts.OnlyModule != "" && !p.modules.Has(opts.OnlyModule) {
		return nil, errors.Newf(errors.ErrSelection,
			"unknown module %q (available: %v)", opts.OnlyModule, p.modules.Ordered()).
			WithDetail("module", opts.OnlyModule)
	}

	var warnings []string
	for _, name := range sortedSet(opts.SkipModules) {
		if !p.modules.Has(name) {
			warnings = append(warnings, fmt.Sprintf("--skip %s does not match any module", name))
		}
	}
	return warnings, nil
}
