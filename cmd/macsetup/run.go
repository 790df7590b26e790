package main

import (
	"context"
	"io"
	"os"

	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/filesystem"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/modules"
	"github.com/arthur-debert/macsetup/pkg/output"
	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
	"github.com/arthur-debert/macsetup/pkg/selector"
	"github.com/arthur-debert/macsetup/pkg/shell"
	"github.com/spf13/afero"
)

// runProvision wires the modules to the real machine and runs the pipeline
func runProvision(ctx context.Context, out io.Writer, settings *config.Settings) error {
	logger := logging.GetLogger("cmd")
	format, err := output.ParseFormat(settings.Format)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(out, format)

	home, err := paths.GetHomeDirectory()
	if err != nil {
		return err
	}

	fs := filesystem.New(settings.DryRun)
	runner := shell.New(shell.Options{
		DryRun: settings.DryRun,
		Out:    printer,
		Stdin:  os.Stdin,
		// parallel clones must fail rather than wait for credentials
		Env: []string{"GIT_TERMINAL_PROMPT=0"},
		// in-flight clones finish after Ctrl-C; only dispatch stops
		Detached: []string{"git"},
	})
	provider := config.NewProvider()
	destinations := paths.DestinationsFilePath()

	set := modules.Build(modules.Deps{
		Settings:      settings,
		Runner:        runner,
		Fs:            fs,
		Config:        provider,
		Selector:      selector.NewPtermSelector(),
		Memory:        config.NewDestinationMemory(fs, destinations),
		CloneObserver: printer,
		Home:          home,
		Shell:         os.Getenv("SHELL"),
	})

	loadConfig := func(ctx context.Context) error {
		store, err := config.Load(config.LoadOptions{
			ConfigFile:       settings.ConfigFile,
			DestinationsFile: destinations,
		})
		if err != nil {
			return err
		}
		provider.Set(store)
		return nil
	}

	p, err := pipeline.New(set.Descriptors(),
		pipeline.WithInitializer(loadConfig),
		pipeline.WithObserver(printer),
	)
	if err != nil {
		return err
	}

	opts := pipeline.RunOptions{
		DryRun:      settings.DryRun,
		Verbose:     settings.Verbose(),
		OnlyModule:  settings.OnlyModule,
		SkipModules: settings.SkipSet(),
	}
	warnings, err := p.ValidateSelection(opts)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printer.Warn("%s", w)
	}
	if settings.DryRun {
		printer.Title(MsgDryRunBanner)
	}

	report := p.Run(ctx, opts)

	outcome := set.Repositories.Outcome()
	summary := output.Summary{
		Report:     report,
		Clones:     outcome.Clones,
		Unresolved: outcome.Unresolved,
		Warnings:   append(warnings, outcome.Problems...),
	}
	if report.InitErr != nil {
		summary.Warnings = append(summary.Warnings, report.InitErr.Error())
	}
	printer.Summary(summary)

	if settings.ReportFile != "" {
		// the report is output, not provisioning, so it is written in dry runs too
		path := paths.ExpandPath(settings.ReportFile)
		if err := output.WriteReport(afero.NewOsFs(), path, summary); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("failed to write report")
			printer.Error(MsgErrReportFailed, err)
		} else {
			printer.Info(MsgReportWritten, path)
		}
	}

	return reportError(report)
}
