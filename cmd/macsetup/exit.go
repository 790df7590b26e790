package main

import (
	"errors"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
)

// Process exit codes
const (
	ExitOK            = 0
	ExitUsage         = 1
	ExitModulesFailed = 3
	ExitBootstrap     = 4
	ExitInterrupted   = 130
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode maps a command error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if macerrors.IsErrorCode(err, macerrors.ErrInterrupted) {
		return ExitInterrupted
	}
	return ExitUsage
}

// reportError turns a finished run into its exit error
func reportError(r *pipeline.Report) error {
	switch {
	case r.Interrupted:
		return withExitCode(ExitInterrupted, macerrors.New(macerrors.ErrInterrupted, MsgErrInterrupted))
	case r.Aborted:
		return withExitCode(ExitBootstrap, macerrors.New(macerrors.ErrBootstrapFatal, MsgErrBootstrap))
	}
	if _, failed, _ := r.Counts(); failed > 0 {
		return withExitCode(ExitModulesFailed, macerrors.Newf(macerrors.ErrModuleFailed, MsgErrModulesFailed, failed))
	}
	return nil
}
