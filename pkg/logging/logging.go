package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFor maps the count of -v flags to a log level. Without flags only
// warnings reach the console so module output stays readable.
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// SetupLogger installs the global logger: a human console writer on stderr
// and a JSON copy appended to the state dir log. A run on a fresh machine
// may not be able to create the state dir yet, so a missing log file only
// costs a warning.
func SetupLogger(verbosity int) {
	logPath := paths.LogFilePath()
	file, fileErr := openLogFile(logPath)

	var sinks io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if fileErr == nil {
		sinks = zerolog.MultiLevelWriter(sinks, file)
	}
	configure(sinks, verbosity)

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logPath).Msg("log file unavailable, console only")
		return
	}
	log.Debug().Int("verbosity", verbosity).Str("log_file", logPath).Msg("logger ready")
}

func configure(w io.Writer, verbosity int) {
	zerolog.SetGlobalLevel(LevelFor(verbosity))
	ctx := zerolog.New(w).With().Timestamp()
	if verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// GetLogger returns the global logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WouldDo records a mutation that dry-run suppressed.
func WouldDo(logger zerolog.Logger, action string) {
	logger.Info().Bool("dry_run", true).Str("action", action).Msg("would run")
}

func LogCommand(logger zerolog.Logger, name string, args []string) {
	logger.Debug().Str("command", name).Strs("args", args).Msg("running command")
}

// LogOperationStart logs the start of a named phase and returns a func that
// logs its end along with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("phase started")
	return func() {
		logger.Debug().Str("operation", operation).Dur("elapsed", time.Since(start)).Msg("phase finished")
	}
}
