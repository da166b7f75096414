// Package runtime provides the top-level Lox runtime orchestrator.
package runtime

import (
	"context"
	sterrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oarkflow/log"

	"github.com/thomasrohde/golox/pkg/config"
	"github.com/thomasrohde/golox/pkg/diagnostics"
	"github.com/thomasrohde/golox/pkg/evaluator"
	"github.com/thomasrohde/golox/pkg/formatter"
	"github.com/thomasrohde/golox/pkg/parser"
	"github.com/thomasrohde/golox/pkg/resolver"
	"github.com/thomasrohde/golox/pkg/stdlib"
)

// Exit codes shared by the CLI and the conformance suite.
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitDiagnostics = 2
	ExitRuntime     = 3
	ExitInternal    = 4
)

// Runtime wires together all Lox components for program execution.
// Globals persist across Run calls on the same Runtime.
type Runtime struct {
	stdlib *stdlib.Registry
	cfg    *config.Config
	logger *log.Logger
	stdout io.Writer
	runID  string
	trace  func(event evaluator.TraceEvent)
	interp *evaluator.Interpreter
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib sets the native function registry.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithConfig sets the configuration: native filter and limits.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithLogger sets the logger used for runtime diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithStdout sets the writer for print and out().
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default the stdlib defaults are registered, the configuration is
// config.Default(), logs go to stderr at the configured level and the run
// ID is a fresh UUID.
func New(opts ...Option) *Runtime {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)

	rt := &Runtime{
		stdlib: reg,
		cfg:    config.Default(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = NewLogger(rt.cfg, os.Stderr)
	}
	if rt.runID == "" {
		rt.runID = uuid.NewString()
	}
	return rt
}

// NewLogger returns a logger writing to w at cfg's log level.
func NewLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return &log.Logger{
		Level:  log.ParseLevel(cfg.Log.Level),
		Writer: &log.IOWriter{Writer: w},
	}
}

// RunID returns the ID stamped on trace events.
func (rt *Runtime) RunID() string {
	return rt.runID
}

// Config returns the active configuration.
func (rt *Runtime) Config() *config.Config {
	return rt.cfg
}

// interpreter returns the session interpreter, creating it on first use.
func (rt *Runtime) interpreter() *evaluator.Interpreter {
	if rt.interp == nil {
		natives := rt.stdlib.Natives(rt.cfg.AllowNative)
		rt.interp = evaluator.NewInterpreter(evaluator.ExecOptions{
			Stdout:  rt.stdout,
			Natives: natives,
			Trace:   rt.trace,
			RunID:   rt.runID,
			Limits:  rt.cfg.EvalLimits(),
		})
		rt.logger.Debug().Int("natives", len(natives)).Str("runId", rt.runID).Msg("interpreter created")
	}
	return rt.interp
}

// Run parses, resolves, and executes a Lox program. Parse and resolution
// diagnostics are returned as *DiagnosticError before anything runs;
// runtime failures as *evaluator.LoxRuntimeError.
func (rt *Runtime) Run(ctx context.Context, source, filename string) error {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return &DiagnosticError{Diagnostics: diags}
	}

	in := rt.interpreter()
	distances, rDiags := resolver.Resolve(program, in.Globals().Names()...)
	if len(rDiags) > 0 {
		return &DiagnosticError{Diagnostics: rDiags}
	}

	start := time.Now()
	err := in.Interpret(ctx, program, distances)
	stats := in.Stats()
	rt.logger.Debug().
		Str("file", filename).
		Int("statements", len(program.Statements)).
		Int("calls", int(stats.Calls)).
		Int("maxDepth", stats.MaxDepth).
		Dur("elapsed", time.Since(start)).
		Msg("run finished")

	var internal *evaluator.InternalError
	if sterrors.As(err, &internal) {
		rt.logger.Error().Str("code", internal.Code()).Str("file", filename).Err(err).Msg("interpreter contract violated")
	}
	return err
}

// Check parses and resolves a Lox program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}

	_, rDiags := resolver.Resolve(program, rt.interpreter().Globals().Names()...)
	return rDiags
}

// Format parses and formats a Lox program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Diagnostics converts an error returned by Run into diagnostics for display.
func Diagnostics(err error) []diagnostics.Diagnostic {
	var diagErr *DiagnosticError
	if sterrors.As(err, &diagErr) {
		return diagErr.Diagnostics
	}
	var rtErr *evaluator.LoxRuntimeError
	if sterrors.As(err, &rtErr) {
		return []diagnostics.Diagnostic{diagnostics.MakeDiag(rtErr.Code, rtErr.Message, rtErr.Span, "")}
	}
	var internal *evaluator.InternalError
	if sterrors.As(err, &internal) {
		return []diagnostics.Diagnostic{diagnostics.MakeDiag(internal.Code(), internal.Message, internal.Span, "")}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EInternal, err.Error(), nil, "")}
}

// ExitCode maps an error returned by Run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var diagErr *DiagnosticError
	if sterrors.As(err, &diagErr) {
		return ExitDiagnostics
	}
	var rtErr *evaluator.LoxRuntimeError
	if sterrors.As(err, &rtErr) {
		return ExitRuntime
	}
	return ExitInternal
}
