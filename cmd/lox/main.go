// Command lox is the golox CLI entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/oarkflow/json"
	"github.com/oarkflow/log"

	"github.com/thomasrohde/golox/pkg/config"
	"github.com/thomasrohde/golox/pkg/diagnostics"
	"github.com/thomasrohde/golox/pkg/evaluator"
	"github.com/thomasrohde/golox/pkg/formatter"
	"github.com/thomasrohde/golox/pkg/help"
	"github.com/thomasrohde/golox/pkg/parser"
	"github.com/thomasrohde/golox/pkg/runtime"
	"github.com/thomasrohde/golox/pkg/stdlib"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl(nil))
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "ast":
		os.Exit(cmdAST(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "help", "--help", "-h":
		os.Exit(cmdHelp(os.Args[2:]))
	case "config":
		os.Exit(cmdConfig(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprintln(os.Stderr, "commands: run, check, fmt, ast, repl, trace, help, config")
		os.Exit(runtime.ExitUsage)
	}
}

// loadConfig resolves configuration for the working directory and builds
// the stderr logger at the configured level.
func loadConfig(pretty bool) (*config.Config, *log.Logger, int) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, path, err := config.Load(cwd)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return nil, nil, runtime.ExitUsage
	}
	logger := runtime.NewLogger(cfg, os.Stderr)
	if path != "" {
		logger.Debug().Str("path", path).Msg("loaded config")
	}
	return cfg, logger, 0
}

func cmdRun(args []string) int {
	var file string
	pretty := false
	tracePath := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		case "--trace":
			if i+1 < len(args) {
				i++
				tracePath = args[i]
			}
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: lox run <file|-> [--pretty] [--trace <file.jsonl>]")
		return runtime.ExitUsage
	}

	cfg, logger, code := loadConfig(pretty)
	if code != 0 {
		return code
	}
	pretty = pretty || cfg.Output.Pretty

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	opts := []runtime.Option{runtime.WithConfig(cfg), runtime.WithLogger(logger)}
	if tracePath != "" {
		tf, err := os.Create(tracePath)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot create trace file: %s", tracePath), nil, "")
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
			return runtime.ExitUsage
		}
		defer tf.Close()
		w := bufio.NewWriter(tf)
		defer w.Flush()
		opts = append(opts, runtime.WithTrace(ndjsonTrace(w, logger)))
	}
	rt := runtime.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rt.Run(ctx, source, filename); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(runtime.Diagnostics(err), pretty))
		return runtime.ExitCode(err)
	}
	return runtime.ExitOK
}

// ndjsonTrace writes each trace event as one JSON line.
func ndjsonTrace(w io.Writer, logger *log.Logger) func(evaluator.TraceEvent) {
	failed := false
	return func(ev evaluator.TraceEvent) {
		if failed {
			return
		}
		b, err := json.Marshal(ev)
		if err == nil {
			b = append(b, '\n')
			_, err = w.Write(b)
		}
		if err != nil {
			failed = true
			logger.Warn().Err(err).Msg("trace output disabled")
		}
	}
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: lox check <file> [--pretty]")
		return runtime.ExitUsage
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return runtime.ExitDiagnostics
	}

	// Valid program
	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return runtime.ExitOK
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: lox fmt <file> [--write]")
		return runtime.ExitUsage
	}

	source, _, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	formatted, fmtErr := rt.Format(source, file)
	if fmtErr != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(runtime.Diagnostics(fmtErr), false))
		return runtime.ExitDiagnostics
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(os.Stderr, "warning: comments are not preserved by the formatter")
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return runtime.ExitUsage
		}
		return runtime.ExitOK
	}
	fmt.Print(formatted)
	return runtime.ExitOK
}

func cmdAST(args []string) int {
	var file string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			file = arg
		}
	}
	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: lox ast <file>")
		return runtime.ExitUsage
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, false))
		return runtime.ExitDiagnostics
	}
	fmt.Print(formatter.SexprProgram(program))
	return runtime.ExitOK
}

func cmdTrace(args []string) int {
	var file string
	textOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			textOutput = false
		case "--text":
			textOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: lox trace <file.jsonl> [--json|--text]")
		return runtime.ExitUsage
	}

	f, err := os.Open(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
		return runtime.ExitUsage
	}
	defer f.Close()

	summary := computeTraceSummary(f)
	if textOutput {
		printTraceSummaryText(os.Stdout, summary)
		return runtime.ExitOK
	}
	b, _ := json.Marshal(summary)
	fmt.Println(string(b))
	return runtime.ExitOK
}

func cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "natives" {
			fmt.Fprintln(os.Stderr, "error: --index is only supported for the natives topic (lox help natives --index)")
			return runtime.ExitUsage
		}
		reg := stdlib.NewRegistry()
		stdlib.RegisterDefaults(reg)
		fmt.Print(help.NativesIndex(reg))
		return runtime.ExitOK
	}

	if topic == "" {
		fmt.Print(help.QUICKREF)
		return runtime.ExitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return runtime.ExitUsage
	}
	fmt.Print(content)
	return runtime.ExitOK
}

func cmdConfig(args []string) int {
	cwd, _ := os.Getwd()
	cfg, path, err := config.Load(cwd)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
		return runtime.ExitUsage
	}
	out := struct {
		Source string         `json:"source"`
		Config *config.Config `json:"config"`
	}{Source: path, Config: cfg}
	if out.Source == "" {
		out.Source = "defaults"
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
	return runtime.ExitOK
}

// TraceSummary aggregates an NDJSON trace written by `lox run --trace`.
type TraceSummary struct {
	RunID       string         `json:"runId"`
	TotalEvents int            `json:"totalEvents"`
	Calls       int            `json:"calls"`
	CallsByName map[string]int `json:"callsByName"`
	MaxDepth    int            `json:"maxDepth"`
	StartTime   string         `json:"startTime,omitempty"`
	EndTime     string         `json:"endTime,omitempty"`
	DurationMs  float64        `json:"durationMs"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		CallsByName: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.Timestamp
		case evaluator.TraceCallStart:
			summary.Calls++
			summary.CallsByName[event.Name]++
			if event.Depth > summary.MaxDepth {
				summary.MaxDepth = event.Depth
			}
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := time.Parse(time.RFC3339Nano, summary.StartTime)
		end, err2 := time.Parse(time.RFC3339Nano, summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Calls: %d (max depth %d)\n", s.Calls, s.MaxDepth)
	names := make([]string, 0, len(s.CallsByName))
	for name := range s.CallsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.CallsByName[name])
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", runtime.ExitUsage
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", runtime.ExitUsage
	}
	return string(source), file, 0
}
