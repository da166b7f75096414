package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/golox/pkg/diagnostics"
	"github.com/thomasrohde/golox/pkg/parser"
	"github.com/thomasrohde/golox/pkg/runtime"
)

const (
	historyFile = ".lox_history"
	promptMain  = "> "
	promptCont  = "... "
	replBanner  = "golox REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit, :help for help."
)

func cmdRepl(args []string) int {
	cfg, logger, code := loadConfig(true)
	if code != 0 {
		return code
	}
	for _, arg := range args {
		if arg == "--debug" {
			cfg.Log.Level = "debug"
			logger = runtime.NewLogger(cfg, os.Stderr)
		}
	}
	rt := runtime.New(runtime.WithConfig(cfg), runtime.WithLogger(logger))

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println(replBanner)
	for {
		src, ok := readChunk(ln)
		if !ok {
			fmt.Println()
			return runtime.ExitOK
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return runtime.ExitOK
			case ":help":
				fmt.Println("REPL commands:\n  :quit    Exit the REPL\n  :help    This text\nDeclarations persist between inputs.")
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		evalChunk(rt, src)
	}
}

// evalChunk runs one REPL input. Errors are reported and the session
// continues; an interrupt cancels only the running input.
func evalChunk(rt *runtime.Runtime, src string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rt.Run(ctx, src, "<repl>"); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(runtime.Diagnostics(err), true))
	}
}

// readChunk reads lines until they form a complete program, using the
// parser to tell unfinished input from a real syntax error.
func readChunk(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+C discards the pending input.
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, diags := parser.Parse(src, "<repl>")
		if len(diags) > 0 && parser.IsIncomplete(diags) {
			continue
		}
		return src, true
	}
}
