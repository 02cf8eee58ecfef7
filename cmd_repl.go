package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"vellum/interpreter"
	"vellum/lexer"
	"vellum/parser"
	"vellum/resolver"
)

// replCmd runs an interactive tree-walking REPL: one interpreter and
// resolver persist across lines so top-level variables and functions
// declared on one line are visible on the next.
type replCmd struct {
	dumpAST bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start a tree-walking REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.dumpAST, "dumpAST", false, "print each line's parsed AST as JSON before evaluating it")
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("Welcome to Vellum!")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	runREPL(rl, os.Stdout, r.dumpAST)
	return subcommands.ExitSuccess
}

// historyFilePath returns a best-effort path for readline's persistent
// history file; an empty string disables history rather than failing.
func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.vellum_history"
}

func runREPL(rl *readline.Instance, out io.Writer, dumpAST bool) {
	interp := interpreter.New(nil, out)
	res := resolver.New()
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err)
			return
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		lex := lexer.New(source)
		tokens, lexErrs := lex.Scan()
		if len(lexErrs) > 0 {
			for _, e := range lexErrs {
				fmt.Fprintln(os.Stderr, e)
			}
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, e := range parseErrs {
				fmt.Fprintln(os.Stderr, e)
			}
			buffer.Reset()
			continue
		}

		if dumpAST {
			p.Print(statements)
		}

		newLocals, resolveErrs := res.Resolve(statements)
		if len(resolveErrs) > 0 {
			for _, e := range resolveErrs {
				fmt.Fprintln(os.Stderr, e)
			}
			buffer.Reset()
			continue
		}
		interp.SetLocals(newLocals)

		if err := interp.Interpret(statements); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}
