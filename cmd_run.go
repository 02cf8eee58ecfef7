package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"vellum/interpreter"
	"vellum/lexer"
	"vellum/parser"
	"vellum/resolver"
)

// runCmd executes a source file through the tree-walking path: scan,
// parse, resolve, then interpret the resulting AST.
type runCmd struct {
	dumpAST bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Vellum code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute Vellum code.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.dumpAST, "dumpAST", false, "print the parsed AST as JSON before evaluating it")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, lexErrs := lex.Scan()
	if len(lexErrs) > 0 {
		for _, e := range lexErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		for _, e := range parseErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	if r.dumpAST {
		p.Print(statements)
	}

	res := resolver.New()
	locals, resolveErrs := res.Resolve(statements)
	if len(resolveErrs) > 0 {
		for _, e := range resolveErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	interp := interpreter.New(locals, os.Stdout)
	if err := interp.Interpret(statements); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
