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

	"vellum/compiler"
	"vellum/lexer"
	"vellum/token"
	"vellum/vm"
)

// replCompiledCmd runs an interactive REPL over the bytecode path: each
// line is scanned and compiled directly to a Chunk (no AST stage) and
// run on one VM whose globals persist across lines.
type replCompiledCmd struct {
	disassemble  bool
	dumpBytecode bool
}

func (*replCompiledCmd) Name() string { return "cRepl" }
func (*replCompiledCmd) Synopsis() string {
	return "Start a REPL session backed by the bytecode compiler and VM"
}
func (*replCompiledCmd) Usage() string {
	return `vellum cRepl`
}

func (cmd *replCompiledCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", false, "print the disassembly of each compiled line")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", false, "print the hex-encoded bytecode of each compiled line")
	f.BoolVar(&cmd.disassemble, "di", false, "shorthand for disassemble")
	f.BoolVar(&cmd.dumpBytecode, "du", false, "shorthand for dumpBytecode")
}

func (cmd *replCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("Welcome to the Vellum bytecode REPL!")

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

	return cmd.run(rl, os.Stdout)
}

func (cmd *replCompiledCmd) run(rl *readline.Instance, out io.Writer) subcommands.ExitStatus {
	machine := vm.New()
	machine.Out = out
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
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
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

		comp := compiler.New(tokens)
		chunk, compileErrs := comp.Compile()
		if len(compileErrs) > 0 {
			if allCompileErrorsAtEOF(compileErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, e := range compileErrs {
				fmt.Fprintln(os.Stderr, e)
			}
			buffer.Reset()
			continue
		}

		if cmd.dumpBytecode {
			fmt.Fprintln(out, chunk.DumpHex())
		}
		if cmd.disassemble {
			fmt.Fprint(out, chunk.Disassemble(""))
		}

		if err := machine.Run(chunk); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}

// allCompileErrorsAtEOF mirrors allParseErrorsAtEOF for the bytecode
// path's SemanticError, so a REPL line ending mid-statement (e.g.
// "print 1" without its ';') waits for more input instead of discarding
// the buffer and listing the errors again. The compiler itself has
// already written each error to stderr when it recorded it.
func allCompileErrorsAtEOF(compileErrs []error, eof token.Token) bool {
	if len(compileErrs) == 0 {
		return false
	}
	for _, compileErr := range compileErrs {
		semErr, ok := compileErr.(compiler.SemanticError)
		if !ok {
			return false
		}
		if semErr.Loc.Line != eof.Loc.Line || semErr.Loc.Column != eof.Loc.Column {
			return false
		}
	}
	return true
}
