package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"vellum/compiler"
	"vellum/lexer"
)

// emitBytecodeCmd compiles a source file and writes its bytecode out as
// a hex dump (.nic) and/or a human-readable disassembly (.dnic),
// without running it.
type emitBytecodeCmd struct {
	disassemble  bool
	dumpBytecode bool
	outPath      string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the bytecode representation from a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `vellum emit <file>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "disassemble the bytecode and dump it to a .dnic text file")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the encoded bytecode as hexadecimal to a .nic file")
	f.StringVar(&cmd.outPath, "out", "", "base path to write output files under; defaults to the source file's path with its extension stripped")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	vellumFile := args[0]
	data, err := os.ReadFile(vellumFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
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

	comp := compiler.New(tokens)
	chunk, compileErrs := comp.Compile()
	if len(compileErrs) > 0 {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n")
		for _, e := range compileErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", e)
		}
		return subcommands.ExitFailure
	}

	base := cmd.outPath
	if base == "" {
		base = strings.TrimSuffix(vellumFile, filepath.Ext(vellumFile))
	}

	if cmd.dumpBytecode {
		if err := os.WriteFile(base+".nic", []byte(chunk.DumpHex()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	if cmd.disassemble {
		if err := os.WriteFile(base+".dnic", []byte(chunk.Disassemble(vellumFile)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode disassemble error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
