// Package maincmd wires the command-line driver: flag parsing, environment
// configuration, and the three ways to run a program (one-shot file, REPL,
// disassembly smoke test) on top of lang/compiler and lang/machine.
package maincmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"github.com/mna/sharo/lang/compiler"
	"github.com/mna/sharo/lang/debug"
	"github.com/mna/sharo/lang/machine"
	"github.com/mna/sharo/lang/natives"
	"github.com/mna/sharo/lang/types"
)

const binName = "sharo"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the %[1]s scripting language.

With a path argument, compiles and runs that file. With none, starts an
interactive REPL reading from stdin.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --test                    Compile a small built-in program,
                                 disassemble it, and run it, printing
                                 PASS or FAIL.

Environment variables:
       SHARO_STACK_MAX           Value stack size (default %d).
       SHARO_FRAMES_MAX          Call frame depth (default %d).
       SHARO_TRACE               If "true", trace every executed
                                 instruction to stderr.
`, binName, machine.DefaultStackMax, machine.DefaultFramesMax)
)

// Config holds the tunables read from the environment, kept separate from
// the command-line flags since resource limits belong to the deployment,
// not a single invocation.
type Config struct {
	StackMax  int  `env:"SHARO_STACK_MAX" envDefault:"0"`
	FramesMax int  `env:"SHARO_FRAMES_MAX" envDefault:"0"`
	Trace     bool `env:"SHARO_TRACE" envDefault:"false"`
}

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Test    bool `flag:"test"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version || c.Test {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("at most one file path may be provided")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(64)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment configuration: %s\n", err)
		return mainer.InvalidArgs
	}

	if c.Test {
		return runSelfTest(stdio)
	}
	if len(c.args) == 1 {
		return runFile(stdio, cfg, c.args[0])
	}
	return runRepl(stdio, cfg)
}

func newVM(stdio mainer.Stdio, cfg Config) (*machine.VM, *types.Heap) {
	heap := types.NewHeap()
	globals := types.NewTable()

	mcfg := machine.Config{StackMax: cfg.StackMax, FramesMax: cfg.FramesMax}
	if cfg.Trace {
		mcfg.Trace = stdio.Stderr
	}

	vm := machine.New(heap, globals, fileImporter(heap), mcfg)
	natives.Register(vm.Globals(), vm.Heap(), vm.StartedAt())
	return vm, heap
}

// fileImporter returns the machine.Importer a VM uses for IMPORT
// statements: it reads the named path relative to the working directory
// and compiles it against the same heap, so interned strings and struct
// definitions stay shared across the importing and imported modules.
func fileImporter(heap *types.Heap) machine.Importer {
	return func(path string) (*types.Function, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		fn, errs := compiler.Compile(heap, string(src))
		if len(errs) > 0 {
			return nil, errs[0]
		}
		return fn, nil
	}
}

func printCompileErrors(w io.Writer, errs []error) {
	for _, err := range errs {
		fmt.Fprintln(w, err)
	}
}

func runFile(stdio mainer.Stdio, cfg Config, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.ExitCode(74)
	}

	vm, heap := newVM(stdio, cfg)
	fn, errs := compiler.Compile(heap, string(src))
	if len(errs) > 0 {
		printCompileErrors(stdio.Stderr, errs)
		return mainer.ExitCode(65)
	}

	if err := vm.Interpret(fn); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.ExitCode(70)
	}
	return mainer.Success
}

// runRepl compiles and runs one line at a time against a single persistent
// VM, so a global or struct type declared on one line is visible to the
// next. A compile or runtime error on a line is reported but does not end
// the session.
func runRepl(stdio mainer.Stdio, cfg Config) mainer.ExitCode {
	vm, heap := newVM(stdio, cfg)
	sc := bufio.NewScanner(stdio.Stdin)
	fmt.Fprint(stdio.Stdout, "> ")
	for sc.Scan() {
		line := sc.Text()
		fn, errs := compiler.Compile(heap, line)
		if len(errs) > 0 {
			printCompileErrors(stdio.Stderr, errs)
			fmt.Fprint(stdio.Stdout, "> ")
			continue
		}
		if err := vm.Interpret(fn); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
		}
		fmt.Fprint(stdio.Stdout, "> ")
	}
	fmt.Fprintln(stdio.Stdout)
	return mainer.Success
}

// runSelfTest compiles a tiny program, disassembles it to stdout, runs it,
// and reports PASS or FAIL. It exists as a zero-argument sanity check that
// does not depend on any external source file being present.
func runSelfTest(stdio mainer.Stdio) mainer.ExitCode {
	const src = `
total := 0
i := 0
for i < 5 {
    total = total + i
    i = i + 1
}
print(total)
`
	heap := types.NewHeap()
	fn, errs := compiler.Compile(heap, src)
	if len(errs) > 0 {
		printCompileErrors(stdio.Stderr, errs)
		fmt.Fprintln(stdio.Stdout, "FAIL")
		return mainer.Failure
	}

	debug.Disassemble(stdio.Stdout, fn.Chunk, "self-test")

	globals := types.NewTable()
	vm := machine.New(heap, globals, nil, machine.Config{})
	natives.Register(vm.Globals(), vm.Heap(), vm.StartedAt())
	if err := vm.Interpret(fn); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		fmt.Fprintln(stdio.Stdout, "FAIL")
		return mainer.Failure
	}
	fmt.Fprintln(stdio.Stdout, "PASS")
	return mainer.Success
}
