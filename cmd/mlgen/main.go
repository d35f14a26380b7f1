// Command mlgen drives the code-generation backend from the command line:
// it builds a small demonstration operation DAG and renders it for a
// registered target, and reports the cross toolchain configuration.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/hdelassus/metalibm/internal/codegen"
	"github.com/hdelassus/metalibm/internal/entity"
	"github.com/hdelassus/metalibm/internal/op"
	"github.com/hdelassus/metalibm/internal/target"
	"github.com/hdelassus/metalibm/internal/toolchain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printGlobalUsage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "emit":
		return runEmit(args[1:])
	case "targets":
		return runTargets()
	case "toolchain":
		return runToolchain(args[1:])
	default:
		printGlobalUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printGlobalUsage() {
	fmt.Fprintln(os.Stderr, "usage: mlgen <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  emit       render the demonstration DAG for a target")
	fmt.Fprintln(os.Stderr, "  targets    list registered targets")
	fmt.Fprintln(os.Stderr, "  toolchain  report the resolved cross toolchain")
}

func runEmit(args []string) error {
	fs := flag.NewFlagSet("emit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	targetName := fs.String("target", "vhdl", "target backend (see `mlgen targets`)")
	emit := fs.String("emit", "code", "output format (code|dag)")
	output := fs.String("o", "", "output file path (stdout when omitted)")
	verbose := fs.Bool("v", false, "log generation steps to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logr.Discard()
	if *verbose {
		log = funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{Verbosity: 2})
		target.SetLogger(log)
	}

	tgt, err := target.Lookup(*targetName)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(*output)
	if err != nil {
		return err
	}
	defer closeOut()

	gen := codegen.New(tgt.Table, codegen.WithLogger(log))
	if tgt.Lang == op.VHDLCode {
		return emitHardwareDemo(gen, *emit, w)
	}
	return emitProceduralDemo(gen, *emit, w)
}

// emitHardwareDemo renders a two-stage accumulator entity. The sum node
// feeds both outputs, demonstrating single-emission of shared
// subexpressions.
func emitHardwareDemo(gen *codegen.Generator, emit string, w io.Writer) error {
	slv32 := op.StdLogicVector(32)
	e := entity.New("acc_stage")
	a, err := e.AddInput("a", slv32)
	if err != nil {
		return err
	}
	b, err := e.AddInput("b", slv32)
	if err != nil {
		return err
	}
	c, err := e.AddInput("c", slv32)
	if err != nil {
		return err
	}

	sum := op.New(op.Addition, slv32, a, b)
	e.TagStage(sum)
	e.StartNewStage()
	masked := op.New(op.BitAnd, slv32, sum, c)
	e.TagStage(masked)

	if err := e.AddOutput("s", sum); err != nil {
		return err
	}
	if err := e.AddOutput("m", masked); err != nil {
		return err
	}

	if emit == "dag" {
		op.Dump(e.Body(), w)
		return nil
	}
	co, err := e.BuildDefinition(gen)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, co.String())
	return err
}

// emitProceduralDemo renders a round-to-nearest body; on rv64g the
// binary64 case lowers through the int64 conversion instructions.
func emitProceduralDemo(gen *codegen.Generator, emit string, w io.Writer) error {
	x := op.NewVariable("x", op.Binary64)
	rounded := op.NewNearestInteger(op.Binary64, x)

	if emit == "dag" {
		op.Dump(rounded, w)
		return nil
	}

	co := codegen.NewCodeObject(op.CCode)
	co.Emit("double round_nearest(double x) {")
	co.OpenScope()
	ref, err := gen.Generate(rounded, co)
	if err != nil {
		return err
	}
	co.Emit("return %s;", ref)
	co.CloseScope()
	co.Emit("}")
	_, err = io.WriteString(w, co.String())
	return err
}

func runTargets() error {
	fmt.Println(strings.Join(target.Names(), "\n"))
	return nil
}

func runToolchain(args []string) error {
	fs := flag.NewFlagSet("toolchain", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	testFile := fs.String("run", "a.out", "binary the execution command should run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	compiler, err := toolchain.RV64Compiler()
	if err != nil {
		return err
	}
	cmd, err := toolchain.RV64ExecutionCommand(*testFile)
	if err != nil {
		return err
	}
	fmt.Printf("compiler: %s %s\n", compiler, strings.Join(toolchain.RV64CompileArgs(""), " "))
	fmt.Printf("execute:  %s\n", strings.Join(cmd, " "))
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
