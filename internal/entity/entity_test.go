package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/hdelassus/metalibm/internal/codegen"
	"github.com/hdelassus/metalibm/internal/dispatch"
	"github.com/hdelassus/metalibm/internal/op"
)

// litFormat renders under its literal name in every language.
type litFormat string

func (f litFormat) CodeName(op.Language) string { return string(f) }

func addInput(t *testing.T, e *Entity, name string, f op.Format) *op.Node {
	t.Helper()
	in, err := e.AddInput(name, f)
	assert.NoError(t, err)
	return in
}

func TestEmptyPortsDeclaration(t *testing.T) {
	e := New("foo")
	assert.Equal(t, "entity foo is \n\nend foo;\n\n", e.DeclarationText())
}

func TestAdderPortDeclaration(t *testing.T) {
	f32 := litFormat("F32")
	e := New("adder")
	a := addInput(t, e, "a", f32)
	b := addInput(t, e, "b", f32)
	sum := op.New(op.Addition, f32, a, b)
	assert.NoError(t, e.AddOutput("s", sum))

	want := "entity adder is \n" +
		"port (\n" +
		"  a : in F32;\n" +
		"  b : in F32;\n" +
		"  s : out F32\n" +
		");\n" +
		"end adder;\n\n"
	assert.Equal(t, want, e.DeclarationText())
}

func TestComponentDeclaration(t *testing.T) {
	f32 := litFormat("F32")
	e := New("adder")
	a := addInput(t, e, "a", f32)
	assert.NoError(t, e.AddOutput("s", op.New(op.Negation, f32, a)))

	want := "component adder \n" +
		"port (\n" +
		"  a : in F32;\n" +
		"  s : out F32\n" +
		");\n" +
		"end component;\n\n"
	assert.Equal(t, want, e.ComponentDeclarationText())
}

func TestDuplicateOutputRejected(t *testing.T) {
	e := New("dup")
	a := addInput(t, e, "a", op.StdLogicVector(8))
	first := op.New(op.BitAnd, op.StdLogicVector(8), a, a)
	assert.NoError(t, e.AddOutput("s", first))

	err := e.AddOutput("s", a)
	var dup *DuplicateOutputNameError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "s", dup.Name)
	// The first registration stays intact.
	assert.True(t, e.OutputValue("s") == first)
}

func TestDuplicateInputRejected(t *testing.T) {
	e := New("dupin")
	first := addInput(t, e, "a", op.StdLogicVector(8))

	_, err := e.AddInput("a", op.StdLogicVector(16))
	var dup *DuplicateInputNameError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Name)
	// The first registration stays intact.
	assert.True(t, e.Input("a") == first)
	assert.Equal(t, 1, len(e.Inputs()))
}

func TestPipelineStages(t *testing.T) {
	e := New("pipe")
	a := addInput(t, e, "a", op.StdLogicVector(16))
	assert.Equal(t, 0, e.Stage())
	assert.Equal(t, 0, e.StageOf(a))

	e.StartNewStage()
	assert.Equal(t, 1, e.Stage())
	later := op.New(op.BitXor, op.StdLogicVector(16), a, a)
	e.TagStage(later)
	assert.Equal(t, 1, e.StageOf(later))
	// Earlier tags are immutable.
	assert.Equal(t, 0, e.StageOf(a))

	e.StartNewStage()
	e.TagStage(later)
	assert.Equal(t, 1, e.StageOf(later))
}

func TestUntaggedNodeKeepsCreationStage(t *testing.T) {
	e := New("frozen")
	a := addInput(t, e, "a", op.StdLogicVector(8))
	// Built during stage 0 and never passed through TagStage.
	inner := op.New(op.BitAnd, op.StdLogicVector(8), a, a)

	e.StartNewStage()
	e.StartNewStage()
	assert.Equal(t, 2, e.Stage())
	assert.Equal(t, 0, e.StageOf(inner))

	later := op.New(op.BitOr, op.StdLogicVector(8), a, inner)
	assert.Equal(t, 2, e.StageOf(later))
}

func TestStageCounterMonotonic(t *testing.T) {
	e := New("mono")
	e.SetStage(2)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on decreasing stage")
		}
	}()
	e.SetStage(1)
}

func TestComponentDescriptorLazyAndStable(t *testing.T) {
	e := New("stable")
	a := addInput(t, e, "a", op.StdLogicVector(8))
	assert.NoError(t, e.AddOutput("s", op.New(op.BitOr, op.StdLogicVector(8), a, a)))

	c := e.Component()
	assert.True(t, c == e.Component())
	assert.True(t, c.Entity == e)
	assert.Equal(t, 2, len(c.Ports))
	assert.Equal(t, Input, c.Ports[0].Direction)
	assert.Equal(t, Output, c.Ports[1].Direction)
	assert.Equal(t, "s", c.Ports[1].Node.Tag())
}

func vectorTable(width int) dispatch.Table {
	slv := op.StdLogicVector(width)
	return dispatch.Table{
		op.Addition: {
			op.AnySpecifier: {{
				Shape: dispatch.AnyShape,
				Variants: []dispatch.Variant{
					{Sig: dispatch.StrictMatch(slv, slv, slv), Op: dispatch.Direct{Expr: "%s + %s"}},
				},
			}},
		},
	}
}

func TestBuildDefinition(t *testing.T) {
	slv := op.StdLogicVector(32)
	e := New("acc")
	a := addInput(t, e, "a", slv)
	b := addInput(t, e, "b", slv)
	sum := op.New(op.Addition, slv, a, b)
	assert.NoError(t, e.AddOutput("s", sum))
	assert.NoError(t, e.AddOutput("u", sum))

	g := codegen.New(vectorTable(32))
	co, err := e.BuildDefinition(g)
	assert.NoError(t, err)
	out := co.String()

	assert.True(t, strings.Contains(out, "library ieee;"))
	assert.True(t, strings.Contains(out, "use ieee.std_logic_1164.all;"))
	assert.True(t, strings.Contains(out, "entity acc is \n"))
	assert.True(t, strings.Contains(out, "architecture rtl of acc is"))
	assert.True(t, strings.Contains(out, "begin"))
	assert.True(t, strings.Contains(out, "end architecture;"))
	// The shared sum materializes once and drives both outputs.
	assert.Equal(t, 1, strings.Count(out, "a + b"))
	assert.True(t, strings.Contains(out, "s <= sig0;"))
	assert.True(t, strings.Contains(out, "u <= sig0;"))
	declPos := strings.Index(out, "signal sig0 :")
	beginPos := strings.Index(out, "begin")
	assert.True(t, declPos != -1 && declPos < beginPos)
}

func TestBuildDefinitionProceduralFunction(t *testing.T) {
	e := NewForLanguage("passthru", op.CCode)
	x := addInput(t, e, "x", op.Binary32)
	assert.NoError(t, e.AddOutput("y", x))

	g := codegen.New(dispatch.Table{})
	co, err := e.BuildDefinition(g)
	assert.NoError(t, err)
	out := co.String()

	assert.True(t, strings.Contains(out, "void passthru(float x, float *y);"))
	assert.True(t, strings.Contains(out, "void passthru(float x, float *y) {"))
	assert.True(t, strings.Contains(out, "*y = x;"))
	assert.True(t, strings.Contains(out, "}"))
	assert.False(t, strings.Contains(out, "entity"))
	assert.False(t, strings.Contains(out, "architecture"))
}

func TestAppendDefinitionIntoSkipsDeclaration(t *testing.T) {
	slv := op.StdLogicVector(32)
	e := New("inner")
	a := addInput(t, e, "a", slv)
	assert.NoError(t, e.AddOutput("s", op.New(op.Addition, slv, a, a)))

	g := codegen.New(vectorTable(32))
	co := codegen.NewCodeObject(op.VHDLCode)
	co.EmitRaw(e.DeclarationText())
	assert.NoError(t, e.AppendDefinitionInto(g, co))
	out := co.String()
	assert.Equal(t, 1, strings.Count(out, "entity inner is "))
	assert.True(t, strings.Contains(out, "end architecture;"))
}

func TestBuildDefinitionRejectsUnresolvedFormats(t *testing.T) {
	e := New("bad")
	a := addInput(t, e, "a", op.StdLogicVector(8))
	hole := op.New(op.Addition, nil, a, a)
	assert.NoError(t, e.AddOutput("s", hole))

	g := codegen.New(vectorTable(8))
	_, err := e.BuildDefinition(g)
	var malformed *op.MalformedFormatError
	assert.True(t, errors.As(err, &malformed))
}

func TestBodyOrdersProcessesBeforeOutputs(t *testing.T) {
	e := New("ord")
	a := addInput(t, e, "a", op.StdLogicVector(8))
	proc := op.NewStatement()
	e.AddProcess(proc)
	assert.NoError(t, e.AddOutput("s", a))

	body := e.Body()
	assert.Equal(t, op.Statement, body.Kind())
	assert.Equal(t, 2, len(body.Operands()))
	assert.True(t, body.Operand(0) == proc)
	assert.Equal(t, op.Assign, body.Operand(1).Kind())
}
