// Package entity wraps one top-level generation unit: a named set of
// input and output ports around an operation DAG, plus the pipeline-stage
// bookkeeping hardware targets need.
package entity

import (
	"fmt"
	"strings"

	"github.com/hdelassus/metalibm/internal/codegen"
	"github.com/hdelassus/metalibm/internal/op"
)

// DuplicateOutputNameError reports an output registration colliding with
// an existing output of the same entity.
type DuplicateOutputNameError struct {
	Entity string
	Name   string
}

func (e *DuplicateOutputNameError) Error() string {
	return fmt.Sprintf("entity: output %q already registered on %s", e.Name, e.Entity)
}

// DuplicateInputNameError reports an input registration colliding with an
// existing input of the same entity.
type DuplicateInputNameError struct {
	Entity string
	Name   string
}

func (e *DuplicateInputNameError) Error() string {
	return fmt.Sprintf("entity: input %q already registered on %s", e.Name, e.Entity)
}

// Entity is a named generation unit. Inputs keep registration order;
// outputs map a port name to the assignment driving it. The current
// pipeline stage tags every node registered while it is active, recording
// where the value was created for later pipeline-register insertion.
type Entity struct {
	name      string
	lang      op.Language
	inputs    []*op.Node
	inputsBy  map[string]*op.Node
	outputs   map[string]*op.Node // name -> assign(port, value)
	outOrder  []string
	processes []*op.Node
	stage     int
	component *Component

	stageAttr  *op.AttrKey[int]
	originAttr *op.AttrKey[*op.Node]
}

// New builds an empty entity generating hardware text by default.
func New(name string) *Entity {
	e := &Entity{
		name:     name,
		lang:     op.VHDLCode,
		inputsBy: map[string]*op.Node{},
		outputs:  map[string]*op.Node{},
	}
	// Pipeline bookkeeping attributes are shared process-wide; the stage
	// default tracks the entity currently under construction.
	e.stageAttr = op.RegisterAttr("init_stage", 0)
	e.originAttr = op.RegisterAttr[*op.Node]("init_op", nil)
	e.stageAttr.SetDefault(0)
	// Every node built from here on carries the stage that was active at
	// its creation, whether or not it passes through TagStage.
	e.stageAttr.StampOnCreate()
	return e
}

// NewForLanguage builds an entity rendering under the given language.
func NewForLanguage(name string, lang op.Language) *Entity {
	e := New(name)
	e.lang = lang
	return e
}

func (e *Entity) Name() string          { return e.name }
func (e *Entity) Language() op.Language { return e.lang }

// AddInput registers a named input port and returns its leaf node for use
// in the entity's DAG. Registering a name twice fails with
// DuplicateInputNameError and leaves the first registration intact.
func (e *Entity) AddInput(name string, format op.Format) (*op.Node, error) {
	if _, ok := e.inputsBy[name]; ok {
		return nil, &DuplicateInputNameError{Entity: e.name, Name: name}
	}
	var in *op.Node
	if e.lang == op.VHDLCode {
		in = op.NewSignal(name, format)
	} else {
		in = op.NewVariable(name, format)
	}
	e.TagStage(in)
	e.inputs = append(e.inputs, in)
	e.inputsBy[name] = in
	return in, nil
}

// Input returns the input port registered under name, or nil.
func (e *Entity) Input(name string) *op.Node { return e.inputsBy[name] }

// Inputs returns the input ports in registration order.
func (e *Entity) Inputs() []*op.Node { return e.inputs }

// AddOutput registers an output port driven by value. Registering a name
// twice fails with DuplicateOutputNameError and leaves the first
// registration intact.
func (e *Entity) AddOutput(name string, value *op.Node) error {
	if _, ok := e.outputs[name]; ok {
		return &DuplicateOutputNameError{Entity: e.name, Name: name}
	}
	var port *op.Node
	if e.lang == op.VHDLCode {
		port = op.NewSignal(name, value.Format())
	} else {
		port = op.NewVariable(name, value.Format())
	}
	e.TagStage(port)
	e.outputs[name] = op.NewAssign(port, value)
	e.outOrder = append(e.outOrder, name)
	return nil
}

// OutputPort returns the port node of a registered output, or nil.
func (e *Entity) OutputPort(name string) *op.Node {
	if assign, ok := e.outputs[name]; ok {
		return assign.Operand(0)
	}
	return nil
}

// OutputValue returns the value node driving a registered output, or nil.
func (e *Entity) OutputValue(name string) *op.Node {
	if assign, ok := e.outputs[name]; ok {
		return assign.Operand(1)
	}
	return nil
}

// OutputNames returns the output names in registration order.
func (e *Entity) OutputNames() []string {
	return append([]string(nil), e.outOrder...)
}

// AddProcess registers an auxiliary process statement emitted ahead of the
// output assignments.
func (e *Entity) AddProcess(p *op.Node) {
	e.processes = append(e.processes, p)
}

// Stage returns the current pipeline stage counter.
func (e *Entity) Stage() int { return e.stage }

// StartNewStage advances the pipeline stage; nodes tagged afterwards carry
// the new stage.
func (e *Entity) StartNewStage() { e.SetStage(e.stage + 1) }

// SetStage moves the stage counter forward. The counter is monotonic
// within one entity's construction; moving it backwards is a programming
// error.
func (e *Entity) SetStage(stage int) {
	if stage < e.stage {
		panic(fmt.Sprintf("entity: stage counter moved backwards (%d -> %d)", e.stage, stage))
	}
	e.stage = stage
	e.stageAttr.SetDefault(stage)
}

// TagStage stamps n with the stage active at its creation. The stamp is
// write-once: a node already carrying an explicit stage keeps it.
func (e *Entity) TagStage(n *op.Node) {
	if !e.stageAttr.Has(n) {
		e.stageAttr.Set(n, e.stage)
	}
}

// TagOrigin records the operation a pipelined signal was derived from.
func (e *Entity) TagOrigin(n, origin *op.Node) {
	if !e.originAttr.Has(n) {
		e.originAttr.Set(n, origin)
	}
}

// StageOf returns the stage n was created or tagged at.
func (e *Entity) StageOf(n *op.Node) int { return e.stageAttr.Get(n) }

// Body returns the composite statement handed to the generator: auxiliary
// processes first, then every output assignment in registration order.
func (e *Entity) Body() *op.Node {
	children := append([]*op.Node(nil), e.processes...)
	for _, name := range e.outOrder {
		children = append(children, e.outputs[name])
	}
	return op.NewStatement(children...)
}

func (e *Entity) portBlock() string {
	var lines []string
	for _, in := range e.inputs {
		lines = append(lines, fmt.Sprintf("%s : in %s", in.Tag(), in.Format().CodeName(e.lang)))
	}
	for _, name := range e.outOrder {
		assign := e.outputs[name]
		lines = append(lines, fmt.Sprintf("%s : out %s", assign.Operand(0).Tag(), outputFormat(assign).CodeName(e.lang)))
	}
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("port (\n  %s\n);", strings.Join(lines, ";\n  "))
}

// outputFormat is the port's format, falling back to the driving value's
// when the port was registered before the value resolved.
func outputFormat(assign *op.Node) op.Format {
	if f := assign.Operand(0).Format(); f != nil {
		return f
	}
	return assign.Operand(1).Format()
}

// prototype renders the procedural interface: inputs passed by value,
// outputs written through pointers.
func (e *Entity) prototype() string {
	var params []string
	for _, in := range e.inputs {
		params = append(params, fmt.Sprintf("%s %s", in.Format().CodeName(e.lang), in.Tag()))
	}
	for _, name := range e.outOrder {
		params = append(params, fmt.Sprintf("%s *%s", outputFormat(e.outputs[name]).CodeName(e.lang), name))
	}
	return fmt.Sprintf("void %s(%s)", e.name, strings.Join(params, ", "))
}

// DeclarationText renders the interface declaration: the entity interface
// for hardware output, a function prototype for procedural output. A
// hardware entity without ports renders no port clause at all.
func (e *Entity) DeclarationText() string {
	if e.lang != op.VHDLCode {
		return e.prototype() + ";\n\n"
	}
	return fmt.Sprintf("entity %s is \n%s\nend %s;\n\n", e.name, e.portBlock(), e.name)
}

// ComponentDeclarationText renders the component form of the interface,
// used where the entity is instantiated externally.
func (e *Entity) ComponentDeclarationText() string {
	return fmt.Sprintf("component %s \n%s\nend component;\n\n", e.name, e.portBlock())
}

var hardwareHeaders = []string{
	"ieee.std_logic_1164.all",
	"ieee.std_logic_unsigned.all",
	"ieee.numeric_std.all",
}

// BuildDefinition generates the full entity definition into a fresh
// CodeObject: required headers, interface declaration, then the body
// produced by walking Body() through g. The CodeObject is returned ready
// for text extraction; on error no usable output exists.
func (e *Entity) BuildDefinition(g *codegen.Generator) (*codegen.CodeObject, error) {
	if err := op.CheckResolved(e.Body()); err != nil {
		return nil, fmt.Errorf("entity %s: %w", e.name, err)
	}
	co := codegen.NewCodeObject(e.lang)
	if e.lang == op.VHDLCode {
		for _, h := range hardwareHeaders {
			co.RequireHeader(h)
		}
	}
	co.EmitRaw(e.DeclarationText())
	if err := e.appendArchitecture(g, co); err != nil {
		return nil, err
	}
	return co, nil
}

// AppendDefinitionInto generates the same definition into a caller-owned
// CodeObject, omitting the interface declaration the caller context
// already emits.
func (e *Entity) AppendDefinitionInto(g *codegen.Generator, co *codegen.CodeObject) error {
	return e.appendArchitecture(g, co)
}

func (e *Entity) appendArchitecture(g *codegen.Generator, co *codegen.CodeObject) error {
	body := e.Body()
	if err := op.CheckResolved(body); err != nil {
		return fmt.Errorf("entity %s: %w", e.name, err)
	}
	if e.lang == op.VHDLCode {
		co.Emit("architecture rtl of %s is", e.name)
	} else {
		co.Emit("%s {", e.prototype())
		// Output ports are pointer parameters; assignments to them must
		// store through the pointer.
		for _, name := range e.outOrder {
			co.Bind(e.outputs[name].Operand(0), "*"+name)
		}
	}
	co.OpenScope()
	if _, err := g.Generate(body, co); err != nil {
		return fmt.Errorf("entity %s: %w", e.name, err)
	}
	co.CloseScope()
	if e.lang == op.VHDLCode {
		co.EmitRaw("end architecture;\n")
	} else {
		co.Emit("}")
	}
	return nil
}

// PortDirection classifies a component port.
type PortDirection int

const (
	Input PortDirection = iota
	Output
)

// ComponentPort is one externally visible port of a component.
type ComponentPort struct {
	Node      *op.Node
	Direction PortDirection
}

// Component is the externally instantiable view of an entity: port
// directions plus a back-reference to the defining entity.
type Component struct {
	Name   string
	Ports  []ComponentPort
	Entity *Entity
}

// Component builds the descriptor lazily on first request and returns the
// same value afterwards.
func (e *Entity) Component() *Component {
	if e.component == nil {
		c := &Component{Name: e.name, Entity: e}
		for _, in := range e.inputs {
			c.Ports = append(c.Ports, ComponentPort{Node: in, Direction: Input})
		}
		for _, name := range e.outOrder {
			c.Ports = append(c.Ports, ComponentPort{Node: e.outputs[name].Operand(0), Direction: Output})
		}
		e.component = c
	}
	return e.component
}
