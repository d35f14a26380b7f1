package op

import (
	"fmt"
	"strings"
)

// Kind classifies the operation a node performs.
type Kind int

const (
	Variable Kind = iota
	Signal
	Constant
	Statement
	Assign
	Addition
	Subtraction
	Multiplication
	Division
	Negation
	Abs
	Min
	Max
	FusedMultiplyAdd
	BitAnd
	BitOr
	BitXor
	Conversion
	NearestInteger
	Specific
)

var kindNames = map[Kind]string{
	Variable:         "variable",
	Signal:           "signal",
	Constant:         "constant",
	Statement:        "statement",
	Assign:           "assign",
	Addition:         "addition",
	Subtraction:      "subtraction",
	Multiplication:   "multiplication",
	Division:         "division",
	Negation:         "negation",
	Abs:              "abs",
	Min:              "min",
	Max:              "max",
	FusedMultiplyAdd: "fma",
	BitAnd:           "bit_and",
	BitOr:            "bit_or",
	BitXor:           "bit_xor",
	Conversion:       "conversion",
	NearestInteger:   "nearest_integer",
	Specific:         "specific",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Specifier refines a Kind into a named variant of a generic operation.
type Specifier int

const (
	NoSpecifier Specifier = iota
	ReadCycleCounter
)

// AnySpecifier is the dispatch-table wildcard matched when a node's own
// specifier has no dedicated entry.
const AnySpecifier Specifier = -1

func (s Specifier) String() string {
	switch s {
	case NoSpecifier:
		return "none"
	case AnySpecifier:
		return "any"
	case ReadCycleCounter:
		return "read_cycle_counter"
	default:
		return fmt.Sprintf("specifier(%d)", int(s))
	}
}

// Node is one operation in a DAG. Operands are held by reference and the
// same node may appear under several parents; that sharing is how common
// subexpressions are expressed. Identity is pointer identity, never
// structural equality. The operand list is frozen once a node reaches the
// code-generation path; rewrites build new nodes instead of mutating.
type Node struct {
	kind      Kind
	specifier Specifier
	operands  []*Node
	format    Format
	tag       string
	value     any
	attrs     map[string]any
}

// newNode applies the registry's creation-time attribute stamps before a
// node becomes visible, freezing the then-current defaults.
func newNode(n *Node) *Node {
	stampCreationAttrs(n)
	return n
}

// New builds an operation node over the given operands.
func New(kind Kind, format Format, operands ...*Node) *Node {
	return newNode(&Node{kind: kind, format: format, operands: operands})
}

// NewSpecific builds a target-specific operation refined by a specifier.
func NewSpecific(spec Specifier, format Format, operands ...*Node) *Node {
	return newNode(&Node{kind: Specific, specifier: spec, format: format, operands: operands})
}

// NewVariable builds a named procedural input leaf.
func NewVariable(name string, format Format) *Node {
	return newNode(&Node{kind: Variable, format: format, tag: name})
}

// NewSignal builds a named hardware signal leaf.
func NewSignal(name string, format Format) *Node {
	return newNode(&Node{kind: Signal, format: format, tag: name})
}

// NewConstant builds a literal leaf.
func NewConstant(value any, format Format) *Node {
	return newNode(&Node{kind: Constant, format: format, value: value})
}

// NewStatement groups child statements into one sequentially emitted unit.
func NewStatement(children ...*Node) *Node {
	return newNode(&Node{kind: Statement, operands: children})
}

// NewAssign drives dst (a variable or signal leaf) with value.
func NewAssign(dst, value *Node) *Node {
	return newNode(&Node{kind: Assign, operands: []*Node{dst, value}})
}

// NewConversion converts x to the given result format.
func NewConversion(format Format, x *Node) *Node {
	return newNode(&Node{kind: Conversion, format: format, operands: []*Node{x}})
}

// NewNearestInteger rounds x to the nearest integer, producing format.
func NewNearestInteger(format Format, x *Node) *Node {
	return newNode(&Node{kind: NearestInteger, format: format, operands: []*Node{x}})
}

func (n *Node) Kind() Kind           { return n.kind }
func (n *Node) Specifier() Specifier { return n.specifier }
func (n *Node) Format() Format       { return n.format }
func (n *Node) Tag() string          { return n.tag }
func (n *Node) Value() any           { return n.value }

// Operands returns the node's operand list. Callers in the generation path
// must treat it as read-only.
func (n *Node) Operands() []*Node { return n.operands }

func (n *Node) Operand(i int) *Node { return n.operands[i] }

// SetFormat resolves the node's result format. Front ends may call this
// before handing the DAG to generation; the core never does.
func (n *Node) SetFormat(f Format) { n.format = f }

// SetTag attaches a human-readable tag used in diagnostics and dumps.
func (n *Node) SetTag(tag string) { n.tag = tag }

// Describe renders the node's shape for error reporting: kind, specifier,
// tag and the operand/result format tuple.
func (n *Node) Describe() string {
	var b strings.Builder
	b.WriteString(n.kind.String())
	if n.specifier != NoSpecifier {
		fmt.Fprintf(&b, "/%s", n.specifier)
	}
	if n.tag != "" {
		fmt.Fprintf(&b, " %q", n.tag)
	}
	b.WriteString(" (")
	for i, operand := range n.operands {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatName(operand.format))
	}
	fmt.Fprintf(&b, ") -> %s", formatName(n.format))
	return b.String()
}

func formatName(f Format) string {
	if f == nil {
		return "<unresolved>"
	}
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return f.CodeName(CCode)
}
