package dispatch

import (
	"fmt"

	"github.com/hdelassus/metalibm/internal/op"
)

// Shape is a pure structural predicate over a node, evaluated after the
// kind and specifier levels of the table have matched.
type Shape func(*op.Node) bool

// AnyShape matches every node.
func AnyShape(*op.Node) bool { return true }

// Signature decides whether a template accepts an exact operand/result
// format tuple. Predicates are pure and exact: the core performs no
// implicit widening, so any coercion must be spelled as a Rewrite.
type Signature func(operands []op.Format, result op.Format) bool

// StrictMatch accepts exactly the given result and operand formats,
// compared by identity.
func StrictMatch(result op.Format, operands ...op.Format) Signature {
	return func(ops []op.Format, res op.Format) bool {
		if res != result || len(ops) != len(operands) {
			return false
		}
		for i, f := range operands {
			if ops[i] != f {
				return false
			}
		}
		return true
	}
}

// Variant pairs one type signature with the template it selects.
type Variant struct {
	Sig Signature
	Op  Template
}

// Entry pairs a shape predicate with its ordered signature variants.
type Entry struct {
	Shape    Shape
	Variants []Variant
}

// Table maps node shape to operator templates through four levels: kind,
// then sub-specifier (op.AnySpecifier is the wildcard), then
// registration-ordered shape entries, then exact signatures. A table is
// built once per target/language pair and is immutable during generation,
// so independent requests may share it.
type Table map[op.Kind]map[op.Specifier][]Entry

// Merge layers overlay on top of base: overlay's entries are consulted
// first within each kind/specifier bucket. Neither input is modified.
func Merge(base, overlay Table) Table {
	merged := Table{}
	for kind, bySpec := range base {
		merged[kind] = map[op.Specifier][]Entry{}
		for spec, entries := range bySpec {
			merged[kind][spec] = append([]Entry(nil), entries...)
		}
	}
	for kind, bySpec := range overlay {
		if merged[kind] == nil {
			merged[kind] = map[op.Specifier][]Entry{}
		}
		for spec, entries := range bySpec {
			merged[kind][spec] = append(append([]Entry(nil), entries...), merged[kind][spec]...)
		}
	}
	return merged
}

// UnresolvedOperatorError reports that no table entry matched the
// kind/specifier/shape/signature chain for a node.
type UnresolvedOperatorError struct {
	Node  *op.Node
	Level string // the resolution level that had no match
}

func (e *UnresolvedOperatorError) Error() string {
	return fmt.Sprintf("dispatch: no operator for node %s (no %s match)", e.Node.Describe(), e.Level)
}

// TemplateArityMismatchError reports an inline-instruction template whose
// declared arity disagrees with the operand count of the node it matched.
type TemplateArityMismatchError struct {
	Node  *op.Node
	Arity int
}

func (e *TemplateArityMismatchError) Error() string {
	return fmt.Sprintf("dispatch: inline template declares arity %d but node %s has %d operands",
		e.Arity, e.Node.Describe(), len(e.Node.Operands()))
}

// Resolve maps a node to the operator template the table selects for it:
// kind, then specifier with wildcard fallback, then the first shape entry
// accepting the node, then the exact signature within that entry.
// Resolution is a pure function of the node/table pair.
func Resolve(n *op.Node, t Table) (Template, error) {
	bySpec, ok := t[n.Kind()]
	if !ok {
		return nil, &UnresolvedOperatorError{Node: n, Level: "kind"}
	}
	entries, ok := bySpec[n.Specifier()]
	if !ok {
		if entries, ok = bySpec[op.AnySpecifier]; !ok {
			return nil, &UnresolvedOperatorError{Node: n, Level: "specifier"}
		}
	}
	for _, e := range entries {
		if !e.Shape(n) {
			continue
		}
		formats := operandFormats(n)
		for _, v := range e.Variants {
			if !v.Sig(formats, n.Format()) {
				continue
			}
			if inline, ok := v.Op.(InlineInstruction); ok && inline.Arity != len(n.Operands()) {
				return nil, &TemplateArityMismatchError{Node: n, Arity: inline.Arity}
			}
			return v.Op, nil
		}
		return nil, &UnresolvedOperatorError{Node: n, Level: "signature"}
	}
	return nil, &UnresolvedOperatorError{Node: n, Level: "shape"}
}

func operandFormats(n *op.Node) []op.Format {
	operands := n.Operands()
	formats := make([]op.Format, len(operands))
	for i, operand := range operands {
		formats[i] = operand.Format()
	}
	return formats
}
