package dispatch

import (
	"fmt"

	"github.com/hdelassus/metalibm/internal/op"
)

// Template is a unit of code-generation behavior for a matched node.
// Exactly three variants exist: Direct renders a call or expression from a
// textual template, InlineInstruction renders raw target-instruction text,
// and Rewrite lowers the node into an equivalent sub-DAG at generation
// time.
type Template interface {
	isTemplate()
}

// Direct renders an expression assigned to the node's result reference.
// Expr carries one %s verb per operand, substituted in operand order.
type Direct struct {
	Expr    string
	Headers []string
}

func (Direct) isTemplate() {}

// Render substitutes the operand references into the expression text.
func (d Direct) Render(refs []string) string {
	args := make([]any, len(refs))
	for i, r := range refs {
		args[i] = r
	}
	return fmt.Sprintf(d.Expr, args...)
}

// Slot selects what fills one placeholder of an InlineInstruction.
type Slot struct {
	result bool
	index  int
}

// Result is the slot bound to the freshly allocated result reference.
func Result() Slot { return Slot{result: true} }

// Operand is the slot bound to operand i's emitted reference.
func Operand(i int) Slot { return Slot{index: i} }

// InlineInstruction renders raw target-instruction text emitted as a full
// statement. Text carries one %s verb per slot. Arity must equal the
// matched node's operand count exactly; the mismatch is a configuration
// error caught during resolution.
type InlineInstruction struct {
	Text    string
	Slots   []Slot
	Arity   int
	Headers []string
}

func (InlineInstruction) isTemplate() {}

// Render fills the instruction text with the result and operand
// references according to the slot scheme.
func (t InlineInstruction) Render(result string, refs []string) string {
	args := make([]any, len(t.Slots))
	for i, s := range t.Slots {
		if s.result {
			args[i] = result
		} else {
			args[i] = refs[s.index]
		}
	}
	return fmt.Sprintf(t.Text, args...)
}

// Rewrite lowers a node the table cannot, or should not, render directly.
// Modifier must be referentially transparent and may only build new nodes,
// never mutate its argument. Returning nil defers to Fallback, which is
// applied to the original, un-rewritten node; Fallback may itself be a
// Rewrite, forming a chain. The generation engine owns the full protocol,
// including the chain depth bound.
type Rewrite struct {
	Modifier func(*op.Node) *op.Node
	Fallback Template
}

func (Rewrite) isTemplate() {}
