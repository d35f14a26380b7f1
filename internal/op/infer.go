package op

import "fmt"

const maxInferIterations = 32

// InferFormats propagates result formats through format-preserving
// arithmetic so front ends may leave interior nodes unset: a node whose
// operands all share one resolved format adopts it. Conversions and
// rounding operations name their result format explicitly and are never
// inferred. Nodes that stay unresolved are left for CheckResolved to
// report.
func InferFormats(root *Node) error {
	nodes := collect(root)
	changed := true
	iteration := 0
	for changed {
		iteration++
		if iteration > maxInferIterations {
			return fmt.Errorf("op: format inference did not converge after %d iterations", maxInferIterations)
		}
		changed = false
		for _, n := range nodes {
			if n.format != nil || !inferable(n.kind) {
				continue
			}
			if f := commonOperandFormat(n); f != nil {
				n.format = f
				changed = true
			}
		}
	}
	return nil
}

func inferable(k Kind) bool {
	switch k {
	case Addition, Subtraction, Multiplication, Division, Negation, Abs,
		Min, Max, FusedMultiplyAdd, BitAnd, BitOr, BitXor:
		return true
	default:
		return false
	}
}

func commonOperandFormat(n *Node) Format {
	if len(n.operands) == 0 {
		return nil
	}
	f := n.operands[0].format
	if f == nil {
		return nil
	}
	for _, operand := range n.operands[1:] {
		if operand.format != f {
			return nil
		}
	}
	return f
}

func collect(root *Node) []*Node {
	var nodes []*Node
	visited := map[*Node]struct{}{}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		nodes = append(nodes, n)
		stack = append(stack, n.operands...)
	}
	return nodes
}
