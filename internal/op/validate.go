package op

import (
	"fmt"

	"go.uber.org/multierr"
)

// MalformedFormatError reports a node that reached code generation with an
// unresolved result format.
type MalformedFormatError struct {
	Node *Node
}

func (e *MalformedFormatError) Error() string {
	return fmt.Sprintf("op: node %s has no resolved result format", e.Node.Describe())
}

// CheckResolved verifies that every value-producing node reachable from
// root carries a result format. All failures are reported together so a
// front end can fix them in one pass. Statements and assignments produce
// no value and are exempt.
func CheckResolved(root *Node) error {
	var err error
	visited := map[*Node]struct{}{}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		if n.format == nil && n.kind != Statement && n.kind != Assign {
			err = multierr.Append(err, &MalformedFormatError{Node: n})
		}
		stack = append(stack, n.operands...)
	}
	return err
}
