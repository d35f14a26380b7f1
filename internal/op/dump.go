package op

import (
	"fmt"
	"io"
)

// Dump writes a simple human-readable representation of the DAG. Nodes
// visited more than once are printed as a back-reference to their first
// occurrence, which makes shared subexpressions visible.
func Dump(root *Node, w io.Writer) {
	if root == nil {
		fmt.Fprintln(w, "<nil node>")
		return
	}
	d := &dumper{w: w, ids: map[*Node]int{}}
	d.dump(root, 0)
}

type dumper struct {
	w      io.Writer
	ids    map[*Node]int
	nextID int
}

func (d *dumper) dump(n *Node, depth int) {
	d.indent(depth)
	if id, ok := d.ids[n]; ok {
		fmt.Fprintf(d.w, "#%d (shared)\n", id)
		return
	}
	id := d.nextID
	d.nextID++
	d.ids[n] = id
	fmt.Fprintf(d.w, "#%d %s\n", id, n.Describe())
	for _, operand := range n.operands {
		d.dump(operand, depth+1)
	}
}

func (d *dumper) indent(depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(d.w, "  ")
	}
}
