package codegen

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/hdelassus/metalibm/internal/dispatch"
	"github.com/hdelassus/metalibm/internal/op"
)

// DefaultRewriteDepth bounds how many rewrite steps (modifier applications
// and fallback hops) one node may chain through before generation fails.
const DefaultRewriteDepth = 32

// RewriteChainExhaustedError reports a rewrite whose modifier produced no
// replacement while no fallback template was configured.
type RewriteChainExhaustedError struct {
	Node *op.Node
}

func (e *RewriteChainExhaustedError) Error() string {
	return fmt.Sprintf("codegen: rewrite chain exhausted for node %s", e.Node.Describe())
}

// RewriteDepthExceededError reports a rewrite chain that ran past the
// configured bound without reaching a renderable template.
type RewriteDepthExceededError struct {
	Node  *op.Node
	Depth int
}

func (e *RewriteDepthExceededError) Error() string {
	return fmt.Sprintf("codegen: rewrite chain for node %s exceeded depth %d", e.Node.Describe(), e.Depth)
}

// Generator walks an operation DAG and renders it through a dispatch
// table. A generator is immutable after construction and may back any
// number of requests, each owning its CodeObject.
type Generator struct {
	table           dispatch.Table
	log             logr.Logger
	maxRewriteDepth int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger attaches a structured logger; generation is silent by
// default.
var WithLogger = func(log logr.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithRewriteDepth overrides the rewrite chain bound.
var WithRewriteDepth = func(depth int) Option {
	return func(g *Generator) {
		g.maxRewriteDepth = depth
	}
}

// New builds a generator over an immutable dispatch table.
func New(table dispatch.Table, opts ...Option) *Generator {
	g := &Generator{
		table:           table,
		log:             logr.Discard(),
		maxRewriteDepth: DefaultRewriteDepth,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// frame is one in-flight node on the explicit traversal stack. key is the
// cache identity and stays pinned to the original node across rewrites, so
// every other parent of the original reuses the rewritten result.
type frame struct {
	node  *op.Node
	key   *op.Node
	tmpl  dispatch.Template // preset fallback template; nil means resolve
	refs  []string
	next  int
	depth int
}

// Generate emits code for n into co and returns the reference by which
// downstream code names n's value. Shared nodes are materialized exactly
// once: a cache hit returns the existing reference with no re-emission and
// no side effects. Traversal uses an explicit work stack, so DAG depth
// alone cannot overflow the call stack. Any failure aborts the request;
// the partially filled CodeObject must be discarded.
func (g *Generator) Generate(n *op.Node, co *CodeObject) (string, error) {
	if ref, ok := co.Reference(n); ok {
		return ref, nil
	}
	var result string
	stack := []*frame{{node: n, key: n}}
	inProgress := map[*op.Node]struct{}{n: {}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]

		// Operands first, in declaration order.
		if f.next < len(f.node.Operands()) {
			operand := f.node.Operand(f.next)
			if ref, ok := co.Reference(operand); ok {
				f.refs = append(f.refs, ref)
				f.next++
				continue
			}
			if _, ok := inProgress[operand]; ok {
				return "", fmt.Errorf("codegen: cycle through node %s", operand.Describe())
			}
			inProgress[operand] = struct{}{}
			stack = append(stack, &frame{node: operand, key: operand})
			continue
		}

		ref, done, err := g.emitFrame(f, co)
		if err != nil {
			return "", err
		}
		if !done {
			continue
		}

		co.bind(f.key, ref)
		if f.node != f.key {
			co.bind(f.node, ref)
		}
		delete(inProgress, f.key)
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.refs = append(parent.refs, ref)
			parent.next++
		} else {
			result = ref
		}
	}
	return result, nil
}

// emitFrame renders a frame whose operands are all available. done is
// false when the frame was redirected (rewrite replacement or fallback)
// and must run again.
func (g *Generator) emitFrame(f *frame, co *CodeObject) (ref string, done bool, err error) {
	switch f.node.Kind() {
	case op.Statement, op.Assign, op.Variable, op.Signal, op.Constant:
		ref, err = g.emitBuiltin(f.node, f.refs, co)
		return ref, true, err
	}

	if f.node.Format() == nil {
		return "", false, &op.MalformedFormatError{Node: f.node}
	}

	tmpl := f.tmpl
	if tmpl == nil {
		if tmpl, err = dispatch.Resolve(f.node, g.table); err != nil {
			return "", false, err
		}
	}

	rw, ok := tmpl.(dispatch.Rewrite)
	if !ok {
		ref, err = g.render(f.node, tmpl, f.refs, co)
		return ref, true, err
	}

	if f.depth >= g.maxRewriteDepth {
		return "", false, &RewriteDepthExceededError{Node: f.key, Depth: f.depth}
	}
	replacement := rw.Modifier(f.node)
	if replacement == nil {
		if rw.Fallback == nil {
			return "", false, &RewriteChainExhaustedError{Node: f.node}
		}
		// The fallback applies to the original, un-rewritten node and
		// bypasses a fresh table resolution.
		f.tmpl = rw.Fallback
		f.depth++
		return "", false, nil
	}
	g.log.V(1).Info("rewriting node", "node", f.node.Describe(), "replacement", replacement.Describe())
	if cached, ok := co.Reference(replacement); ok {
		return cached, true, nil
	}
	// Restart this frame on the replacement; the cache key stays the
	// original node.
	f.node = replacement
	f.tmpl = nil
	f.refs = nil
	f.next = 0
	f.depth++
	return "", false, nil
}

func (g *Generator) emitBuiltin(n *op.Node, refs []string, co *CodeObject) (string, error) {
	switch n.Kind() {
	case op.Statement:
		return "", nil
	case op.Assign:
		co.Emit("%s %s %s;", refs[0], assignSymbol(co.lang), refs[1])
		return "", nil
	case op.Variable, op.Signal:
		if n.Tag() == "" {
			return "", fmt.Errorf("codegen: unnamed %s leaf reached generation", n.Kind())
		}
		return n.Tag(), nil
	case op.Constant:
		return renderConstant(n, co.lang), nil
	default:
		return "", fmt.Errorf("codegen: unexpected builtin kind %s", n.Kind())
	}
}

func (g *Generator) render(n *op.Node, tmpl dispatch.Template, refs []string, co *CodeObject) (string, error) {
	ref := co.NewTemp()
	switch t := tmpl.(type) {
	case dispatch.Direct:
		for _, h := range t.Headers {
			co.RequireHeader(h)
		}
		prefix := co.DeclareLocal(ref, n.Format())
		co.Emit("%s%s %s %s;", prefix, ref, assignSymbol(co.lang), t.Render(refs))
	case dispatch.InlineInstruction:
		// Fallback templates bypass resolution, so the arity contract is
		// re-checked here.
		if t.Arity != len(refs) {
			return "", &dispatch.TemplateArityMismatchError{Node: n, Arity: t.Arity}
		}
		for _, h := range t.Headers {
			co.RequireHeader(h)
		}
		if prefix := co.DeclareLocal(ref, n.Format()); prefix != "" {
			co.Emit("%s%s;", prefix, ref)
		}
		co.EmitRaw(t.Render(ref, refs))
	default:
		return "", fmt.Errorf("codegen: unsupported template %T for node %s", tmpl, n.Describe())
	}
	g.log.V(2).Info("emitted node", "node", n.Describe(), "ref", ref)
	return ref, nil
}

func assignSymbol(lang op.Language) string {
	if lang == op.VHDLCode {
		return "<="
	}
	return "="
}

func renderConstant(n *op.Node, lang op.Language) string {
	if lang == op.CCode && n.Format() == op.Binary32 {
		// The f suffix needs a floating literal; integral values would
		// otherwise render as e.g. "1f".
		text := fmt.Sprintf("%v", n.Value())
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return text + "f"
	}
	return fmt.Sprintf("%v", n.Value())
}
