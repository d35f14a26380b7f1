package codegen

import (
	"fmt"
	"strings"

	"github.com/hdelassus/metalibm/internal/op"
)

// CodeObject accumulates the text of one generation request. It tracks a
// stack of nested scopes, per-scope hoisted declarations, required
// external headers and the node folding cache. One CodeObject backs
// exactly one request and is never shared across requests.
type CodeObject struct {
	lang        op.Language
	scopes      []*scope
	headers     map[string]struct{}
	headerOrder []string
	cache       map[*op.Node]string
	nextTemp    int
}

type scope struct {
	body  strings.Builder
	decls []string
}

// NewCodeObject builds an empty code object for the given output language.
func NewCodeObject(lang op.Language) *CodeObject {
	return &CodeObject{
		lang:    lang,
		scopes:  []*scope{{}},
		headers: map[string]struct{}{},
		cache:   map[*op.Node]string{},
	}
}

func (c *CodeObject) Language() op.Language { return c.lang }

func (c *CodeObject) current() *scope { return c.scopes[len(c.scopes)-1] }

// OpenScope enters a nested indentation level.
func (c *CodeObject) OpenScope() {
	c.scopes = append(c.scopes, &scope{})
}

// CloseScope folds the innermost scope back into its parent, indented one
// level. Hardware output writes the scope's hoisted declarations and a
// "begin" separator ahead of the body. Scopes must balance; closing the
// root scope is a programming error.
func (c *CodeObject) CloseScope() {
	if len(c.scopes) < 2 {
		panic("codegen: unbalanced scope close")
	}
	inner := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	parent := c.current()
	if c.lang == op.VHDLCode {
		for _, d := range inner.decls {
			parent.body.WriteString("  " + d + "\n")
		}
		parent.body.WriteString("begin\n")
	}
	for _, line := range strings.Split(inner.body.String(), "\n") {
		if line == "" {
			continue
		}
		parent.body.WriteString("  " + line + "\n")
	}
}

// Emit appends one formatted statement line to the current scope.
func (c *CodeObject) Emit(format string, args ...any) {
	fmt.Fprintf(&c.current().body, format, args...)
	c.current().body.WriteString("\n")
}

// EmitRaw appends text verbatim, preserving the layout of multi-line
// instruction templates.
func (c *CodeObject) EmitRaw(text string) {
	c.current().body.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		c.current().body.WriteString("\n")
	}
}

// DeclareLocal records a temporary of the given format in the current
// scope, following the target language's declaration rule: hardware output
// hoists a signal declaration into the scope's declaration block and
// returns "", procedural output declares at the point of definition via
// the returned prefix.
func (c *CodeObject) DeclareLocal(name string, f op.Format) string {
	if hr, ok := f.(op.HeaderRequirer); ok {
		for _, h := range hr.RequiredHeaders(c.lang) {
			c.RequireHeader(h)
		}
	}
	if c.lang == op.VHDLCode {
		cur := c.current()
		cur.decls = append(cur.decls, fmt.Sprintf("signal %s : %s;", name, f.CodeName(c.lang)))
		return ""
	}
	return f.CodeName(c.lang) + " "
}

// RequireHeader records an external header dependency. Duplicates are
// ignored.
func (c *CodeObject) RequireHeader(name string) {
	if _, ok := c.headers[name]; ok {
		return
	}
	c.headers[name] = struct{}{}
	c.headerOrder = append(c.headerOrder, name)
}

// NewTemp allocates a fresh temporary/signal name.
func (c *CodeObject) NewTemp() string {
	prefix := "tmp"
	if c.lang == op.VHDLCode {
		prefix = "sig"
	}
	name := fmt.Sprintf("%s%d", prefix, c.nextTemp)
	c.nextTemp++
	return name
}

// Reference returns the cached emission reference for a node, if the node
// has already been materialized in this request.
func (c *CodeObject) Reference(n *op.Node) (string, bool) {
	ref, ok := c.cache[n]
	return ref, ok
}

// Bind pre-associates a node with an externally provided reference, such
// as a function parameter, so generation reuses that name instead of
// allocating a temporary.
func (c *CodeObject) Bind(n *op.Node, ref string) { c.bind(n, ref) }

func (c *CodeObject) bind(n *op.Node, ref string) {
	c.cache[n] = ref
}

// String renders the accumulated text: required headers first, then the
// root scope. All nested scopes must have been closed.
func (c *CodeObject) String() string {
	if len(c.scopes) != 1 {
		panic("codegen: unclosed scope at text extraction")
	}
	var b strings.Builder
	if c.lang == op.VHDLCode {
		libs := map[string]struct{}{}
		for _, h := range c.headerOrder {
			lib, _, ok := strings.Cut(h, ".")
			if !ok {
				continue
			}
			if _, seen := libs[lib]; seen {
				continue
			}
			libs[lib] = struct{}{}
			fmt.Fprintf(&b, "library %s;\n", lib)
		}
		for _, h := range c.headerOrder {
			fmt.Fprintf(&b, "use %s;\n", h)
		}
	} else {
		for _, h := range c.headerOrder {
			fmt.Fprintf(&b, "#include <%s>\n", h)
		}
	}
	if len(c.headerOrder) > 0 {
		b.WriteString("\n")
	}
	for _, d := range c.scopes[0].decls {
		b.WriteString(d + "\n")
	}
	b.WriteString(c.scopes[0].body.String())
	return b.String()
}
