package codegen

import (
	"strings"
	"testing"

	"github.com/hdelassus/metalibm/internal/op"
)

func TestScopesMustBalance(t *testing.T) {
	co := NewCodeObject(op.CCode)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on closing the root scope")
		}
	}()
	co.CloseScope()
}

func TestUnclosedScopeFailsExtraction(t *testing.T) {
	co := NewCodeObject(op.CCode)
	co.OpenScope()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic extracting text with an open scope")
		}
	}()
	_ = co.String()
}

func TestRequireHeaderIdempotent(t *testing.T) {
	co := NewCodeObject(op.CCode)
	co.RequireHeader("math.h")
	co.RequireHeader("stdint.h")
	co.RequireHeader("math.h")
	out := co.String()
	if got := strings.Count(out, "#include <math.h>"); got != 1 {
		t.Fatalf("expected one math.h include, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "#include <stdint.h>") {
		t.Fatalf("missing stdint.h include:\n%s", out)
	}
}

func TestVHDLHeadersRenderLibraryAndUse(t *testing.T) {
	co := NewCodeObject(op.VHDLCode)
	co.RequireHeader("ieee.std_logic_1164.all")
	co.RequireHeader("ieee.numeric_std.all")
	out := co.String()
	if got := strings.Count(out, "library ieee;"); got != 1 {
		t.Fatalf("expected a single library clause, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "use ieee.std_logic_1164.all;") ||
		!strings.Contains(out, "use ieee.numeric_std.all;") {
		t.Fatalf("missing use clauses:\n%s", out)
	}
}

func TestVHDLDeclarationsHoistAtScopeClose(t *testing.T) {
	co := NewCodeObject(op.VHDLCode)
	co.Emit("architecture rtl of t is")
	co.OpenScope()
	if prefix := co.DeclareLocal("sig0", op.StdLogicVector(8)); prefix != "" {
		t.Fatalf("hardware declaration should hoist, got inline prefix %q", prefix)
	}
	co.Emit("sig0 <= a and b;")
	co.CloseScope()
	out := co.String()
	declPos := strings.Index(out, "signal sig0 : std_logic_vector(7 downto 0);")
	beginPos := strings.Index(out, "begin")
	usePos := strings.Index(out, "sig0 <= a and b;")
	if declPos == -1 || beginPos == -1 || usePos == -1 {
		t.Fatalf("missing declaration, begin or use:\n%s", out)
	}
	if !(declPos < beginPos && beginPos < usePos) {
		t.Fatalf("declaration must precede begin which precedes use:\n%s", out)
	}
}

func TestProceduralDeclarationInline(t *testing.T) {
	co := NewCodeObject(op.CCode)
	prefix := co.DeclareLocal("tmp0", op.Binary64)
	if prefix != "double " {
		t.Fatalf("expected inline declaration prefix, got %q", prefix)
	}
	out := co.String()
	if strings.Contains(out, "double tmp0") {
		t.Fatalf("procedural declarations must not hoist:\n%s", out)
	}
}

func TestDeclareLocalPullsFormatHeaders(t *testing.T) {
	co := NewCodeObject(op.CCode)
	co.DeclareLocal("tmp0", op.Int64)
	if !strings.Contains(co.String(), "#include <stdint.h>") {
		t.Fatalf("expected stdint.h pulled in by int64 declaration:\n%s", co.String())
	}
}
