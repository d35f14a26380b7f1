// Package target holds the built-in backend definitions: one dispatch
// table per target/output-language pair, registered at initialization and
// immutable afterwards.
package target

import (
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/hdelassus/metalibm/internal/dispatch"
	"github.com/hdelassus/metalibm/internal/op"
)

// Target couples a named backend with its operator table and output
// language.
type Target struct {
	Name  string
	Lang  op.Language
	Table dispatch.Table
}

var (
	registry = map[string]*Target{}
	log      = logr.Discard()
)

// SetLogger routes registration logging; targets register silently by
// default.
func SetLogger(l logr.Logger) { log = l }

// Register adds a target definition. Registration happens during program
// initialization, before any generation request.
func Register(t *Target) error {
	if _, ok := registry[t.Name]; ok {
		return fmt.Errorf("target: %q already registered", t.Name)
	}
	registry[t.Name] = t
	log.V(1).Info("registered target", "name", t.Name, "language", t.Lang.String())
	return nil
}

func mustRegister(t *Target) {
	if err := Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns a registered target by name.
func Lookup(name string) (*Target, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("target: unknown target %q (known: %v)", name, Names())
	}
	return t, nil
}

// Names lists the registered target names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	mustRegister(&Target{Name: "c99", Lang: op.CCode, Table: CTable()})
	mustRegister(&Target{Name: "rv64g", Lang: op.CCode, Table: RV64Table()})
	mustRegister(&Target{Name: "vhdl", Lang: op.VHDLCode, Table: VHDLTable()})
}
