package op

import (
	"fmt"
	"sync"
)

// Language selects the syntax formats and statements render under.
type Language int

const (
	CCode Language = iota
	VHDLCode
)

func (l Language) String() string {
	if l == VHDLCode {
		return "vhdl"
	}
	return "c"
}

// Format is an opaque result precision. The core compares formats by
// identity and renders their code names; dispatch predicates decide
// compatibility.
type Format interface {
	CodeName(lang Language) string
}

// HeaderRequirer is implemented by formats whose declarations depend on an
// external header or library package in the emitted source.
type HeaderRequirer interface {
	RequiredHeaders(lang Language) []string
}

// ScalarFormat is a fixed machine scalar with per-language spellings.
type ScalarFormat struct {
	name     string
	cName    string
	vhdlName string
	cHeaders []string
}

func (f *ScalarFormat) CodeName(lang Language) string {
	if lang == VHDLCode {
		return f.vhdlName
	}
	return f.cName
}

func (f *ScalarFormat) RequiredHeaders(lang Language) []string {
	if lang == CCode {
		return f.cHeaders
	}
	return nil
}

func (f *ScalarFormat) String() string { return f.name }

var (
	Binary32 = &ScalarFormat{name: "binary32", cName: "float", vhdlName: "std_logic_vector(31 downto 0)"}
	Binary64 = &ScalarFormat{name: "binary64", cName: "double", vhdlName: "std_logic_vector(63 downto 0)"}
	Int32    = &ScalarFormat{name: "int32", cName: "int32_t", vhdlName: "signed(31 downto 0)", cHeaders: []string{"stdint.h"}}
	Int64    = &ScalarFormat{name: "int64", cName: "int64_t", vhdlName: "signed(63 downto 0)", cHeaders: []string{"stdint.h"}}
	UInt32   = &ScalarFormat{name: "uint32", cName: "uint32_t", vhdlName: "unsigned(31 downto 0)", cHeaders: []string{"stdint.h"}}
	UInt64   = &ScalarFormat{name: "uint64", cName: "uint64_t", vhdlName: "unsigned(63 downto 0)", cHeaders: []string{"stdint.h"}}
	Bool     = &ScalarFormat{name: "bool", cName: "int", vhdlName: "std_logic"}
)

// VectorFormat is a width-parameterized hardware bit vector.
type VectorFormat struct {
	width int
}

func (f *VectorFormat) Width() int { return f.width }

func (f *VectorFormat) CodeName(lang Language) string {
	if lang == VHDLCode {
		return fmt.Sprintf("std_logic_vector(%d downto 0)", f.width-1)
	}
	return fmt.Sprintf("uint%d_t", f.width)
}

func (f *VectorFormat) String() string { return fmt.Sprintf("slv%d", f.width) }

var (
	vectorMu    sync.Mutex
	vectorCache = map[int]*VectorFormat{}
)

// StdLogicVector returns the vector format of the given width. Repeated
// calls with one width return the same value so formats stay comparable by
// identity.
func StdLogicVector(width int) *VectorFormat {
	vectorMu.Lock()
	defer vectorMu.Unlock()
	if f, ok := vectorCache[width]; ok {
		return f
	}
	f := &VectorFormat{width: width}
	vectorCache[width] = f
	return f
}
