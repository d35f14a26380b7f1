// Package toolchain resolves cross-compiler and simulator commands from
// the environment. It sits outside the generation core: generation only
// produces text, and callers use this package when they go on to compile
// or simulate it.
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/xyproto/env/v2"
)

// ConfigError reports a missing or unusable environment setting.
type ConfigError struct {
	Var    string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("toolchain: %s %s", e.Var, e.Detail)
}

// RV64Compiler resolves the RISC-V cross compiler below $RISCV.
func RV64Compiler() (string, error) {
	riscv := env.Str("RISCV")
	if riscv == "" {
		return "", &ConfigError{Var: "RISCV", Detail: "must be set so that $RISCV/bin/riscv64-unknown-elf-gcc is accessible"}
	}
	return filepath.Join(riscv, "bin", "riscv64-unknown-elf-gcc"), nil
}

// RV64CompileArgs returns the cross-compilation options for a source file,
// including the support-code include root when provided.
func RV64CompileArgs(srcDir string) []string {
	args := []string{"-march=rv64gc"}
	if srcDir != "" {
		args = append(args, "-I"+srcDir)
	}
	return args
}

// RV64ExecutionCommand builds the spike proxy-kernel invocation running a
// compiled test binary.
func RV64ExecutionCommand(testFile string) ([]string, error) {
	spike := env.Str("SPIKE_BIN")
	if spike == "" {
		return nil, &ConfigError{Var: "SPIKE_BIN", Detail: "must point to the spike simulator binary"}
	}
	pk := env.Str("PK_BIN")
	if pk == "" {
		return nil, &ConfigError{Var: "PK_BIN", Detail: "must point to a proxy-kernel image"}
	}
	return []string{spike, "--isa=RV64gc", pk, testFile}, nil
}

// ResolveBinary picks an explicitly configured binary, verifying it
// exists, or falls back to a PATH lookup of the default name.
func ResolveBinary(explicit, fallback string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}
	path, err := exec.LookPath(fallback)
	if err != nil {
		return "", err
	}
	return path, nil
}
