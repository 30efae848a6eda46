package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Toolchain — assembler + linker invocation
//
// The emitted assembly targets exactly one configuration: x86-64 Linux in
// NASM syntax, entry point _start, no libc. Assembling and linking are
// therefore two fixed commands: nasm -f elf64 and ld.
// ---------------------------------------------------------------------------

// Toolchain represents the external programs used to assemble and link.
type Toolchain struct {
	BuildDir string
	AsmFile  string // path to the assembly file
	ObjFile  string // path to the object file
	ExeFile  string // path to the final executable
	Verbose  bool
	NASMPath string // custom NASM binary, overrides PATH lookup
}

// NewToolchain creates a Toolchain writing into the given build directory.
func NewToolchain(buildDir, baseName string) *Toolchain {
	return &Toolchain{
		BuildDir: buildDir,
		AsmFile:  filepath.Join(buildDir, baseName+".asm"),
		ObjFile:  filepath.Join(buildDir, baseName+".o"),
		ExeFile:  filepath.Join(buildDir, baseName),
	}
}

// WriteAssembly writes the assembly string to the .asm file.
func (tc *Toolchain) WriteAssembly(asm string) error {
	return os.WriteFile(tc.AsmFile, []byte(asm), 0644)
}

// Assemble invokes nasm to produce an ELF64 object file.
func (tc *Toolchain) Assemble() error {
	nasmBin := "nasm"
	if tc.NASMPath != "" {
		nasmBin = tc.NASMPath
	}
	cmd := exec.Command(nasmBin, "-f", "elf64", "-o", tc.ObjFile, tc.AsmFile)
	return tc.runCmd(cmd, "assemble (nasm)")
}

// Link invokes ld to produce the final executable.
func (tc *Toolchain) Link() error {
	cmd := exec.Command("ld", "-o", tc.ExeFile, tc.ObjFile)
	return tc.runCmd(cmd, "link")
}

func (tc *Toolchain) runCmd(cmd *exec.Cmd, stage string) error {
	if tc.Verbose {
		fmt.Printf("[toolchain] %s: %s\n", stage, strings.Join(cmd.Args, " "))
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = os.Stdout

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%s failed: %v\n%s", stage, err, stderr.String())
	}
	return nil
}

// DetectToolchain checks whether nasm and ld are available and returns a
// list of missing tools.
func DetectToolchain() []string {
	return DetectToolchainWithPaths("")
}

// DetectToolchainWithPaths checks for tools using a custom NASM path.
func DetectToolchainWithPaths(nasmPath string) []string {
	var missing []string

	if nasmPath != "" {
		if _, err := os.Stat(nasmPath); err != nil {
			missing = append(missing, "nasm")
		}
	} else if _, err := exec.LookPath("nasm"); err != nil {
		missing = append(missing, "nasm")
	}

	if _, err := exec.LookPath("ld"); err != nil {
		missing = append(missing, "ld (linker)")
	}

	return missing
}
