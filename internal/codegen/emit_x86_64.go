package codegen

import (
	"fmt"
	"math"
	"strings"

	"brio/internal/ast"
)

// ---------------------------------------------------------------------------
// x86-64 Assembly Generator
//
// Consumes a completed QuadProgram and produces NASM (Intel syntax) assembly
// for Linux, in three phases:
//
//   1. storage layout — declaration quadruples become .data / .bss entries
//   2. label resolution — every Label id gets its symbolic name up front,
//      so forward jumps need no relocation pass
//   3. instruction lowering — one quadruple at a time, in order
//
// There is no register allocation: every value access is mediated through
// the scratch registers r10/r11 (xmm0/xmm1 on the float path), reloaded per
// instruction. Output is three sections in fixed order (.data, .bss, .text),
// a _start entry that sets up a stack frame and exits via syscall 60, and
// the fixed runtime routine library appended after the program body.
// ---------------------------------------------------------------------------

const (
	arrayElemSize = 8   // bytes per array element, all element types
	stringBufSize = 256 // backing buffer for uninitialized string variables
)

// AsmGenerator accumulates assembly text for one program. Construct one per
// program; all state is reset at the start of each Generate call, so the
// value is reusable across programs but not reentrant within one call.
type AsmGenerator struct {
	text []string // program body instruction lines
	data []string // initialized storage lines
	bss  []string // zero-initialized reservation lines

	labels      map[int]string    // label id -> emitted name
	cmpLabel    int               // synthetic comparison label counter
	floatConsts map[uint32]string // float bit pattern -> data label (deduplicated)
	stringCount int               // string literal labels are never deduplicated
	declared    map[string]bool   // names already given storage

	// directUse is set while lowering operands that are consumed in place
	// (comparison operands). A float literal in a direct-use context is
	// pooled into .data and referenced by address; anywhere else it is
	// rendered as a raw hexadecimal immediate of its bit pattern.
	directUse bool
}

// NewAsmGenerator returns a generator ready for one Generate call.
func NewAsmGenerator() *AsmGenerator {
	return &AsmGenerator{}
}

// Generate lowers the whole program to assembly text.
func (g *AsmGenerator) Generate(prog *QuadProgram) string {
	g.reset()
	g.layoutStorage(prog)
	g.resolveLabels(prog)
	for _, q := range prog.Quads {
		g.emitQuad(q)
	}
	return g.assemble()
}

func (g *AsmGenerator) reset() {
	g.text = nil
	g.data = []string{"newline: db 10"}
	g.bss = []string{"input_buf: resb 64"}
	g.labels = map[int]string{}
	g.cmpLabel = 0
	g.floatConsts = map[uint32]string{}
	g.stringCount = 0
	g.declared = map[string]bool{}
	g.directUse = false
}

func (g *AsmGenerator) line(format string, args ...interface{}) {
	g.text = append(g.text, fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Phase 1 — storage layout
// ---------------------------------------------------------------------------

// layoutStorage scans all declaration quadruples in program order. A name is
// given storage exactly once; a second declaration of the same name is
// silently skipped (duplicate detection belongs to the analyzer upstream).
// Scalars of every type occupy one 8-byte slot; floats live in the low
// dword. Uninitialized string variables get a byte buffer instead so the
// read routine has somewhere to write.
func (g *AsmGenerator) layoutStorage(prog *QuadProgram) {
	for _, q := range prog.Quads {
		switch q.Op.Kind {
		case OpDeclareVariable:
			name := q.Result.Name
			if g.declared[name] {
				continue
			}
			g.declared[name] = true
			switch {
			case q.Src1.Kind == OperandIntLit:
				g.data = append(g.data, fmt.Sprintf("%s: dq %d", name, q.Src1.Int))
			case q.Src1.Kind == OperandFloatLit:
				bits := math.Float32bits(float32(q.Src1.Float))
				g.data = append(g.data, fmt.Sprintf("%s: dq 0x%08x", name, bits))
			case q.Src1.Kind == OperandStrLit:
				// Initialized string variables are still full-size buffers:
				// read_str and copy_str write up to stringBufSize bytes.
				g.data = append(g.data, fmt.Sprintf("%s: db %s, 0", name, nasmQuoteString(q.Src1.Str)))
				if pad := stringBufSize - len(q.Src1.Str) - 1; pad > 0 {
					g.data = append(g.data, fmt.Sprintf("times %d db 0", pad))
				}
			case q.Op.Elem == ast.TypeString:
				g.bss = append(g.bss, fmt.Sprintf("%s: resb %d", name, stringBufSize))
			default:
				g.bss = append(g.bss, fmt.Sprintf("%s: resq 1", name))
			}
		case OpDeclareArray:
			name := q.Result.Name
			if g.declared[name] {
				continue
			}
			g.declared[name] = true
			g.bss = append(g.bss, fmt.Sprintf("%s: resq %d", name, q.Op.Count))
		}
	}
}

// ---------------------------------------------------------------------------
// Phase 2 — label resolution
// ---------------------------------------------------------------------------

func (g *AsmGenerator) resolveLabels(prog *QuadProgram) {
	for _, q := range prog.Quads {
		if q.Op.Kind == OpLabel {
			g.labels[q.Op.Label] = fmt.Sprintf("L%d", q.Op.Label)
		}
	}
}

func (g *AsmGenerator) labelName(id int) string {
	if name, ok := g.labels[id]; ok {
		return name
	}
	return fmt.Sprintf("L%d", id)
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

// addr returns the storage symbol for a variable or temporary operand.
// Temporaries get a .bss slot lazily on first reference, deduplicated
// through the same seen-name set as variables.
func (g *AsmGenerator) addr(o Operand) string {
	switch o.Kind {
	case OperandVar:
		return o.Name
	case OperandTemp:
		name := fmt.Sprintf("t%d", o.Temp)
		if !g.declared[name] {
			g.declared[name] = true
			g.bss = append(g.bss, fmt.Sprintf("%s: resq 1", name))
		}
		return name
	}
	return ""
}

// load emits the integer-path load of an operand into the given register.
// Integer literals are immediates; a float literal outside a direct-use
// context is the raw hexadecimal immediate of its bit pattern; a string
// literal materializes a fresh data label and loads its address.
func (g *AsmGenerator) load(o Operand, reg string) {
	switch o.Kind {
	case OperandIntLit:
		g.line("    mov %s, %d", reg, o.Int)
	case OperandFloatLit:
		g.line("    mov %s, 0x%08x", reg, math.Float32bits(float32(o.Float)))
	case OperandStrLit:
		g.line("    lea %s, [%s]", reg, g.internString(o.Str))
	case OperandVar, OperandTemp:
		g.line("    mov %s, qword [%s]", reg, g.addr(o))
	}
}

// loadFloat emits the float-path load of an operand into an xmm register,
// using scratch32 as the 32-bit staging register for immediates.
func (g *AsmGenerator) loadFloat(o Operand, xmm, scratch32 string) {
	switch o.Kind {
	case OperandFloatLit:
		bits := math.Float32bits(float32(o.Float))
		if g.directUse {
			g.line("    movss %s, dword [%s]", xmm, g.floatConst(bits))
		} else {
			g.line("    mov %s, 0x%08x", scratch32, bits)
			g.line("    movd %s, %s", xmm, scratch32)
		}
	case OperandIntLit:
		g.line("    mov %s, %d", scratch32, o.Int)
		g.line("    cvtsi2ss %s, %s", xmm, scratch32)
	case OperandVar, OperandTemp:
		g.line("    movss %s, dword [%s]", xmm, g.addr(o))
	}
}

// store writes a register back to a variable or temporary slot.
func (g *AsmGenerator) store(dst Operand, reg string) {
	if dst.Kind != OperandVar && dst.Kind != OperandTemp {
		return
	}
	g.line("    mov qword [%s], %s", g.addr(dst), reg)
}

// floatConst pools a float constant by bit pattern: identical float
// literals used in direct-use contexts share one data slot.
func (g *AsmGenerator) floatConst(bits uint32) string {
	if label, ok := g.floatConsts[bits]; ok {
		return label
	}
	label := fmt.Sprintf("LCF%d", len(g.floatConsts))
	g.floatConsts[bits] = label
	g.data = append(g.data, fmt.Sprintf("%s: dd 0x%08x", label, bits))
	return label
}

// internString gives every textual occurrence of a string literal its own
// fresh label: repeated identical strings produce repeated storage, unlike
// the float pool.
func (g *AsmGenerator) internString(s string) string {
	label := fmt.Sprintf("str_%d", g.stringCount)
	g.stringCount++
	g.data = append(g.data, fmt.Sprintf("%s: db %s, 0", label, nasmQuoteString(s)))
	return label
}

// isFloat reports whether a quadruple takes the floating-point instruction
// path: its type tag resolves to Float, or either source operand carries
// the float-literal tag.
func (g *AsmGenerator) isFloat(q Quadruple) bool {
	return q.Type == ast.TypeFloat ||
		q.Src1.Kind == OperandFloatLit ||
		q.Src2.Kind == OperandFloatLit
}

// ---------------------------------------------------------------------------
// Phase 3 — instruction lowering
// ---------------------------------------------------------------------------

func (g *AsmGenerator) emitQuad(q Quadruple) {
	switch q.Op.Kind {
	case OpDeclareVariable, OpDeclareArray:
		// Handled entirely in phase 1.

	case OpLabel:
		g.line("%s:", g.labelName(q.Op.Label))

	case OpJump:
		g.line("    jmp %s", g.labelName(q.Op.Label))

	case OpJumpIfTrue:
		g.load(q.Src1, "r10")
		g.line("    cmp r10, 0")
		g.line("    jne %s", g.labelName(q.Op.Label))

	case OpJumpIfFalse:
		g.load(q.Src1, "r10")
		g.line("    cmp r10, 0")
		g.line("    je %s", g.labelName(q.Op.Label))

	case OpAssign:
		g.emitAssign(q)

	case OpAdd:
		g.emitArith(q, "add", "addss")
	case OpSub:
		g.emitArith(q, "sub", "subss")
	case OpMul:
		g.emitArith(q, "imul", "mulss")
	case OpDiv:
		g.emitDiv(q)

	case OpEqual, OpNotEqual, OpLessThan, OpGreaterThan, OpLessEqual, OpGreaterEqual:
		g.emitCompare(q)

	case OpAnd:
		g.emitBitwise(q, "and")
	case OpOr:
		g.emitBitwise(q, "or")
	case OpNot:
		g.load(q.Src1, "r10")
		g.line("    not r10")
		g.store(q.Result, "r10")

	case OpArrayStore:
		g.emitArrayStore(q)
	case OpArrayLoad:
		g.emitArrayLoad(q)

	case OpInput:
		g.emitInput(q)
	case OpOutput:
		g.emitOutput(q)

	case OpCall:
		g.line("    call %s", q.Op.Callee)
	case OpReturn:
		g.line("    ret")

	default:
		// Never fatal: a partially handled instruction set still produces
		// a best-effort program.
		fmt.Printf("[codegen] skipping unhandled instruction: %s\n", q.Op)
	}
}

// emitAssign copies one 8-byte slot, except for string variables: those are
// byte buffers, so the value goes through the runtime copy routine and the
// destination holds the characters, never an address.
func (g *AsmGenerator) emitAssign(q Quadruple) {
	if q.Type == ast.TypeString {
		switch q.Src1.Kind {
		case OperandStrLit:
			g.line("    lea rsi, [%s]", g.internString(q.Src1.Str))
		case OperandVar, OperandTemp:
			g.line("    lea rsi, [%s]", g.addr(q.Src1))
		}
		g.line("    lea rdi, [%s]", g.addr(q.Result))
		g.line("    call copy_str")
		return
	}
	g.load(q.Src1, "r10")
	g.store(q.Result, "r10")
}

// emitArith picks the instruction path by the quadruple's type tag (or a
// float-literal operand) and lowers a two-source arithmetic instruction.
func (g *AsmGenerator) emitArith(q Quadruple, intMnemonic, floatMnemonic string) {
	if g.isFloat(q) {
		g.loadFloat(q.Src1, "xmm0", "r10d")
		g.loadFloat(q.Src2, "xmm1", "r11d")
		g.line("    %s xmm0, xmm1", floatMnemonic)
		g.line("    movss dword [%s], xmm0", g.addr(q.Result))
		return
	}
	g.load(q.Src1, "r10")
	g.load(q.Src2, "r11")
	g.line("    %s r10, r11", intMnemonic)
	g.store(q.Result, "r10")
}

// emitDiv sign-extends the dividend before a signed 64-bit divide.
func (g *AsmGenerator) emitDiv(q Quadruple) {
	if g.isFloat(q) {
		g.loadFloat(q.Src1, "xmm0", "r10d")
		g.loadFloat(q.Src2, "xmm1", "r11d")
		g.line("    divss xmm0, xmm1")
		g.line("    movss dword [%s], xmm0", g.addr(q.Result))
		return
	}
	g.load(q.Src1, "rax")
	g.load(q.Src2, "r11")
	g.line("    cqo")
	g.line("    idiv r11")
	g.store(q.Result, "rax")
}

func (g *AsmGenerator) emitBitwise(q Quadruple, mnemonic string) {
	g.load(q.Src1, "r10")
	g.load(q.Src2, "r11")
	g.line("    %s r10, r11", mnemonic)
	g.store(q.Result, "r10")
}

var intCompareJcc = map[OpKind]string{
	OpEqual: "je", OpNotEqual: "jne",
	OpLessThan: "jl", OpGreaterThan: "jg",
	OpLessEqual: "jle", OpGreaterEqual: "jge",
}

// Float comparisons read the flags comiss sets for ordered operands; NaN
// inputs take the below/equal branches unchecked.
var floatCompareJcc = map[OpKind]string{
	OpEqual: "je", OpNotEqual: "jne",
	OpLessThan: "jb", OpGreaterThan: "ja",
	OpLessEqual: "jbe", OpGreaterEqual: "jae",
}

// emitCompare materializes the result as 0, branches to a synthetic true
// label that overwrites it with 1, and falls through to a synthetic end
// label. Integer compares use signed condition codes.
func (g *AsmGenerator) emitCompare(q Quadruple) {
	n := g.cmpLabel
	g.cmpLabel++
	trueLabel := fmt.Sprintf("Ltrue_%d", n)
	endLabel := fmt.Sprintf("Lend_%d", n)

	var jcc string
	if g.isFloat(q) {
		g.directUse = true
		g.loadFloat(q.Src1, "xmm0", "r10d")
		g.loadFloat(q.Src2, "xmm1", "r11d")
		g.directUse = false
		g.line("    comiss xmm0, xmm1")
		jcc = floatCompareJcc[q.Op.Kind]
	} else {
		g.load(q.Src1, "r10")
		g.load(q.Src2, "r11")
		g.line("    cmp r10, r11")
		jcc = intCompareJcc[q.Op.Kind]
	}

	g.line("    mov qword [%s], 0", g.addr(q.Result))
	g.line("    %s %s", jcc, trueLabel)
	g.line("    jmp %s", endLabel)
	g.line("%s:", trueLabel)
	g.line("    mov qword [%s], 1", g.addr(q.Result))
	g.line("%s:", endLabel)
}

// emitArrayStore addresses the element at base + index*8. The scratch
// registers are saved around the sequence so caller state survives.
func (g *AsmGenerator) emitArrayStore(q Quadruple) {
	g.line("    push r10")
	g.line("    push r11")
	g.load(q.Src2, "r10")
	g.line("    imul r10, %d", arrayElemSize)
	g.line("    lea r11, [%s]", q.Result.Name)
	g.line("    add r11, r10")
	g.load(q.Src1, "r10")
	g.line("    mov qword [r11], r10")
	g.line("    pop r11")
	g.line("    pop r10")
}

func (g *AsmGenerator) emitArrayLoad(q Quadruple) {
	g.line("    push r10")
	g.line("    push r11")
	g.load(q.Src2, "r10")
	g.line("    imul r10, %d", arrayElemSize)
	g.line("    lea r11, [%s]", q.Src1.Name)
	g.line("    add r11, r10")
	g.line("    mov r10, qword [r11]")
	g.line("    mov qword [%s], r10", g.addr(q.Result))
	g.line("    pop r11")
	g.line("    pop r10")
}

// emitOutput dispatches on the operand: string literals and string-typed
// variables go through the string print routine, float-typed values through
// the float print routine, everything else through integer print.
func (g *AsmGenerator) emitOutput(q Quadruple) {
	switch {
	case q.Src1.Kind == OperandStrLit:
		g.line("    lea rdi, [%s]", g.internString(q.Src1.Str))
		g.line("    call print_str")
	case q.Type == ast.TypeString:
		g.line("    lea rdi, [%s]", g.addr(q.Src1))
		g.line("    call print_str")
	case g.isFloat(q):
		g.loadFloat(q.Src1, "xmm0", "r10d")
		g.line("    call print_float")
	default:
		g.load(q.Src1, "rdi")
		g.line("    call print_int")
	}
}

func (g *AsmGenerator) emitInput(q Quadruple) {
	switch {
	case q.Type == ast.TypeString:
		g.line("    lea rdi, [%s]", g.addr(q.Result))
		g.line("    call read_str")
	case q.Type == ast.TypeFloat:
		g.line("    call read_float")
		g.line("    movss dword [%s], xmm0", g.addr(q.Result))
	default:
		g.line("    call read_int")
		g.line("    mov qword [%s], rax", g.addr(q.Result))
	}
}

// ---------------------------------------------------------------------------
// Final text assembly
// ---------------------------------------------------------------------------

func (g *AsmGenerator) assemble() string {
	var b strings.Builder

	b.WriteString("bits 64\n")
	b.WriteString("default rel\n\n")

	b.WriteString("section .data\n")
	for _, l := range g.data {
		b.WriteString("    " + l + "\n")
	}
	b.WriteString("\nsection .bss\n")
	for _, l := range g.bss {
		b.WriteString("    " + l + "\n")
	}

	b.WriteString("\nsection .text\n")
	b.WriteString("    global _start\n\n")
	b.WriteString("_start:\n")
	b.WriteString("    push rbp\n")
	b.WriteString("    mov rbp, rsp\n")
	for _, l := range g.text {
		b.WriteString(l + "\n")
	}
	b.WriteString("    mov rax, 60\n")
	b.WriteString("    xor rdi, rdi\n")
	b.WriteString("    syscall\n\n")

	b.WriteString(runtimeRoutines)
	return b.String()
}

// nasmQuoteString renders a string as a NASM db operand list: printable
// runs become quoted strings, everything else a numeric byte.
func nasmQuoteString(s string) string {
	if len(s) == 0 {
		return `""`
	}
	var parts []string
	var run strings.Builder

	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 32 || ch > 126 || ch == '"' || ch == '\\' {
			flush()
			parts = append(parts, fmt.Sprintf("%d", ch))
		} else {
			run.WriteByte(ch)
		}
	}
	flush()

	return strings.Join(parts, ", ")
}
