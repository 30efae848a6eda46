package codegen

import (
	"fmt"
	"strings"

	"brio/internal/ast"
)

// ---------------------------------------------------------------------------
// IR — a flat, three-address-code style instruction list ("quadruples")
//
// Every instruction has the same fixed shape: one operation, two source
// operands, one result operand. Unused slots hold an Empty operand. The
// uniform shape lets the assembly generator dispatch purely on the operation
// kind. Operands never point at other instructions; dependencies between
// instructions are expressed by reusing the same variable or temporary name.
// ---------------------------------------------------------------------------

// ---------------------------------------------------------------------------
// Operand kinds
// ---------------------------------------------------------------------------

// OperandKind describes what an operand represents.
type OperandKind int

const (
	OperandEmpty     OperandKind = iota // unused operand slot
	OperandIntLit                       // 32-bit signed integer literal
	OperandFloatLit                     // 32-bit float literal (widened to float64 while lowering)
	OperandStrLit                       // string literal (owned text)
	OperandVar                          // named source-level variable or array
	OperandTemp                         // compiler-generated temporary, numbered sequentially
	OperandArrayElem                    // array name + boxed index; transient during lowering only
)

// Operand is a single value reference inside a quadruple.
type Operand struct {
	Kind  OperandKind
	Int   int32    // integer value (OperandIntLit)
	Float float64  // float value (OperandFloatLit)
	Str   string   // string text (OperandStrLit)
	Name  string   // variable/array name (OperandVar, OperandArrayElem)
	Temp  int      // temporary id (OperandTemp)
	Index *Operand // boxed index operand (OperandArrayElem)
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandEmpty:
		return "_"
	case OperandIntLit:
		return fmt.Sprintf("%d", o.Int)
	case OperandFloatLit:
		return fmt.Sprintf("%g", o.Float)
	case OperandStrLit:
		return fmt.Sprintf("%q", o.Str)
	case OperandVar:
		return o.Name
	case OperandTemp:
		return fmt.Sprintf("t%d", o.Temp)
	case OperandArrayElem:
		return fmt.Sprintf("%s[%s]", o.Name, o.Index)
	default:
		return "?"
	}
}

// Convenience constructors for operands.
func IntLit(v int32) Operand     { return Operand{Kind: OperandIntLit, Int: v} }
func FloatLit(v float64) Operand { return Operand{Kind: OperandFloatLit, Float: v} }
func StrLit(s string) Operand    { return Operand{Kind: OperandStrLit, Str: s} }
func Var(name string) Operand    { return Operand{Kind: OperandVar, Name: name} }
func Temp(n int) Operand         { return Operand{Kind: OperandTemp, Temp: n} }
func Empty() Operand             { return Operand{Kind: OperandEmpty} }
func ArrayElem(name string, index Operand) Operand {
	return Operand{Kind: OperandArrayElem, Name: name, Index: &index}
}

// ---------------------------------------------------------------------------
// Operation kinds
// ---------------------------------------------------------------------------

// OpKind is a quadruple operation kind.
type OpKind int

const (
	// Declarations
	OpDeclareVariable OpKind = iota // result = declared variable; Src1 = optional literal initializer
	OpDeclareArray                  // result = declared array; element count in Operation.Count

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv

	// Data movement
	OpAssign     // result = Src1
	OpArrayStore // result(array)[Src2] = Src1
	OpArrayLoad  // result = Src1(array)[Src2]

	// Control flow — label id carried in Operation.Label
	OpLabel
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse

	// Comparisons — result = 0 or 1
	OpEqual
	OpNotEqual
	OpLessThan
	OpGreaterThan
	OpLessEqual
	OpGreaterEqual

	// Logical (eager, integer-encoded)
	OpAnd
	OpOr
	OpNot

	// I/O
	OpInput  // result = value read
	OpOutput // Src1 = value written

	// Procedures — callee name carried in Operation.Callee
	OpCall
	OpReturn
)

var opKindNames = map[OpKind]string{
	OpDeclareVariable: "declare", OpDeclareArray: "declare_array",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpAssign: "assign", OpArrayStore: "array_store", OpArrayLoad: "array_load",
	OpLabel: "label", OpJump: "jump", OpJumpIfTrue: "jump_if_true", OpJumpIfFalse: "jump_if_false",
	OpEqual: "eq", OpNotEqual: "ne", OpLessThan: "lt", OpGreaterThan: "gt",
	OpLessEqual: "le", OpGreaterEqual: "ge",
	OpAnd: "and", OpOr: "or", OpNot: "not",
	OpInput: "input", OpOutput: "output",
	OpCall: "call", OpReturn: "return",
}

func (k OpKind) String() string {
	if s, ok := opKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("op_%d", int(k))
}

// Operation is an operation kind plus its payload. Payload fields are used
// only by the kinds that need them; operands never live here.
type Operation struct {
	Kind   OpKind
	Label  int      // label id (OpLabel, OpJump, OpJumpIfTrue, OpJumpIfFalse)
	Elem   ast.Type // element type (OpDeclareVariable, OpDeclareArray)
	Count  int      // element count (OpDeclareArray)
	Callee string   // routine name (OpCall)
}

func (op Operation) String() string {
	switch op.Kind {
	case OpLabel, OpJump, OpJumpIfTrue, OpJumpIfFalse:
		return fmt.Sprintf("%s L%d", op.Kind, op.Label)
	case OpDeclareVariable:
		return fmt.Sprintf("%s %s", op.Kind, op.Elem)
	case OpDeclareArray:
		return fmt.Sprintf("%s %s[%d]", op.Kind, op.Elem, op.Count)
	case OpCall:
		return fmt.Sprintf("%s %s", op.Kind, op.Callee)
	default:
		return op.Kind.String()
	}
}

// ---------------------------------------------------------------------------
// Quadruple
// ---------------------------------------------------------------------------

// Quadruple is a single fixed-arity IR instruction. Type is the resolved
// operand type stamped at IR-generation time; the emitter uses it to choose
// between the integer and floating-point instruction paths.
type Quadruple struct {
	Op     Operation
	Src1   Operand
	Src2   Operand
	Result Operand
	Type   ast.Type
}

func (q Quadruple) String() string {
	s := q.Op.String()
	if q.Src1.Kind != OperandEmpty {
		s += " " + q.Src1.String()
	}
	if q.Src2.Kind != OperandEmpty {
		s += ", " + q.Src2.String()
	}
	if q.Result.Kind != OperandEmpty {
		s += " -> " + q.Result.String()
	}
	return s
}

// ---------------------------------------------------------------------------
// QuadProgram
// ---------------------------------------------------------------------------

// QuadProgram is an ordered quadruple sequence plus the two monotonic id
// counters. It is appended to strictly in program order and is the sole
// handoff artifact between the IR generator and the assembly generator,
// which treats it as immutable. Ids are program-wide unique, never reused
// within one generation pass.
type QuadProgram struct {
	Quads []Quadruple

	nextTemp  int
	nextLabel int
}

// NewQuadProgram returns an empty program with both counters at zero.
func NewQuadProgram() *QuadProgram {
	return &QuadProgram{}
}

// Emit appends a quadruple to the program.
func (p *QuadProgram) Emit(q Quadruple) {
	p.Quads = append(p.Quads, q)
}

// NewTemp returns a fresh temporary operand.
func (p *QuadProgram) NewTemp() Operand {
	t := Temp(p.nextTemp)
	p.nextTemp++
	return t
}

// NewLabel returns a fresh label id.
func (p *QuadProgram) NewLabel() int {
	l := p.nextLabel
	p.nextLabel++
	return l
}

// Dump returns a human-readable listing of the whole program.
func (p *QuadProgram) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Quadruples (%d instructions, %d temps, %d labels) ===\n",
		len(p.Quads), p.nextTemp, p.nextLabel)
	for i, q := range p.Quads {
		fmt.Fprintf(&b, "%4d: %s\n", i, q)
	}
	return b.String()
}
