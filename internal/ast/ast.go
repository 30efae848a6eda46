package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Type is the resolved type of a Brio value, filled in by the semantic
// analyzer before the tree reaches the backend.
type Type int

const (
	TypeUnknown Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// Program (root)
// ---------------------------------------------------------------------------

// Program is the root of a validated Brio syntax tree: declarations and
// statements in source order. By the time the backend sees it, the semantic
// analyzer has already checked types, duplicates and undeclared names; the
// backend trusts the tree completely.
type Program struct {
	Stmts []Stmt
	Pos   Position
}

func (n *Program) GetPos() Position { return n.Pos }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// BlockStmt is a brace-delimited list of statements.
type BlockStmt struct {
	Stmts []Stmt
	Pos   Position
}

func (n *BlockStmt) GetPos() Position { return n.Pos }
func (n *BlockStmt) stmtNode()        {}

// VarDecl: var <name>[, <name>...]: <type>  or  var <name>: <type>[<count>]
// A scalar declaration may carry a literal initializer. Array declarations
// never do.
type VarDecl struct {
	Names   []string
	Type    Type
	IsArray bool
	Count   int  // element count (IsArray only)
	Init    Expr // optional literal initializer (scalar declarations only)
	Pos     Position
}

func (n *VarDecl) GetPos() Position { return n.Pos }
func (n *VarDecl) stmtNode()        {}

// AssignStmt: <target> := <value>;  target is *Ident or *IndexExpr.
type AssignStmt struct {
	Target Expr
	Value  Expr
	Pos    Position
}

func (n *AssignStmt) GetPos() Position { return n.Pos }
func (n *AssignStmt) stmtNode()        {}

// IfStmt: if <cond> then <then> [else <else>]
type IfStmt struct {
	Cond Expr
	Then *BlockStmt
	Else *BlockStmt // nil when there is no else branch
	Pos  Position
}

func (n *IfStmt) GetPos() Position { return n.Pos }
func (n *IfStmt) stmtNode()        {}

// DoWhileStmt: do <body> while <cond>  — body always runs at least once.
type DoWhileStmt struct {
	Body *BlockStmt
	Cond Expr
	Pos  Position
}

func (n *DoWhileStmt) GetPos() Position { return n.Pos }
func (n *DoWhileStmt) stmtNode()        {}

// ForStmt: for <var> from <from> to <to> step <step> <body>
// The loop condition is always a strict less-than against To, whatever the
// sign of Step.
type ForStmt struct {
	Var  string
	From Expr
	To   Expr
	Step Expr
	Body *BlockStmt
	Pos  Position
}

func (n *ForStmt) GetPos() Position { return n.Pos }
func (n *ForStmt) stmtNode()        {}

// InputStmt: input <target>;  target is *Ident or *IndexExpr.
type InputStmt struct {
	Target Expr
	Pos    Position
}

func (n *InputStmt) GetPos() Position { return n.Pos }
func (n *InputStmt) stmtNode()        {}

// OutputStmt: output <expr>[, <expr>...];
type OutputStmt struct {
	Values []Expr
	Pos    Position
}

func (n *OutputStmt) GetPos() Position { return n.Pos }
func (n *OutputStmt) stmtNode()        {}

// CallStmt: call <name>;  — direct transfer to a named routine, no arguments.
type CallStmt struct {
	Name string
	Pos  Position
}

func (n *CallStmt) GetPos() Position { return n.Pos }
func (n *CallStmt) stmtNode()        {}

// ReturnStmt: return;
type ReturnStmt struct {
	Pos Position
}

func (n *ReturnStmt) GetPos() Position { return n.Pos }
func (n *ReturnStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Ident is a plain identifier reference.
type Ident struct {
	Name string
	Pos  Position
}

func (n *Ident) GetPos() Position { return n.Pos }
func (n *Ident) exprNode()        {}

// IntLit is a 32-bit signed integer literal.
type IntLit struct {
	Value int32
	Pos   Position
}

func (n *IntLit) GetPos() Position { return n.Pos }
func (n *IntLit) exprNode()        {}

// FloatLit is a single-precision float literal. The value is widened to
// float64 in the tree; the backend narrows it back when it needs the
// IEEE-754 bit pattern.
type FloatLit struct {
	Value float64
	Pos   Position
}

func (n *FloatLit) GetPos() Position { return n.Pos }
func (n *FloatLit) exprNode()        {}

// StringLit is a string literal (value already unescaped, without quotes).
type StringLit struct {
	Value string
	Pos   Position
}

func (n *StringLit) GetPos() Position { return n.Pos }
func (n *StringLit) exprNode()        {}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	Pos   Position
}

func (n *BoolLit) GetPos() Position { return n.Pos }
func (n *BoolLit) exprNode()        {}

// IndexExpr: <name>[<index>]  — arrays are only ever accessed by name.
type IndexExpr struct {
	Name  string
	Index Expr
	Pos   Position
}

func (n *IndexExpr) GetPos() Position { return n.Pos }
func (n *IndexExpr) exprNode()        {}

// UnaryExpr: not <operand>
type UnaryExpr struct {
	Op      string
	Operand Expr
	Pos     Position
}

func (n *UnaryExpr) GetPos() Position { return n.Pos }
func (n *UnaryExpr) exprNode()        {}

// BinaryExpr: <left> <op> <right>
// Ops: + - * /  == != < > <= >=  and or
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *BinaryExpr) GetPos() Position { return n.Pos }
func (n *BinaryExpr) exprNode()        {}

// ---------------------------------------------------------------------------
// Debug printer — produces a human-readable tree representation
// ---------------------------------------------------------------------------

// DebugString returns a readable multi-line representation of the tree.
func DebugString(prog *Program) string {
	var b strings.Builder
	b.WriteString("Program\n")
	for _, s := range prog.Stmts {
		debugStmt(&b, s, 1)
	}
	return b.String()
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func debugStmt(b *strings.Builder, s Stmt, level int) {
	writeIndent(b, level)
	switch s := s.(type) {
	case *VarDecl:
		if s.IsArray {
			fmt.Fprintf(b, "VarDecl %s: %s[%d]\n", strings.Join(s.Names, ", "), s.Type, s.Count)
		} else if s.Init != nil {
			fmt.Fprintf(b, "VarDecl %s: %s = %s\n", strings.Join(s.Names, ", "), s.Type, ExprString(s.Init))
		} else {
			fmt.Fprintf(b, "VarDecl %s: %s\n", strings.Join(s.Names, ", "), s.Type)
		}
	case *AssignStmt:
		fmt.Fprintf(b, "AssignStmt %s := %s\n", ExprString(s.Target), ExprString(s.Value))
	case *IfStmt:
		fmt.Fprintf(b, "IfStmt (%s)\n", ExprString(s.Cond))
		debugBlock(b, s.Then, level+1)
		if s.Else != nil {
			writeIndent(b, level+1)
			b.WriteString("Else:\n")
			debugBlock(b, s.Else, level+2)
		}
	case *DoWhileStmt:
		fmt.Fprintf(b, "DoWhileStmt (%s)\n", ExprString(s.Cond))
		debugBlock(b, s.Body, level+1)
	case *ForStmt:
		fmt.Fprintf(b, "ForStmt %s from %s to %s step %s\n",
			s.Var, ExprString(s.From), ExprString(s.To), ExprString(s.Step))
		debugBlock(b, s.Body, level+1)
	case *InputStmt:
		fmt.Fprintf(b, "InputStmt %s\n", ExprString(s.Target))
	case *OutputStmt:
		vals := make([]string, len(s.Values))
		for i, v := range s.Values {
			vals[i] = ExprString(v)
		}
		fmt.Fprintf(b, "OutputStmt %s\n", strings.Join(vals, ", "))
	case *CallStmt:
		fmt.Fprintf(b, "CallStmt %s\n", s.Name)
	case *ReturnStmt:
		b.WriteString("ReturnStmt\n")
	case *BlockStmt:
		fmt.Fprintf(b, "Block [%d statements]\n", len(s.Stmts))
		for _, inner := range s.Stmts {
			debugStmt(b, inner, level+1)
		}
	default:
		b.WriteString("<unknown stmt>\n")
	}
}

func debugBlock(b *strings.Builder, block *BlockStmt, level int) {
	writeIndent(b, level)
	fmt.Fprintf(b, "Block [%d statements]\n", len(block.Stmts))
	for _, s := range block.Stmts {
		debugStmt(b, s, level+1)
	}
}

// ExprString returns a concise one-line representation of an expression.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *IntLit:
		return fmt.Sprintf("%d", e.Value)
	case *FloatLit:
		return fmt.Sprintf("%g", e.Value)
	case *StringLit:
		return fmt.Sprintf("%q", e.Value)
	case *BoolLit:
		if e.Value {
			return "true"
		}
		return "false"
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", e.Name, ExprString(e.Index))
	case *UnaryExpr:
		return fmt.Sprintf("(%s %s)", e.Op, ExprString(e.Operand))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	default:
		return "<unknown expr>"
	}
}
