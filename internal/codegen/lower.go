package codegen

import (
	"brio/internal/ast"
)

// ---------------------------------------------------------------------------
// Lowerer — translates a validated syntax tree into a QuadProgram
//
// The walk is total over the accepted grammar: it performs no validation
// (the semantic analyzer already has) and cannot fail. Any tree shape
// outside the statement and expression kinds below is a contract violation
// in the caller and lowers to nothing.
// ---------------------------------------------------------------------------

// Lowerer walks the tree and appends quadruples in program order.
type Lowerer struct {
	prog *QuadProgram

	// Declared types, recorded as declarations are lowered. Used to stamp
	// each quadruple with its resolved type so the emitter can pick the
	// float or integer instruction path without sniffing operand tags.
	varTypes  map[string]ast.Type
	tempTypes map[int]ast.Type
}

// Lower translates a program into a fresh QuadProgram.
func Lower(program *ast.Program) *QuadProgram {
	l := &Lowerer{
		prog:      NewQuadProgram(),
		varTypes:  map[string]ast.Type{},
		tempTypes: map[int]ast.Type{},
	}
	for _, stmt := range program.Stmts {
		l.lowerStmt(stmt)
	}
	return l.prog
}

func (l *Lowerer) emit(q Quadruple) {
	l.prog.Emit(q)
}

// newTemp allocates a fresh temporary and records its result type.
func (l *Lowerer) newTemp(t ast.Type) Operand {
	tmp := l.prog.NewTemp()
	l.tempTypes[tmp.Temp] = t
	return tmp
}

// operandType resolves the static type of an already-lowered operand.
func (l *Lowerer) operandType(o Operand) ast.Type {
	switch o.Kind {
	case OperandIntLit:
		return ast.TypeInt
	case OperandFloatLit:
		return ast.TypeFloat
	case OperandStrLit:
		return ast.TypeString
	case OperandVar:
		return l.varTypes[o.Name]
	case OperandTemp:
		return l.tempTypes[o.Temp]
	}
	return ast.TypeUnknown
}

// promote picks the arithmetic result type of two operand types: Float wins.
func promote(a, b ast.Type) ast.Type {
	if a == ast.TypeFloat || b == ast.TypeFloat {
		return ast.TypeFloat
	}
	return ast.TypeInt
}

// ---------------------------------------------------------------------------
// Statement lowering
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		l.lowerVarDecl(s)
	case *ast.AssignStmt:
		l.lowerAssign(s)
	case *ast.IfStmt:
		l.lowerIf(s)
	case *ast.DoWhileStmt:
		l.lowerDoWhile(s)
	case *ast.ForStmt:
		l.lowerFor(s)
	case *ast.InputStmt:
		l.lowerInput(s)
	case *ast.OutputStmt:
		l.lowerOutput(s)
	case *ast.CallStmt:
		l.emit(Quadruple{Op: Operation{Kind: OpCall, Callee: s.Name}, Src1: Empty(), Src2: Empty(), Result: Empty()})
	case *ast.ReturnStmt:
		l.emit(Quadruple{Op: Operation{Kind: OpReturn}, Src1: Empty(), Src2: Empty(), Result: Empty()})
	case *ast.BlockStmt:
		l.lowerBlock(s)
	}
}

func (l *Lowerer) lowerBlock(block *ast.BlockStmt) {
	for _, stmt := range block.Stmts {
		l.lowerStmt(stmt)
	}
}

// lowerVarDecl emits one declaration quadruple per declared name. Scalar
// declarations carry an optional literal initializer in Src1; arrays carry
// their cardinality in the operation payload. A computed initializer cannot
// live in the declaration (storage layout only consumes literals), so it
// lowers to a separate assignment after the declaration.
func (l *Lowerer) lowerVarDecl(s *ast.VarDecl) {
	for _, name := range s.Names {
		l.varTypes[name] = s.Type
		if s.IsArray {
			l.emit(Quadruple{
				Op:     Operation{Kind: OpDeclareArray, Elem: s.Type, Count: s.Count},
				Src1:   Empty(),
				Src2:   Empty(),
				Result: Var(name),
				Type:   s.Type,
			})
			continue
		}
		init := Empty()
		if s.Init != nil {
			init = l.lowerExpr(s.Init)
		}
		if init.Kind == OperandVar || init.Kind == OperandTemp {
			l.emit(Quadruple{
				Op:     Operation{Kind: OpDeclareVariable, Elem: s.Type},
				Src1:   Empty(),
				Src2:   Empty(),
				Result: Var(name),
				Type:   s.Type,
			})
			l.emit(Quadruple{
				Op:     Operation{Kind: OpAssign},
				Src1:   init,
				Src2:   Empty(),
				Result: Var(name),
				Type:   s.Type,
			})
			continue
		}
		l.emit(Quadruple{
			Op:     Operation{Kind: OpDeclareVariable, Elem: s.Type},
			Src1:   init,
			Src2:   Empty(),
			Result: Var(name),
			Type:   s.Type,
		})
	}
}

// lowerTarget lowers an assignment/input target to a Var or a transient
// ArrayElem operand. ArrayElem never reaches the final instruction stream;
// the callers unpack it into ArrayStore.
func (l *Lowerer) lowerTarget(e ast.Expr) Operand {
	switch t := e.(type) {
	case *ast.Ident:
		return Var(t.Name)
	case *ast.IndexExpr:
		return ArrayElem(t.Name, l.lowerExpr(t.Index))
	}
	return Empty()
}

func (l *Lowerer) lowerAssign(s *ast.AssignStmt) {
	value := l.lowerExpr(s.Value)
	target := l.lowerTarget(s.Target)

	if target.Kind == OperandArrayElem {
		l.emit(Quadruple{
			Op:     Operation{Kind: OpArrayStore},
			Src1:   value,
			Src2:   *target.Index,
			Result: Var(target.Name),
			Type:   l.varTypes[target.Name],
		})
		return
	}
	l.emit(Quadruple{
		Op:     Operation{Kind: OpAssign},
		Src1:   value,
		Src2:   Empty(),
		Result: target,
		Type:   l.varTypes[target.Name],
	})
}

// lowerIf lowers both if forms. The if/then/else shape has no jump over the
// else block after the then block: a then block that falls through continues
// into the else body.
func (l *Lowerer) lowerIf(s *ast.IfStmt) {
	cond := l.lowerExpr(s.Cond)
	elseLabel := l.prog.NewLabel()

	l.emit(Quadruple{
		Op:   Operation{Kind: OpJumpIfFalse, Label: elseLabel},
		Src1: cond, Src2: Empty(), Result: Empty(),
	})
	l.lowerBlock(s.Then)
	l.emit(Quadruple{
		Op:   Operation{Kind: OpLabel, Label: elseLabel},
		Src1: Empty(), Src2: Empty(), Result: Empty(),
	})
	if s.Else != nil {
		l.lowerBlock(s.Else)
	}
}

func (l *Lowerer) lowerDoWhile(s *ast.DoWhileStmt) {
	start := l.prog.NewLabel()
	l.emit(Quadruple{
		Op:   Operation{Kind: OpLabel, Label: start},
		Src1: Empty(), Src2: Empty(), Result: Empty(),
	})
	l.lowerBlock(s.Body)
	cond := l.lowerExpr(s.Cond)
	l.emit(Quadruple{
		Op:   Operation{Kind: OpJumpIfTrue, Label: start},
		Src1: cond, Src2: Empty(), Result: Empty(),
	})
}

// lowerFor emits the fixed counting-loop shape. The loop test is always a
// strict less-than against the bound, regardless of the step's sign.
func (l *Lowerer) lowerFor(s *ast.ForStmt) {
	loopVar := Var(s.Var)
	varType := l.varTypes[s.Var]

	init := l.lowerExpr(s.From)
	l.emit(Quadruple{
		Op:   Operation{Kind: OpAssign},
		Src1: init, Src2: Empty(), Result: loopVar,
		Type: varType,
	})

	start := l.prog.NewLabel()
	end := l.prog.NewLabel()

	l.emit(Quadruple{
		Op:   Operation{Kind: OpLabel, Label: start},
		Src1: Empty(), Src2: Empty(), Result: Empty(),
	})

	bound := l.lowerExpr(s.To)
	cmpType := promote(varType, l.operandType(bound))
	cmp := l.newTemp(ast.TypeBool)
	l.emit(Quadruple{
		Op:   Operation{Kind: OpLessThan},
		Src1: loopVar, Src2: bound, Result: cmp,
		Type: cmpType,
	})
	l.emit(Quadruple{
		Op:   Operation{Kind: OpJumpIfFalse, Label: end},
		Src1: cmp, Src2: Empty(), Result: Empty(),
	})

	l.lowerBlock(s.Body)

	step := l.lowerExpr(s.Step)
	sumType := promote(varType, l.operandType(step))
	sum := l.newTemp(sumType)
	l.emit(Quadruple{
		Op:   Operation{Kind: OpAdd},
		Src1: loopVar, Src2: step, Result: sum,
		Type: sumType,
	})
	l.emit(Quadruple{
		Op:   Operation{Kind: OpAssign},
		Src1: sum, Src2: Empty(), Result: loopVar,
		Type: varType,
	})
	l.emit(Quadruple{
		Op:   Operation{Kind: OpJump, Label: start},
		Src1: Empty(), Src2: Empty(), Result: Empty(),
	})
	l.emit(Quadruple{
		Op:   Operation{Kind: OpLabel, Label: end},
		Src1: Empty(), Src2: Empty(), Result: Empty(),
	})
}

func (l *Lowerer) lowerInput(s *ast.InputStmt) {
	target := l.lowerTarget(s.Target)

	if target.Kind == OperandArrayElem {
		elemType := l.varTypes[target.Name]
		tmp := l.newTemp(elemType)
		l.emit(Quadruple{
			Op:   Operation{Kind: OpInput},
			Src1: Empty(), Src2: Empty(), Result: tmp,
			Type: elemType,
		})
		l.emit(Quadruple{
			Op:     Operation{Kind: OpArrayStore},
			Src1:   tmp,
			Src2:   *target.Index,
			Result: Var(target.Name),
			Type:   elemType,
		})
		return
	}
	l.emit(Quadruple{
		Op:   Operation{Kind: OpInput},
		Src1: Empty(), Src2: Empty(), Result: target,
		Type: l.varTypes[target.Name],
	})
}

// lowerOutput emits one Output quadruple per expression, left to right.
func (l *Lowerer) lowerOutput(s *ast.OutputStmt) {
	for _, expr := range s.Values {
		value := l.lowerExpr(expr)
		l.emit(Quadruple{
			Op:   Operation{Kind: OpOutput},
			Src1: value, Src2: Empty(), Result: Empty(),
			Type: l.operandType(value),
		})
	}
}

// ---------------------------------------------------------------------------
// Expression lowering — returns an Operand holding the result
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerExpr(expr ast.Expr) Operand {
	if expr == nil {
		return Empty()
	}

	switch e := expr.(type) {
	case *ast.IntLit:
		return IntLit(e.Value)
	case *ast.FloatLit:
		return FloatLit(e.Value)
	case *ast.StringLit:
		return StrLit(e.Value)
	case *ast.BoolLit:
		if e.Value {
			return IntLit(1)
		}
		return IntLit(0)
	case *ast.Ident:
		return Var(e.Name)
	case *ast.IndexExpr:
		return l.lowerIndexExpr(e)
	case *ast.UnaryExpr:
		return l.lowerUnaryExpr(e)
	case *ast.BinaryExpr:
		return l.lowerBinaryExpr(e)
	}
	return Empty()
}

func (l *Lowerer) lowerIndexExpr(e *ast.IndexExpr) Operand {
	index := l.lowerExpr(e.Index)
	elemType := l.varTypes[e.Name]
	dst := l.newTemp(elemType)
	l.emit(Quadruple{
		Op:     Operation{Kind: OpArrayLoad},
		Src1:   Var(e.Name),
		Src2:   index,
		Result: dst,
		Type:   elemType,
	})
	return dst
}

func (l *Lowerer) lowerUnaryExpr(e *ast.UnaryExpr) Operand {
	operand := l.lowerExpr(e.Operand)
	if e.Op != "not" {
		return operand
	}
	dst := l.newTemp(ast.TypeBool)
	l.emit(Quadruple{
		Op:     Operation{Kind: OpNot},
		Src1:   operand,
		Src2:   Empty(),
		Result: dst,
		Type:   ast.TypeBool,
	})
	return dst
}

// lowerBinaryExpr lowers both sides eagerly: logical and/or evaluate both
// operands and produce no short-circuit instructions.
func (l *Lowerer) lowerBinaryExpr(e *ast.BinaryExpr) Operand {
	left := l.lowerExpr(e.Left)
	right := l.lowerExpr(e.Right)

	var kind OpKind
	switch e.Op {
	case "+":
		kind = OpAdd
	case "-":
		kind = OpSub
	case "*":
		kind = OpMul
	case "/":
		kind = OpDiv
	case "==":
		kind = OpEqual
	case "!=":
		kind = OpNotEqual
	case "<":
		kind = OpLessThan
	case ">":
		kind = OpGreaterThan
	case "<=":
		kind = OpLessEqual
	case ">=":
		kind = OpGreaterEqual
	case "and":
		kind = OpAnd
	case "or":
		kind = OpOr
	default:
		return left
	}

	operandType := promote(l.operandType(left), l.operandType(right))

	var resultType, quadType ast.Type
	switch kind {
	case OpAdd, OpSub, OpMul, OpDiv:
		resultType = operandType
		quadType = operandType
	case OpAnd, OpOr:
		resultType = ast.TypeBool
		quadType = ast.TypeBool
	default:
		// Comparison: the result is boolean but the quadruple is stamped
		// with the operand type so the emitter picks the right compare path.
		resultType = ast.TypeBool
		quadType = operandType
	}

	dst := l.newTemp(resultType)
	l.emit(Quadruple{
		Op:     Operation{Kind: kind},
		Src1:   left,
		Src2:   right,
		Result: dst,
		Type:   quadType,
	})
	return dst
}
