// Package backend lowers a disambiguated (and optionally inlined)
// *ast.Block full of top-level FunctionDefinitions into LLVM IR text via
// github.com/llir/llvm, the one domain dependency carried forward from
// the teacher's own code generator unchanged.
//
// Grounded on internal/codegen/llvm.go's generateFunction/
// generateStatement/generateExpression recursion (alloca-per-variable,
// load-before-use, one ir.Block per control-flow edge) — cut down to
// this module's statement set: no modules, imports, custom types,
// arrays, or maps, since none of those exist in this IL.
package backend

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/ilerr"
)

// Backend accumulates LLVM IR across every function lowered into one
// module.
type Backend struct {
	module    *ir.Module
	functions map[string]*ir.Func
	runtime   map[string]*ir.Func
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		module:    ir.NewModule(),
		functions: make(map[string]*ir.Func),
		runtime:   make(map[string]*ir.Func),
	}
}

// Lower declares and generates every top-level FunctionDefinition in
// root, returning the assembled module. root is assumed already
// disambiguated: every local name lowered is expected to be unique, so
// the lowering never needs to guard against shadowing.
func (b *Backend) Lower(root *ast.Block) (*ir.Module, error) {
	var fns []*ast.Statement
	for i := range root.Statements {
		s := &root.Statements[i]
		if s.Kind != ast.KindFunctionDefinition {
			continue
		}
		fns = append(fns, s)
		if err := b.declareFunction(s); err != nil {
			return nil, fmt.Errorf("declaring function %q: %w", s.Name, err)
		}
	}
	for _, fn := range fns {
		if err := b.lowerFunction(fn); err != nil {
			return nil, fmt.Errorf("lowering function %q: %w", fn.Name, err)
		}
	}
	return b.module, nil
}

func (b *Backend) declareFunction(fn *ast.Statement) error {
	if len(fn.Returns) != 1 {
		return ilerr.Unimplemented("backend: function %q must have exactly one return value, has %d", fn.Name, len(fn.Returns))
	}
	retType, err := convertType(fn.Returns[0].Type)
	if err != nil {
		return err
	}
	llvmFn := b.module.NewFunc(fn.Name, retType)
	for _, p := range fn.Params {
		pt, err := convertType(p.Type)
		if err != nil {
			return err
		}
		llvmFn.Params = append(llvmFn.Params, ir.NewParam(p.Name, pt))
	}
	b.functions[fn.Name] = llvmFn
	return nil
}

func convertType(name string) (types.Type, error) {
	switch name {
	case "int":
		return types.I64, nil
	case "float":
		return types.Double, nil
	case "bool":
		return types.I1, nil
	case "string":
		return types.NewPointer(types.I8), nil
	default:
		return nil, ilerr.Malformed("backend: unsupported type %q", name)
	}
}

// funcLowerer carries one function's lowering state: the block currently
// being appended to, and the alloca backing each local variable.
type funcLowerer struct {
	backend *Backend
	fn      *ir.Func
	block   *ir.Block
	vars    map[string]value.Value // each entry is an *ir.InstAlloca
}

func (b *Backend) lowerFunction(fn *ast.Statement) error {
	llvmFn := b.functions[fn.Name]
	entry := llvmFn.NewBlock("entry")
	fl := &funcLowerer{backend: b, fn: llvmFn, block: entry, vars: make(map[string]value.Value)}

	for i, p := range fn.Params {
		pt, err := convertType(p.Type)
		if err != nil {
			return err
		}
		alloca := fl.block.NewAlloca(pt)
		alloca.SetName(p.Name + ".addr")
		fl.block.NewStore(llvmFn.Params[i], alloca)
		fl.vars[p.Name] = alloca
	}

	if err := fl.lowerBlock(fn.Body); err != nil {
		return err
	}

	retType, err := convertType(fn.Returns[0].Type)
	if err != nil {
		return err
	}
	retVal, ok := fl.vars[fn.Returns[0].Name]
	if !ok {
		return ilerr.Malformed("backend: function %q never assigned its return variable %q", fn.Name, fn.Returns[0].Name)
	}
	loaded := fl.block.NewLoad(retType, retVal)
	fl.block.NewRet(loaded)
	return nil
}

func (fl *funcLowerer) lowerBlock(b *ast.Block) error {
	if b == nil {
		return nil
	}
	for i := range b.Statements {
		if err := fl.lowerStatement(&b.Statements[i]); err != nil {
			return err
		}
	}
	return nil
}

func (fl *funcLowerer) lowerStatement(s *ast.Statement) error {
	switch s.Kind {
	case ast.KindLabel, ast.KindStackAssignment, ast.KindInstruction:
		return ilerr.Malformed("backend: legacy stack-form construct %q is not valid input", s.Kind)

	case ast.KindAssignment:
		if len(s.Targets) != 1 {
			return ilerr.Unimplemented("backend: multi-target assignment is not supported")
		}
		val, err := fl.lowerExpr(s.Operand)
		if err != nil {
			return err
		}
		fl.store(s.Targets[0].Name, val)
		return nil

	case ast.KindVariableDeclaration:
		if len(s.Names) != 1 {
			return ilerr.Unimplemented("backend: multi-name variable declaration is not supported")
		}
		t, err := convertType(s.Names[0].Type)
		if err != nil {
			return err
		}
		alloca := fl.block.NewAlloca(t)
		alloca.SetName(s.Names[0].Name + ".addr")
		fl.vars[s.Names[0].Name] = alloca
		if s.Operand != nil {
			val, err := fl.lowerExpr(s.Operand)
			if err != nil {
				return err
			}
			fl.block.NewStore(val, alloca)
		}
		return nil

	case ast.KindIf:
		return fl.lowerIf(s)

	case ast.KindSwitch:
		return fl.lowerSwitch(s)

	case ast.KindForLoop:
		return fl.lowerForLoop(s)

	case ast.KindFunctionDefinition:
		return ilerr.Unimplemented("backend: nested function definitions must be hoisted before lowering")

	case ast.KindLiteral, ast.KindIdentifier, ast.KindFunctionalInstruction, ast.KindFunctionCall:
		_, err := fl.lowerExpr(s)
		return err

	default:
		return ilerr.Malformed("backend: unknown statement kind %q", s.Kind)
	}
}

func (fl *funcLowerer) store(name string, val value.Value) {
	alloca, ok := fl.vars[name]
	if !ok {
		newAlloca := fl.block.NewAlloca(val.Type())
		newAlloca.SetName(name + ".addr")
		fl.vars[name] = newAlloca
		alloca = newAlloca
	}
	fl.block.NewStore(val, alloca)
}

func (fl *funcLowerer) lowerIf(s *ast.Statement) error {
	cond, err := fl.lowerExpr(s.Operand)
	if err != nil {
		return err
	}
	thenBlock := fl.fn.NewBlock("")
	endBlock := fl.fn.NewBlock("")
	fl.block.NewCondBr(cond, thenBlock, endBlock)

	fl.block = thenBlock
	if err := fl.lowerBlock(s.Body); err != nil {
		return err
	}
	fl.block.NewBr(endBlock)

	fl.block = endBlock
	return nil
}

func (fl *funcLowerer) lowerSwitch(s *ast.Statement) error {
	disc, err := fl.lowerExpr(s.Operand)
	if err != nil {
		return err
	}
	endBlock := fl.fn.NewBlock("")
	var defaultBody *ast.Block
	next := fl.block
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Value == nil {
			defaultBody = c.Body
			continue
		}
		caseVal, err := fl.lowerExpr(c.Value)
		if err != nil {
			return err
		}
		eq := next.NewICmp(enum.IPredEQ, disc, caseVal)
		caseBlock := fl.fn.NewBlock("")
		checkNext := fl.fn.NewBlock("")
		next.NewCondBr(eq, caseBlock, checkNext)

		fl.block = caseBlock
		if err := fl.lowerBlock(c.Body); err != nil {
			return err
		}
		fl.block.NewBr(endBlock)

		next = checkNext
	}
	fl.block = next
	if err := fl.lowerBlock(defaultBody); err != nil {
		return err
	}
	fl.block.NewBr(endBlock)

	fl.block = endBlock
	return nil
}

func (fl *funcLowerer) lowerForLoop(s *ast.Statement) error {
	if err := fl.lowerBlock(s.Pre); err != nil {
		return err
	}
	condBlock := fl.fn.NewBlock("")
	bodyBlock := fl.fn.NewBlock("")
	endBlock := fl.fn.NewBlock("")

	fl.block.NewBr(condBlock)

	fl.block = condBlock
	cond, err := fl.lowerExpr(s.Operand)
	if err != nil {
		return err
	}
	fl.block.NewCondBr(cond, bodyBlock, endBlock)

	fl.block = bodyBlock
	if err := fl.lowerBlock(s.Body); err != nil {
		return err
	}
	if err := fl.lowerBlock(s.Post); err != nil {
		return err
	}
	fl.block.NewBr(condBlock)

	fl.block = endBlock
	return nil
}

func (fl *funcLowerer) lowerExpr(s *ast.Statement) (value.Value, error) {
	if s == nil {
		return nil, ilerr.Malformed("backend: nil expression")
	}
	switch s.Kind {
	case ast.KindLiteral:
		return lowerLiteral(s)

	case ast.KindIdentifier:
		alloca, ok := fl.vars[s.Name]
		if !ok {
			return nil, ilerr.Malformed("backend: undefined variable %q", s.Name)
		}
		ptrType, ok := alloca.Type().(*types.PointerType)
		if !ok {
			return nil, ilerr.Malformed("backend: %q is not addressable", s.Name)
		}
		return fl.block.NewLoad(ptrType.ElemType, alloca), nil

	case ast.KindInstruction:
		return nil, ilerr.Malformed("backend: legacy stack-form instruction %q is not valid input", s.Opcode)

	case ast.KindFunctionalInstruction:
		return fl.lowerOpcode(s)

	case ast.KindFunctionCall:
		callee, ok := fl.backend.functions[s.FunctionName.Name]
		if !ok {
			return nil, ilerr.Malformed("backend: call to undefined function %q", s.FunctionName.Name)
		}
		args := make([]value.Value, len(s.Arguments))
		for i := range s.Arguments {
			v, err := fl.lowerExpr(&s.Arguments[i])
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return fl.block.NewCall(callee, args...), nil

	default:
		return nil, ilerr.Malformed("backend: unexpected statement kind %q in expression position", s.Kind)
	}
}

// lowerOpcode lowers a FunctionalInstruction against internal/primitives'
// opcode set, mirroring the teacher's generateBinary/generateUnary split
// (int/float type promotion, then one NewXxx builder call per opcode).
func (fl *funcLowerer) lowerOpcode(s *ast.Statement) (value.Value, error) {
	switch s.Opcode {
	case "add", "sub", "mul", "div", "eq", "ne", "lt", "le", "gt", "ge", "and", "or":
		return fl.lowerBinaryOpcode(s)
	case "neg", "not":
		return fl.lowerUnaryOpcode(s)
	case "concat", "tostring", "len":
		return nil, ilerr.Unimplemented("backend: opcode %q requires the runtime string helpers, not yet wired", s.Opcode)
	default:
		return nil, ilerr.Malformed("backend: unknown primitive opcode %q", s.Opcode)
	}
}

func (fl *funcLowerer) lowerBinaryOpcode(s *ast.Statement) (value.Value, error) {
	if len(s.Arguments) != 2 {
		return nil, ilerr.Malformed("backend: opcode %q expects 2 arguments, got %d", s.Opcode, len(s.Arguments))
	}
	left, err := fl.lowerExpr(&s.Arguments[0])
	if err != nil {
		return nil, err
	}
	right, err := fl.lowerExpr(&s.Arguments[1])
	if err != nil {
		return nil, err
	}

	// Type promotion: if either operand is float, promote both to float.
	isFloat := left.Type().Equal(types.Double) || right.Type().Equal(types.Double)
	if isFloat {
		if !left.Type().Equal(types.Double) {
			left = fl.block.NewSIToFP(left, types.Double)
		}
		if !right.Type().Equal(types.Double) {
			right = fl.block.NewSIToFP(right, types.Double)
		}
	}

	switch s.Opcode {
	case "add":
		if isFloat {
			return fl.block.NewFAdd(left, right), nil
		}
		return fl.block.NewAdd(left, right), nil

	case "sub":
		if isFloat {
			return fl.block.NewFSub(left, right), nil
		}
		return fl.block.NewSub(left, right), nil

	case "mul":
		if isFloat {
			return fl.block.NewFMul(left, right), nil
		}
		return fl.block.NewMul(left, right), nil

	case "div":
		if isFloat {
			return fl.block.NewFDiv(left, right), nil
		}
		return fl.block.NewSDiv(left, right), nil

	case "eq":
		if isFloat {
			return fl.block.NewFCmp(enum.FPredOEQ, left, right), nil
		}
		return fl.block.NewICmp(enum.IPredEQ, left, right), nil

	case "ne":
		if isFloat {
			return fl.block.NewFCmp(enum.FPredONE, left, right), nil
		}
		return fl.block.NewICmp(enum.IPredNE, left, right), nil

	case "lt":
		if isFloat {
			return fl.block.NewFCmp(enum.FPredOLT, left, right), nil
		}
		return fl.block.NewICmp(enum.IPredSLT, left, right), nil

	case "le":
		if isFloat {
			return fl.block.NewFCmp(enum.FPredOLE, left, right), nil
		}
		return fl.block.NewICmp(enum.IPredSLE, left, right), nil

	case "gt":
		if isFloat {
			return fl.block.NewFCmp(enum.FPredOGT, left, right), nil
		}
		return fl.block.NewICmp(enum.IPredSGT, left, right), nil

	case "ge":
		if isFloat {
			return fl.block.NewFCmp(enum.FPredOGE, left, right), nil
		}
		return fl.block.NewICmp(enum.IPredSGE, left, right), nil

	case "and":
		return fl.block.NewAnd(left, right), nil

	case "or":
		return fl.block.NewOr(left, right), nil

	default:
		return nil, ilerr.Malformed("backend: opcode %q is not a binary opcode", s.Opcode)
	}
}

func (fl *funcLowerer) lowerUnaryOpcode(s *ast.Statement) (value.Value, error) {
	if len(s.Arguments) != 1 {
		return nil, ilerr.Malformed("backend: opcode %q expects 1 argument, got %d", s.Opcode, len(s.Arguments))
	}
	operand, err := fl.lowerExpr(&s.Arguments[0])
	if err != nil {
		return nil, err
	}

	switch s.Opcode {
	case "not":
		one := constant.NewInt(operand.Type().(*types.IntType), 1)
		return fl.block.NewXor(operand, one), nil

	case "neg":
		if operand.Type().Equal(types.Double) {
			zero := constant.NewFloat(types.Double, 0.0)
			return fl.block.NewFSub(zero, operand), nil
		}
		zero := constant.NewInt(operand.Type().(*types.IntType), 0)
		return fl.block.NewSub(zero, operand), nil

	default:
		return nil, ilerr.Malformed("backend: opcode %q is not a unary opcode", s.Opcode)
	}
}

func lowerLiteral(s *ast.Statement) (value.Value, error) {
	switch s.LiteralKind {
	case ast.LitInt:
		return constant.NewInt(types.I64, toInt64(s.LiteralValue)), nil
	case ast.LitFloat:
		return constant.NewFloat(types.Double, toFloat64(s.LiteralValue)), nil
	case ast.LitBool:
		b, _ := s.LiteralValue.(bool)
		if b {
			return constant.NewInt(types.I1, 1), nil
		}
		return constant.NewInt(types.I1, 0), nil
	case ast.LitString:
		return nil, ilerr.Unimplemented("backend: string literal lowering requires the runtime string helpers, not yet wired")
	default:
		return nil, ilerr.Malformed("backend: unknown literal kind %q", s.LiteralKind)
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
