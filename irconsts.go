package lgbm

import "tinygo.org/x/go-llvm"

// Fixed LLVM types used throughout codegen. These never
// vary with the target triple — LightGBM's wire format is always f64
// thresholds/leaf values, i32 categoricals, i1 predicates.
var (
	boolType = llvm.Int1Type()
	i32Type  = llvm.Int32Type()
	f32Type  = llvm.FloatType()
	f64Type  = llvm.DoubleType()
	f64Ptr   = llvm.PointerType(f64Type, 0)
)

// iconst builds a signed i32 constant.
func iconst(v int64) llvm.Value {
	return llvm.ConstInt(i32Type, uint64(v), true)
}

// fconst builds an f32 constant.
func fconst(v float64) llvm.Value {
	return llvm.ConstFloat(f32Type, v)
}

// dconst builds an f64 constant.
func dconst(v float64) llvm.Value {
	return llvm.ConstFloat(f64Type, v)
}

// declareIntrinsic looks up an already-declared intrinsic function by
// name, or declares it against mod if this is the first call for that
// name in this module. Mirrors llvmlite's module.declare_intrinsic,
// which memoizes per-module the same way.
func declareIntrinsic(mod llvm.Module, name string, retType llvm.Type, argTypes ...llvm.Type) llvm.Value {
	if existing := mod.NamedFunction(name); !existing.IsNil() {
		return existing
	}
	fnType := llvm.FunctionType(retType, argTypes, false)
	return llvm.AddFunction(mod, name, fnType)
}
