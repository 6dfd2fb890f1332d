package lgbm

import "tinygo.org/x/go-llvm"

// forestFuncName is the emitted top-level scoring function's name —
// callers look this symbol up by name after JIT compilation (jit.go).
const forestFuncName = "forest_root"

// genForestFunc declares and populates forest_root(double* data, double*
// out, i32 start, i32 end): a setup/condition/core/term loop over row
// range [start, end) that gathers each row's feature arguments, calls
// every tree function in Forest.Trees order accumulating with fadd,
// lowers the objective, and stores the result. Grounded
// on lleaves/compiler/codegen/codegen.py's _populate_forest_func.
func genForestFunc(ctx llvm.Context, mod llvm.Module, forest *Forest, treeFuncs []llvm.Value) (llvm.Value, error) {
	fnType := llvm.FunctionType(llvm.VoidType(), []llvm.Type{f64Ptr, f64Ptr, i32Type, i32Type}, false)
	fn := llvm.AddFunction(mod, forestFuncName, fnType)
	data, out, start, end := fn.Param(0), fn.Param(1), fn.Param(2), fn.Param(3)

	b := ctx.NewBuilder()
	defer b.Dispose()

	setup := llvm.AddBasicBlock(fn, "setup")
	cond := llvm.AddBasicBlock(fn, "loop_condition")
	core := llvm.AddBasicBlock(fn, "loop_core")
	term := llvm.AddBasicBlock(fn, "term")

	b.SetInsertPointAtEnd(setup)
	counter := b.CreateAlloca(i32Type, "i")
	b.CreateStore(start, counter)
	b.CreateBr(cond)

	b.SetInsertPointAtEnd(cond)
	i := b.CreateLoad(i32Type, counter, "i_val")
	keepGoing := b.CreateICmp(llvm.IntSLT, i, end, "")
	b.CreateCondBr(keepGoing, core, term)

	b.SetInsertPointAtEnd(core)
	if err := genLoopCore(b, mod, forest, treeFuncs, data, out, counter); err != nil {
		return llvm.Value{}, err
	}
	b.CreateBr(cond)

	b.SetInsertPointAtEnd(term)
	b.CreateRetVoid()

	return fn, nil
}

// genLoopCore emits one iteration's body: gather this row's feature
// arguments, call every tree, accumulate, apply the objective, store,
// increment the counter.
func genLoopCore(b llvm.Builder, mod llvm.Module, forest *Forest, treeFuncs []llvm.Value, data, out llvm.Value, counter llvm.Value) error {
	i := b.CreateLoad(i32Type, counter, "i_val")
	nFeatures := iconst(int64(len(forest.Features)))
	rowBase := b.CreateMul(i, nFeatures, "row_base")

	args := make([]llvm.Value, len(forest.Features))
	for k, feat := range forest.Features {
		offset := b.CreateAdd(rowBase, iconst(int64(k)), "")
		ptr := b.CreateGEP(f64Type, data, []llvm.Value{offset}, "")
		val := b.CreateLoad(f64Type, ptr, "")
		if feat.IsCategorical {
			// fptosi(NaN) lowers to INT_MIN on every target go-llvm
			// supports; this is what makes the categorical range check
			// in codegen_tree.go route NaN to the right child.
			args[k] = b.CreateFPToSI(val, i32Type, "")
		} else {
			args[k] = val
		}
	}

	if len(treeFuncs) == 0 {
		return &CodegenError{Sentinel: ErrMalformedForest, Detail: "forest has no trees"}
	}

	accType := treeFuncs[0].GlobalValueType()
	acc := b.CreateCall(accType, treeFuncs[0], args, "")
	for _, tf := range treeFuncs[1:] {
		contribution := b.CreateCall(tf.GlobalValueType(), tf, args, "")
		acc = b.CreateFAdd(acc, contribution, "")
	}

	result, err := forest.ObjectiveFunc.lower(b, mod, acc)
	if err != nil {
		return err
	}

	outPtr := b.CreateGEP(f64Type, out, []llvm.Value{i}, "")
	b.CreateStore(result, outPtr)

	next := b.CreateAdd(i, iconst(1), "")
	b.CreateStore(next, counter)
	return nil
}
