package lgbm

import (
	"strconv"

	"tinygo.org/x/go-llvm"
)

// BuildModule emits one LLVM module containing a tree_<idx> function per
// forest.Trees (in order) plus the forest_root dispatch function. The
// caller owns the returned Context and Module and must Dispose both once
// done (Compile in jit.go hands both to the CompiledForest, whose Dispose
// releases them).
//
// Multiclass forests are rejected here with a clean codegen-time error
// rather than crashing deeper in codegen.
func BuildModule(forest *Forest, moduleName string) (llvm.Context, llvm.Module, error) {
	if forest.NumClasses > 1 {
		return llvm.Context{}, llvm.Module{}, &CodegenError{
			Sentinel: ErrMulticlassNotSupported,
			Detail:   "forest has " + strconv.Itoa(forest.NumClasses) + " classes, " + issueTrackerHint,
		}
	}

	ctx := llvm.NewContext()
	mod := ctx.NewModule(moduleName)

	treeFuncs := make([]llvm.Value, len(forest.Trees))
	for i := range forest.Trees {
		fn, err := genTreeFunc(ctx, mod, forest.Features, &forest.Trees[i])
		if err != nil {
			mod.Dispose()
			ctx.Dispose()
			return llvm.Context{}, llvm.Module{}, err
		}
		treeFuncs[i] = fn
	}

	if _, err := genForestFunc(ctx, mod, forest, treeFuncs); err != nil {
		mod.Dispose()
		ctx.Dispose()
		return llvm.Context{}, llvm.Module{}, err
	}

	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		mod.Dispose()
		ctx.Dispose()
		return llvm.Context{}, llvm.Module{}, &CodegenError{Sentinel: ErrMalformedForest, Detail: "module verification failed: " + err.Error()}
	}

	return ctx, mod, nil
}
