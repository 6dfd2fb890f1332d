package lgbm

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"tinygo.org/x/go-llvm"
)

var llvmInitOnce sync.Once

// initLLVM performs the process-wide, one-shot target initialization
// every execution engine needs. Safe to call repeatedly; there is no teardown obligation.
func initLLVM() {
	llvmInitOnce.Do(func() {
		llvm.InitializeNativeTarget()
		llvm.InitializeNativeAsmPrinter()
		llvm.InitializeNativeAsmParser()
	})
}

// CodeModel selects the LLVM code model used when compiling forest_root
// to machine code.
type CodeModel int

const (
	// CodeModelLarge is the default: large forests can produce call
	// targets more than 2GB apart, which the default code model cannot
	// address.
	CodeModelLarge CodeModel = iota
	CodeModelDefault
)

func (m CodeModel) llvm() llvm.CodeModel {
	if m == CodeModelDefault {
		return llvm.CodeModelDefault
	}
	return llvm.CodeModelLarge
}

// CompileOptions configures the JIT driver's target machine and object
// cache.
type CompileOptions struct {
	// CodeModel defaults to CodeModelLarge when left zero-valued.
	CodeModel CodeModel

	// CachePath, if set and no file exists there yet, is where the
	// compiled object file is written. An existing file at CachePath is
	// never read: Compile always builds and compiles the module from the
	// forest, and leaves an existing file untouched. Nothing checks a
	// written file against the forest; ForestFingerprint can be folded
	// into CachePath to key it.
	CachePath string
}

// CompiledForest is a JIT-compiled forest_root ready to score rows. It
// owns the underlying LLVM execution engine and module; call Dispose
// when done.
type CompiledForest struct {
	engine     llvm.ExecutionEngine
	ctx        llvm.Context
	mod        llvm.Module
	forestFn   llvm.Value
	numClasses int
	numFeature int
}

// Compile builds forest's LLVM module (BuildModule) and JIT-compiles it
// per opts, exposing forest_root as a native callable.
func Compile(forest *Forest, opts CompileOptions) (*CompiledForest, error) {
	initLLVM()

	ctx, mod, err := BuildModule(forest, "lgbm_forest")
	if err != nil {
		return nil, err
	}

	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		mod.Dispose()
		ctx.Dispose()
		return nil, fmt.Errorf("lgbm: resolving target for triple %q: %w", triple, err)
	}

	targetMachine := target.CreateTargetMachine(
		triple,
		llvm.GetHostCPUName(),
		llvm.GetHostCPUFeatures(),
		llvm.CodeGenLevelDefault,
		llvm.RelocPIC,
		opts.CodeModel.llvm(),
	)

	mod.SetDataLayout(targetMachine.CreateTargetData().String())
	mod.SetTarget(triple)

	engineOpts := llvm.NewMCJITCompilerOptions()
	engineOpts.SetMCJITCodeModel(opts.CodeModel.llvm())
	engine, err := llvm.NewMCJITCompiler(mod, engineOpts)
	if err != nil {
		mod.Dispose()
		ctx.Dispose()
		return nil, fmt.Errorf("lgbm: creating MCJIT compiler: %w", err)
	}

	engine.RunStaticConstructors()

	// Only the persisting half of an object cache: when CachePath is set
	// and no file exists there, the module's object code is written to
	// it. An existing file is not loaded; the module above is always
	// compiled from the forest.
	if opts.CachePath != "" {
		if _, statErr := os.Stat(opts.CachePath); statErr != nil {
			if buf, emitErr := targetMachine.EmitToMemoryBuffer(mod, llvm.ObjectFile); emitErr == nil {
				_ = os.WriteFile(opts.CachePath, buf.Bytes(), 0o644)
			}
		}
	}

	if os.Getenv("LLEAVES_PRINT_ASM") == "1" {
		if buf, asmErr := targetMachine.EmitToMemoryBuffer(mod, llvm.AssemblyFile); asmErr == nil {
			fmt.Fprintln(os.Stderr, string(buf.Bytes()))
		}
	}

	cf := &CompiledForest{
		engine:     engine,
		ctx:        ctx,
		mod:        mod,
		forestFn:   mod.NamedFunction(forestFuncName),
		numClasses: forest.NumClasses,
		numFeature: len(forest.Features),
	}
	return cf, nil
}

// Dispose releases the execution engine, module, and context. The
// CompiledForest must not be used afterward.
func (cf *CompiledForest) Dispose() {
	// The engine owns the module and disposes it with itself.
	cf.engine.Dispose()
	cf.ctx.Dispose()
}

// NumFeatures returns the number of input columns the compiled forest
// expects.
func (cf *CompiledForest) NumFeatures() int { return cf.numFeature }

// PredictDense scores rows [0, nRows) of a dense, row-major feature
// matrix into out, sharding row ranges across goroutines and dispatching
// each shard against the JIT-compiled forest_root entry point.
func (cf *CompiledForest) PredictDense(data []float64, nRows int, out []float64) error {
	if cf.numFeature == 0 {
		return &ModelError{Detail: "compiled forest has zero features"}
	}
	if len(data) < nRows*cf.numFeature {
		return fmt.Errorf("%w: data has %d values, need at least %d for %d rows",
			ErrFeatureCountMismatch, len(data), nRows*cf.numFeature, nRows)
	}
	if len(out) < nRows {
		return fmt.Errorf("%w: output slice length %d, need at least %d", ErrInvalidModel, len(out), nRows)
	}
	if nRows == 0 {
		return nil
	}

	nThreads := runtime.NumCPU()
	if nThreads < 1 || nRows <= nThreads {
		cf.runForestRoot(data, out, 0, int32(nRows))
		return nil
	}

	var wg sync.WaitGroup
	rowsPerThread := (nRows + nThreads - 1) / nThreads
	for t := 0; t < nThreads; t++ {
		start := t * rowsPerThread
		end := start + rowsPerThread
		if end > nRows {
			end = nRows
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int32) {
			defer wg.Done()
			cf.runForestRoot(data, out, start, end)
		}(int32(start), int32(end))
	}
	wg.Wait()
	return nil
}

// runForestRoot invokes the compiled forest_root(data, out, start, end)
// through the execution engine's generic-value call interface, passing
// raw pointers into the Go slices backing data/out.
func (cf *CompiledForest) runForestRoot(data, out []float64, start, end int32) {
	dataPtr := llvm.NewGenericValueFromPointer(unsafe.Pointer(&data[0]))
	outPtr := llvm.NewGenericValueFromPointer(unsafe.Pointer(&out[0]))
	startVal := llvm.NewGenericValueFromInt(i32Type, uint64(uint32(start)), true)
	endVal := llvm.NewGenericValueFromInt(i32Type, uint64(uint32(end)), true)
	cf.engine.RunFunction(cf.forestFn, []llvm.GenericValue{dataPtr, outPtr, startVal, endVal})
}
