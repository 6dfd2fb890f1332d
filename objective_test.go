package lgbm

import (
	"strings"
	"testing"

	"tinygo.org/x/go-llvm"
)

func TestParseObjective(t *testing.T) {
	tests := []struct {
		input string
		want  objectiveKind
	}{
		{"binary sigmoid:1", objBinary},
		{"binary", objBinary},
		{"cross_entropy", objXEntropy},
		{"xentropy", objXEntropy},
		{"cross_entropy_lambda", objXEntLambda},
		{"xentlambda", objXEntLambda},
		{"poisson", objExpOnly},
		{"gamma", objExpOnly},
		{"tweedie", objExpOnly},
		{"regression", objRegression},
		{"regression_l1 sqrt", objRegression},
		{"huber", objRegression},
		{"lambdarank", objIdentity},
		{"rank_xendcg", objIdentity},
		{"custom", objIdentity},
		{"", objUnknown},
		{"some_unrecognized_objective", objUnknown},
	}

	for _, tc := range tests {
		got := parseObjective(tc.input)
		if got.kind != tc.want {
			t.Errorf("parseObjective(%q).kind = %v, want %v", tc.input, got.kind, tc.want)
		}
	}
}

func TestSigmoidAlpha(t *testing.T) {
	tests := []struct {
		config  string
		want    float64
		wantErr bool
	}{
		{"sigmoid:1", 1.0, false},
		{"sigmoid:0.5", 0.5, false},
		{"sigmoid:2.25", 2.25, false},
		{"sigmoid:0", 0, true},
		{"sigmoid:-1", 0, true},
		{"no-colon-here", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		got, err := sigmoidAlpha(tc.config)
		if tc.wantErr {
			if err == nil {
				t.Errorf("sigmoidAlpha(%q): expected error, got nil", tc.config)
			}
			continue
		}
		if err != nil {
			t.Errorf("sigmoidAlpha(%q): unexpected error: %v", tc.config, err)
			continue
		}
		if got != tc.want {
			t.Errorf("sigmoidAlpha(%q) = %v, want %v", tc.config, got, tc.want)
		}
	}
}

// TestObjectiveLowerEmitsExpectedIntrinsics checks that each objective
// kind declares (and only declares) the intrinsics its transform needs.
func TestObjectiveLowerEmitsExpectedIntrinsics(t *testing.T) {
	tests := []struct {
		name        string
		obj         Objective
		wantCalls   []string
		wantNoCalls []string
	}{
		{"binary", Objective{kind: objBinary, config: "sigmoid:1"}, []string{"llvm.exp.f64"}, []string{"llvm.log.f64", "llvm.copysign.f64"}},
		{"xentlambda", Objective{kind: objXEntLambda}, []string{"llvm.exp.f64", "llvm.log.f64"}, []string{"llvm.copysign.f64"}},
		{"poisson", Objective{kind: objExpOnly}, []string{"llvm.exp.f64"}, []string{"llvm.log.f64", "llvm.copysign.f64"}},
		{"regression_sqrt", Objective{kind: objRegression, config: "sqrt"}, []string{"llvm.copysign.f64"}, []string{"llvm.exp.f64", "llvm.log.f64"}},
		{"regression_plain", Objective{kind: objRegression}, nil, []string{"llvm.exp.f64", "llvm.log.f64", "llvm.copysign.f64"}},
		{"identity", Objective{kind: objIdentity}, nil, []string{"llvm.exp.f64", "llvm.log.f64", "llvm.copysign.f64"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := llvm.NewContext()
			defer ctx.Dispose()
			mod := ctx.NewModule("test")
			defer mod.Dispose()

			b := ctx.NewBuilder()
			defer b.Dispose()

			fn := llvm.AddFunction(mod, "probe", llvm.FunctionType(f64Type, []llvm.Type{f64Type}, false))
			entry := llvm.AddBasicBlock(fn, "entry")
			b.SetInsertPointAtEnd(entry)

			result, err := tc.obj.lower(b, mod, fn.Param(0))
			if err != nil {
				t.Fatalf("lower: %v", err)
			}
			b.CreateRet(result)

			ir := mod.String()
			for _, want := range tc.wantCalls {
				if !strings.Contains(ir, want) {
					t.Errorf("expected IR to declare %s, got:\n%s", want, ir)
				}
			}
			for _, notWant := range tc.wantNoCalls {
				if strings.Contains(ir, notWant) {
					t.Errorf("expected IR to NOT declare %s, got:\n%s", notWant, ir)
				}
			}
		})
	}
}

func TestObjectiveLowerRejectsUnknown(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	mod := ctx.NewModule("test")
	defer mod.Dispose()
	b := ctx.NewBuilder()
	defer b.Dispose()

	fn := llvm.AddFunction(mod, "probe", llvm.FunctionType(f64Type, []llvm.Type{f64Type}, false))
	entry := llvm.AddBasicBlock(fn, "entry")
	b.SetInsertPointAtEnd(entry)

	obj := Objective{kind: objUnknown, name: "made_up_objective"}
	_, err := obj.lower(b, mod, fn.Param(0))
	if err == nil {
		t.Fatal("expected error for unknown objective, got nil")
	}
	var ce *CodegenError
	if !asCodegenError(err, &ce) {
		t.Fatalf("expected *CodegenError, got %T", err)
	}
	if ce.Sentinel != ErrUnsupportedObjective {
		t.Errorf("Sentinel = %v, want ErrUnsupportedObjective", ce.Sentinel)
	}
}

func TestObjectiveLowerRejectsBadSigmoidAlpha(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	mod := ctx.NewModule("test")
	defer mod.Dispose()
	b := ctx.NewBuilder()
	defer b.Dispose()

	fn := llvm.AddFunction(mod, "probe", llvm.FunctionType(f64Type, []llvm.Type{f64Type}, false))
	entry := llvm.AddBasicBlock(fn, "entry")
	b.SetInsertPointAtEnd(entry)

	obj := Objective{kind: objBinary, config: "sigmoid:-5"}
	_, err := obj.lower(b, mod, fn.Param(0))
	if err == nil {
		t.Fatal("expected error for non-positive sigmoid alpha, got nil")
	}
}

func asCodegenError(err error, target **CodegenError) bool {
	ce, ok := err.(*CodegenError)
	if ok {
		*target = ce
	}
	return ok
}
