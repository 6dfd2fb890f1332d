package lgbm

import (
	"bufio"
	"math"
	"strings"
	"testing"
)

func TestCompileAndPredictDense_SingleTree(t *testing.T) {
	forest := &Forest{
		Trees: []Tree{
			{Idx: 0, Root: numericalNode(0, 0.5, DecisionType{MissingType: MNone}, &LeafNode{Value: -1}, &LeafNode{Value: 1})},
		},
		Features:      []Feature{{}},
		NumClasses:    1,
		ObjectiveFunc: Objective{kind: objIdentity},
	}

	cf, err := Compile(forest, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	defer cf.Dispose()

	if cf.NumFeatures() != 1 {
		t.Fatalf("NumFeatures() = %d, want 1", cf.NumFeatures())
	}

	data := []float64{0.2, 0.8, 0.5}
	out := make([]float64, 3)
	if err := cf.PredictDense(data, 3, out); err != nil {
		t.Fatalf("PredictDense() failed: %v", err)
	}

	want := []float64{-1, 1, -1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestCompileAndPredictDense_BinarySigmoidForest(t *testing.T) {
	forest, err := ForestFromReader(bufio.NewReader(strings.NewReader(binaryModelText)))
	if err != nil {
		t.Fatalf("ForestFromReader() failed: %v", err)
	}

	cf, err := Compile(forest, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	defer cf.Dispose()

	// Row 1: feature 0 <= 0.5 routes tree 0 left (-0.2). cat_threshold=6
	// is the bitset 0b110, so categories {1, 2} route tree 1 left; feature
	// 1 = 2 is a member, giving tree 1's left leaf (-0.1).
	data := []float64{
		0.1, 2,
	}
	out := make([]float64, 1)
	if err := cf.PredictDense(data, 1, out); err != nil {
		t.Fatalf("PredictDense() failed: %v", err)
	}

	raw := -0.2 + -0.1
	want := 1.0 / (1.0 + math.Exp(-raw))
	if math.Abs(out[0]-want) > 1e-9 {
		t.Errorf("out[0] = %v, want %v", out[0], want)
	}
}

func TestPredictDense_RejectsShortOutput(t *testing.T) {
	forest := &Forest{
		Trees:         []Tree{{Idx: 0, Root: &LeafNode{Value: 1}}},
		Features:      []Feature{{}},
		NumClasses:    1,
		ObjectiveFunc: Objective{kind: objIdentity},
	}
	cf, err := Compile(forest, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	defer cf.Dispose()

	err = cf.PredictDense([]float64{1, 2, 3}, 3, make([]float64, 1))
	if err == nil {
		t.Fatal("PredictDense() succeeded with an undersized output slice, want error")
	}
}

func TestPredictDense_RejectsShortInput(t *testing.T) {
	forest := &Forest{
		Trees:         []Tree{{Idx: 0, Root: &LeafNode{Value: 1}}},
		Features:      []Feature{{}, {}},
		NumClasses:    1,
		ObjectiveFunc: Objective{kind: objIdentity},
	}
	cf, err := Compile(forest, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	defer cf.Dispose()

	err = cf.PredictDense([]float64{1, 2, 3}, 3, make([]float64, 3))
	if err == nil {
		t.Fatal("PredictDense() succeeded with undersized input data, want error")
	}
}
