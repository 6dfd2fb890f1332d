package lgbm

import (
	"bufio"
	"strings"
	"testing"
)

// binaryModelText is a small, hand-built two-tree binary-classification
// model: tree 0 splits numerically on feature 0, tree 1 splits
// categorically on feature 1.
const binaryModelText = `tree
version=v4
num_class=1
num_tree_per_iteration=1
label_index=0
max_feature_idx=1
objective=binary sigmoid:1
feature_names=Column_0 Column_1
average_output=false

Tree=0
num_leaves=2
num_cat=0
split_feature=0
split_gain=12.3
threshold=0.5
decision_type=2
left_child=-1
right_child=-2
leaf_value=-0.2 0.3
leaf_weight=10 10
leaf_count=10 10
internal_value=0.05
internal_weight=20
internal_count=20
is_linear=0
shrinkage=1

Tree=1
num_leaves=2
num_cat=1
split_feature=1
split_gain=8.1
threshold=0.0
decision_type=1
left_child=-1
right_child=-2
leaf_value=-0.1 0.15
leaf_weight=5 5
leaf_count=5 5
internal_value=0.02
internal_weight=10
internal_count=10
is_linear=0
shrinkage=1
cat_boundaries=0 1
cat_threshold=6

end of trees

feature_importances:
Column_0=1
Column_1=1

parameters:
[boosting: gbdt]
`

func TestIntegration_ParseForest(t *testing.T) {
	forest, err := ForestFromReader(bufio.NewReader(strings.NewReader(binaryModelText)))
	if err != nil {
		t.Fatalf("ForestFromReader() failed: %v", err)
	}

	if forest.NFeatures() != 2 {
		t.Errorf("NFeatures() = %d, want 2", forest.NFeatures())
	}
	if forest.NClasses() != 1 {
		t.Errorf("NClasses() = %d, want 1", forest.NClasses())
	}
	if forest.NTrees() != 2 {
		t.Errorf("NTrees() = %d, want 2", forest.NTrees())
	}

	names := forest.FeatureNames()
	if len(names) != 2 || names[0] != "Column_0" || names[1] != "Column_1" {
		t.Errorf("FeatureNames() = %v, want [Column_0 Column_1]", names)
	}

	if forest.Features[0].IsCategorical {
		t.Error("Features[0].IsCategorical = true, want false (tree 0 splits numerically)")
	}
	if !forest.Features[1].IsCategorical {
		t.Error("Features[1].IsCategorical = false, want true (tree 1 splits categorically)")
	}

	if forest.ObjectiveFunc.kind != objBinary {
		t.Errorf("ObjectiveFunc.kind = %v, want objBinary", forest.ObjectiveFunc.kind)
	}
}

func TestIntegration_ParseAndBuildModule(t *testing.T) {
	forest, err := ForestFromReader(bufio.NewReader(strings.NewReader(binaryModelText)))
	if err != nil {
		t.Fatalf("ForestFromReader() failed: %v", err)
	}

	ctx, mod, err := BuildModule(forest, "integration_test")
	if err != nil {
		t.Fatalf("BuildModule() failed: %v", err)
	}
	defer ctx.Dispose()
	defer mod.Dispose()

	if mod.NamedFunction(forestFuncName).IsNil() {
		t.Error("module has no forest_root function")
	}
	if mod.NamedFunction(treeFuncName(0)).IsNil() {
		t.Error("module has no tree_0 function")
	}
	if mod.NamedFunction(treeFuncName(1)).IsNil() {
		t.Error("module has no tree_1 function")
	}
}

func TestIntegration_MulticlassRejectedAtCodegen(t *testing.T) {
	multiclassText := strings.Replace(binaryModelText, "num_class=1", "num_class=3", 1)

	forest, err := ForestFromReader(bufio.NewReader(strings.NewReader(multiclassText)))
	if err != nil {
		t.Fatalf("ForestFromReader() failed: %v", err)
	}
	if forest.NClasses() != 3 {
		t.Fatalf("NClasses() = %d, want 3 (precondition for this test)", forest.NClasses())
	}

	_, _, err = BuildModule(forest, "integration_test_multiclass")
	if err == nil {
		t.Fatal("BuildModule() succeeded for multiclass forest, want error")
	}
	var ce *CodegenError
	if !asCodegenError(err, &ce) {
		t.Fatalf("error = %T, want *CodegenError", err)
	}
	if ce.Sentinel != ErrMulticlassNotSupported {
		t.Errorf("Sentinel = %v, want ErrMulticlassNotSupported", ce.Sentinel)
	}
}
