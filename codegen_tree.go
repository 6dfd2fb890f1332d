package lgbm

import (
	"strconv"

	"tinygo.org/x/go-llvm"
)

// maxTreeDepth bounds the node-count a single tree traversal may visit
// during codegen. LightGBM trees are shallow in practice (num_leaves <=
// 255), so this is a generous backstop against a pathological or
// corrupted tree recursing the Go stack to death, not a real limit.
const maxTreeDepth = 4096

// genTreeFunc declares and populates the tree_<idx> function for tree,
// whose parameter i is i32 iff features[i].IsCategorical, else f64.
func genTreeFunc(ctx llvm.Context, mod llvm.Module, features []Feature, tree *Tree) (llvm.Value, error) {
	paramTypes := make([]llvm.Type, len(features))
	for i, f := range features {
		if f.IsCategorical {
			paramTypes[i] = i32Type
		} else {
			paramTypes[i] = f64Type
		}
	}
	fnType := llvm.FunctionType(f64Type, paramTypes, false)
	fn := llvm.AddFunction(mod, treeFuncName(tree.Idx), fnType)

	b := ctx.NewBuilder()
	defer b.Dispose()

	entry := llvm.AddBasicBlock(fn, nodeBlockName(tree.Root))
	visited := 0
	if err := genNode(b, fn, entry, tree.Root, &visited); err != nil {
		return llvm.Value{}, err
	}
	return fn, nil
}

// genNode populates block with node's IR and recurses into whichever
// child blocks it allocates.
func genNode(b llvm.Builder, fn llvm.Value, block llvm.BasicBlock, node Node, visited *int) error {
	*visited++
	if *visited > maxTreeDepth {
		return &CodegenError{Sentinel: ErrTreeTooDeep,
			Detail: "exceeded max codegen depth while walking tree"}
	}

	switch n := node.(type) {
	case *LeafNode:
		b.SetInsertPointAtEnd(block)
		b.CreateRet(dconst(n.Value))
		return nil
	case *DecisionNode:
		return genDecisionNode(b, fn, block, n, visited)
	default:
		return &CodegenError{Sentinel: ErrMalformedForest, Detail: "unknown node type"}
	}
}

// genDecisionNode implements the block-layout and fusion rules of
// .2.
func genDecisionNode(b llvm.Builder, fn llvm.Value, block llvm.BasicBlock, node *DecisionNode, visited *int) error {
	if err := node.validate(); err != nil {
		return err
	}

	fusedDoubleLeaf := node.Left.isLeaf() && node.Right.isLeaf()

	var leftBlock, rightBlock llvm.BasicBlock
	if fusedDoubleLeaf {
		// Categorical nodes still need a right block: the range-check
		// fast path must branch somewhere even when both children are
		// leaves.
		if node.Type.Categorical {
			rightBlock = llvm.AddBasicBlock(fn, nodeBlockName(node.Right))
		}
	} else {
		leftBlock = llvm.AddBasicBlock(fn, nodeBlockName(node.Left))
		rightBlock = llvm.AddBasicBlock(fn, nodeBlockName(node.Right))
	}

	b.SetInsertPointAtEnd(block)

	var comp llvm.Value
	if node.Type.Categorical {
		bitsetBlock := llvm.AddBasicBlock(fn, nodeBlockName(node)+"_cat_bitset_comp")
		genCategoricalRangeCheck(b, fn, node, bitsetBlock, rightBlock)
		b.SetInsertPointAtEnd(bitsetBlock)
		comp = genCategoricalBitsetCheck(b, fn, node)
	} else {
		comp = genNumericalComparison(b, fn, node)
	}

	if fusedDoubleLeaf {
		left := node.Left.(*LeafNode)
		right := node.Right.(*LeafNode)
		ret := b.CreateSelect(comp, dconst(left.Value), dconst(right.Value), "")
		b.CreateRet(ret)
	} else {
		b.CreateCondBr(comp, leftBlock, rightBlock)
	}

	if !leftBlock.IsNil() {
		if err := genNode(b, fn, leftBlock, node.Left, visited); err != nil {
			return err
		}
	}
	if !rightBlock.IsNil() {
		if err := genNode(b, fn, rightBlock, node.Right, visited); err != nil {
			return err
		}
	}
	return nil
}

// genNumericalComparison implements LightGBM's missing-value routing
// case table exactly. Returns true ("left") per that table.
func genNumericalComparison(b llvm.Builder, fn llvm.Value, node *DecisionNode) llvm.Value {
	val := fn.Param(node.SplitFeature)
	thresh := dconst(node.Threshold)
	mt := node.Type.MissingType

	defaultLeft := node.Type.DefaultLeft
	if mt == MNone {
		// NaN is treated as the literal 0.0 under MNone: reroute so
		// NaN lands wherever 0.0 would.
		defaultLeft = 0.0 <= node.Threshold
	}

	if defaultLeft {
		if mt != MZero || (mt == MZero && 0.0 <= node.Threshold) {
			// Unordered <=: NaN compares true, so NaN goes left.
			return b.CreateFCmp(llvm.FloatULE, val, thresh, "")
		}
		isMissing := b.CreateFCmp(llvm.FloatUEQ, val, dconst(0.0), "")
		lessEq := b.CreateFCmp(llvm.FloatULE, val, thresh, "")
		return b.CreateOr(isMissing, lessEq, "")
	}

	if mt != MZero || (mt == MZero && node.Threshold < 0.0) {
		// Ordered <=: NaN compares false, so NaN goes right.
		return b.CreateFCmp(llvm.FloatOLE, val, thresh, "")
	}
	isMissing := b.CreateFCmp(llvm.FloatUEQ, val, dconst(0.0), "")
	greater := b.CreateFCmp(llvm.FloatOGT, val, thresh, "")
	return b.CreateNot(b.CreateOr(isMissing, greater, ""), "")
}

// genCategoricalRangeCheck emits the node block's unsigned range check
// and branches to bitsetBlock or rightBlock. Using an unsigned compare
// is what sends fptosi(NaN) == INT_MIN to the right branch.
func genCategoricalRangeCheck(b llvm.Builder, fn llvm.Value, node *DecisionNode, bitsetBlock, rightBlock llvm.BasicBlock) {
	val := fn.Param(node.SplitFeature)
	limit := iconst(int64(32 * len(node.CatThreshold)))
	comp := b.CreateICmp(llvm.IntULT, val, limit, "")
	b.CreateCondBr(comp, bitsetBlock, rightBlock)
}

// genCategoricalBitsetCheck emits the bitset-compare block's membership
// test: word = cat_threshold[v/32]; bit = (word >> (v%32)) & 1.
func genCategoricalBitsetCheck(b llvm.Builder, fn llvm.Value, node *DecisionNode) llvm.Value {
	val := fn.Param(node.SplitFeature)

	words := make([]llvm.Value, len(node.CatThreshold))
	for i, w := range node.CatThreshold {
		words[i] = llvm.ConstInt(i32Type, uint64(w), false)
	}
	bitsetVec := llvm.ConstVector(words, false)

	idx := b.CreateUDiv(val, iconst(32), "")
	shift := b.CreateURem(val, iconst(32), "")
	word := b.CreateExtractElement(bitsetVec, idx, "")
	bit := b.CreateLShr(word, shift, "")
	return b.CreateTrunc(bit, boolType, "")
}

func treeFuncName(idx int) string {
	return "tree_" + strconv.Itoa(idx)
}

func nodeBlockName(n Node) string {
	switch v := n.(type) {
	case *DecisionNode:
		return "node_" + strconv.Itoa(v.Idx)
	case *LeafNode:
		return "leaf_" + strconv.Itoa(v.Idx)
	default:
		return "node"
	}
}
