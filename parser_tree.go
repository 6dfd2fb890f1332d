package lgbm

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// flatTree holds one tree section's raw arrays exactly as the text
// format encodes them, before they're assembled into an owning Node
// tree by buildNode. Kept as an intermediate so the line-by-line
// scanning logic doesn't have to interleave with tree construction.
type flatTree struct {
	numLeaves int

	splitFeatures []int
	thresholds    []float64
	decisionTypes []uint8
	leftChildren  []int
	rightChildren []int
	leafValues    []float64

	catBoundaries []int
	catThresholds []uint32
}

// parseTree scans a single tree section from a LightGBM text-format
// model and assembles it into a Tree with an arena-free owning Node
// root. It assumes the "Tree=N" line has already been consumed by the
// caller.
func parseTree(scanner *bufio.Scanner, idx int, classID int) (Tree, error) {
	ft := flatTree{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		var err error
		switch key {
		case "num_leaves":
			ft.numLeaves, err = strconv.Atoi(value)
			if err != nil {
				return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid num_leaves: %v", err)}
			}

		case "split_feature":
			if value != "" {
				ft.splitFeatures, err = parseInts(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid split_feature: %v", err)}
				}
			}

		case "threshold":
			if value != "" {
				ft.thresholds, err = parseFloat64s(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid threshold: %v", err)}
				}
			}

		case "decision_type":
			if value != "" {
				ft.decisionTypes, err = parseUint8s(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid decision_type: %v", err)}
				}
			}

		case "left_child":
			if value != "" {
				ft.leftChildren, err = parseInts(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid left_child: %v", err)}
				}
			}

		case "right_child":
			if value != "" {
				ft.rightChildren, err = parseInts(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid right_child: %v", err)}
				}
			}

		case "leaf_value":
			if value != "" {
				ft.leafValues, err = parseFloat64s(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid leaf_value: %v", err)}
				}
			}

		case "cat_boundaries":
			if value != "" {
				ft.catBoundaries, err = parseInts(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid cat_boundaries: %v", err)}
				}
			}

		case "cat_threshold":
			if value != "" {
				ft.catThresholds, err = parseUint32s(value)
				if err != nil {
					return Tree{}, &ModelError{Detail: fmt.Sprintf("invalid cat_threshold: %v", err)}
				}
			}

		case "split_gain", "leaf_weight", "leaf_count", "internal_value",
			"internal_weight", "internal_count", "is_linear", "shrinkage", "num_cat":
			// Not needed for scoring.
			continue

		default:
			// Unknown key; ignore for forward compatibility.
			continue
		}
	}

	if len(ft.leafValues) != ft.numLeaves {
		return Tree{}, &ModelError{
			Detail: fmt.Sprintf("leaf_value count mismatch: got %d, expected %d (num_leaves)",
				len(ft.leafValues), ft.numLeaves),
		}
	}
	expectedSplitCount := ft.numLeaves - 1
	if expectedSplitCount < 0 {
		expectedSplitCount = 0
	}
	if len(ft.splitFeatures) != expectedSplitCount {
		return Tree{}, &ModelError{
			Detail: fmt.Sprintf("split_feature count mismatch: got %d, expected %d (num_leaves-1)",
				len(ft.splitFeatures), expectedSplitCount),
		}
	}

	root, err := ft.buildNode(0)
	if err != nil {
		return Tree{}, err
	}

	return Tree{Idx: idx, Root: root, ClassID: classID}, nil
}

// buildNode recursively assembles the owning Node tree from flatTree's
// index-based arrays. A single-leaf tree (no internal nodes) has its
// root at leaf index 0 directly; otherwise decoding follows the text
// format's child-index convention: non-negative indexes an internal
// node, negative indexes a leaf via bitwise complement (idx = ^leafIdx).
func (ft *flatTree) buildNode(idx int) (Node, error) {
	if len(ft.splitFeatures) == 0 {
		if len(ft.leafValues) != 1 {
			return nil, &ModelError{Detail: "tree has no splits but leaf_value count != 1"}
		}
		return &LeafNode{Idx: 0, Value: ft.leafValues[0]}, nil
	}
	return ft.buildInternal(idx)
}

func (ft *flatTree) buildInternal(idx int) (Node, error) {
	if idx < 0 {
		leafIdx := ^idx
		if leafIdx < 0 || leafIdx >= len(ft.leafValues) {
			return nil, &ModelError{Detail: fmt.Sprintf("leaf index %d out of range", leafIdx)}
		}
		return &LeafNode{Idx: leafIdx, Value: ft.leafValues[leafIdx]}, nil
	}
	if idx >= len(ft.splitFeatures) {
		return nil, &ModelError{Detail: fmt.Sprintf("internal node index %d out of range", idx)}
	}

	dt := decodeDecisionType(ft.decisionTypes[idx])
	dn := &DecisionNode{
		Idx:          idx,
		SplitFeature: ft.splitFeatures[idx],
		Type:         dt,
	}

	if dt.Categorical {
		catIdx := int(ft.thresholds[idx])
		if catIdx < 0 || catIdx+1 >= len(ft.catBoundaries) {
			return nil, &ModelError{Detail: fmt.Sprintf("cat_threshold index %d out of range", catIdx)}
		}
		start, end := ft.catBoundaries[catIdx], ft.catBoundaries[catIdx+1]
		if start < 0 || end > len(ft.catThresholds) || start > end {
			return nil, &ModelError{Detail: fmt.Sprintf("cat_boundaries [%d,%d) out of range", start, end)}
		}
		dn.CatThresholdIdx = catIdx
		dn.CatThreshold = ft.catThresholds[start:end]
	} else {
		dn.Threshold = ft.thresholds[idx]
	}

	left, err := ft.buildInternal(ft.leftChildren[idx])
	if err != nil {
		return nil, err
	}
	right, err := ft.buildInternal(ft.rightChildren[idx])
	if err != nil {
		return nil, err
	}
	dn.Left, dn.Right = left, right

	if err := dn.validate(); err != nil {
		return nil, err
	}
	return dn, nil
}

// decodeDecisionType unpacks LightGBM's packed decision_type byte:
// bit 0 is the categorical flag, bit 1 is default_left, bits 2-3 hold
// the missing_type ordinal (0=MNone, 1=MZero, 2=MNaN).
func decodeDecisionType(raw uint8) DecisionType {
	return DecisionType{
		Categorical: raw&1 != 0,
		DefaultLeft: raw&2 != 0,
		MissingType: MissingType((raw >> 2) & 3),
	}
}

// parseInts parses a space-separated string of integers.
func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	result := make([]int, len(fields))
	for i, field := range fields {
		val, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		result[i] = val
	}
	return result, nil
}

// parseFloat64s parses a space-separated string of float64 values.
func parseFloat64s(s string) ([]float64, error) {
	fields := strings.Fields(s)
	result := make([]float64, len(fields))
	for i, field := range fields {
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		result[i] = val
	}
	return result, nil
}

// parseUint32s parses a space-separated string of uint32 values.
func parseUint32s(s string) ([]uint32, error) {
	fields := strings.Fields(s)
	result := make([]uint32, len(fields))
	for i, field := range fields {
		val, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, err
		}
		result[i] = uint32(val)
	}
	return result, nil
}

// parseUint8s parses a space-separated string of uint8 values.
func parseUint8s(s string) ([]uint8, error) {
	fields := strings.Fields(s)
	result := make([]uint8, len(fields))
	for i, field := range fields {
		val, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			return nil, err
		}
		result[i] = uint8(val)
	}
	return result, nil
}
