package lgbm

import (
	"bufio"
	"strings"
)

// parseForest reads a LightGBM text-format model from a buffered reader
// and assembles it into a Forest ready for BuildModule.
func parseForest(reader *bufio.Reader) (*Forest, error) {
	scanner := bufio.NewScanner(reader)

	h, err := parseHeader(scanner)
	if err != nil {
		return nil, err
	}

	var trees []Tree
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "end of trees") ||
			strings.HasPrefix(line, "feature_names") ||
			strings.HasPrefix(line, "feature_importances") ||
			strings.HasPrefix(line, "feature importances") ||
			strings.HasPrefix(line, "parameters") {
			break
		}

		if strings.HasPrefix(line, "Tree=") {
			classID := 0
			if h.numTreePerIteration > 0 {
				classID = len(trees) % h.numTreePerIteration
			}
			tr, err := parseTree(scanner, len(trees), classID)
			if err != nil {
				return nil, err
			}
			trees = append(trees, tr)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &ModelError{Detail: "failed to read model: " + err.Error()}
	}

	if len(trees) == 0 {
		return nil, &ModelError{Detail: "model has no trees"}
	}

	if h.numTreePerIteration > 0 && len(trees)%h.numTreePerIteration != 0 {
		return nil, &ModelError{Detail: "tree count not a multiple of num_tree_per_iteration"}
	}

	numFeatures := h.maxFeatureIdx + 1
	features := deriveFeatures(trees, numFeatures, h.featureNames)

	for i := range trees {
		trees[i].features = features
	}

	objective := parseObjective(h.objective)

	return &Forest{
		Trees:         trees,
		Features:      features,
		NumClasses:    h.numClass,
		ObjectiveFunc: objective,
		objectiveRaw:  h.objective,
	}, nil
}

// deriveFeatures builds the Forest's Feature list. The text format does
// not carry a dedicated is_categorical-per-column field; whether a
// feature is categorical is instead implied by whether any decision node
// across any tree splits on it categorically.
func deriveFeatures(trees []Tree, numFeatures int, names []string) []Feature {
	features := make([]Feature, numFeatures)
	for i := range features {
		if i < len(names) {
			features[i].Name = names[i]
		}
	}
	for _, t := range trees {
		markCategorical(t.Root, features)
	}
	return features
}

func markCategorical(n Node, features []Feature) {
	dn, ok := n.(*DecisionNode)
	if !ok {
		return
	}
	if dn.Type.Categorical && dn.SplitFeature < len(features) {
		features[dn.SplitFeature].IsCategorical = true
	}
	markCategorical(dn.Left, features)
	markCategorical(dn.Right, features)
}
