package lgbm

// NFeatures returns the number of input features the forest expects.
func (f *Forest) NFeatures() int {
	return len(f.Features)
}

// NClasses returns the number of output classes. 1 for binary
// classification and regression; codegen rejects anything greater.
func (f *Forest) NClasses() int {
	return f.NumClasses
}

// NTrees returns the total number of trees in the ensemble.
func (f *Forest) NTrees() int {
	return len(f.Trees)
}

// FeatureNames returns a copy of the feature names, in Feature order.
// Entries are empty strings where the model file didn't name that
// column.
func (f *Forest) FeatureNames() []string {
	names := make([]string, len(f.Features))
	for i, feat := range f.Features {
		names[i] = feat.Name
	}
	return names
}
