package lgbm

// Feature describes one input column of a Forest. Features are shared
// immutably by every tree: trees reference a feature by index into
// Forest.Features rather than owning their own copy.
type Feature struct {
	// IsCategorical selects the parameter type codegen uses for this
	// feature in every tree_<idx> function signature: i32 when true
	// (the caller casts from the f64 input matrix), f64 otherwise.
	IsCategorical bool

	// Name is the feature's name from the model file, if present.
	Name string
}
