// Package lgbm compiles trained LightGBM-style GBDT forests into native
// machine code via LLVM IR, and loads the text-format models that feed it.
package lgbm

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by model loading and codegen functions.
var (
	// ErrUnsupportedVersion indicates the model file uses a LightGBM
	// version that this library does not support (only v3 and v4).
	ErrUnsupportedVersion = errors.New("lgbm: unsupported LightGBM version")

	// ErrInvalidModel indicates the model file is malformed, truncated,
	// or missing required fields.
	ErrInvalidModel = errors.New("lgbm: invalid model")

	// ErrFeatureCountMismatch indicates the feature vector length does
	// not match the model's expected feature count.
	ErrFeatureCountMismatch = errors.New("lgbm: feature count mismatch")

	// ErrMulticlassNotSupported indicates codegen was asked to compile a
	// forest with more than one class; multiclass forests are outside
	// this engine's scope.
	ErrMulticlassNotSupported = errors.New("lgbm: codegen not supported for multiclass forests")

	// ErrMalformedForest indicates the AST passed to codegen violates
	// one of its invariants: a decision node missing a child, or a
	// categorical node missing its bitset.
	ErrMalformedForest = errors.New("lgbm: malformed forest")

	// ErrUnsupportedObjective indicates the forest's objective function
	// is not one codegen knows how to lower.
	ErrUnsupportedObjective = errors.New("lgbm: objective not implemented")

	// ErrInvalidObjectiveConfig indicates the objective's parameter
	// (e.g. sigmoid alpha) failed validation.
	ErrInvalidObjectiveConfig = errors.New("lgbm: invalid objective config")

	// ErrTreeTooDeep indicates a tree's node count during codegen
	// traversal exceeded maxTreeDepth, the recursion-depth guard.
	ErrTreeTooDeep = errors.New("lgbm: tree exceeds max codegen depth")
)

// issueTrackerHint is appended to unsupported-construct errors, matching
// lleaves' ISSUE_ERROR_MSG convention of pointing users at a place to
// follow up rather than silently degrading.
const issueTrackerHint = "file an issue at https://github.com/zhongdai/lgbm-jit/issues if you need this supported"

// VersionError wraps ErrUnsupportedVersion with the detected version string.
type VersionError struct {
	Version string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%v: %q (only v3 and v4 are supported)", ErrUnsupportedVersion, e.Version)
}

func (e *VersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// ModelError wraps ErrInvalidModel with a descriptive message.
type ModelError struct {
	Detail string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidModel, e.Detail)
}

func (e *ModelError) Unwrap() error {
	return ErrInvalidModel
}

// CodegenError wraps a codegen-time sentinel with the node/tree context
// that triggered it.
type CodegenError struct {
	Sentinel error
	Detail   string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("%v: %s", e.Sentinel, e.Detail)
}

func (e *CodegenError) Unwrap() error {
	return e.Sentinel
}
