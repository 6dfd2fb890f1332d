package lgbm

import (
	"strconv"
	"strings"

	"tinygo.org/x/go-llvm"
)

// objectiveKind tags which post-transform codegen emits over the
// accumulated tree score. Resolved once by parseObjective so codegen
// never matches on the objective name; the config string (sigmoid
// alpha, "sqrt") is still parsed by lower().
type objectiveKind int

const (
	objBinary     objectiveKind = iota // sigmoid with a parsed alpha
	objXEntropy                        // sigmoid, alpha fixed at 1.0
	objXEntLambda                      // log(1+exp(x))
	objExpOnly                         // exp(x): poisson/gamma/tweedie
	objRegression                      // identity, or copysign(x*x, x) if "sqrt" in config
	objIdentity                        // lambdarank/rank_xendcg/custom: raw score
	objUnknown                         // unrecognized; lower() rejects it
)

// Objective is the resolved, tagged form of a LightGBM model's
// objective_func header field plus its objective_func_config string.
type Objective struct {
	kind   objectiveKind
	name   string // original objective name, for error messages
	config string // raw config substring, kept for alpha/sqrt parsing at lower() time
}

// parseObjective maps the header's raw objective string (e.g.
// "binary sigmoid:1", "regression_l1 sqrt") to a resolved Objective.
// Unlike a runtime interpreter that defaults unknown names to
// regression, this never silently guesses: unrecognized objectives
// resolve to objUnknown, which lower() rejects at codegen time instead.
func parseObjective(raw string) Objective {
	fields := strings.Fields(raw)
	name := ""
	if len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}
	config := strings.TrimSpace(strings.TrimPrefix(raw, name))

	switch name {
	case "binary":
		return Objective{kind: objBinary, name: name, config: config}
	case "xentropy", "cross_entropy":
		return Objective{kind: objXEntropy, name: name, config: config}
	case "xentlambda", "cross_entropy_lambda":
		return Objective{kind: objXEntLambda, name: name, config: config}
	case "poisson", "gamma", "tweedie":
		return Objective{kind: objExpOnly, name: name, config: config}
	case "regression", "regression_l1", "huber", "fair", "quantile", "mape":
		return Objective{kind: objRegression, name: name, config: config}
	case "lambdarank", "rank_xendcg", "custom":
		return Objective{kind: objIdentity, name: name, config: config}
	default:
		return Objective{kind: objUnknown, name: name, config: raw}
	}
}

// lower emits the IR for this objective's post-transform over the
// accumulated scalar x. The three intrinsics are declared lazily via
// declareIntrinsic so a module that never needs e.g. llvm.log.f64
// doesn't get a dead declaration.
func (o Objective) lower(b llvm.Builder, mod llvm.Module, x llvm.Value) (llvm.Value, error) {
	switch o.kind {
	case objBinary:
		alpha, err := sigmoidAlpha(o.config)
		if err != nil {
			return llvm.Value{}, err
		}
		return sigmoidIR(b, mod, x, alpha), nil
	case objXEntropy:
		return sigmoidIR(b, mod, x, 1.0), nil
	case objXEntLambda:
		// naive log(1+exp(x)); numerically unstable for very negative x,
		// a log1p-based form is a permitted improvement.
		expFn := declareIntrinsic(mod, "llvm.exp.f64", f64Type, f64Type)
		logFn := declareIntrinsic(mod, "llvm.log.f64", f64Type, f64Type)
		exp := b.CreateCall(expFn.GlobalValueType(), expFn, []llvm.Value{x}, "")
		sum := b.CreateFAdd(dconst(1.0), exp, "")
		return b.CreateCall(logFn.GlobalValueType(), logFn, []llvm.Value{sum}, ""), nil
	case objExpOnly:
		expFn := declareIntrinsic(mod, "llvm.exp.f64", f64Type, f64Type)
		return b.CreateCall(expFn.GlobalValueType(), expFn, []llvm.Value{x}, ""), nil
	case objRegression:
		if strings.Contains(o.config, "sqrt") {
			copysignFn := declareIntrinsic(mod, "llvm.copysign.f64", f64Type, f64Type, f64Type)
			sq := b.CreateFMul(x, x, "")
			return b.CreateCall(copysignFn.GlobalValueType(), copysignFn, []llvm.Value{sq, x}, ""), nil
		}
		return x, nil
	case objIdentity:
		return x, nil
	default:
		return llvm.Value{}, &CodegenError{Sentinel: ErrUnsupportedObjective,
			Detail: "objective '" + o.name + "' not implemented, " + issueTrackerHint}
	}
}

// sigmoidAlpha extracts and validates the alpha parameter from a
// "sigmoid:<alpha>" config string.
func sigmoidAlpha(config string) (float64, error) {
	parts := strings.SplitN(config, ":", 2)
	if len(parts) != 2 {
		return 0, &CodegenError{Sentinel: ErrInvalidObjectiveConfig,
			Detail: "binary objective requires a \"sigmoid:<alpha>\" config, got " + strconv.Quote(config)}
	}
	alpha, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, &CodegenError{Sentinel: ErrInvalidObjectiveConfig,
			Detail: "invalid sigmoid alpha: " + err.Error()}
	}
	if alpha <= 0 {
		return 0, &CodegenError{Sentinel: ErrInvalidObjectiveConfig,
			Detail: "sigmoid alpha must be > 0, got " + strconv.FormatFloat(alpha, 'g', -1, 64)}
	}
	return alpha, nil
}

// sigmoidIR emits 1 / (1 + exp(-alpha*x)).
func sigmoidIR(b llvm.Builder, mod llvm.Module, x llvm.Value, alpha float64) llvm.Value {
	expFn := declareIntrinsic(mod, "llvm.exp.f64", f64Type, f64Type)
	inner := b.CreateFMul(dconst(-alpha), x, "")
	exp := b.CreateCall(expFn.GlobalValueType(), expFn, []llvm.Value{inner}, "")
	denom := b.CreateFAdd(dconst(1.0), exp, "")
	return b.CreateFDiv(dconst(1.0), denom, "")
}
