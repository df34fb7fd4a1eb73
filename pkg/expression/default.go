package expression

var std = New()

// Evaluate runs expr against doc using the shared Evaluator.
func Evaluate(expr string, doc any) (any, error) {
	return std.Evaluate(expr, doc)
}

// EvaluateJSON runs expr against a raw JSON document using the shared Evaluator.
func EvaluateJSON(expr string, raw []byte) (any, error) {
	return std.EvaluateJSON(expr, raw)
}

// EvaluateBool runs expr against doc using the shared Evaluator and applies truthiness.
func EvaluateBool(expr string, doc any) (bool, error) {
	return std.EvaluateBool(expr, doc)
}
