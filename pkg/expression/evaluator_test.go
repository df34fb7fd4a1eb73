package expression

import (
	"errors"
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_StatusCheck(t *testing.T) {
	doc := map[string]any{"output": map[string]any{"status": 200}}

	res, err := Evaluate("output.status == `200`", doc)
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = Evaluate("output.status == `404`", doc)
	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func TestEvaluate_InvalidExpression(t *testing.T) {
	_, err := Evaluate("output.[", map[string]any{})
	require.Error(t, err)

	var evalErr *domain.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, "output.[", evalErr.Expression)
	assert.Contains(t, evalErr.Message, "syntax error")
}

func TestEvaluate_EmptyExpression(t *testing.T) {
	_, err := Evaluate("  ", map[string]any{})
	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluate_RuntimeError(t *testing.T) {
	// abs() on a string is a type error at evaluation time.
	_, err := Evaluate("abs(name)", map[string]any{"name": "x"})
	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	doc := map[string]any{
		"items": []any{map[string]any{"n": 1}, map[string]any{"n": 2}},
	}
	res, err := Evaluate("items[*].n", doc)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, res)

	// The caller's numbers keep their Go type.
	assert.Equal(t, 1, doc["items"].([]any)[0].(map[string]any)["n"])
}

func TestEvaluate_StructDocument(t *testing.T) {
	type payload struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	res, err := Evaluate("body", payload{Status: 201, Body: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestEvaluate_UnserializableDocument(t *testing.T) {
	_, err := Evaluate("a", map[string]any{"a": make(chan int)})
	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Contains(t, evalErr.Message, "JSON-serializable")
}

func TestEvaluate_OrderingStringsLexically(t *testing.T) {
	doc := map[string]any{"a": "apple", "b": "banana"}

	cases := map[string]bool{
		"a < b":                 true,
		"b < a":                 false,
		"a <= a":                true,
		"a > b":                 false,
		"b >= a":                true,
		"a < 'apples'":          true,
		"(a < b) == `true`":     true,
		"length(a) > `4`":       true,
		"length(a) >= `6`":      false,
		"a < b && b < 'cherry'": true,
	}
	for expr, want := range cases {
		res, err := Evaluate(expr, doc)
		require.NoError(t, err, expr)
		assert.Equal(t, want, res, expr)
	}
}

func TestEvaluate_OrderingNumbers(t *testing.T) {
	doc := map[string]any{"output": map[string]any{"status": 204}}

	ok, err := EvaluateBool("output.status >= `200` && output.status < `300`", doc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateBool("output.status > `204`", doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_OrderingInsideFilter(t *testing.T) {
	doc := map[string]any{"people": []any{
		map[string]any{"name": "alice", "age": 31},
		map[string]any{"name": "carol", "age": 25},
	}}

	res, err := Evaluate("people[?name > 'b'].name", doc)
	require.NoError(t, err)
	assert.Equal(t, []any{"carol"}, res)

	res, err = Evaluate("people[?age > `30`].name", doc)
	require.NoError(t, err)
	assert.Equal(t, []any{"alice"}, res)
}

func TestEvaluate_OrderingTypeMismatch(t *testing.T) {
	doc := map[string]any{"output": map[string]any{"status": 200}, "flag": true}

	for _, expr := range []string{
		"output.status > 'abc'",
		"missing < `1`",
		"flag < `1`",
		"output < output",
	} {
		_, err := Evaluate(expr, doc)
		var evalErr *domain.EvaluationError
		require.ErrorAs(t, err, &evalErr, expr)
		assert.Contains(t, evalErr.Message, "type mismatch", expr)
	}

	_, err := EvaluateBool("output.status > 'abc'", doc)
	assert.Error(t, err)
}

func TestRewriteOrdering(t *testing.T) {
	cases := []struct {
		expr    string
		want    string
		ordered bool
	}{
		{"name == 'x'", "name == 'x'", false},
		{"'a<b'", "'a<b'", false},
		{"`\"<\"`", "`\"<\"`", false},
		{"a < b", "(sort([a, b])[0] == a && a != b)", true},
		{"x.y >= `3`", "(sort([x.y, `3`])[0] == `3`)", true},
		{"[?age > `30`].name", "[?(sort([age, `30`])[0] == `30` && age != `30`)].name", true},
		{"{ok: a <= b}", "{ok: (sort([a, b])[0] == a)}", true},
	}
	for _, tc := range cases {
		got, ordered, err := rewriteOrdering(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.ordered, ordered, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvaluateJSON(t *testing.T) {
	res, err := EvaluateJSON("user.name", []byte(`{"user":{"name":"ada"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ada", res)

	_, err = EvaluateJSON("user", []byte(`{not json`))
	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluateBool(t *testing.T) {
	doc := map[string]any{"list": []any{}, "zero": 0, "name": "x"}

	cases := map[string]bool{
		"list":         false,
		"zero":         true,
		"name":         true,
		"missing":      false,
		"length(list)": true,
		"name == 'x'":  true,
	}
	for expr, want := range cases {
		got, err := EvaluateBool(expr, doc)
		require.NoError(t, err, expr)
		assert.Equal(t, want, got, expr)
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(map[string]any{}))
	assert.True(t, Truthy(0.0))
	assert.True(t, Truthy([]any{nil}))
}

func TestEvaluator_CacheBound(t *testing.T) {
	e := New(WithCacheSize(2))
	for _, expr := range []string{"a", "b", "c", "a"} {
		_, err := e.Evaluate(expr, map[string]any{"a": 1})
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, e.compiled.ItemCount(), 2)

	noCache := New(WithCacheSize(0))
	_, err := noCache.Evaluate("a", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 0, noCache.compiled.ItemCount())
}

func TestCompile(t *testing.T) {
	e := New()
	assert.NoError(t, e.Compile("a.b[0]"))
	assert.Error(t, e.Compile("a.b[0"))
}
