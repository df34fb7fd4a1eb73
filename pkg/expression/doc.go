// Package expression evaluates JMESPath expressions against JSON documents.
//
// Evaluation is pure: the document is normalized into the JSON value model
// (objects, arrays, strings, float64 numbers, booleans and null) before it is
// searched, so the caller's value is never mutated or retained. JMESPath has
// no loops or user-defined recursion, which bounds every evaluation.
//
// Ordering comparisons (<, <=, >, >=) compare numbers numerically and strings
// lexically. Any other pair of operands, including a missing field, fails with
// a type mismatch *domain.EvaluationError instead of evaluating to null.
//
// Conditional nodes use EvaluateBool, which applies JMESPath truthiness:
// false, null, "", [] and {} are false; everything else, including 0, is true.
package expression
