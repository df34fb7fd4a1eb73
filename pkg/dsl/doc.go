/*
Package dsl provides a Go DSL for programmatically constructing flows.

It lets a flow be written with a type-checked, fluent builder instead of a JSON or YAML
document. This is useful for generated flows, unit tests and examples.

Example usage:

	b := dsl.New("weather")

	b.Add("start").Start().Label("Start").Go("fetch")

	b.Add("fetch").
		HTTP("GET", "https://api.example.com/weather").
		Header("Accept", "application/json").
		Go("check")

	b.Add("check").
		Conditional("output.status == `200`").
		Then("summarize").
		Else("give_up")

	b.Add("summarize").LLM("openai", "gpt-4o-mini", "Summarize {{output.body}}")
	b.Add("give_up").Transform("{error: 'weather unavailable'}")

	flow, err := b.Build() // graph.Lint errors fail the build
*/
package dsl
