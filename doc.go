/*
Package flowstudio is the client core of a visual workflow builder.

A workflow is a graph of typed nodes (triggers, HTTP calls, LLM prompts, transforms,
conditionals, ...) connected by edges. Flowstudio keeps the graph being edited in an
explicit store, persists it through a REST backend, streams runs over WebSocket into a
console, tests JMESPath expressions, sanitizes components before they are published, and
keeps a cached view of stored credentials.

# Concept

A Session owns everything an editor needs: the graph.Store holding the current flow, a
graph.Syncer debouncing proposals from a canvas, the api.Client talking to the backend, the
credential registry and the component library. Runs are driven by an execution.Controller
created from the session, which writes console lines back into the same store.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/flowstudio"
	)

	func main() {
		ctx := context.Background()

		sess, err := flowstudio.NewSession("http://localhost:8000", flowstudio.WithAssistantID("a1"))
		if err != nil {
			log.Fatal(err)
		}
		defer sess.Close()

		// Load the saved flow of the assistant
		if err := sess.Open(ctx); err != nil {
			log.Fatal(err)
		}

		// Run it and print the console once the run ends
		run := sess.NewRun()
		if err := run.Connect(ctx); err != nil {
			log.Fatal(err)
		}
		if err := run.Start(ctx, map[string]any{"city": "Lisbon"}); err != nil {
			log.Fatal(err)
		}
		<-run.Done()

		for _, line := range sess.Store.Console() {
			fmt.Println(line.Text)
		}
	}

The dev backend (pkg/adapters/http, started with `flowstudio serve`) implements the REST
and WebSocket surface with a dry-run executor, so the whole loop works offline.
*/
package flowstudio
