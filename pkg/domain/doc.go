/*
Package domain contains the core models of the flow editor.

It defines the workflow graph (Flow, Node, Edge), the execution console log (ConsoleLine),
the shared library records (Component, Credential) and the error taxonomy used across the
module. The package is pure: no I/O, no persistence, no transport.

# Key Entities

  - Node: A typed step in a flow. Its configuration is a tagged union selected by Node.Type.
  - Edge: A directed link between two nodes of the same flow.
  - Flow: A named graph with an optional explicit entry node.
  - ConsoleLine: One ordered entry of the execution log.
  - Component: A reusable node configuration, optionally public.
  - Credential: A typed secret record referenced by nodes that need authentication.
*/
package domain
