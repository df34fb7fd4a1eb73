// Package schema describes and checks the configuration shape of each node type.
//
// A Schema maps configuration keys to field types. Fields are required unless wrapped
// with Optional. Keys that are not part of the schema are ignored, so that unknown
// configuration survives a round trip without being consulted.
//
//	s := schema.Schema{
//	    "url":     schema.String(),
//	    "method":  schema.Optional(schema.Enum("GET", "POST")),
//	    "timeout": schema.Optional(schema.Int()),
//	}
//
//	if err := schema.Validate(s, node.Data.Config); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // each e is a *domain.ValidationError
//	    }
//	}
//
// The built-in node schemas are available through ForNodeType and ValidateNode.
package schema
