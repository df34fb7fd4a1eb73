package domain

// Config keys with a meaning outside of a single node type.
const (
	// KeyCredentialID references a stored credential.
	KeyCredentialID = "credential_id"
	// KeyConnectorID references a configured connector.
	KeyConnectorID = "connector_id"
	// KeyHeaders holds outgoing request headers.
	KeyHeaders = "headers"
)

// Edge handles used by conditional nodes.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)
