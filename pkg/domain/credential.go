package domain

import "time"

// CredentialType is the kind of secret a credential holds.
type CredentialType string

const (
	CredentialAPIKey    CredentialType = "api_key"
	CredentialBearer    CredentialType = "bearer"
	CredentialBasicAuth CredentialType = "basic_auth"
	CredentialOAuth2    CredentialType = "oauth2"
	CredentialHeader    CredentialType = "header"
)

// CredentialTypes lists every supported credential type.
var CredentialTypes = []CredentialType{
	CredentialAPIKey,
	CredentialBearer,
	CredentialBasicAuth,
	CredentialOAuth2,
	CredentialHeader,
}

// Credential is a typed secret record.
//
// Data holds the live secret values and only travels towards the backend.
// DataRedacted is the display-safe view computed by the backend; clients never redact themselves.
type Credential struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         CredentialType `json:"type"`
	Data         map[string]any `json:"data,omitempty"`
	DataRedacted map[string]any `json:"data_redacted,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitzero"`
}

// CreateCredentialRequest is the payload of a credential create call.
type CreateCredentialRequest struct {
	Name string         `json:"name"`
	Type CredentialType `json:"type"`
	Data map[string]any `json:"data"`
}
