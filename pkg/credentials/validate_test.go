package credentials

import (
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       domain.CreateCredentialRequest
		wantField string
	}{
		{
			name: "api key ok",
			req:  domain.CreateCredentialRequest{Name: "k", Type: domain.CredentialAPIKey, Data: map[string]any{"key_name": "X-Key", "key_value": "v"}},
		},
		{
			name:      "api key missing name field",
			req:       domain.CreateCredentialRequest{Name: "k", Type: domain.CredentialAPIKey, Data: map[string]any{"key_value": "v"}},
			wantField: "key_name",
		},
		{
			name: "bearer ok",
			req:  domain.CreateCredentialRequest{Name: "b", Type: domain.CredentialBearer, Data: map[string]any{"token": "t"}},
		},
		{
			name:      "bearer blank token",
			req:       domain.CreateCredentialRequest{Name: "b", Type: domain.CredentialBearer, Data: map[string]any{"token": "   "}},
			wantField: "token",
		},
		{
			name:      "basic auth missing password",
			req:       domain.CreateCredentialRequest{Name: "b", Type: domain.CredentialBasicAuth, Data: map[string]any{"username": "u"}},
			wantField: "password",
		},
		{
			name: "oauth2 ok",
			req:  domain.CreateCredentialRequest{Name: "o", Type: domain.CredentialOAuth2, Data: map[string]any{"access_token": "a"}},
		},
		{
			name:      "oauth2 missing access token",
			req:       domain.CreateCredentialRequest{Name: "o", Type: domain.CredentialOAuth2, Data: map[string]any{"refresh_token": "r"}},
			wantField: "access_token",
		},
		{
			name:      "oauth2 bad token url",
			req:       domain.CreateCredentialRequest{Name: "o", Type: domain.CredentialOAuth2, Data: map[string]any{"access_token": "a", "token_url": "nope"}},
			wantField: "token_url",
		},
		{
			name: "header ok",
			req:  domain.CreateCredentialRequest{Name: "h", Type: domain.CredentialHeader, Data: map[string]any{"headers": map[string]any{"X-Token": "v"}}},
		},
		{
			name:      "header empty",
			req:       domain.CreateCredentialRequest{Name: "h", Type: domain.CredentialHeader, Data: map[string]any{"headers": map[string]any{}}},
			wantField: "headers",
		},
		{
			name:      "header missing",
			req:       domain.CreateCredentialRequest{Name: "h", Type: domain.CredentialHeader, Data: map[string]any{}},
			wantField: "headers",
		},
		{
			name:      "name required",
			req:       domain.CreateCredentialRequest{Name: " ", Type: domain.CredentialBearer, Data: map[string]any{"token": "t"}},
			wantField: "name",
		},
		{
			name:      "unknown type",
			req:       domain.CreateCredentialRequest{Name: "x", Type: "ssh", Data: map[string]any{}},
			wantField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.NotEmpty(t, ve.Reason)
		})
	}
}

func TestRequiredFields(t *testing.T) {
	for _, ct := range domain.CredentialTypes {
		assert.NotEmpty(t, RequiredFields(ct), ct)
	}
	assert.Nil(t, RequiredFields("ssh"))
}

func TestRedact(t *testing.T) {
	out := Redact(map[string]any{
		"token":   "sk-live-1234567890",
		"short":   "abc",
		"headers": map[string]string{"X-Key": "abcdefghijkl"},
		"port":    5432,
	})
	assert.Equal(t, "****7890", out["token"])
	assert.Equal(t, "***", out["short"])
	assert.Equal(t, map[string]any{"X-Key": "****ijkl"}, out["headers"])
	assert.Equal(t, "****", out["port"])
}
