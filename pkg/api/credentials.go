package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// ListCredentials returns the credentials of the assistant, with redacted data only.
func (c *Client) ListCredentials(ctx context.Context) ([]domain.Credential, error) {
	var out []domain.Credential
	if err := c.getList(ctx, "/credentials", nil, "credentials", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCredential stores a new credential.
func (c *Client) CreateCredential(ctx context.Context, req domain.CreateCredentialRequest) (domain.Credential, error) {
	var out domain.Credential
	if err := c.do(ctx, http.MethodPost, "/credentials", nil, req, &out); err != nil {
		return domain.Credential{}, err
	}
	return out, nil
}

// DeleteCredential removes a credential.
func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/credentials/"+url.PathEscape(id), nil, nil, nil)
}
