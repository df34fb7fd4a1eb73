package ports

import (
	"context"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// FlowRepository persists one flow per assistant.
type FlowRepository interface {
	// SaveFlow replaces the saved flow of the assistant.
	SaveFlow(ctx context.Context, assistantID string, flow domain.SavedFlow) error

	// GetFlow returns the saved flow.
	// Returns domain.ErrNotFound if the assistant has never saved one.
	GetFlow(ctx context.Context, assistantID string) (domain.SavedFlow, error)

	// ListAssistants returns the assistants with a saved flow.
	ListAssistants(ctx context.Context) ([]string, error)
}

// CredentialRepository stores credentials with their live data.
type CredentialRepository interface {
	// CreateCredential stores cred, assigning its ID and CreatedAt when empty.
	CreateCredential(ctx context.Context, assistantID string, cred domain.Credential) (domain.Credential, error)

	// ListCredentials returns the credentials of the assistant, oldest first.
	ListCredentials(ctx context.Context, assistantID string) ([]domain.Credential, error)

	// DeleteCredential removes a credential by id.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteCredential(ctx context.Context, id string) error
}

// ComponentQuery filters a component listing.
type ComponentQuery struct {
	NodeType domain.NodeType
	Limit    int
}

// ComponentRepository stores library components.
type ComponentRepository interface {
	// CreateComponent stores comp, assigning its ComponentID and CreatedAt when empty.
	CreateComponent(ctx context.Context, assistantID string, comp domain.Component) (domain.Component, error)

	// ListComponents returns the assistant's own components and every public one, newest first.
	ListComponents(ctx context.Context, assistantID string, q ComponentQuery) ([]domain.Component, error)

	// DeleteComponent removes a component owned by the assistant.
	// Returns domain.ErrNotFound if the assistant owns no such component.
	DeleteComponent(ctx context.Context, assistantID, id string) error
}

// TriggerRepository stores schedules and trigger logs.
type TriggerRepository interface {
	CreateSchedule(ctx context.Context, assistantID string, s domain.Schedule) (domain.Schedule, error)
	ListSchedules(ctx context.Context, assistantID string) ([]domain.Schedule, error)
	// DeleteSchedule returns domain.ErrNotFound if the schedule does not exist.
	DeleteSchedule(ctx context.Context, assistantID, id string) error

	AppendLog(ctx context.Context, assistantID string, log domain.TriggerLog) error
	// Logs returns at most limit entries, newest first. limit <= 0 means all.
	Logs(ctx context.Context, assistantID string, limit int) ([]domain.TriggerLog, error)
}

// Repository is everything the dev backend persists.
type Repository interface {
	FlowRepository
	CredentialRepository
	ComponentRepository
	TriggerRepository
}
