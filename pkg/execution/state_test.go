package execution

import (
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(Idle, Connecting))
	assert.True(t, CanTransition(Running, Completed))
	assert.True(t, CanTransition(Failed, Idle))
	assert.False(t, CanTransition(Idle, Running))
	assert.False(t, CanTransition(Completed, Running))
	assert.False(t, CanTransition(Failed, Connecting))
	assert.Equal(t, "running", Running.String())
	assert.True(t, Failed.Terminal())
	assert.False(t, Running.Terminal())
}

func TestClassify(t *testing.T) {
	f := false
	tests := []struct {
		msg     Message
		kind    domain.ConsoleKind
		text    string
		outcome Outcome
	}{
		{Message{Type: TypeInfo, Message: "hello"}, domain.ConsoleInfo, "hello", Ongoing},
		{Message{Type: TypeNodeStart, NodeID: "n1"}, domain.ConsoleInfo, "[n1] started", Ongoing},
		{Message{Type: TypeNodeComplete, NodeID: "n1", Message: "200 OK"}, domain.ConsoleInfo, "[n1] 200 OK", Ongoing},
		{Message{Type: TypeChunk, Content: "tok"}, domain.ConsoleChunk, "tok", Ongoing},
		{Message{Type: TypeNodeError, NodeID: "n2", Error: "bad"}, domain.ConsoleError, "[n2] bad", Ongoing},
		{Message{Type: TypeError, Message: "fatal"}, domain.ConsoleError, "fatal", Aborted},
		{Message{Type: TypeComplete}, domain.ConsoleInfo, "execution completed", Succeeded},
		{Message{Type: TypeComplete, Success: &f}, domain.ConsoleError, "execution failed", Aborted},
		{Message{Type: "progress", Message: "50%"}, domain.ConsoleInfo, "50%", Ongoing},
	}
	for _, tt := range tests {
		kind, text, outcome := Classify(tt.msg)
		assert.Equal(t, tt.kind, kind, tt.msg.Type)
		assert.Equal(t, tt.text, text, tt.msg.Type)
		assert.Equal(t, tt.outcome, outcome, tt.msg.Type)
	}
}

func TestDecode(t *testing.T) {
	m, err := Decode([]byte(`{"type":"complete","success":true}`))
	require.NoError(t, err)
	require.NotNil(t, m.Success)
	assert.True(t, *m.Success)

	_, err = Decode([]byte(`{}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`nope`))
	assert.Error(t, err)
}
