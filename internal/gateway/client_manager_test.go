package gateway

import (
	"testing"

	"mcp-gateway/internal/gwerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientManagerGetClientNotFound(t *testing.T) {
	m := NewClientManager()

	_, err := m.GetClient("docs", "session-a")
	require.Error(t, err)
	var notFound *gwerrors.NotFound
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "server", notFound.What)
	assert.Equal(t, "docs", notFound.Name)
}

func TestClientManagerGetClientsBySessionEmpty(t *testing.T) {
	m := NewClientManager()
	assert.Empty(t, m.GetClientsBySession("session-a"))
}

func TestClientManagerGetFailedServersEmpty(t *testing.T) {
	m := NewClientManager()
	assert.Empty(t, m.GetFailedServers("session-a"))
}

func TestClientManagerCloseSessionOnEmptyManagerIsNoop(t *testing.T) {
	m := NewClientManager()
	assert.NotPanics(t, func() { m.CloseSession("session-a") })
}

func TestClientManagerCloseOnEmptyManagerIsNoop(t *testing.T) {
	m := NewClientManager()
	assert.NotPanics(t, func() { m.Close() })
}

func TestClientManagerSetCallbacksDoNotPanicWithoutClients(t *testing.T) {
	m := NewClientManager()
	m.SetOnResourceListChanged(func(serverName string, sessionID SessionID) {})
	m.SetOnPromptListChanged(func(serverName string, sessionID SessionID) {})
}
