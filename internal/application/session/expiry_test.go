package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/application/session"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/external/api"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/messaging"
	"github.com/edfisica/pe-assessment-hub/pkg/logger"
)

// navigator records where the session events send the user.
type navigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *navigator) handle(e shared.Event) error {
	if ended, ok := e.(shared.SessionEndedEvent); ok {
		n.mu.Lock()
		n.routes = append(n.routes, ended.RedirectTo)
		n.mu.Unlock()
	}
	return nil
}

func (n *navigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

func TestUnauthorizedResponseClearsSessionAndRedirects(t *testing.T) {
	ctx := context.Background()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token inválido"}`))
	}))
	defer srv.Close()

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{Logger: logger.Discard()})
	defer bus.Close()
	nav := &navigator{}
	require.NoError(t, bus.Subscribe(shared.EventSessionExpired, nav.handle))

	store := session.NewMemoryStore()
	require.NoError(t, store.Set(ctx, session.KeyToken, "stale-token"))
	require.NoError(t, store.Set(ctx, session.KeyUser, `{"id":"u1","email":"ana@escola.br","role":"professor"}`))

	mgr := session.NewManager(session.Config{Store: store, Publisher: bus, Logger: logger.Discard()})
	require.NoError(t, mgr.Load(ctx))
	require.True(t, mgr.IsAuthenticated())

	client := api.NewClient(api.ClientConfig{BaseURL: srv.URL, Logger: logger.Discard()})
	client.AttachSession(mgr)

	_, err := client.Students().List(ctx, student.ListFilter{})

	// The redirect already happened when the call returned.
	assert.Equal(t, []string{shared.LoginRoute}, nav.visited())
	assert.True(t, shared.IsSessionExpired(err))
	assert.Equal(t, "Token inválido", shared.UserMessage(err, "erro"))
	assert.Equal(t, "Bearer stale-token", gotAuth)

	assert.False(t, mgr.IsAuthenticated())
	assert.Empty(t, mgr.Token())
	assert.Zero(t, store.Len())

	// A fresh manager over the same store starts logged out.
	fresh := session.NewManager(session.Config{Store: store, Logger: logger.Discard()})
	require.NoError(t, fresh.Load(ctx))
	assert.False(t, fresh.IsAuthenticated())
}
