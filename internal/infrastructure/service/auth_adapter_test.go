package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/application/session"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/external/api"
	"github.com/edfisica/pe-assessment-hub/pkg/logger"
)

func TestAuthAdapter_RegisterSendsRoleAndMapsUser(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t1","user":{"_id":"u1","name":"Rita","email":"rita@escola.br","role":"coordenador"}}`))
	}))
	defer srv.Close()

	adapter := NewAuthAdapter(api.NewClient(api.ClientConfig{BaseURL: srv.URL, Logger: logger.Discard()}))
	creds, err := adapter.Register(context.Background(), session.Registration{
		Name: "Rita", Email: "rita@escola.br", Password: "segredo", Role: user.RoleCoordinator,
	})
	require.NoError(t, err)

	assert.Equal(t, "coordenador", body["role"])
	assert.Equal(t, "t1", creds.Token)
	assert.Equal(t, "u1", creds.User.ID)
	assert.Equal(t, user.RoleCoordinator, creds.User.Role)
}
