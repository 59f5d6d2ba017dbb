package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("GET", "/students", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/students", 200, 30*time.Millisecond)
	m.ObserveRequest("POST", "/classes/:id/students", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/students", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/classes/:id/students", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestMetrics_CommandsAndBatches(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("enroll", nil)
	m.ObserveCommand("enroll", shared.ErrEnrolledElsewhere)
	m.ObserveBatch("evaluate_class", 3, 1, 2)
	require.NoError(t, m.SessionExpired(shared.NewSessionExpiredEvent("u1", "GET /students")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("enroll", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("enroll", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchItems.WithLabelValues("evaluate_class", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.batchItems.WithLabelValues("evaluate_class", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionExpired))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveCommand("whoami", nil)
	path := filepath.Join(t.TempDir(), "peassess.prom")

	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `peassess_commands_total{command="whoami",outcome="ok"} 1`)

	assert.NoError(t, m.WriteTextfile(""))
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":              nil,
		"session_expired": shared.NewDomainError("api", "GET", shared.ErrSessionExpired, "Token inválido"),
		"invalid":         shared.ErrInvalidScore,
		"rejected":        shared.ErrAlreadyInClass,
		"not_found":       shared.ErrStudentNotFound,
		"unavailable":     shared.WrapError("api", "GET", shared.ErrNetwork, "falha", errors.New("refused")),
		"error":           errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Outcome(err), want)
	}
}

func TestReportable(t *testing.T) {
	assert.False(t, Reportable(nil))
	assert.False(t, Reportable(context.Canceled))
	assert.False(t, Reportable(shared.ErrNotInClass))
	assert.False(t, Reportable(shared.ErrNotAuthenticated))
	assert.False(t, Reportable(shared.ErrRoleRequired))
	assert.True(t, Reportable(shared.WrapError("api", "GET", shared.ErrExternalService, "erro", errors.New("500"))))
	assert.True(t, Reportable(errors.New("boom")))
}

func TestInitSentry_EmptyDSNIsNoop(t *testing.T) {
	flush, err := InitSentry("", "test", "dev")
	require.NoError(t, err)
	flush()
	CaptureErr(errors.New("not sent"), "whoami")
}
