package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

const (
	studentID = "64a1f0c2e4b0a1b2c3d4e501"
	classID   = "64a1f0c2e4b0a1b2c3d4ea01"
)

type fakeSession struct {
	mu       sync.Mutex
	token    string
	triggers []string
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) Expire(_ context.Context, trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.triggers = append(s.triggers, trigger)
}

func (s *fakeSession) expirations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

type countingObserver struct {
	calls atomic.Int32
}

func (o *countingObserver) ObserveRequest(string, string, int, time.Duration) {
	o.calls.Add(1)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeSession) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(DefaultClientConfig(srv.URL))
	session := &fakeSession{token: "tok-123"}
	client.AttachSession(session)
	return client, session
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_SendsBearerTokenAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, `[]`)
	})

	_, err := client.Classes().List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	_, err = uuid.Parse(gotRequestID)
	assert.NoError(t, err)
}

func TestClient_NoTokenNoAuthorizationHeader(t *testing.T) {
	var hasAuth bool
	client, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		writeJSON(w, http.StatusOK, `{"token":"t","user":{"_id":"u1","email":"a@b.com","role":"professor"}}`)
	})
	session.token = ""

	res, err := client.Auth().Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	assert.False(t, hasAuth)
	assert.Equal(t, "t", res.Token)
	assert.Equal(t, "u1", res.User.ID)
}

func TestClient_UnwrapsEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `{"_id":"` + classID + `","name":"5º A","grade":"5º Ano","students":["` + studentID + `"]}`},
		{"data", `{"data":{"_id":"` + classID + `","name":"5º A","grade":"5º Ano","students":["` + studentID + `"]}}`},
		{"class", `{"message":"ok","class":{"_id":"` + classID + `","name":"5º A","grade":"5º Ano","students":[{"_id":"` + studentID + `","name":"Ana"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			c, err := client.Classes().GetByID(context.Background(), classID)
			require.NoError(t, err)

			assert.Equal(t, classID, c.ID)
			assert.Equal(t, shared.Grade5, c.Grade)
			assert.Equal(t, []string{studentID}, c.StudentIDs)
		})
	}
}

func TestEvaluations_ClassFieldIsNotAnEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"_id": "e1",
			"student": {"_id": "`+studentID+`", "name": "Ana"},
			"class": {"_id": "`+classID+`", "name": "5º A"},
			"date": "2024-03-10T12:00:00Z",
			"evaluationData": {"coordination": 4, "balance": null, "agility": 2}
		}`)
	})

	e, err := client.Evaluations().GetByID(context.Background(), "e1")
	require.NoError(t, err)

	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, studentID, e.StudentID)
	assert.Equal(t, classID, e.ClassID)
	assert.Equal(t, evaluation.Scores{evaluation.Coordination: 4}, e.Scores)
}

func TestStudents_PopulatedAndPlainClassIDMapEqually(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, classID, r.URL.Query().Get("classId"))
		writeJSON(w, http.StatusOK, `{"data":[
			{"_id":"a","name":"Ana","age":10,"grade":"5º Ano","classId":"`+classID+`"},
			{"id":"b","name":"Bia","age":10,"grade":"5","classId":{"_id":"`+classID+`","name":"5º A"}},
			{"_id":"c","name":"Caio","age":11,"grade":"6º Ano","classId":null}
		]}`)
	})

	students, err := client.Students().List(context.Background(), student.ListFilter{ClassID: classID})
	require.NoError(t, err)
	require.Len(t, students, 3)

	assert.Equal(t, students[0].ClassID, students[1].ClassID)
	assert.Equal(t, shared.Grade5, students[1].Grade)
	assert.False(t, students[2].IsEnrolled())
}

func TestClient_UnauthorizedExpiresSessionOnEveryEndpoint(t *testing.T) {
	var hits atomic.Int32
	client, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusUnauthorized, `{"message":"Token inválido"}`)
	})
	ctx := context.Background()

	calls := map[string]func() error{
		"students.list": func() error { _, err := client.Students().List(ctx, student.ListFilter{}); return err },
		"students.get":  func() error { _, err := client.Students().GetByID(ctx, studentID); return err },
		"students.update": func() error {
			_, err := client.Students().Update(ctx, studentID, student.ObservationsChange("x"))
			return err
		},
		"students.delete": func() error { return client.Students().Delete(ctx, studentID) },
		"classes.list":    func() error { _, err := client.Classes().List(ctx); return err },
		"classes.add":     func() error { _, err := client.Classes().AddStudent(ctx, classID, studentID); return err },
		"classes.remove":  func() error { _, err := client.Classes().RemoveStudent(ctx, classID, studentID); return err },
		"evals.student":   func() error { _, err := client.Evaluations().ListByStudent(ctx, studentID); return err },
		"evals.create": func() error {
			_, err := client.Evaluations().Create(ctx, evaluation.NewDraft(studentID, classID))
			return err
		},
		"progress.class": func() error { _, err := client.Evaluations().ProgressByClass(ctx, classID); return err },
	}

	for name, fn := range calls {
		t.Run(name, func(t *testing.T) {
			before := session.expirations()
			session.mu.Lock()
			session.token = "tok-123"
			session.mu.Unlock()

			err := fn()

			require.Error(t, err)
			assert.True(t, shared.IsSessionExpired(err))
			assert.Equal(t, before+1, session.expirations())
			assert.Empty(t, session.Token())
			assert.Equal(t, "Token inválido", shared.UserMessage(err, "fallback"))
		})
	}
	assert.Equal(t, int32(len(calls)), hits.Load())
}

func TestClient_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, shared.ErrValidation},
		{http.StatusForbidden, shared.ErrForbidden},
		{http.StatusNotFound, shared.ErrNotFound},
		{http.StatusConflict, shared.ErrPolicyViolation},
		{http.StatusServiceUnavailable, shared.ErrServiceUnavailable},
		{http.StatusInternalServerError, shared.ErrExternalService},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, `{"message":"Aluno já está em outra turma","code":"X"}`)
			})

			_, err := client.Classes().AddStudent(context.Background(), classID, studentID)

			assert.ErrorIs(t, err, tt.want)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.NotEmpty(t, apiErr.RequestID)
			assert.Equal(t, "Aluno já está em outra turma", shared.UserMessage(err, "fallback"))
			assert.Zero(t, session.expirations())
		})
	}
}

func TestClient_ErrorWithoutBodyUsesFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Students().Delete(context.Background(), studentID)

	assert.True(t, shared.IsNetwork(err))
	assert.Equal(t, "Erro ao excluir", shared.UserMessage(err, "Erro ao excluir"))
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(DefaultClientConfig(base))
	_, err := client.Classes().List(context.Background())

	assert.ErrorIs(t, err, shared.ErrNetwork)
	assert.False(t, shared.IsSessionExpired(err))
}

func TestClient_CancellationIsPreserved(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Classes().List(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, shared.IsNetwork(err))
}

func TestClient_ValidationRunsBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, `{}`)
	})
	ctx := context.Background()

	_, err := client.Students().Create(ctx, student.Draft{Name: "", Age: 10, Grade: shared.Grade5})
	assert.True(t, shared.IsValidation(err))

	_, err = client.Classes().Create(ctx, classroom.Draft{Name: "A", Grade: shared.Grade5})
	assert.True(t, shared.IsValidation(err))

	draft := evaluation.NewDraft(studentID, classID)
	draft.Scores[evaluation.Speed] = 7
	_, err = client.Evaluations().Create(ctx, draft)
	assert.True(t, shared.IsValidation(err))

	assert.Zero(t, hits.Load())
}

func TestAuth_RejectedCredentialsKeepTheSession(t *testing.T) {
	client, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnauthorized, `{"message":"Credenciais inválidas"}`)
	})
	ctx := context.Background()

	_, loginErr := client.Auth().Login(ctx, "a@b.com", "errada")
	_, registerErr := client.Auth().Register(ctx, Registration{Name: "Ana", Email: "a@b.com", Password: "123456"})

	for _, err := range []error{loginErr, registerErr} {
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		assert.False(t, shared.IsSessionExpired(err))
		assert.Equal(t, "Credenciais inválidas", shared.UserMessage(err, "fallback"))
	}
	assert.Equal(t, 0, session.expirations())
	assert.Equal(t, "tok-123", session.Token())
}

func TestClient_UnauthorizedWithoutTokenDoesNotExpire(t *testing.T) {
	client, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Token ausente"}`)
	})
	session.mu.Lock()
	session.token = ""
	session.mu.Unlock()

	_, err := client.Students().List(context.Background(), student.ListFilter{})

	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.False(t, shared.IsSessionExpired(err))
	assert.Equal(t, 0, session.expirations())
}

func TestAuth_RegisterDefaultsToProfessor(t *testing.T) {
	var got RegisterRequestDTO
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, `{"data":{"token":"t","user":{"id":"u1","name":"Ana","email":"ana@escola.br","role":"professor"}}}`)
	})

	res, err := client.Auth().Register(context.Background(), Registration{
		Name: " Ana ", Email: "ana@escola.br", Password: "123456",
	})
	require.NoError(t, err)

	assert.Equal(t, "professor", got.Role)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, user.RoleProfessor, res.User.Role)
}

func TestAuth_LoginWithoutTokenIsInvalid(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":{"id":"u1"}}`)
	})

	_, err := client.Auth().Login(context.Background(), "a@b.com", "x")

	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestClasses_AddStudentPostsStudentID(t *testing.T) {
	var got AddStudentRequestDTO
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classes/"+classID+"/students", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"class":{"_id":"`+classID+`","students":["`+studentID+`"]}}`)
	})

	c, err := client.Classes().AddStudent(context.Background(), classID, " "+studentID)
	require.NoError(t, err)

	assert.Equal(t, studentID, got.StudentID)
	assert.True(t, c.Has(studentID))
}

func TestEvaluations_ProgressFromServer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/evaluations/progress/student/"+studentID, r.URL.Path)
		writeJSON(w, http.StatusOK, `{"progressData":[
			{"criterion":"speed","average":3.5,"latest":4,"maxValue":4,"minValue":3,
			 "evaluations":[{"date":"2024-05-01T00:00:00Z","value":4},{"date":"2024-03-01T00:00:00Z","value":3}]},
			{"criterion":"agility","average":2,"latest":2,"maxValue":2,"minValue":2,"evaluations":[{"date":"2024-03-01T00:00:00Z","value":2}]},
			{"criterion":"balance","average":2,"latest":2,"maxValue":2,"minValue":2,"evaluations":[{"date":"2024-03-01T00:00:00Z","value":2}]}
		]}`)
	})

	report, err := client.Evaluations().ProgressByStudent(context.Background(), studentID)
	require.NoError(t, err)

	require.Len(t, report.Criteria, 2)
	assert.Equal(t, evaluation.Balance, report.Criteria[0].Criterion)
	assert.Equal(t, evaluation.Speed, report.Criteria[1].Criterion)
	assert.Equal(t, 3.0, report.Criteria[1].Series[0].Value)
	assert.Equal(t, evaluation.ScopeStudent, report.Scope)
}

func TestClient_ObserverSeesEveryRequest(t *testing.T) {
	obs := &countingObserver{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.Observer = obs
	client := NewClient(cfg)

	_, _ = client.Classes().List(context.Background())
	_, _ = client.Students().List(context.Background(), student.ListFilter{})

	assert.Equal(t, int32(2), obs.calls.Load())
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, `[1]`, string(unwrap([]byte(` [1] `), []string{"data"})))
	assert.Equal(t, `{"a":1}`, string(unwrap([]byte(`{"data":{"a":1}}`), []string{"data"})))
	assert.Equal(t, `{"data":null,"x":1}`, string(unwrap([]byte(`{"data":null,"x":1}`), []string{"data"})))
	assert.Equal(t, `{"class":{}}`, string(unwrap([]byte(`{"class":{}}`), nil)))
}
